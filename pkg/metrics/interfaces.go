package metrics

import (
	"time"

	"github.com/mfreeman451/iotdash/pkg/models"
)

// FetchStore holds the recent fetch history of one endpoint.
type FetchStore interface {
	Add(p models.FetchPoint)
	GetPoints() []models.FetchPoint
	GetLastPoint() *models.FetchPoint
}

// FetchRecorder is what the API client reports each upstream call to.
type FetchRecorder interface {
	RecordFetch(endpoint string, started time.Time, attempts int, err error)
	RecordRetry(endpoint string)
}
