// Package models pkg/models/metrics.go
package models

import "time"

// FetchPoint records one upstream API call as seen by the dashboard.
type FetchPoint struct {
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Endpoint  string        `json:"endpoint"`
	Attempts  int           `json:"attempts"`
	Err       string        `json:"error,omitempty"`
}

// OK reports whether the call eventually succeeded.
func (p FetchPoint) OK() bool {
	return p.Err == ""
}

type MetricsConfig struct {
	Enabled   bool `koanf:"enabled" json:"enabled"`
	Retention int  `koanf:"retention" json:"retention"`
}
