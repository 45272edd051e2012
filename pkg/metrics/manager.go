package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mfreeman451/iotdash/pkg/models"
)

// Manager keeps per-endpoint fetch history and feeds the Prometheus collectors.
type Manager struct {
	endpoints       sync.Map // endpoint -> FetchStore
	config          models.MetricsConfig
	activeEndpoints int64
	prom            *Collectors
	now             func() time.Time
}

var _ FetchRecorder = (*Manager)(nil)

func NewManager(cfg models.MetricsConfig, prom *Collectors) *Manager {
	if prom == nil {
		prom = NewCollectors()
	}

	return &Manager{
		config: cfg,
		prom:   prom,
		now:    time.Now,
	}
}

// RecordFetch stores one finished upstream call.
func (m *Manager) RecordFetch(endpoint string, started time.Time, attempts int, err error) {
	elapsed := m.now().Sub(started)
	m.prom.observeFetch(endpoint, elapsed, err)

	if !m.config.Enabled {
		return
	}

	store, loaded := m.endpoints.LoadOrStore(endpoint, NewBuffer(m.config.Retention))
	if !loaded {
		atomic.AddInt64(&m.activeEndpoints, 1)
	}

	p := models.FetchPoint{
		Timestamp: started,
		Duration:  elapsed,
		Endpoint:  endpoint,
		Attempts:  attempts,
	}
	if err != nil {
		p.Err = err.Error()
	}

	store.(FetchStore).Add(p)
}

func (m *Manager) RecordRetry(endpoint string) {
	m.prom.retries.WithLabelValues(endpoint).Inc()
}

// GetPoints returns the history for one endpoint, newest first.
func (m *Manager) GetPoints(endpoint string) []models.FetchPoint {
	store, ok := m.endpoints.Load(endpoint)
	if !ok {
		return nil
	}

	return store.(FetchStore).GetPoints()
}

// Snapshot returns the history of every endpoint seen so far.
func (m *Manager) Snapshot() map[string][]models.FetchPoint {
	out := make(map[string][]models.FetchPoint)

	for _, endpoint := range m.Endpoints() {
		out[endpoint] = m.GetPoints(endpoint)
	}

	return out
}

// Endpoints returns the recorded endpoint names in sorted order.
func (m *Manager) Endpoints() []string {
	var names []string

	m.endpoints.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})

	sort.Strings(names)

	return names
}

func (m *Manager) GetActiveEndpoints() int64 {
	return atomic.LoadInt64(&m.activeEndpoints)
}

func (m *Manager) Collectors() *Collectors {
	return m.prom
}
