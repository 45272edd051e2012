package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mfreeman451/iotdash/pkg/apiclient"
	"github.com/mfreeman451/iotdash/pkg/logger"
	"github.com/mfreeman451/iotdash/pkg/models"
)

// Dashboard shows per-device analytics and health plus the selected device's detail.
type Dashboard struct {
	client apiclient.Client
	log    logger.Logger
	life   effect

	mu               sync.RWMutex
	analytics        models.Analytics
	health           models.HealthMap
	analyticsPending int
	healthPending    int
	detail           *models.DeviceDetail
}

func NewDashboard(client apiclient.Client, log logger.Logger) *Dashboard {
	if log == nil {
		log = logger.Nop()
	}

	return &Dashboard{
		client: client,
		log:    log.Named("dashboard"),
	}
}

// Mount starts the analytics and health fetches. Mounting twice is a no-op.
func (d *Dashboard) Mount(ctx context.Context) {
	if !d.life.attach(ctx) {
		return
	}

	d.fetch()
}

// Refresh re-runs both fetches on a mounted dashboard.
func (d *Dashboard) Refresh() error {
	if !d.life.mounted() {
		return ErrNotMounted
	}

	d.fetch()

	return nil
}

// fetch starts both requests; each section settles on its own.
func (d *Dashboard) fetch() {
	d.mu.Lock()
	d.analyticsPending++
	d.healthPending++
	d.mu.Unlock()

	if !d.life.spawn(d.loadAnalytics) {
		d.settle(&d.analyticsPending)
	}

	if !d.life.spawn(d.loadHealth) {
		d.settle(&d.healthPending)
	}
}

func (d *Dashboard) settle(counter *int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	*counter--
}

func (d *Dashboard) loadAnalytics(ctx context.Context) {
	analytics, err := d.client.GetAnalytics(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.analyticsPending--

	if err != nil {
		logFetchError(ctx, d.log, apiclient.EndpointAnalytics, err)
		return
	}

	d.analytics = analytics
}

func (d *Dashboard) loadHealth(ctx context.Context) {
	health, err := d.client.GetHealth(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.healthPending--

	if err != nil {
		logFetchError(ctx, d.log, apiclient.EndpointMonitor, err)
		return
	}

	d.health = health
}

// SetDetail replaces the detail payload handed down by App.
func (d *Dashboard) SetDetail(detail *models.DeviceDetail) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.detail = detail.Clone()
}

// Loading stays true until both fetches have settled.
func (d *Dashboard) Loading() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.analyticsPending > 0 || d.healthPending > 0
}

// Snapshot copies the current state for rendering.
func (d *Dashboard) Snapshot() DashboardView {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return DashboardView{
		Loading:        d.analyticsPending > 0 || d.healthPending > 0,
		AnalyticsLines: AnalyticsLines(d.analytics),
		HealthLines:    HealthLines(d.health),
		Detail:         d.detail.Clone(),
	}
}

// Wait blocks until in-flight fetches settle.
func (d *Dashboard) Wait(ctx context.Context) error {
	return d.life.wait(ctx)
}

// Close unmounts the dashboard and cancels pending fetches.
func (d *Dashboard) Close() {
	d.life.detach()
}

// AnalyticsLines renders "<id>: <count> updates", sorted by device id.
func AnalyticsLines(analytics models.Analytics) []string {
	lines := make([]string, 0, len(analytics))

	for _, id := range sortedKeys(analytics) {
		lines = append(lines, fmt.Sprintf("%s: %d updates", id, analytics[id]))
	}

	return lines
}

// HealthLines renders "<id>: Online|Offline (Last update: <ts>)", sorted by device id.
func HealthLines(health models.HealthMap) []string {
	lines := make([]string, 0, len(health))

	for _, id := range sortedKeys(health) {
		h := health[id]

		state := "Offline"
		if h.IsOnline {
			state = "Online"
		}

		lines = append(lines, fmt.Sprintf("%s: %s (Last update: %s)", id, state, h.LastUpdate))
	}

	return lines
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
