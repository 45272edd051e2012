package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mfreeman451/iotdash/pkg/apiclient"
	"github.com/mfreeman451/iotdash/pkg/logger"
	"github.com/mfreeman451/iotdash/pkg/models"
)

// DeviceList shows the device collection as a table and reports row activation.
type DeviceList struct {
	client apiclient.Client
	log    logger.Logger
	life   effect

	mu       sync.RWMutex
	rows     []models.DeviceSummary
	loaded   bool
	pending  int
	onSelect func(id string)
}

// DeviceListOption configures a DeviceList.
type DeviceListOption func(*DeviceList)

// WithRows seeds the table with a collection the caller already holds.
func WithRows(rows []models.DeviceSummary) DeviceListOption {
	return func(l *DeviceList) {
		l.rows = append([]models.DeviceSummary(nil), rows...)
		l.loaded = true
	}
}

// WithSelectHandler registers the selection callback at construction time.
func WithSelectHandler(fn func(id string)) DeviceListOption {
	return func(l *DeviceList) {
		l.onSelect = fn
	}
}

func NewDeviceList(client apiclient.Client, log logger.Logger, opts ...DeviceListOption) *DeviceList {
	if log == nil {
		log = logger.Nop()
	}

	l := &DeviceList{
		client: client,
		log:    log.Named("devicelist"),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// OnSelect registers the callback fired by Activate.
func (l *DeviceList) OnSelect(fn func(id string)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.onSelect = fn
}

// Mount requests the device collection once. Mounting twice is a no-op.
func (l *DeviceList) Mount(ctx context.Context) {
	if !l.life.attach(ctx) {
		return
	}

	l.fetch()
}

// Refresh re-requests the collection on a mounted list.
func (l *DeviceList) Refresh() error {
	if !l.life.mounted() {
		return ErrNotMounted
	}

	l.fetch()

	return nil
}

func (l *DeviceList) fetch() {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	if !l.life.spawn(l.load) {
		l.mu.Lock()
		l.pending--
		l.mu.Unlock()
	}
}

func (l *DeviceList) load(ctx context.Context) {
	devices, err := l.client.ListDevices(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending--

	if err != nil {
		logFetchError(ctx, l.log, apiclient.EndpointDevices, err)
		return
	}

	l.rows = append([]models.DeviceSummary(nil), devices...)
	l.loaded = true
}

// Activate fires the selection callback for a row id shown in the table.
func (l *DeviceList) Activate(id string) error {
	if id == "" {
		return ErrEmptyDeviceID
	}

	l.mu.RLock()
	known := false

	for _, d := range l.rows {
		if d.ID == id {
			known = true
			break
		}
	}

	fn := l.onSelect
	l.mu.RUnlock()

	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}

	if fn != nil {
		fn(id)
	}

	return nil
}

// Loading is true while a fetch is pending or nothing has loaded yet.
func (l *DeviceList) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.pending > 0 || !l.loaded
}

// Snapshot copies the current state for rendering.
func (l *DeviceList) Snapshot() DeviceListView {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return DeviceListView{
		Loading: l.pending > 0 || !l.loaded,
		Rows:    rowsFor(l.rows),
	}
}

// Wait blocks until in-flight fetches settle.
func (l *DeviceList) Wait(ctx context.Context) error {
	return l.life.wait(ctx)
}

// Close unmounts the list and cancels pending fetches.
func (l *DeviceList) Close() {
	l.life.detach()
}

// logFetchError keeps cancellations quiet; they follow an unmount or a newer selection.
func logFetchError(ctx context.Context, log logger.Logger, endpoint string, err error) {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		log.Debug(ctx, "fetch canceled", logger.String("endpoint", endpoint), logger.Error(err))
		return
	}

	log.Error(ctx, "error fetching data", logger.String("endpoint", endpoint), logger.Error(err))
}
