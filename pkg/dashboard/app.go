// Package dashboard holds the App, DeviceList and Dashboard components and renders them.
package dashboard

import (
	"context"
	"sync"

	"github.com/mfreeman451/iotdash/pkg/apiclient"
	"github.com/mfreeman451/iotdash/pkg/logger"
	"github.com/mfreeman451/iotdash/pkg/models"
)

// App is the root component. It owns the device collection and the current
// selection, and composes a DeviceList and a Dashboard.
type App struct {
	client apiclient.Client
	log    logger.Logger
	life   effect

	mu            sync.RWMutex
	devices       []models.DeviceSummary
	loaded        bool
	selected      string
	generation    uint64
	detail        *models.DeviceDetail
	detailPending bool
	cancelDetail  context.CancelFunc
	list          *DeviceList
	dash          *Dashboard
}

func NewApp(client apiclient.Client, log logger.Logger) *App {
	if log == nil {
		log = logger.Nop()
	}

	return &App{
		client: client,
		log:    log.Named("app"),
	}
}

// Mount fetches the device collection. Mounting twice is a no-op.
func (a *App) Mount(ctx context.Context) {
	if !a.life.attach(ctx) {
		return
	}

	a.life.spawn(a.loadDevices)
}

// Refresh re-runs every fetch the App and its children own.
func (a *App) Refresh(ctx context.Context) error {
	if !a.life.mounted() {
		return ErrNotMounted
	}

	a.log.Debug(ctx, "refreshing dashboard")

	a.life.spawn(a.loadDevices)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.list != nil {
		if err := a.list.Refresh(); err != nil {
			return err
		}
	}

	if a.dash != nil {
		if err := a.dash.Refresh(); err != nil {
			return err
		}
	}

	if a.selected != "" {
		a.startDetailLocked(a.selected)
	}

	return nil
}

func (a *App) loadDevices(ctx context.Context) {
	devices, err := a.client.ListDevices(ctx)
	if err != nil {
		logFetchError(ctx, a.log, apiclient.EndpointDevices, err)
		return
	}

	a.mu.Lock()

	a.devices = append([]models.DeviceSummary(nil), devices...)
	a.loaded = true

	var list *DeviceList

	if a.list == nil {
		list = NewDeviceList(a.client, a.log, WithRows(devices), WithSelectHandler(a.Select))
		a.list = list
	}

	a.mu.Unlock()

	if list != nil {
		list.Mount(ctx)
	}
}

// Select records id as the current selection and fetches its detail. Only
// the latest selection's response is kept.
func (a *App) Select(id string) {
	if !a.life.mounted() {
		return
	}

	ctx := a.life.mountCtx()

	a.mu.Lock()
	defer a.mu.Unlock()

	if id != a.selected {
		a.detail = nil
	}

	a.selected = id

	if a.dash == nil {
		a.dash = NewDashboard(a.client, a.log)
		a.dash.Mount(ctx)
	}

	a.dash.SetDetail(a.detail)
	a.startDetailLocked(id)
}

// startDetailLocked supersedes any outstanding detail fetch. Callers hold a.mu.
func (a *App) startDetailLocked(id string) {
	if a.cancelDetail != nil {
		a.cancelDetail()
		a.cancelDetail = nil
	}

	a.generation++
	gen := a.generation

	parent := a.life.mountCtx()
	if parent == nil || parent.Err() != nil {
		a.detailPending = false
		return
	}

	ctx, cancel := context.WithCancel(parent)
	a.cancelDetail = cancel
	a.detailPending = true

	if !a.life.spawn(func(context.Context) { a.loadDetail(ctx, gen, id) }) {
		cancel()
		a.cancelDetail = nil
		a.detailPending = false
	}
}

func (a *App) loadDetail(ctx context.Context, gen uint64, id string) {
	detail, err := a.client.GetDevice(ctx, id)

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.generation {
		a.log.Debug(ctx, "discarding stale device detail",
			logger.String("device_id", id),
			logger.Uint64("generation", gen))

		return
	}

	a.detailPending = false
	a.cancelDetail = nil

	if err != nil {
		logFetchError(ctx, a.log, apiclient.EndpointDevice, err)
		return
	}

	a.detail = detail

	if a.dash != nil {
		a.dash.SetDetail(detail)
	}
}

// DeviceList returns the mounted list, or nil before the collection has loaded.
func (a *App) DeviceList() *DeviceList {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.list
}

// Selected returns the current selection.
func (a *App) Selected() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.selected
}

// Detail returns a copy of the latest accepted detail payload.
func (a *App) Detail() *models.DeviceDetail {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.detail.Clone()
}

// Loading is true until the first device fetch succeeds.
func (a *App) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return !a.loaded
}

// Snapshot copies the App and its children for rendering. The list is only
// included once loaded and the dashboard only while a device is selected.
func (a *App) Snapshot() AppView {
	a.mu.RLock()
	defer a.mu.RUnlock()

	view := AppView{
		Loading:       !a.loaded,
		Selected:      a.selected,
		DetailLoading: a.detailPending,
		DeviceCount:   len(a.devices),
	}

	if a.loaded && a.list != nil {
		lv := a.list.Snapshot()
		view.DeviceList = &lv
	}

	if a.selected != "" && a.dash != nil {
		dv := a.dash.Snapshot()
		view.Dashboard = &dv
	}

	return view
}

// Wait blocks until the App and its children have no fetch in flight.
func (a *App) Wait(ctx context.Context) error {
	for {
		if err := a.life.wait(ctx); err != nil {
			return err
		}

		list, dash := a.children()

		if list != nil {
			if err := list.Wait(ctx); err != nil {
				return err
			}
		}

		if dash != nil {
			if err := dash.Wait(ctx); err != nil {
				return err
			}
		}

		if !a.busy() {
			return nil
		}
	}
}

func (a *App) children() (*DeviceList, *Dashboard) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.list, a.dash
}

func (a *App) busy() bool {
	if a.life.busy() {
		return true
	}

	list, dash := a.children()

	return (list != nil && list.life.busy()) || (dash != nil && dash.life.busy())
}

// Close unmounts the App and cancels every in-flight fetch, children included.
func (a *App) Close() {
	a.life.detach()

	a.mu.Lock()
	if a.cancelDetail != nil {
		a.cancelDetail()
		a.cancelDetail = nil
	}

	list, dash := a.list, a.dash
	a.mu.Unlock()

	if list != nil {
		list.Close()
	}

	if dash != nil {
		dash.Close()
	}
}
