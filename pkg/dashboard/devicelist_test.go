package dashboard

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mfreeman451/iotdash/pkg/apiclient"
	"github.com/mfreeman451/iotdash/pkg/logger"
	"github.com/mfreeman451/iotdash/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testDevices = []models.DeviceSummary{
	{ID: "device1", Name: "Temperature Sensor", Status: "active", LastActive: "2021-04-01T12:00:00Z"},
	{ID: "device2", Name: "Humidity Sensor", Status: "inactive", LastActive: "2021-04-01T11:00:00Z"},
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	return ctx
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status    string
		wantText  string
		wantColor string
	}{
		{status: "active", wantText: "ACTIVE", wantColor: "green"},
		{status: "inactive", wantText: "INACTIVE", wantColor: "red"},
		{status: "maintenance", wantText: "MAINTENANCE", wantColor: "red"},
		{status: "Active", wantText: "ACTIVE", wantColor: "red"},
		{status: "", wantText: "", wantColor: "red"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			text, color := StatusLabel(tt.status)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantColor, color)
		})
	}
}

func TestDeviceListRendersFetchedRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)

	client.EXPECT().ListDevices(gomock.Any()).Return(testDevices, nil)

	l := NewDeviceList(client, logger.Nop())
	assert.True(t, l.Loading())

	l.Mount(context.Background())
	require.NoError(t, l.Wait(waitCtx(t)))

	view := l.Snapshot()
	assert.False(t, view.Loading)
	require.Len(t, view.Rows, len(testDevices))

	assert.Equal(t, DeviceRow{
		ID:          "device1",
		Name:        "Temperature Sensor",
		Status:      "active",
		StatusText:  "ACTIVE",
		StatusColor: "green",
		LastActive:  "2021-04-01T12:00:00Z",
	}, view.Rows[0])
	assert.Equal(t, "INACTIVE", view.Rows[1].StatusText)
	assert.Equal(t, "red", view.Rows[1].StatusColor)
}

func TestDeviceListMountsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)

	client.EXPECT().ListDevices(gomock.Any()).Return(testDevices, nil).Times(1)

	l := NewDeviceList(client, logger.Nop())
	l.Mount(context.Background())
	l.Mount(context.Background())

	require.NoError(t, l.Wait(waitCtx(t)))
	assert.Len(t, l.Snapshot().Rows, 2)
}

func TestDeviceListFailureStaysLoading(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)

	gomock.InOrder(
		client.EXPECT().ListDevices(gomock.Any()).Return(nil, errors.New("connection refused")),
		client.EXPECT().ListDevices(gomock.Any()).Return(testDevices, nil),
	)

	var buf bytes.Buffer

	l := NewDeviceList(client, logger.New(&buf))
	l.Mount(context.Background())
	require.NoError(t, l.Wait(waitCtx(t)))

	view := l.Snapshot()
	assert.True(t, view.Loading)
	assert.Empty(t, view.Rows)
	assert.Contains(t, buf.String(), `msg="error fetching data"`)
	assert.Contains(t, buf.String(), "endpoint=devices")

	require.NoError(t, l.Refresh())
	require.NoError(t, l.Wait(waitCtx(t)))

	view = l.Snapshot()
	assert.False(t, view.Loading)
	assert.Len(t, view.Rows, 2)
}

func TestDeviceListFailureKeepsSeededRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)

	client.EXPECT().ListDevices(gomock.Any()).Return(nil, errors.New("boom"))

	l := NewDeviceList(client, logger.Nop(), WithRows(testDevices[:1]))
	l.Mount(context.Background())
	require.NoError(t, l.Wait(waitCtx(t)))

	view := l.Snapshot()
	assert.False(t, view.Loading)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "device1", view.Rows[0].ID)
}

func TestDeviceListRefetchIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)

	client.EXPECT().ListDevices(gomock.Any()).Return(testDevices, nil).Times(2)

	l := NewDeviceList(client, logger.Nop())
	l.Mount(context.Background())
	require.NoError(t, l.Wait(waitCtx(t)))

	first := l.Snapshot()

	require.NoError(t, l.Refresh())
	require.NoError(t, l.Wait(waitCtx(t)))

	assert.Equal(t, first, l.Snapshot())
	assert.Len(t, first.Rows, 2)
}

func TestDeviceListRefreshRequiresMount(t *testing.T) {
	l := NewDeviceList(apiclient.NewMockClient(gomock.NewController(t)), nil)

	assert.ErrorIs(t, l.Refresh(), ErrNotMounted)
}

func TestDeviceListActivate(t *testing.T) {
	var selected []string

	l := NewDeviceList(apiclient.NewMockClient(gomock.NewController(t)), nil,
		WithRows(testDevices),
		WithSelectHandler(func(id string) { selected = append(selected, id) }))

	require.NoError(t, l.Activate("device2"))
	assert.ErrorIs(t, l.Activate("device9"), ErrUnknownDevice)
	assert.ErrorIs(t, l.Activate(""), ErrEmptyDeviceID)

	l.OnSelect(func(id string) { selected = append(selected, "replaced:"+id) })
	require.NoError(t, l.Activate("device1"))

	assert.Equal(t, []string{"device2", "replaced:device1"}, selected)
}

func TestDeviceListCloseCancelsFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)

	started := make(chan struct{})

	client.EXPECT().ListDevices(gomock.Any()).DoAndReturn(
		func(ctx context.Context) ([]models.DeviceSummary, error) {
			close(started)
			<-ctx.Done()

			return nil, ctx.Err()
		})

	l := NewDeviceList(client, logger.Nop())
	l.Mount(context.Background())

	<-started
	l.Close()

	require.NoError(t, l.Wait(waitCtx(t)))
	assert.True(t, l.Loading())
	assert.ErrorIs(t, l.Refresh(), ErrNotMounted)
	assert.False(t, l.life.busy())
}
