package api

import (
	"context"
	"testing"
	"time"

	"github.com/mfreeman451/iotdash/pkg/apiclient"
	"github.com/mfreeman451/iotdash/pkg/dashboard"
	"github.com/mfreeman451/iotdash/pkg/logger"
	"github.com/mfreeman451/iotdash/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSessionStoreSweepsIdleSessions(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)
	client.EXPECT().ListDevices(gomock.Any()).Return([]models.DeviceSummary{}, nil).AnyTimes()

	base, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	var apps []*dashboard.App

	store := newSessionStore(func() *dashboard.App {
		app := dashboard.NewApp(client, nil)
		app.Mount(base)
		apps = append(apps, app)

		return app
	}, 10*time.Minute, logger.Nop())
	store.now = func() time.Time { return now }

	var gauge []int
	store.onChange = func(n int) { gauge = append(gauge, n) }

	idle := store.create()
	active := store.create()
	assert.NotEqual(t, idle.id, active.id)

	now = now.Add(6 * time.Minute)
	_, err := store.lookup(active.id)
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)
	require.NoError(t, store.sweep(context.Background()))

	_, err = store.lookup(idle.id)
	assert.ErrorIs(t, err, errSessionNotFound)

	_, err = store.lookup(active.id)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.count())

	// the evicted App is unmounted
	assert.ErrorIs(t, idle.app.Refresh(context.Background()), dashboard.ErrNotMounted)

	store.closeAll()
	assert.Equal(t, 0, store.count())
	assert.Equal(t, []int{1, 2, 1, 0}, gauge)

	for _, app := range apps {
		require.NoError(t, app.Wait(context.Background()))
	}
}

func TestSessionLookupRejectsUnknownIDs(t *testing.T) {
	store := newSessionStore(nil, time.Minute, logger.Nop())

	_, err := store.lookup("")
	assert.ErrorIs(t, err, errSessionNotFound)

	_, err = store.lookup("missing")
	assert.ErrorIs(t, err, errSessionNotFound)
}
