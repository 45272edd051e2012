package dashboard

import (
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

var (
	testAnalytics = models.Analytics{"d1": 10, "d2": 5}
	testHealth    = models.HealthMap{
		"d1": {IsOnline: true, LastUpdate: "T1"},
		"d2": {IsOnline: false, LastUpdate: "T2"},
	}
)

func TestDashboardRendersAnalyticsAndHealth(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)

	client.EXPECT().GetAnalytics(gomock.Any()).Return(testAnalytics, nil)
	client.EXPECT().GetHealth(gomock.Any()).Return(testHealth, nil)

	d := NewDashboard(client, logger.Nop())
	d.Mount(context.Background())
	require.NoError(t, d.Wait(waitCtx(t)))

	view := d.Snapshot()
	assert.False(t, view.Loading)
	assert.Equal(t, []string{"d1: 10 updates", "d2: 5 updates"}, view.AnalyticsLines)
	assert.Equal(t, []string{
		"d1: Online (Last update: T1)",
		"d2: Offline (Last update: T2)",
	}, view.HealthLines)
}

func TestDashboardFailureIsolation(t *testing.T) {
	tests := []struct {
		name          string
		analyticsErr  error
		healthErr     error
		wantAnalytics int
		wantHealth    int
	}{
		{name: "analytics fails", analyticsErr: errors.New("timeout"), wantHealth: 2},
		{name: "health fails", healthErr: errors.New("timeout"), wantAnalytics: 2},
		{name: "both fail", analyticsErr: errors.New("a"), healthErr: errors.New("h")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := apiclient.NewMockClient(ctrl)

			analytics, health := testAnalytics, testHealth
			if tt.analyticsErr != nil {
				analytics = nil
			}

			if tt.healthErr != nil {
				health = nil
			}

			client.EXPECT().GetAnalytics(gomock.Any()).Return(analytics, tt.analyticsErr)
			client.EXPECT().GetHealth(gomock.Any()).Return(health, tt.healthErr)

			d := NewDashboard(client, logger.Nop())
			d.Mount(context.Background())
			require.NoError(t, d.Wait(waitCtx(t)))

			view := d.Snapshot()
			assert.False(t, view.Loading)
			assert.Len(t, view.AnalyticsLines, tt.wantAnalytics)
			assert.Len(t, view.HealthLines, tt.wantHealth)
		})
	}
}

func TestDashboardLoadingUntilBothSettle(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)

	release := make(chan struct{})

	client.EXPECT().GetAnalytics(gomock.Any()).Return(testAnalytics, nil)
	client.EXPECT().GetHealth(gomock.Any()).DoAndReturn(func(context.Context) (models.HealthMap, error) {
		<-release
		return testHealth, nil
	})

	d := NewDashboard(client, logger.Nop())
	d.Mount(context.Background())

	assert.Eventually(t, func() bool {
		return len(d.Snapshot().AnalyticsLines) == 2
	}, 2*time.Second, 5*time.Millisecond)

	assert.True(t, d.Loading())
	assert.True(t, d.Snapshot().Loading)

	close(release)
	require.NoError(t, d.Wait(waitCtx(t)))

	assert.False(t, d.Loading())
	assert.Len(t, d.Snapshot().HealthLines, 2)
}

func TestDashboardFailedRefreshKeepsPriorData(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)

	gomock.InOrder(
		client.EXPECT().GetAnalytics(gomock.Any()).Return(testAnalytics, nil),
		client.EXPECT().GetAnalytics(gomock.Any()).Return(nil, errors.New("503")),
	)
	client.EXPECT().GetHealth(gomock.Any()).Return(testHealth, nil).Times(2)

	d := NewDashboard(client, logger.Nop())
	d.Mount(context.Background())
	require.NoError(t, d.Wait(waitCtx(t)))

	require.NoError(t, d.Refresh())
	require.NoError(t, d.Wait(waitCtx(t)))

	view := d.Snapshot()
	assert.False(t, view.Loading)
	assert.Equal(t, []string{"d1: 10 updates", "d2: 5 updates"}, view.AnalyticsLines)
}

func TestDashboardRefreshRequiresMount(t *testing.T) {
	d := NewDashboard(apiclient.NewMockClient(gomock.NewController(t)), nil)

	assert.ErrorIs(t, d.Refresh(), ErrNotMounted)
}

func TestDashboardSetDetailCopies(t *testing.T) {
	d := NewDashboard(apiclient.NewMockClient(gomock.NewController(t)), nil)

	detail := &models.DeviceDetail{
		ID:       "device1",
		Name:     "Temperature Sensor",
		Readings: []models.Reading{{Timestamp: "T", Value: "23°C"}},
	}

	d.SetDetail(detail)
	detail.Readings[0].Value = "changed"

	view := d.Snapshot()
	require.NotNil(t, view.Detail)
	assert.Equal(t, models.ReadingValue("23°C"), view.Detail.Readings[0].Value)

	d.SetDetail(nil)
	assert.Nil(t, d.Snapshot().Detail)
}

func TestDashboardCloseCancelsFetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := apiclient.NewMockClient(ctrl)

	block := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	client.EXPECT().GetAnalytics(gomock.Any()).DoAndReturn(func(ctx context.Context) (models.Analytics, error) {
		return nil, block(ctx)
	})
	client.EXPECT().GetHealth(gomock.Any()).DoAndReturn(func(ctx context.Context) (models.HealthMap, error) {
		return nil, block(ctx)
	})

	d := NewDashboard(client, logger.Nop())
	d.Mount(context.Background())
	d.Close()

	require.NoError(t, d.Wait(waitCtx(t)))
	assert.False(t, d.Loading())
	assert.Empty(t, d.Snapshot().AnalyticsLines)
}

func TestLinesAreSorted(t *testing.T) {
	assert.Equal(t, []string{"a: 1 updates", "b: 2 updates", "c: 3 updates"},
		AnalyticsLines(models.Analytics{"c": 3, "a": 1, "b": 2}))
	assert.Empty(t, AnalyticsLines(nil))
	assert.Empty(t, HealthLines(models.HealthMap{}))
}
