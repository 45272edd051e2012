package dashboard

import (
	"strings"

	"github.com/mfreeman451/iotdash/pkg/models"
)

const (
	colorActive   = "green"
	colorInactive = "red"
)

// StatusLabel returns the uppercase status text and its colour. Only
// "active" is green; every other value is red.
func StatusLabel(status string) (text, color string) {
	text = strings.ToUpper(status)

	if status == models.StatusActive {
		return text, colorActive
	}

	return text, colorInactive
}

// DeviceRow is one rendered row of the device table.
type DeviceRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	StatusText  string `json:"status_text"`
	StatusColor string `json:"status_color"`
	LastActive  string `json:"last_active"`
}

// DeviceListView is a point-in-time copy of DeviceList state.
type DeviceListView struct {
	Loading bool        `json:"loading"`
	Rows    []DeviceRow `json:"rows"`
}

// DashboardView is a point-in-time copy of Dashboard state.
type DashboardView struct {
	Loading        bool                 `json:"loading"`
	AnalyticsLines []string             `json:"analytics"`
	HealthLines    []string             `json:"health"`
	Detail         *models.DeviceDetail `json:"detail,omitempty"`
}

// AppView is a point-in-time copy of the whole App.
type AppView struct {
	Loading       bool            `json:"loading"`
	Selected      string          `json:"selected,omitempty"`
	DetailLoading bool            `json:"detail_loading"`
	DeviceCount   int             `json:"device_count"`
	DeviceList    *DeviceListView `json:"device_list,omitempty"`
	Dashboard     *DashboardView  `json:"dashboard,omitempty"`
}

// Busy reports whether any visible section is still loading.
func (v *AppView) Busy() bool {
	if v.Loading || v.DetailLoading {
		return true
	}

	if v.DeviceList != nil && v.DeviceList.Loading {
		return true
	}

	return v.Dashboard != nil && v.Dashboard.Loading
}

func rowsFor(devices []models.DeviceSummary) []DeviceRow {
	rows := make([]DeviceRow, 0, len(devices))

	for _, d := range devices {
		text, color := StatusLabel(d.Status)
		rows = append(rows, DeviceRow{
			ID:          d.ID,
			Name:        d.Name,
			Status:      d.Status,
			StatusText:  text,
			StatusColor: color,
			LastActive:  d.LastActive,
		})
	}

	return rows
}
