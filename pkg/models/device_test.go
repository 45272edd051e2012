package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingValueUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ReadingValue
		wantErr bool
	}{
		{name: "string", input: `{"timestamp":"T","value":"23°C"}`, want: "23°C"},
		{name: "integer", input: `{"timestamp":"T","value":42}`, want: "42"},
		{name: "float keeps source form", input: `{"timestamp":"T","value":21.50}`, want: "21.50"},
		{name: "null", input: `{"timestamp":"T","value":null}`, want: ""},
		{name: "object rejected", input: `{"timestamp":"T","value":{"a":1}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Reading

			err := json.Unmarshal([]byte(tt.input), &r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "T", r.Timestamp)
			assert.Equal(t, tt.want, r.Value)
		})
	}
}

func TestDeviceDetailDecode(t *testing.T) {
	payload := `{
		"id": "device1",
		"name": "Temperature Sensor",
		"readings": [{"timestamp": "2021-04-01T12:00:00Z", "value": "23°C"}]
	}`

	var d DeviceDetail
	require.NoError(t, json.Unmarshal([]byte(payload), &d))

	assert.Equal(t, "device1", d.ID)
	assert.Equal(t, "Temperature Sensor", d.Name)
	require.Len(t, d.Readings, 1)
	assert.Equal(t, "23°C", d.Readings[0].Value.String())
}

func TestDeviceDetailClone(t *testing.T) {
	d := &DeviceDetail{ID: "d1", Readings: []Reading{{Timestamp: "T", Value: "1"}}}

	c := d.Clone()
	c.Readings[0].Value = "2"

	assert.Equal(t, ReadingValue("1"), d.Readings[0].Value)
	assert.Nil(t, (*DeviceDetail)(nil).Clone())
}
