/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package models pkg/models/device.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StatusActive is the only device status rendered as healthy in the list view.
const StatusActive = "active"

// DeviceSummary is one row of GET /api/devices.
type DeviceSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	LastActive string `json:"lastActive"`
}

// DeviceHealth is the online state reported by GET /api/monitor.
type DeviceHealth struct {
	IsOnline   bool   `json:"is_online"`
	LastUpdate string `json:"last_update"`
}

// HealthMap maps device id to its health entry.
type HealthMap map[string]DeviceHealth

// Analytics maps device id to the number of updates received.
type Analytics map[string]int64

// Reading is a single timestamped value of a device.
type Reading struct {
	Timestamp string       `json:"timestamp"`
	Value     ReadingValue `json:"value"`
}

// DeviceDetail is the payload of GET /api/devices/{id}.
type DeviceDetail struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Readings []Reading `json:"readings"`
}

// ReadingValue keeps the textual form of a reading. Devices report either
// strings ("23°C") or bare numbers (21.5); both are shown as sent.
type ReadingValue string

func (v *ReadingValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = ""

		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("invalid reading value: %w", err)
		}

		*v = ReadingValue(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid reading value: %w", err)
	}

	*v = ReadingValue(n.String())

	return nil
}

func (v ReadingValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

func (v ReadingValue) String() string {
	return string(v)
}

// Clone returns a deep copy so callers can hand the detail to other owners.
func (d *DeviceDetail) Clone() *DeviceDetail {
	if d == nil {
		return nil
	}

	c := *d
	c.Readings = append([]Reading(nil), d.Readings...)

	return &c
}
