/*
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

// Package monitoring runs periodic background checks.
package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/mfreeman451/iotdash/pkg/logger"
)

// MonitorConfig holds configuration for monitoring.
type MonitorConfig struct {
	Name     string
	Interval time.Duration
}

// Monitor runs a check on a fixed interval until stopped.
type Monitor struct {
	config MonitorConfig
	log    logger.Logger
	done   chan struct{}
	once   sync.Once
}

// NewMonitor creates a new monitor. A nil logger discards output.
func NewMonitor(cfg MonitorConfig, log logger.Logger) *Monitor {
	if log == nil {
		log = logger.Nop()
	}

	return &Monitor{
		config: cfg,
		log:    log.Named("monitor"),
		done:   make(chan struct{}),
	}
}

// StartMonitoring blocks, running check once immediately and then on every
// tick, until ctx is done or Stop is called.
func (m *Monitor) StartMonitoring(ctx context.Context, check func(context.Context) error) {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	if err := check(ctx); err != nil {
		m.log.Warn(ctx, "initial check failed", logger.String("check", m.config.Name), logger.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			if err := check(ctx); err != nil {
				m.log.Warn(ctx, "check failed", logger.String("check", m.config.Name), logger.Error(err))
			}
		}
	}
}

// Stop stops the monitoring. It is safe to call more than once.
func (m *Monitor) Stop(_ context.Context) {
	m.once.Do(func() {
		close(m.done)
	})
}
