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

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/mfreeman451/iotdash/pkg/models"
)

// Config is the dashboard process configuration.
type Config struct {
	ListenAddr      string               `koanf:"listen_addr"`
	GRPCHealthAddr  string               `koanf:"grpc_health_addr"`
	LogLevel        string               `koanf:"log_level"`
	RefreshInterval time.Duration        `koanf:"refresh_interval"`
	API             APIConfig            `koanf:"api"`
	Session         SessionConfig        `koanf:"session"`
	Metrics         models.MetricsConfig `koanf:"metrics"`
}

// APIConfig describes the upstream device API.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"` // requests per second shared by all sessions
	Burst     int           `koanf:"burst"`
	Retry     RetryConfig   `koanf:"retry"`
}

// RetryConfig controls backoff for transient upstream failures.
type RetryConfig struct {
	MaxAttempts  int           `koanf:"max_attempts"`
	InitialDelay time.Duration `koanf:"initial_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
}

// SessionConfig controls per-browser dashboard state.
type SessionConfig struct {
	CookieName    string        `koanf:"cookie_name"`
	IdleTimeout   time.Duration `koanf:"idle_timeout"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	RenderWait    time.Duration `koanf:"render_wait"` // max wait for in-flight fetches before a page render
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		ListenAddr:      ":8090",
		LogLevel:        "info",
		RefreshInterval: 2 * time.Second,
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:8080",
			Timeout:   10 * time.Second,
			RateLimit: 20,
			Burst:     10,
			Retry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: 200 * time.Millisecond,
				MaxDelay:     2 * time.Second,
			},
		},
		Session: SessionConfig{
			CookieName:    "iotdash_session",
			IdleTimeout:   30 * time.Minute,
			SweepInterval: time.Minute,
			RenderWait:    500 * time.Millisecond,
		},
		Metrics: models.MetricsConfig{
			Enabled:   true,
			Retention: 100,
		},
	}
}

func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen_addr must not be empty", ErrInvalidConfig)
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api.base_url must be an http(s) URL, got %q", ErrInvalidConfig, c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalidConfig)
	}

	if c.API.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: api.retry.max_attempts must be at least 1", ErrInvalidConfig)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("%w: session.cookie_name must not be empty", ErrInvalidConfig)
	}

	if c.Session.IdleTimeout <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("%w: session.idle_timeout and session.sweep_interval must be positive", ErrInvalidConfig)
	}

	if c.Metrics.Enabled && c.Metrics.Retention <= 0 {
		return fmt.Errorf("%w: metrics.retention must be positive", ErrInvalidConfig)
	}

	return nil
}
