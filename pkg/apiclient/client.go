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

// Package apiclient is the HTTP client for the upstream device API.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mfreeman451/iotdash/pkg/logger"
	"github.com/mfreeman451/iotdash/pkg/metrics"
	"github.com/mfreeman451/iotdash/pkg/models"
	"golang.org/x/time/rate"
)

// Endpoint names used for logs and metrics labels.
const (
	EndpointDevices   = "devices"
	EndpointDevice    = "device"
	EndpointAnalytics = "analytics"
	EndpointMonitor   = "monitor"
	EndpointHealth    = "health"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 4 * 1024 * 1024 // 4MB
	maxErrorBody   = 512
)

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	recorder   metrics.FetchRecorder
	log        logger.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		if c != nil {
			h.httpClient = c
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) {
		if d > 0 {
			h.httpClient.Timeout = d
		}
	}
}

// WithRateLimit shares a token bucket across every call of this client.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(h *HTTPClient) {
		if perSecond <= 0 {
			h.limiter = nil
			return
		}

		if burst < 1 {
			burst = 1
		}

		h.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetryPolicy sets the backoff policy for transient failures.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(h *HTTPClient) {
		h.retry = p
	}
}

// WithRecorder reports every call to r.
func WithRecorder(r metrics.FetchRecorder) Option {
	return func(h *HTTPClient) {
		h.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(h *HTTPClient) {
		if l != nil {
			h.log = l
		}
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", errInvalidBaseURL, baseURL)
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		retry: DefaultRetryPolicy,
		log:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *HTTPClient) ListDevices(ctx context.Context) ([]models.DeviceSummary, error) {
	var devices []models.DeviceSummary

	if err := c.getJSON(ctx, EndpointDevices, "/api/devices", &devices); err != nil {
		return nil, err
	}

	return devices, nil
}

func (c *HTTPClient) GetDevice(ctx context.Context, id string) (*models.DeviceDetail, error) {
	if id == "" {
		return nil, ErrEmptyDeviceID
	}

	var detail models.DeviceDetail

	if err := c.getJSON(ctx, EndpointDevice, "/api/devices/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}

	return &detail, nil
}

func (c *HTTPClient) GetAnalytics(ctx context.Context) (models.Analytics, error) {
	var analytics models.Analytics

	if err := c.getJSON(ctx, EndpointAnalytics, "/api/analytics", &analytics); err != nil {
		return nil, err
	}

	return analytics, nil
}

func (c *HTTPClient) GetHealth(ctx context.Context) (models.HealthMap, error) {
	var health models.HealthMap

	if err := c.getJSON(ctx, EndpointMonitor, "/api/monitor", &health); err != nil {
		return nil, err
	}

	return health, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	started := time.Now()

	err := c.do(ctx, EndpointHealth, "/health", nil)
	c.record(EndpointHealth, started, 1, err)

	return err
}

// getJSON runs the request with rate limiting and retry-with-backoff.
func (c *HTTPClient) getJSON(ctx context.Context, endpoint, path string, dst interface{}) error {
	started := time.Now()
	maxAttempts := c.retry.attempts()

	var (
		lastErr  error
		attempts int
	)

	for attempts < maxAttempts {
		if attempts > 0 {
			if c.recorder != nil {
				c.recorder.RecordRetry(endpoint)
			}

			delay := c.retry.backoff(attempts)
			c.log.Debug(ctx, "retrying device API call",
				logger.String("endpoint", endpoint),
				logger.Int("attempt", attempts+1),
				logger.Duration("delay", delay),
				logger.Error(lastErr))

			if err := sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		attempts++

		lastErr = c.do(ctx, endpoint, path, dst)
		if lastErr == nil {
			c.record(endpoint, started, attempts, nil)
			return nil
		}

		if ctx.Err() != nil || !isRetryable(lastErr) {
			break
		}

		if attempts == maxAttempts && maxAttempts > 1 {
			lastErr = fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
		}
	}

	c.record(endpoint, started, attempts, lastErr)

	return lastErr
}

func (c *HTTPClient) do(ctx context.Context, endpoint, path string, dst interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req) //nolint:bodyclose // Response body is closed below
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer func(Body io.ReadCloser) {
		_, _ = io.Copy(io.Discard, io.LimitReader(Body, maxBodySize))

		if err := Body.Close(); err != nil {
			c.log.Warn(ctx, "failed to close response body", logger.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return &StatusError{
			Endpoint: endpoint,
			Code:     resp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
		}
	}

	if dst == nil {
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(dst); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, endpoint, err)
	}

	return nil
}

func (c *HTTPClient) record(endpoint string, started time.Time, attempts int, err error) {
	if c.recorder != nil {
		c.recorder.RecordFetch(endpoint, started, attempts, err)
	}
}
