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

// cmd/dashboard/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/mfreeman451/iotdash/pkg/apiclient"
	"github.com/mfreeman451/iotdash/pkg/config"
	"github.com/mfreeman451/iotdash/pkg/dashboard/api"
	"github.com/mfreeman451/iotdash/pkg/lifecycle"
	"github.com/mfreeman451/iotdash/pkg/logger"
	"github.com/mfreeman451/iotdash/pkg/metrics"
)

const serviceName = "iotdash"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(ctx, *configPath, config.DefaultEnvFile)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	rootLog := logger.Get()

	mgr := metrics.NewManager(cfg.Metrics, nil)

	client, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		apiclient.WithRetryPolicy(apiclient.RetryPolicy{
			MaxAttempts:  cfg.API.Retry.MaxAttempts,
			InitialDelay: cfg.API.Retry.InitialDelay,
			MaxDelay:     cfg.API.Retry.MaxDelay,
		}),
		apiclient.WithRecorder(mgr),
		apiclient.WithLogger(rootLog.Named("apiclient")))
	if err != nil {
		return fmt.Errorf("failed to create device API client: %w", err)
	}

	server, err := api.NewAPIServer(cfg, client,
		api.WithLogger(rootLog),
		api.WithMetricsManager(mgr))
	if err != nil {
		return fmt.Errorf("failed to create dashboard server: %w", err)
	}

	rootLog.Info(ctx, "configuration loaded",
		logger.String("listen_addr", cfg.ListenAddr),
		logger.String("api_base_url", cfg.API.BaseURL))

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName:    serviceName,
		Service:        server,
		GRPCHealthAddr: cfg.GRPCHealthAddr,
		Logger:         rootLog,
	})
}
