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

// Package lifecycle runs a service until a signal, an error or cancellation.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfreeman451/iotdash/pkg/grpc"
	"github.com/mfreeman451/iotdash/pkg/logger"
)

const (
	MaxRecvSize     = 4 * 1024 * 1024 // 4MB
	MaxSendSize     = 4 * 1024 * 1024 // 4MB
	ShutdownTimeout = 10 * time.Second
)

// Service defines the interface that all services must implement.
type Service interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// ServerOptions holds configuration for running a service.
type ServerOptions struct {
	ServiceName string
	Service     Service
	// GRPCHealthAddr enables a grpc.health.v1 endpoint when set.
	GRPCHealthAddr string
	Logger         logger.Logger
}

// RunServer starts a service with the provided options and handles lifecycle.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	log = log.Named("lifecycle")

	log.Info(ctx, "starting service", logger.String("service", opts.ServiceName))

	errChan := make(chan error, 2)

	go func() {
		if err := opts.Service.Start(ctx); err != nil {
			select {
			case errChan <- err:
			default:
				log.Error(ctx, "service error", logger.Error(err))
			}
		}
	}()

	var healthServer *grpc.Server

	if opts.GRPCHealthAddr != "" {
		healthServer = grpc.NewServer(opts.GRPCHealthAddr,
			grpc.WithMaxRecvSize(MaxRecvSize),
			grpc.WithMaxSendSize(MaxSendSize),
			grpc.WithLogger(log))
		healthServer.SetServing(opts.ServiceName)

		go func() {
			if err := healthServer.Start(); err != nil {
				select {
				case errChan <- err:
				default:
					log.Error(ctx, "gRPC server error", logger.Error(err))
				}
			}
		}()
	}

	return handleShutdown(ctx, cancel, log, healthServer, opts.Service, errChan)
}

func handleShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	log logger.Logger,
	healthServer *grpc.Server,
	svc Service,
	errChan chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(sigChan)

	var runErr error

	select {
	case sig := <-sigChan:
		log.Info(ctx, "received signal, initiating shutdown", logger.String("signal", sig.String()))
	case err := <-errChan:
		log.Error(ctx, "received error, initiating shutdown", logger.Error(err))
		runErr = fmt.Errorf("service error: %w", err)
	case <-ctx.Done():
		log.Info(ctx, "context canceled, initiating shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	if healthServer != nil {
		healthServer.Stop(shutdownCtx)
	}

	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "error during service shutdown", logger.Error(err))

		if runErr == nil {
			runErr = fmt.Errorf("shutdown error: %w", err)
		}
	}

	return runErr
}
