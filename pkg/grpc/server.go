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

// Package grpc wraps a gRPC server that carries the standard health service.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mfreeman451/iotdash/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// ServerOption is a function type that modifies Server configuration.
type ServerOption func(*Server)

var errInternalError = errors.New("internal error")

const (
	shutdownTimer = 5 * time.Second
)

// Server wraps a gRPC server with a health service.
type Server struct {
	srv         *grpc.Server
	healthCheck *health.Server
	addr        string
	log         logger.Logger
	mu          sync.RWMutex
	services    map[string]struct{}
	serverOpts  []grpc.ServerOption
}

// NewServer creates a new gRPC server listening on addr once started.
func NewServer(addr string, opts ...ServerOption) *Server {
	s := &Server{
		addr:     addr,
		log:      logger.Nop(),
		services: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	defaultOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(s.log),
			RecoveryInterceptor(s.log),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     10 * time.Minute,
			MaxConnectionAge:      24 * time.Hour,
			MaxConnectionAgeGrace: 5 * time.Minute,
			Time:                  120 * time.Second,
			Timeout:               20 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             120 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	s.srv = grpc.NewServer(append(defaultOpts, s.serverOpts...)...)
	s.healthCheck = health.NewServer()
	healthpb.RegisterHealthServer(s.srv, s.healthCheck)

	reflection.Register(s.srv)

	return s
}

// WithLogger sets the logger used by the server and its interceptors.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l.Named("grpc")
		}
	}
}

// WithServerOptions adds gRPC server options.
func WithServerOptions(opt ...grpc.ServerOption) ServerOption {
	return func(s *Server) {
		s.serverOpts = append(s.serverOpts, opt...)
	}
}

// WithMaxRecvSize sets the maximum receive message size.
func WithMaxRecvSize(size int) ServerOption {
	return func(s *Server) {
		s.serverOpts = append(s.serverOpts, grpc.MaxRecvMsgSize(size))
	}
}

// WithMaxSendSize sets the maximum send message size.
func WithMaxSendSize(size int) ServerOption {
	return func(s *Server) {
		s.serverOpts = append(s.serverOpts, grpc.MaxSendMsgSize(size))
	}
}

// SetServing marks name as SERVING on the health service.
func (s *Server) SetServing(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.services[name] = struct{}{}
	s.healthCheck.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
}

// Start listens on the configured address and serves until stopped.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info(context.Background(), "gRPC server listening", logger.String("addr", lis.Addr().String()))

	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// Stop marks every service NOT_SERVING and stops gracefully, forcing the
// stop after shutdownTimer.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for service := range s.services {
		s.healthCheck.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	stopped := make(chan struct{})

	go func() {
		s.srv.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.log.Info(ctx, "gRPC server stopped gracefully")
	case <-time.After(shutdownTimer):
		s.log.Warn(ctx, "gRPC server shutdown timed out, forcing stop")
		s.srv.Stop()
	}
}

// LoggingInterceptor logs RPC calls.
func LoggingInterceptor(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		log.Debug(ctx, "gRPC call",
			logger.String("method", info.FullMethod),
			logger.Duration("duration", time.Since(start)),
			logger.Error(err))

		return resp, err
	}
}

// RecoveryInterceptor handles panics in RPC handlers.
func RecoveryInterceptor(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(ctx, "recovered from panic",
					logger.String("method", info.FullMethod),
					logger.Any("panic", r))

				err = errInternalError
			}
		}()

		return handler(ctx, req)
	}
}
