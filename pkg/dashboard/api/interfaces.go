package api

import (
	"context"
	"net/http"
)

// Service represents the dashboard HTTP server functionality.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Handler() http.Handler
}

var _ Service = (*APIServer)(nil)
