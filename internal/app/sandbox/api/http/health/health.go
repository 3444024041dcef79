// Package health serves the anonymous liveness check of the sandbox API. The
// body is the one the real backend returns, so clients can tell a MinC/VEGU
// API from some other server on the same address.
package health

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

const (
	Path     = "/api/health"
	Service  = "minc-vegu-backend"
	StatusOK = "ok"
)

type Body struct {
	Status  string `json:"status" example:"ok"`
	Service string `json:"service" example:"minc-vegu-backend"`
}

type output struct {
	Body Body
}

// Register mounts GET /api/health. The check never touches the stores.
func Register(api huma.API, log *slog.Logger, mws huma.Middlewares) {
	huma.Register(api, huma.Operation{
		OperationID: "minc-health",
		Method:      http.MethodGet,
		Path:        Path,
		Summary:     "Liveness check",
		Tags:        []string{"health"},
		Middlewares: mws,
	}, func(context.Context, *struct{}) (*output, error) {
		log.Debug("health check")
		return &output{Body: Body{Status: StatusOK, Service: Service}}, nil
	})
}
