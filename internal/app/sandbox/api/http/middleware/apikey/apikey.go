// Package apikey guards function-level endpoints with the "code" query key.
package apikey

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

const QueryParam = "code"

type APIKey struct {
	key string
	log *slog.Logger
}

// New returns a guard for key. An empty key disables the check.
func New(key string, log *slog.Logger) *APIKey {
	return &APIKey{
		key: key,
		log: log.With(slog.String("component", "apikey_middleware")),
	}
}

func (a *APIKey) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if a.key == "" {
			next(ctx)
			return
		}

		got := ctx.Query(QueryParam)
		if subtle.ConstantTimeCompare([]byte(got), []byte(a.key)) != 1 {
			a.log.Warn("rejected request without valid key", slog.String("path", ctx.URL().Path))
			ctx.SetStatus(http.StatusUnauthorized)
			ctx.SetHeader("Content-Type", "application/json")

			err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]any{
				"success": false,
				"error":   "Unauthorized",
			})
			if err != nil {
				a.log.Error("encode unauthorized body", slog.String("error", err.Error()))
			}
			return
		}

		next(ctx)
	}
}
