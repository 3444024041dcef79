// Package api is the sandbox stand-in for the MinC/VEGU backend:
//
//	GET  /api/health                        (anonymous)
//	POST /api/minc-login-init
//	POST /api/minc-login-password
//	POST /api/minc-send-email-otp
//	POST /api/minc-verify-email-otp
//	GET  /api/vegu-{kinds}/{vg_id}
//	GET  /api/vegu-{kinds}-search?q=
//	POST /api/vegu-{kinds}-update            (not for complaints)
//	GET  /api/vegu/reveal-user/{complaint_vg_id}
//
// Every endpoint but health requires ?code=<key> when a key is configured.
package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	authAPI "mincadmin/internal/app/sandbox/api/http/auth"
	healthAPI "mincadmin/internal/app/sandbox/api/http/health"
	"mincadmin/internal/app/sandbox/api/http/middleware"
	"mincadmin/internal/app/sandbox/api/http/middleware/apikey"
	"mincadmin/internal/app/sandbox/api/http/middleware/logger"
	recordsAPI "mincadmin/internal/app/sandbox/api/http/records"
	"mincadmin/internal/app/sandbox/store"
)

type Handlers struct {
	Auth    *authAPI.Handler
	Records *recordsAPI.Handler
}

type Deps struct {
	Records  *store.Records
	Accounts *store.Accounts
	// APIKey is required as ?code= on every non-health endpoint when set.
	APIKey string
}

// New creates the *chi.Mux with every operation registered through huma.
func New(deps Deps, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("MinC VEGU sandbox API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"code": {Type: "apiKey", In: "query", Name: apikey.QueryParam},
	}

	API := humachi.New(mux, config)

	loggerMW := logger.New(log)
	healthAPI.Register(API, log, huma.Middlewares{loggerMW.Middleware()})

	h := handlers(deps, loggerMW, log)
	h.Auth.SetupRoutes(API)
	h.Records.SetupRoutes(API)

	return mux
}

func handlers(deps Deps, loggerMW *logger.Logger, log *slog.Logger) *Handlers {
	keyMW := apikey.New(deps.APIKey, log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(keyMW.Middleware())
	authHandler := authAPI.NewHandler(deps.Accounts, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(keyMW.Middleware())
	recordsHandler := recordsAPI.NewHandler(deps.Records, log, middlewares.GetAllAndClear())

	return &Handlers{
		Auth:    authHandler,
		Records: recordsHandler,
	}
}
