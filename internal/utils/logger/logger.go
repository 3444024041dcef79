package logger

import (
	"os"

	"golang.org/x/exp/slog"

	"mincadmin/internal/app/client/config"
)

// New builds the process logger for env. Unknown envs get the prod logger.
func New(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return setupPrettySlog()
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

func setupPrettySlog() *slog.Logger {
	h := NewPrettyHandler(os.Stderr, PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
	})
	return slog.New(h)
}

// Err is the attribute used for errors across the codebase.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Discard drops everything. Used by tests and by components built without a logger.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}
