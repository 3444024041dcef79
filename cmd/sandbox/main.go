package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"mincadmin/internal/app/client/config"
	"mincadmin/internal/app/sandbox"
	"mincadmin/internal/utils/logger"
)

func main() {
	conf := config.MustLoad()
	log := logger.New(conf.Env)

	sb, err := sandbox.New(sandbox.Options{
		APIKey:   conf.APIKey,
		FixedOTP: conf.Sandbox.FixedOTP,
	}, log)
	if err != nil {
		log.Error("sandbox init failed", logger.Err(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              conf.Sandbox.Address,
		Handler:           sb.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("sandbox listening", slog.String("addr", srv.Addr), slog.Bool("api_key", conf.APIKey != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen failed", logger.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", logger.Err(err))
	}
}
