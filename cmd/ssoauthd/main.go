package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/axent-pl/ssoauth/common/logx"
	"github.com/axent-pl/ssoauth/config"
	"github.com/axent-pl/ssoauth/server"
	"go.uber.org/zap"
)

const defaultListenAddr = ":8080"

func main() {
	configPath := flag.String("config", "ssoauth.yaml", "Path to the configuration file")
	debug := flag.Bool("debug", false, "Enable development logging")
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logx.SetLogger(logx.NewZap(logger))

	if err := run(*configPath); err != nil {
		logger.Error("ssoauthd stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	rt, err := config.Build(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	addr := rt.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}
	srv := &http.Server{
		Addr: addr,
		Handler: server.NewRouter(server.RouterOptions{
			Chain:     rt.Chain,
			Providers: rt.Providers,
			Renderer:  rt.Renderer,
			Issuer:    rt.Issuer,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logx.L().Info("starting server", "addr", addr, "dispatch_mode", rt.Chain.Mode().String(), "handlers", rt.Chain.Handlers(), "providers", rt.Providers.Names())
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logx.L().Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	}
}
