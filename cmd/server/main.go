package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/injector"
)

func main() {
	configPath := flag.String("config", os.Getenv("ARENA_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	srv, err := injector.InitializeServer(injector.ConfigPath(*configPath))
	if err != nil {
		log.New(log.LevelInfo).Fatal("Failed to initialize server", log.Error(err))
	}
	logger := log.Provide()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	if err = srv.Start(ctx); err != nil {
		logger.Fatal("Error starting server", log.Error(err))
	}

	done := make(chan error, 1)
	go func() { done <- srv.Wait() }()

	select {
	case sig := <-stopCh:
		logger.Info("Shutting down", log.String("signal", sig.String()))
		if err = srv.Stop(ctx); err != nil {
			logger.Error("Error stopping server", log.Error(err))
		}
	case err = <-done:
		if err != nil {
			logger.Error("Server failed", log.Error(err))
		}
	}
	_ = srv.Close()
}
