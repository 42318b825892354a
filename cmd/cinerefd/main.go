// Command cinerefd runs the resolver daemon.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"cineref/internal/config"
	"cineref/internal/daemonrun"
	"cineref/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := daemonrun.Run(ctx, cfg, logger); err != nil {
		logger.Error("daemon exited with error", logging.Error(err))
		log.Fatalf("cinerefd: %v", err)
	}
	logger.Info("cinerefd shut down")
}
