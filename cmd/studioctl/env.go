package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/studio/internal/bootstrap"
	"github.com/fastygo/studio/internal/config"
	"github.com/fastygo/studio/pkg/logger"
)

// environment is what every command needs: configuration and a logger that keeps stdout
// free for command output.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: "console", Stderr: true})
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return &environment{cfg: cfg, logger: log}, nil
}

func withStorage(ctx context.Context, fn func(env *environment, storage *bootstrap.Storage) error) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	storage, err := bootstrap.OpenStorage(ctx, env.cfg, env.logger)
	if err != nil {
		return err
	}
	defer storage.Close()

	return fn(env, storage)
}
