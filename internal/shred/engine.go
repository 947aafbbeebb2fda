package shred

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"secureshred/internal/config"
	"secureshred/internal/logging"
)

// ShredEngine точка входа: путь и алгоритмы на входе, записи операций на выходе
type ShredEngine struct {
	shredder *Shredder
	walker   *Walker
	logger   *logging.EnterpriseLogger
}

func NewShredEngine(fs afero.Fs, cfg *config.Config, logger *logging.EnterpriseLogger, dryRun bool) (*ShredEngine, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.DryRun = dryRun

	shredder := NewShredder(fs, opts, logger)
	walker := NewWalker(fs, shredder, WalkOptions{
		Workers:           cfg.Shred.Workers,
		RemoveDirectories: cfg.Shred.RemoveDirectories,
		BestEffort:        cfg.Shred.BestEffort,
	}, logger)

	return &ShredEngine{shredder: shredder, walker: walker, logger: logger}, nil
}

// Run затирает файл или каталог
func (e *ShredEngine) Run(ctx context.Context, path string, algs []Algorithm, sinks SinkFactory) ([]*ShredOperation, error) {
	start := time.Now()
	e.logger.Log("INFO", "Run started", "path", path, "algorithm", sequenceName(algs))

	ops, err := e.walker.Walk(ctx, path, algs, sinks)

	level := "INFO"
	if err != nil {
		level = "ERROR"
	}
	e.logger.Log(level, "Run finished", "path", path, "operations", len(ops),
		"duration", time.Since(start).String(), "failed", err != nil)
	return ops, err
}

// RunNamed разбирает имена алгоритмов и запускает Run
func (e *ShredEngine) RunNamed(ctx context.Context, path string, names []string, sinks SinkFactory) ([]*ShredOperation, error) {
	algs, err := ParseAlgorithms(names)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, path, algs, sinks)
}
