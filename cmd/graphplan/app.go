package main

import (
	"context"
	"fmt"

	"github.com/dd0wney/graphplan/pkg/config"
	"github.com/dd0wney/graphplan/pkg/logging"
	"github.com/dd0wney/graphplan/pkg/metrics"
	"github.com/dd0wney/graphplan/pkg/query"
	"github.com/dd0wney/graphplan/pkg/storage"
)

// app wires one graph, its executor and the ambient services for a command.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	metrics  *metrics.Registry
	graph    *storage.Graph
	executor *query.Executor
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, logger: cfg.Logger()}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	graph, err := storage.Open(storage.Options{
		DataDir:    cfg.Storage.DataDir,
		InMemory:   cfg.Storage.InMemory,
		SyncWrites: cfg.Storage.SyncWrites,
		Logger:     a.logger,
		Metrics:    a.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}
	a.graph = graph

	qcfg := query.DefaultConfig()
	qcfg.Timeout = cfg.Query.Timeout
	qcfg.ResultSetMaxSize = cfg.Query.ResultSetMaxSize
	qcfg.ParallelScans = cfg.Query.ParallelScans
	qcfg.ParseCacheSize = cfg.Query.ParseCacheSize
	if cfg.Query.MaxParallelScans > 0 {
		qcfg.MaxParallelScans = cfg.Query.MaxParallelScans
	}
	qcfg.SlowQueryThreshold = cfg.Metrics.SlowQueryThreshold

	opts := []query.Option{query.WithLogger(a.logger)}
	if a.metrics != nil {
		opts = append(opts, query.WithMetrics(a.metrics))
	}
	a.executor = query.NewExecutor(graph, qcfg, opts...)
	return a, nil
}

func (a *app) execute(ctx context.Context, text string) (*query.ResultSet, error) {
	return a.executor.Execute(ctx, text)
}

func (a *app) Close() error {
	if a.graph == nil {
		return nil
	}
	return a.graph.Close()
}
