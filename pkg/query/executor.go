package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dd0wney/graphplan/pkg/logging"
	"github.com/dd0wney/graphplan/pkg/metrics"
	"github.com/dd0wney/graphplan/pkg/storage"
)

const tracerName = "github.com/dd0wney/graphplan/pkg/query"

// Config tunes query execution.
type Config struct {
	// Timeout bounds one statement; zero means no limit.
	Timeout time.Duration
	// ResultSetMaxSize caps returned rows; zero means no cap.
	ResultSetMaxSize int
	// ParallelScans prefetches cartesian product operands concurrently.
	ParallelScans      bool
	MaxParallelScans   int
	ParseCacheSize     int
	SlowQueryThreshold time.Duration
}

// DefaultConfig returns the executor defaults.
func DefaultConfig() Config {
	return Config{
		ParseCacheSize:     256,
		MaxParallelScans:   4,
		SlowQueryThreshold: metrics.SlowQueryThreshold,
	}
}

// Executor parses, plans and runs statements against a graph. It is safe
// for concurrent use; every statement reads its own snapshot.
type Executor struct {
	graph   *storage.Graph
	cfg     Config
	cache   *ParseCache
	logger  logging.Logger
	metrics *metrics.Registry
	tracer  trace.Tracer
}

// Option configures an Executor.
type Option func(*Executor)

func WithLogger(l logging.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(e *Executor) { e.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) { e.tracer = t }
}

// NewExecutor creates an executor over graph.
func NewExecutor(graph *storage.Graph, cfg Config, opts ...Option) *Executor {
	e := &Executor{
		graph:  graph,
		cfg:    cfg,
		logger: logging.NewNopLogger(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logging.Component("query"))
	e.cache = NewParseCache(cfg.ParseCacheSize, e.metrics)
	return e
}

// Cache exposes the parse cache and its execution statistics.
func (e *Executor) Cache() *ParseCache {
	return e.cache
}

// Execute parses and runs one statement.
func (e *Executor) Execute(ctx context.Context, text string) (*ResultSet, error) {
	q, err := e.cache.Parse(text)
	if err != nil {
		e.logger.Debug("query rejected", logging.Error(err))
		return nil, err
	}

	rs, err := e.ExecuteQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	e.cache.RecordExecution(text, rs.Stats.ExecutionTime)
	return rs, nil
}

// Explain returns the plan text of a read query without running it.
func (e *Executor) Explain(ctx context.Context, text string) (string, error) {
	q, err := e.cache.Parse(text)
	if err != nil {
		return "", err
	}
	if q.Index != nil {
		return "", planError(ErrInvalidQuery, "EXPLAIN applies to MATCH queries only")
	}
	explained := *q
	explained.Explain, explained.Profile = true, false

	rs, err := e.ExecuteQuery(ctx, &explained)
	if err != nil {
		return "", err
	}
	return rs.Plan, nil
}

// ExecuteQuery runs a parsed statement. Read queries run against a snapshot
// of the graph that is released before returning, whatever the outcome.
func (e *Executor) ExecuteQuery(ctx context.Context, q *Query) (*ResultSet, error) {
	if e.graph == nil {
		return nil, ErrExecutorUnavailable
	}
	if q.Index != nil {
		return e.executeIndexCommand(ctx, q.Index)
	}

	snap := e.graph.Snapshot()
	defer snap.Release()
	return e.Run(ctx, snap, q)
}

// Run plans and runs a read query against reader.
func (e *Executor) Run(ctx context.Context, reader GraphReader, q *Query) (*ResultSet, error) {
	queryID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "query.execute", trace.WithAttributes(
		attribute.String("query.id", queryID),
		attribute.Int64("graph.version", int64(reader.Version())),
		attribute.Bool("query.explain", q.Explain),
		attribute.Bool("query.profile", q.Profile),
	))
	defer span.End()

	logger := e.logger.With(logging.QueryID(queryID), logging.Version(reader.Version()))
	start := time.Now()
	queryType := statementType(q)

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	plan, err := e.plan(ctx, reader, q, logger)
	if err != nil {
		e.fail(span, logger, queryType, start, 0, err)
		return nil, err
	}

	rs := &ResultSet{QueryID: queryID, Columns: plan.Columns}
	if q.Explain {
		rs.Plan = plan.String()
		rs.Columns = []string{"plan"}
		for _, line := range strings.Split(rs.Plan, "\n") {
			rs.Rows = append(rs.Rows, []any{line})
		}
		rs.Count = len(rs.Rows)
		rs.Stats.ExecutionTime = time.Since(start)
		e.succeed(logger, queryType, rs)
		return rs, nil
	}

	_, runSpan := e.tracer.Start(ctx, "query.run")
	ex := newExecution(ctx, reader, plan, q.Profile)
	rows, truncated, err := e.collect(ex)
	e.recordScans(ex)
	runSpan.SetAttributes(attribute.Int("query.nodes_scanned", ex.nodesScanned()))
	runSpan.End()
	if err != nil {
		e.fail(span, logger, queryType, start, ex.nodesScanned(), err)
		return nil, err
	}

	rs.Rows = rows
	rs.Count = len(rows)
	rs.Truncated = truncated
	rs.Stats.NodesScanned = ex.nodesScanned()
	rs.Stats.ExecutionTime = time.Since(start)
	if q.Profile {
		rs.Profile = ex.profiles()
		rs.Plan = plan.FormatProfile(ex.profile)
	}
	if truncated {
		logger.Warn("result set truncated", logging.Int("max_rows", e.cfg.ResultSetMaxSize))
	}

	span.SetAttributes(attribute.Int("query.rows", rs.Count))
	e.succeed(logger, queryType, rs)
	return rs, nil
}

func (e *Executor) plan(ctx context.Context, reader GraphReader, q *Query, logger logging.Logger) (*Plan, error) {
	_, span := e.tracer.Start(ctx, "query.plan")
	defer span.End()

	plan, err := NewPlanner(reader.Catalog(), reader.Version(), logger).Plan(q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Debug("query planned", logging.String("plan", plan.String()))
	return plan, nil
}

// collect drains the plan. Parallel prefetch is skipped under PROFILE so
// operator timings stay on one goroutine.
func (e *Executor) collect(ex *execution) ([][]any, bool, error) {
	if e.cfg.ParallelScans && ex.profile == nil {
		if err := ex.prefetch(e.cfg.MaxParallelScans); err != nil {
			return nil, false, err
		}
	}

	root := ex.open(ex.plan.Root)
	rows := make([][]any, 0)
	for {
		rec, ok, err := root.next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return rows, false, nil
		}
		if e.cfg.ResultSetMaxSize > 0 && len(rows) >= e.cfg.ResultSetMaxSize {
			return rows, true, nil
		}
		rows = append(rows, rec.row)
	}
}

func (e *Executor) executeIndexCommand(ctx context.Context, cmd *IndexCommand) (*ResultSet, error) {
	_, span := e.tracer.Start(ctx, "query.index", trace.WithAttributes(
		attribute.String("index.label", cmd.Label),
		attribute.String("index.property", cmd.Property),
		attribute.Bool("index.drop", cmd.Drop),
	))
	defer span.End()

	queryID := uuid.NewString()
	logger := e.logger.With(logging.QueryID(queryID), logging.Label(cmd.Label), logging.Property(cmd.Property))
	start := time.Now()
	rs := &ResultSet{QueryID: queryID, Rows: make([][]any, 0)}

	if cmd.Drop {
		if err := e.graph.DropIndex(cmd.Label, cmd.Property); err != nil {
			e.fail(span, logger, "index", start, 0, err)
			return nil, err
		}
		rs.Stats.IndexesDropped = 1
	} else {
		created, err := e.graph.CreateIndex(cmd.Label, cmd.Property)
		if err != nil {
			e.fail(span, logger, "index", start, 0, err)
			return nil, err
		}
		if created {
			rs.Stats.IndexesCreated = 1
		}
	}

	rs.Stats.ExecutionTime = time.Since(start)
	e.succeed(logger, "index", rs)
	return rs, nil
}

func (e *Executor) recordScans(ex *execution) {
	if e.metrics == nil {
		return
	}
	for path, scans := range ex.opened {
		e.metrics.RecordScans(path, scans, ex.scanned[path])
	}
}

func (e *Executor) succeed(logger logging.Logger, queryType string, rs *ResultSet) {
	elapsed := rs.Stats.ExecutionTime
	if e.metrics != nil {
		e.metrics.RecordQueryWithThreshold(queryType, "success", elapsed, rs.Stats.NodesScanned, rs.Count, e.cfg.SlowQueryThreshold)
	}

	fields := []logging.Field{
		logging.Latency(elapsed),
		logging.Count(rs.Count),
		logging.Int("nodes_scanned", rs.Stats.NodesScanned),
	}
	if e.cfg.SlowQueryThreshold > 0 && elapsed > e.cfg.SlowQueryThreshold {
		logger.Warn("slow query", fields...)
		return
	}
	logger.Debug("query completed", fields...)
}

func (e *Executor) fail(span trace.Span, logger logging.Logger, queryType string, start time.Time, nodesScanned int, err error) {
	elapsed := time.Since(start)
	status := "error"
	if errors.Is(err, ErrQueryCancelled) {
		status = "cancelled"
	}
	if e.metrics != nil {
		e.metrics.RecordQueryWithThreshold(queryType, status, elapsed, nodesScanned, 0, e.cfg.SlowQueryThreshold)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if status == "cancelled" {
		logger.Info("query cancelled", logging.Latency(elapsed), logging.Error(err))
		return
	}
	logger.Error("query failed", logging.Latency(elapsed), logging.Error(err))
}

func statementType(q *Query) string {
	switch {
	case q.Explain:
		return "explain"
	case q.Profile:
		return "profile"
	default:
		return "match"
	}
}
