package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for GORM query tracing
type DBTracingConfig struct {
	Enabled         bool
	DBName          string        // database name attribute on spans
	LogFullSQL      bool          // include query variables in spans (development only)
	SlowQueryThresh time.Duration // queries above this get a slow_query marker
}

type dbTracingContextKey string

const queryStartTimeKey dbTracingContextKey = "query_start_time"

// RegisterDBTracing installs the otelgorm plugin on the GORM instance plus a
// callback pair that marks slow queries and errors on the active span. Query
// variables are excluded from spans unless LogFullSQL is set.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	tracer := &dbTracer{thresh: cfg.SlowQueryThresh}
	if err := tracer.register(db); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh))
	return nil
}

// dbTracer annotates the otelgorm spans with row counts, table names, slow
// markers, and error status.
type dbTracer struct {
	thresh time.Duration
}

func (t *dbTracer) register(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("db_tracing:before_create", t.before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("db_tracing:after_create", t.after); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("db_tracing:before_query", t.before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("db_tracing:after_query", t.after); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("db_tracing:before_update", t.before); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("db_tracing:after_update", t.after); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("db_tracing:before_delete", t.before); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("db_tracing:after_delete", t.after); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("db_tracing:before_row", t.before); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Register("db_tracing:after_row", t.after); err != nil {
		return err
	}
	if err := db.Callback().Raw().Before("gorm:raw").Register("db_tracing:before_raw", t.before); err != nil {
		return err
	}
	return db.Callback().Raw().After("gorm:raw").Register("db_tracing:after_raw", t.after)
}

func (t *dbTracer) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (t *dbTracer) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > t.thresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
