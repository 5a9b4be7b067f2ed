package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/logger"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled bool
	// IncludeVariables puts bound values into db.statement. Leave off outside
	// development: contact emails and phones end up in query arguments.
	IncludeVariables bool
	SlowQueryThresh  time.Duration
	DBName           string
}

// DefaultDBTracingConfig returns the production defaults.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "slotbook",
	}
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db and an annotator that tags each
// query span with the merchant scope, the elevated flag and slow-query events.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, log *zap.Logger) error {
	if !cfg.Enabled {
		log.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.IncludeVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	a := &spanAnnotator{slow: cfg.SlowQueryThresh}
	if a.slow <= 0 {
		a.slow = DefaultDBTracingConfig().SlowQueryThresh
	}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("slotbook_trace:before_create", a.before); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("slotbook_trace:before_query", a.before); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("slotbook_trace:before_update", a.before); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("slotbook_trace:before_delete", a.before); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("slotbook_trace:before_row", a.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("slotbook_trace:after_create", a.after); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("slotbook_trace:after_query", a.after); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("slotbook_trace:after_update", a.after); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("slotbook_trace:after_delete", a.after); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("slotbook_trace:after_row", a.after); err != nil {
		return err
	}

	log.Info("Database tracing enabled",
		zap.Bool("include_variables", cfg.IncludeVariables),
		zap.Duration("slow_query_threshold", a.slow),
	)
	return nil
}

type spanAnnotator struct {
	slow time.Duration
}

func (a *spanAnnotator) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (a *spanAnnotator) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("slotbook.elevated", shared.HasElevatedAccess(ctx)),
	}
	if merchantID := logger.GetMerchantID(ctx); merchantID != "" {
		attrs = append(attrs, attribute.String(SpanAttrMerchantID, merchantID))
	}
	if db.Statement.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attrs...)

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > a.slow {
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", a.slow.Milliseconds()),
		))
	}
}
