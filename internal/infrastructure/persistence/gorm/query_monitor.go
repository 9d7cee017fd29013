package gorm

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "query_monitor:start"

// QueryMonitor records the duration and outcome of every GORM statement
type QueryMonitor struct {
	logger   *zap.Logger
	slow     time.Duration
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewQueryMonitor creates a query monitor and registers its collectors
func NewQueryMonitor(reg prometheus.Registerer, slow time.Duration, logger *zap.Logger) (*QueryMonitor, error) {
	qm := &QueryMonitor{
		logger: logger.Named("query-monitor"),
		slow:   slow,
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Database statement duration in seconds",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "table"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_query_errors_total",
				Help: "Total number of failed database statements",
			},
			[]string{"operation", "table"},
		),
	}

	for _, c := range []prometheus.Collector{qm.duration, qm.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return qm, nil
}

// Install registers before/after callbacks on every statement kind
func (qm *QueryMonitor) Install(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		if err := h.before("monitor:before_"+h.op, qm.before); err != nil {
			return err
		}
		if err := h.after("monitor:after_"+h.op, qm.after(h.op)); err != nil {
			return err
		}
	}
	return nil
}

func (qm *QueryMonitor) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (qm *QueryMonitor) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}

		elapsed := time.Since(start)
		table := "unknown"
		if db.Statement != nil && db.Statement.Table != "" {
			table = db.Statement.Table
		}

		qm.duration.WithLabelValues(op, table).Observe(elapsed.Seconds())
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			qm.failures.WithLabelValues(op, table).Inc()
		}

		if qm.slow > 0 && elapsed > qm.slow {
			qm.logger.Warn("Slow query detected",
				zap.String("operation", op),
				zap.String("table", table),
				zap.Duration("duration", elapsed),
			)
		}
	}
}
