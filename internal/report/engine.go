package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/lookback/internal/observability"
)

// Engine builds activity reports. It holds no mutable state, so one Engine
// serves concurrent queries.
type Engine struct {
	viewer  Viewer
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewEngine creates an Engine reading through viewer. logger and metrics may
// be nil.
func NewEngine(viewer Viewer, logger *zap.Logger, metrics *observability.Collector) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		viewer:  viewer,
		logger:  logger.Named("report"),
		metrics: metrics,
	}
}

// Build runs q against a single read snapshot. An invalid window fails with
// activity.ErrInvalidWindow before the store is touched; any store failure
// wraps ErrStoreUnavailable. No partial report is ever returned.
func (e *Engine) Build(ctx context.Context, q Query) (*Report, error) {
	started := time.Now()

	if err := q.Window.Validate(); err != nil {
		e.metrics.ObserveReport(observability.OutcomeInvalid, 0, time.Since(started))
		return nil, err
	}
	if q.Owner == "" {
		e.metrics.ObserveReport(observability.OutcomeInvalid, 0, time.Since(started))
		return nil, ErrMissingOwner
	}

	var rep *Report
	err := e.viewer.View(ctx, func(snap Snapshot) error {
		var err error
		rep, err = e.build(ctx, snap, q)
		return err
	})
	if err != nil {
		e.metrics.ObserveReport(observability.OutcomeUnavailable, 0, time.Since(started))
		e.logger.Error("build report",
			zap.String("owner", q.Owner),
			zap.Time("start", q.Window.Start),
			zap.Time("end", q.Window.End),
			zap.Error(err),
		)
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	e.metrics.ObserveReport(observability.OutcomeOK, len(rep.Tabs), time.Since(started))
	e.logger.Debug("report built",
		zap.String("owner", q.Owner),
		zap.Int("tabs", len(rep.Tabs)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return rep, nil
}

func (e *Engine) build(ctx context.Context, snap Snapshot, q Query) (*Report, error) {
	sel, err := e.selectSessions(ctx, snap, q)
	if err != nil {
		return nil, err
	}

	results := make(map[string][]sessionResult, len(sel.sessions))
	for tabID, sessions := range sel.sessions {
		for _, sess := range sessions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			active, err := e.activeTimeOf(ctx, snap, sess, q.Window)
			if err != nil {
				return nil, err
			}
			visits, err := visitCountOf(ctx, snap, sess, q.Window)
			if err != nil {
				return nil, err
			}

			results[tabID] = append(results[tabID], sessionResult{
				session: sess,
				active:  active,
				visits:  visits,
			})
		}
	}

	return assemble(q.Window, sel.tabs, results), nil
}
