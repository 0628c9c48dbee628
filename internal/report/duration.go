package report

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/lookback/internal/activity"
)

// activeTime is a session's foreground time inside a window.
type activeTime struct {
	Total     time.Duration
	Intervals []activity.Clipped
}

// Minutes is the total truncated to whole minutes.
func (a activeTime) Minutes() int {
	return activity.Minutes(a.Total)
}

// activeTimeOf clips each of the session's intervals to w and sums them. The
// total never exceeds the window length.
func (e *Engine) activeTimeOf(ctx context.Context, snap Snapshot, sess activity.Session, w activity.Window) (activeTime, error) {
	intervals, err := snap.IntervalsIntersecting(ctx, sess.ID, w)
	if err != nil {
		return activeTime{}, fmt.Errorf("intervals of session %s: %w", sess.ID, err)
	}

	var at activeTime
	for _, iv := range intervals {
		c, ok := iv.Clip(w)
		if !ok {
			continue
		}
		if c.Malformed {
			e.anomaly("interval ends before it starts",
				zap.String("session_id", sess.ID),
				zap.String("interval_id", iv.ID),
				zap.Time("start", iv.Start),
				zap.Timep("end", iv.End),
			)
		}
		at.Total += c.Duration
		at.Intervals = append(at.Intervals, c)
	}

	if limit := w.Duration(); at.Total > limit {
		e.anomaly("active time exceeds window length",
			zap.String("session_id", sess.ID),
			zap.Duration("total", at.Total),
			zap.Duration("window", limit),
		)
		at.Total = limit
	}

	return at, nil
}

func (e *Engine) anomaly(msg string, fields ...zap.Field) {
	e.logger.Warn(msg, fields...)
	e.metrics.IntervalAnomaly()
}
