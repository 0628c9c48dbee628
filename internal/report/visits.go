package report

import (
	"context"
	"fmt"

	"github.com/runnerr0/lookback/internal/activity"
)

// visitCountOf counts the page visits of this session alone inside w.
func visitCountOf(ctx context.Context, snap Snapshot, sess activity.Session, w activity.Window) (int, error) {
	n, err := snap.CountVisits(ctx, sess.ID, w)
	if err != nil {
		return 0, fmt.Errorf("visits of session %s: %w", sess.ID, err)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}
