package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/runnerr0/lookback/internal/activity"
)

// selection is the set of tabs touched by a window, each with the sessions
// that overlap it. Tabs are keyed by id.
type selection struct {
	tabs     map[string]activity.Tab
	sessions map[string][]activity.Session
}

// selectSessions picks the owner's sessions whose lifetime overlaps w and
// resolves their tabs.
func (e *Engine) selectSessions(ctx context.Context, snap Snapshot, q Query) (*selection, error) {
	candidates, err := snap.SessionsOverlapping(ctx, q.Owner, q.Window)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}

	sel := &selection{
		tabs:     make(map[string]activity.Tab),
		sessions: make(map[string][]activity.Session),
	}

	var tabIDs []string
	for _, sess := range candidates {
		if !sess.Overlaps(q.Window) {
			continue
		}
		if _, seen := sel.sessions[sess.TabID]; !seen {
			tabIDs = append(tabIDs, sess.TabID)
		}
		sel.sessions[sess.TabID] = append(sel.sessions[sess.TabID], sess)
	}
	if len(tabIDs) == 0 {
		return sel, nil
	}

	tabs, err := snap.Tabs(ctx, tabIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve tabs: %w", err)
	}
	for _, tab := range tabs {
		sel.tabs[tab.ID] = tab
	}

	for _, id := range tabIDs {
		if _, ok := sel.tabs[id]; !ok {
			e.logger.Warn("sessions reference a missing tab",
				zap.String("tab_id", id),
				zap.Int("sessions", len(sel.sessions[id])),
			)
			delete(sel.sessions, id)
		}
	}

	return sel, nil
}
