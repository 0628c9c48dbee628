package activity

import "context"

// Snapshot is a consistent read view over recorded activity. Every method
// observes the same committed state for the lifetime of the view.
type Snapshot interface {
	// SessionsOverlapping returns the owner's sessions whose lifetime
	// intersects w, ordered by creation time.
	SessionsOverlapping(ctx context.Context, owner string, w Window) ([]Session, error)

	// Tabs resolves tabs by id. Unknown ids are skipped.
	Tabs(ctx context.Context, ids []string) ([]Tab, error)

	// IntervalsIntersecting returns the session's intervals that overlap w,
	// ordered by start.
	IntervalsIntersecting(ctx context.Context, sessionID string, w Window) ([]Interval, error)

	// CountVisits counts the session's page visits inside w.
	CountVisits(ctx context.Context, sessionID string, w Window) (int, error)
}

// Viewer runs fn against a single read snapshot and releases it afterwards.
type Viewer interface {
	View(ctx context.Context, fn func(Snapshot) error) error
}
