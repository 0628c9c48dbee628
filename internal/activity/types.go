package activity

import "time"

// Tab is the lifetime of one browser tab. A nil Closed means the tab is
// still open.
type Tab struct {
	ID      string
	Owner   string
	Created time.Time
	Closed  *time.Time
}

// Overlaps reports whether the tab was alive at any point inside w.
func (t Tab) Overlaps(w Window) bool {
	return Overlaps(t.Created, t.Closed, w)
}

// Session is one navigation episode on a tab to a single site.
type Session struct {
	ID      string
	TabID   string
	URL     string
	Site    string
	Title   string
	Favicon string
	Created time.Time
	Closed  *time.Time
}

// Overlaps reports whether the session lifetime intersects w. An unclosed
// session is treated as ongoing.
func (s Session) Overlaps(w Window) bool {
	return Overlaps(s.Created, s.Closed, w)
}

// PageVisit is a single page load inside a session.
type PageVisit struct {
	ID        string
	SessionID string
	URL       string
	Visited   time.Time
}
