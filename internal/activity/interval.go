package activity

import "time"

// Interval is a contiguous span during which a session was the foreground
// tab. A nil End means the span is still open and extends to query time.
type Interval struct {
	ID        string
	SessionID string
	Start     time.Time
	End       *time.Time
}

// Open reports whether the interval has not been closed yet.
func (iv Interval) Open() bool {
	return iv.End == nil
}

// Overlaps reports whether the interval intersects w.
func (iv Interval) Overlaps(w Window) bool {
	return Overlaps(iv.Start, iv.End, w)
}

// Overlaps is the single lifetime predicate shared by tabs, sessions and
// intervals: [start, end-or-unbounded) intersects [w.Start, w.End] iff
// start <= w.End and the span is unbounded or end >= w.Start. Both window
// bounds are inclusive.
func Overlaps(start time.Time, end *time.Time, w Window) bool {
	if start.After(w.End) {
		return false
	}
	return end == nil || !end.Before(w.Start)
}

// Clipped is the in-window portion of an Interval.
type Clipped struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration

	// Ongoing is set when the source interval has no end; End is then the
	// window end.
	Ongoing bool

	// Malformed is set when the source interval ends before it starts. The
	// duration is clamped to zero.
	Malformed bool
}

// Clip intersects the interval with w. ok is false when they are disjoint.
func (iv Interval) Clip(w Window) (c Clipped, ok bool) {
	if !iv.Overlaps(w) {
		return Clipped{}, false
	}

	lo := iv.Start
	if lo.Before(w.Start) {
		lo = w.Start
	}
	hi := w.End
	if iv.End != nil && iv.End.Before(w.End) {
		hi = *iv.End
	}

	c = Clipped{Start: lo, End: hi, Duration: hi.Sub(lo), Ongoing: iv.End == nil}
	if c.Duration < 0 {
		c.End = c.Start
		c.Duration = 0
		c.Malformed = true
	}
	return c, true
}

// Minutes truncates d to whole minutes. Negative durations report zero.
func Minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
