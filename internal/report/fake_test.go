package report

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/runnerr0/lookback/internal/activity"
)

// fakeStore is an in-memory Viewer. Its queries apply the same predicates as
// the SQLite store but return rows in insertion order, so tests can check the
// engine orders its own output.
type fakeStore struct {
	tabs      []activity.Tab
	sessions  []activity.Session
	owners    map[string]string // tab id -> owner
	intervals []activity.Interval
	visits    []activity.PageVisit

	viewErr  error
	queryErr error
	views    atomic.Int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{owners: map[string]string{}}
}

func (f *fakeStore) addTab(id, owner string, created time.Time, closed *time.Time) {
	f.tabs = append(f.tabs, activity.Tab{ID: id, Owner: owner, Created: created, Closed: closed})
	f.owners[id] = owner
}

func (f *fakeStore) addSession(id, tabID, site string, created time.Time, closed *time.Time) {
	f.sessions = append(f.sessions, activity.Session{
		ID: id, TabID: tabID, Site: site, Title: site, URL: "https://" + site + "/",
		Created: created, Closed: closed,
	})
}

func (f *fakeStore) addInterval(id, sessionID string, start time.Time, end *time.Time) {
	f.intervals = append(f.intervals, activity.Interval{ID: id, SessionID: sessionID, Start: start, End: end})
}

func (f *fakeStore) addVisit(sessionID string, at time.Time) {
	f.visits = append(f.visits, activity.PageVisit{SessionID: sessionID, Visited: at})
}

func (f *fakeStore) View(_ context.Context, fn func(activity.Snapshot) error) error {
	f.views.Add(1)
	if f.viewErr != nil {
		return f.viewErr
	}
	return fn(f)
}

func (f *fakeStore) SessionsOverlapping(_ context.Context, owner string, w activity.Window) ([]activity.Session, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []activity.Session
	for _, s := range f.sessions {
		if f.owners[s.TabID] == owner && s.Overlaps(w) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) Tabs(_ context.Context, ids []string) ([]activity.Tab, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []activity.Tab
	for _, t := range f.tabs {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) IntervalsIntersecting(_ context.Context, sessionID string, w activity.Window) ([]activity.Interval, error) {
	var out []activity.Interval
	for _, iv := range f.intervals {
		if iv.SessionID == sessionID && iv.Overlaps(w) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (f *fakeStore) CountVisits(_ context.Context, sessionID string, w activity.Window) (int, error) {
	n := 0
	for _, v := range f.visits {
		if v.SessionID == sessionID && w.Contains(v.Visited) {
			n++
		}
	}
	return n, nil
}

var errDiskGone = errors.New("disk I/O error")

// clock returns 2024-03-14 at hh:mm UTC.
func clock(hh, mm int) time.Time {
	return time.Date(2024, 3, 14, hh, mm, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}
