package report

import (
	"sort"
	"time"

	"github.com/runnerr0/lookback/internal/activity"
)

// sessionResult is one session with its computed in-window figures.
type sessionResult struct {
	session activity.Session
	active  activeTime
	visits  int
}

// assemble groups results by tab. Tabs and sessions are ordered by creation
// time, then id, so identical data always yields identical output. Tabs
// without sessions are dropped.
func assemble(w activity.Window, tabs map[string]activity.Tab, results map[string][]sessionResult) *Report {
	rep := &Report{
		Start: w.Start,
		End:   w.End,
		Tabs:  []TabReport{},
	}

	ordered := make([]activity.Tab, 0, len(tabs))
	for id, tab := range tabs {
		if len(results[id]) == 0 {
			continue
		}
		ordered = append(ordered, tab)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return earlier(ordered[i].Created, ordered[i].ID, ordered[j].Created, ordered[j].ID)
	})

	for _, tab := range ordered {
		rs := results[tab.ID]
		sort.Slice(rs, func(i, j int) bool {
			a, b := rs[i].session, rs[j].session
			return earlier(a.Created, a.ID, b.Created, b.ID)
		})

		tr := TabReport{
			TabID:    tab.ID,
			Created:  tab.Created,
			Closed:   tab.Closed,
			Sessions: make([]SessionReport, 0, len(rs)),
		}
		for _, r := range rs {
			tr.Sessions = append(tr.Sessions, sessionReport(r))
		}
		rep.Tabs = append(rep.Tabs, tr)
	}

	return rep
}

func sessionReport(r sessionResult) SessionReport {
	sr := SessionReport{
		SessionID:       r.session.ID,
		Site:            r.session.Site,
		Title:           r.session.Title,
		URL:             r.session.URL,
		Favicon:         r.session.Favicon,
		ActiveMinutes:   r.active.Minutes(),
		VisitCount:      r.visits,
		ActiveIntervals: make([]IntervalSpan, 0, len(r.active.Intervals)),
	}
	for _, c := range r.active.Intervals {
		span := IntervalSpan{Start: c.Start}
		if !c.Ongoing {
			end := c.End
			span.End = &end
		}
		sr.ActiveIntervals = append(sr.ActiveIntervals, span)
	}
	return sr
}

func earlier(at time.Time, aID string, bt time.Time, bID string) bool {
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	return aID < bID
}
