package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStats_Empty(t *testing.T) {
	s := openTestStore(t)

	stats, err := s.GetStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalTabs)
	assert.True(t, stats.OldestTab.IsZero())
	assert.Empty(t, stats.TopSites)
}

func TestGetStats_PerOwner(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ta := openTab(t, s, "alice", mins(0))
	tb := openTab(t, s, "bob", mins(5))
	a := navigate(t, s, ta.ID, "https://golang.org/", mins(1))
	_, err := s.RecordVisit(ctx, a.ID, "https://golang.org/doc", mins(2))
	require.NoError(t, err)
	_, err = s.Activate(ctx, a.ID, mins(2))
	require.NoError(t, err)
	navigate(t, s, ta.ID, "https://example.com/", mins(3))
	navigate(t, s, tb.ID, "https://example.com/", mins(6))
	require.NoError(t, s.CloseTab(ctx, tb.ID, mins(7)))

	all, err := s.GetStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalTabs)
	assert.Equal(t, int64(1), all.OpenTabs)
	assert.Equal(t, int64(3), all.TotalSessions)
	assert.Equal(t, int64(4), all.TotalVisits)
	assert.True(t, all.OldestTab.Equal(mins(0)))
	assert.True(t, all.NewestTab.Equal(mins(5)))
	require.Len(t, all.TopSites, 2)
	assert.Equal(t, SiteCount{Site: "example.com", Visits: 2}, all.TopSites[0])
	assert.Equal(t, SiteCount{Site: "golang.org", Visits: 2}, all.TopSites[1])

	alice, err := s.GetStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.TotalTabs)
	assert.Equal(t, int64(2), alice.TotalSessions)
	// activation moved with the navigation
	assert.Equal(t, int64(2), alice.TotalIntervals)
	assert.Equal(t, int64(3), alice.TotalVisits)
}

func TestPruneClosedBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := openTab(t, s, "alice", mins(0))
	sess := navigate(t, s, old.ID, "https://a.example/", mins(1))
	require.NoError(t, s.CloseTab(ctx, old.ID, mins(2)))

	recent := openTab(t, s, "alice", mins(0))
	require.NoError(t, s.CloseTab(ctx, recent.ID, mins(100)))

	// open tabs are never pruned
	openTab(t, s, "alice", mins(0))

	n, err := s.CountClosedBefore(ctx, mins(50))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	pruned, err := s.PruneClosedBefore(ctx, mins(50))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	stats, err := s.GetStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalTabs)
	assert.Equal(t, int64(0), stats.TotalSessions)
	assert.Equal(t, int64(0), stats.TotalVisits)

	_, err = s.RecordVisit(ctx, sess.ID, "https://a.example/", mins(3))
	assert.ErrorIs(t, err, ErrNotFound)

	var action string
	require.NoError(t, s.db.QueryRow("SELECT action FROM audit_log ORDER BY id DESC LIMIT 1").Scan(&action))
	assert.Equal(t, "prune", action)
}

func TestPurgeAll_KeepsExclusions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedExclusions(ctx, []string{"chase.com"}, nil))

	tab := openTab(t, s, "alice", mins(0))
	navigate(t, s, tab.ID, "https://a.example/", mins(1))

	require.NoError(t, s.PurgeAll(ctx))

	stats, err := s.GetStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalTabs)
	assert.Equal(t, int64(0), stats.TotalVisits)

	var rules int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM exclusions").Scan(&rules))
	assert.Equal(t, 3, rules)
	assert.True(t, s.IsExcluded("chase.com"))
}
