package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/lookback/internal/storage"
)

// setupPruneTest opens a store holding oldCount tabs closed 60 days before
// reportNow, recentCount tabs closed an hour before it, and one old tab that
// is still open.
func setupPruneTest(t *testing.T, oldCount, recentCount int) (*storage.SQLiteStore, func(cmd *PruneCommand) error) {
	t.Helper()
	cfg := testConfig(t)
	store, _ := testStore(t, cfg)
	ctx := context.Background()

	closedTab := func(created, closed time.Time) {
		tab, err := store.OpenTab(ctx, "local", created)
		require.NoError(t, err)
		_, err = store.Navigate(ctx, storage.Navigation{TabID: tab.ID, URL: "https://example.com/", Title: "Example", At: created})
		require.NoError(t, err)
		require.NoError(t, store.CloseTab(ctx, tab.ID, closed))
	}

	old := reportNow.Add(-60 * 24 * time.Hour)
	for i := 0; i < oldCount; i++ {
		closedTab(old, old.Add(time.Hour))
	}
	for i := 0; i < recentCount; i++ {
		closedTab(reportNow.Add(-2*time.Hour), reportNow.Add(-time.Hour))
	}
	_, err := store.OpenTab(ctx, "local", old)
	require.NoError(t, err)

	run := func(cmd *PruneCommand) error {
		if cmd.globals == nil {
			cmd.globals = &GlobalFlags{}
		}
		return cmd.executeWithStore(store, cfg, reportNow)
	}
	return store, run
}

func totalTabs(t *testing.T, store *storage.SQLiteStore) int64 {
	t.Helper()
	stats, err := store.GetStats(context.Background(), "")
	require.NoError(t, err)
	return stats.TotalTabs
}

func TestPrune_DefaultRetention(t *testing.T) {
	store, run := setupPruneTest(t, 3, 2)

	output := captureOutput(t, func() {
		require.NoError(t, run(&PruneCommand{}))
	})

	assert.Contains(t, output, "Pruned 3 closed tabs older than 30 days.")
	assert.Equal(t, int64(3), totalTabs(t, store), "recent closed tabs and the open tab remain")
}

func TestPrune_CustomOlderThan(t *testing.T) {
	store, run := setupPruneTest(t, 2, 2)

	output := captureOutput(t, func() {
		require.NoError(t, run(&PruneCommand{OlderThan: "30m"}))
	})

	assert.Contains(t, output, "Pruned 4 closed tabs")
	assert.Equal(t, int64(1), totalTabs(t, store))
}

func TestPrune_DryRun(t *testing.T) {
	store, run := setupPruneTest(t, 3, 1)

	output := captureOutput(t, func() {
		require.NoError(t, run(&PruneCommand{DryRun: true}))
	})

	assert.Contains(t, output, "Would prune 3 closed tabs older than 30 days")
	assert.Equal(t, int64(5), totalTabs(t, store), "dry run must not delete")
}

func TestPrune_JSONOutput(t *testing.T) {
	_, run := setupPruneTest(t, 2, 1)

	output := captureOutput(t, func() {
		require.NoError(t, run(&PruneCommand{globals: &GlobalFlags{JSON: true}}))
	})

	var out pruneJSON
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, int64(2), out.Tabs)
	assert.False(t, out.DryRun)
	assert.Equal(t, "2024-02-13T12:00:00Z", out.Cutoff)
}

func TestPrune_JSONDryRun(t *testing.T) {
	store, run := setupPruneTest(t, 2, 0)

	output := captureOutput(t, func() {
		require.NoError(t, run(&PruneCommand{DryRun: true, globals: &GlobalFlags{JSON: true}}))
	})

	var out pruneJSON
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, int64(2), out.Tabs)
	assert.True(t, out.DryRun)
	assert.Equal(t, int64(3), totalTabs(t, store))
}

func TestPrune_NothingToPrune(t *testing.T) {
	_, run := setupPruneTest(t, 0, 2)

	output := captureOutput(t, func() {
		require.NoError(t, run(&PruneCommand{}))
	})
	assert.Contains(t, output, "Pruned 0 closed tabs")
}

func TestPrune_InvalidOlderThan(t *testing.T) {
	_, run := setupPruneTest(t, 0, 0)

	err := run(&PruneCommand{OlderThan: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}
