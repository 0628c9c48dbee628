package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runnerr0/lookback/internal/activity"
	"github.com/runnerr0/lookback/internal/config"
	"github.com/runnerr0/lookback/internal/report"
	"github.com/runnerr0/lookback/internal/storage"
)

var reportNow = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

// seedActivity records 45 active minutes on golang.org for the default owner,
// ending an hour before reportNow.
func seedActivity(t *testing.T, store *storage.SQLiteStore, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()
	start := reportNow.Add(-2 * time.Hour)

	tab, err := store.OpenTab(ctx, cfg.Server.DefaultOwner, start)
	require.NoError(t, err)
	sess, err := store.Navigate(ctx, storage.Navigation{TabID: tab.ID, URL: "https://golang.org/doc", Title: "Documentation", At: start})
	require.NoError(t, err)
	_, err = store.Activate(ctx, sess.ID, start)
	require.NoError(t, err)
	require.NoError(t, store.Deactivate(ctx, sess.ID, start.Add(45*time.Minute)))
	_, err = store.RecordVisit(ctx, sess.ID, "https://golang.org/ref/spec", start.Add(10*time.Minute))
	require.NoError(t, err)
}

func TestReportCommand_JSON(t *testing.T) {
	cfg := testConfig(t)
	store, _ := testStore(t, cfg)
	seedActivity(t, store, cfg)

	cmd := &ReportCommand{Since: "24h", globals: &GlobalFlags{JSON: true}, now: func() time.Time { return reportNow }}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, zap.NewNop()))
	})

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(output), &rep))
	assert.True(t, rep.End.Equal(reportNow))
	assert.True(t, rep.Start.Equal(reportNow.Add(-24*time.Hour)))
	require.Len(t, rep.Tabs, 1)
	require.Len(t, rep.Tabs[0].Sessions, 1)
	assert.Equal(t, 45, rep.Tabs[0].Sessions[0].ActiveMinutes)
	assert.Equal(t, 2, rep.Tabs[0].Sessions[0].VisitCount)
}

func TestReportCommand_Human(t *testing.T) {
	cfg := testConfig(t)
	store, _ := testStore(t, cfg)
	seedActivity(t, store, cfg)

	cmd := &ReportCommand{
		Start:   "2024-03-14T10:00:00Z",
		End:     "2024-03-14T10:30:00Z",
		globals: &GlobalFlags{},
	}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, zap.NewNop()))
	})
	assert.Contains(t, output, "golang.org")
	assert.Contains(t, output, "30m")
	assert.Contains(t, output, "Documentation")
	assert.Contains(t, output, "1 tabs")
}

func TestReportCommand_Empty(t *testing.T) {
	cfg := testConfig(t)
	store, _ := testStore(t, cfg)

	cmd := &ReportCommand{Since: "1h", globals: &GlobalFlags{}, now: func() time.Time { return reportNow }}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, zap.NewNop()))
	})
	assert.Contains(t, output, "No activity in this window.")
}

func TestReportCommand_OtherOwner(t *testing.T) {
	cfg := testConfig(t)
	store, _ := testStore(t, cfg)
	seedActivity(t, store, cfg)

	cmd := &ReportCommand{Since: "24h", Owner: "someone-else", globals: &GlobalFlags{JSON: true}, now: func() time.Time { return reportNow }}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, zap.NewNop()))
	})
	assert.Contains(t, output, `"tabs": []`)
}

func TestReportCommand_InvalidWindow(t *testing.T) {
	cfg := testConfig(t)
	store, _ := testStore(t, cfg)

	tests := []struct {
		name string
		cmd  ReportCommand
	}{
		{"reversed", ReportCommand{Start: "2024-03-14T11:00:00Z", End: "2024-03-14T10:00:00Z"}},
		{"no start", ReportCommand{End: "2024-03-14T10:00:00Z"}},
		{"bad since", ReportCommand{Since: "forever"}},
		{"bad start", ReportCommand{Start: "monday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.cmd
			cmd.globals = &GlobalFlags{}
			cmd.now = func() time.Time { return reportNow }

			err := cmd.executeWithStore(store, cfg, zap.NewNop())
			assert.ErrorIs(t, err, activity.ErrInvalidWindow)
		})
	}
}

func TestReportCommand_SinceAndStartExclusive(t *testing.T) {
	cfg := testConfig(t)
	store, _ := testStore(t, cfg)

	cmd := &ReportCommand{Since: "1h", Start: "2024-03-14T10:00:00Z", globals: &GlobalFlags{}}
	err := cmd.executeWithStore(store, cfg, zap.NewNop())
	assert.ErrorIs(t, err, activity.ErrInvalidWindow)
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestReportCommand_StoreUnavailable(t *testing.T) {
	cfg := testConfig(t)
	store, db := testStore(t, cfg)
	db.Close()

	cmd := &ReportCommand{Since: "1h", globals: &GlobalFlags{}, now: func() time.Time { return reportNow }}
	err := cmd.executeWithStore(store, cfg, zap.NewNop())
	assert.ErrorIs(t, err, report.ErrStoreUnavailable)
}
