package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/lookback/internal/storage"
)

func TestPurge_WithoutAllFlag_Errors(t *testing.T) {
	cmd := &PurgeCommand{globals: &GlobalFlags{}}
	err := cmd.Execute(nil)
	assert.ErrorContains(t, err, "--all")
}

func TestPurge_Confirm(t *testing.T) {
	tests := []struct {
		name    string
		cmd     PurgeCommand
		wantErr string
	}{
		{"force skips prompt", PurgeCommand{Force: true}, ""},
		{"typed PURGE", PurgeCommand{stdin: strings.NewReader("PURGE\n")}, ""},
		{"typed something else", PurgeCommand{stdin: strings.NewReader("yes\n")}, "did not match"},
		{"no input", PurgeCommand{stdin: strings.NewReader("")}, "no input received"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			output := captureOutput(t, func() {
				err = tt.cmd.confirm()
			})

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
			if tt.cmd.Force {
				assert.Empty(t, output)
			} else {
				assert.Contains(t, output, `Type "PURGE" to confirm`)
			}
		})
	}
}

func TestPurge_EmptiesActivityKeepsExclusions(t *testing.T) {
	cfg := testConfig(t)
	store, db := testStore(t, cfg)
	seedActivity(t, store, cfg)

	cmd := &PurgeCommand{All: true, Force: true, globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})
	assert.Contains(t, output, "Purged all activity")

	stats, err := store.GetStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalTabs)
	assert.Equal(t, int64(0), stats.TotalVisits)

	reopened, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.IsExcluded("chase.com"))
}

func TestPurge_JSONOutput(t *testing.T) {
	cfg := testConfig(t)
	store, _ := testStore(t, cfg)

	cmd := &PurgeCommand{All: true, Force: true, globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, true, out["purged"])
	assert.Equal(t, "all activity deleted", out["message"])
}
