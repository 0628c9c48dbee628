package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30d", 30 * 24 * time.Hour},
		{"24h", 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"90m", 90 * time.Minute},
		{"0d", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, in := range []string{"", "d", "abc", "10y", "-5d", "1.5h"} {
		_, err := parseDuration(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestFormatDurationHuman(t *testing.T) {
	assert.Equal(t, "30 days", formatDurationHuman(30*24*time.Hour))
	assert.Equal(t, "1 day", formatDurationHuman(24*time.Hour))
	assert.Equal(t, "5 hours", formatDurationHuman(5*time.Hour))
	assert.Equal(t, "1 hour", formatDurationHuman(time.Hour))
	assert.Equal(t, "30m0s", formatDurationHuman(30*time.Minute))
}

func TestLoadConfig_CreatesDefaultsAtPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookback", "config.yaml")

	cfg, err := loadConfig(&GlobalFlags{Config: path})
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Retention.Days)
	assert.Equal(t, "local", cfg.Server.DefaultOwner)

	_, err = os.Stat(path)
	assert.NoError(t, err, "defaults should be written on first load")
}

func TestNewLogger_Verbose(t *testing.T) {
	cfg := testConfig(t)

	logger, err := newLogger(cfg, &GlobalFlags{Verbose: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel), "verbose enables debug level")
}
