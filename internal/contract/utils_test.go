package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/repopulse/repopulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetColorLabel(t *testing.T) {
	bands := schema.GetDefaultBands()
	tests := []struct {
		name  string
		score float64
		label string
	}{
		{"low", 2, LowValue},
		{"moderate", 10, ModerateValue},
		{"good", 20, GoodValue},
		{"excellent", 50, ExcellentValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetColorLabel(tt.score, bands)
			// Should contain the plain label
			assert.Contains(t, result, tt.label)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		// Verify file was created
		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name     string
		repo     string
		excludes []string
		want     bool
	}{
		// Owner prefixes
		{"owner prefix match", "archived-org/tool", []string{"archived-org/"}, true},
		{"owner prefix no match", "active-org/tool", []string{"archived-org/"}, false},

		// Globs
		{"glob on full repo", "acme/fork-widget", []string{"*/fork-*"}, true},
		{"glob on repo name", "acme/fork-widget", []string{"fork-*"}, true},
		{"glob no match", "acme/widget", []string{"fork-*"}, false},

		// Substrings
		{"substring match", "acme/widget-mirror", []string{"-mirror"}, true},
		{"substring no match", "acme/widget", []string{"-mirror"}, false},

		// Edge cases
		{"empty excludes", "acme/widget", nil, false},
		{"blank pattern skipped", "acme/widget", []string{"  ", ""}, false},
		{"multiple patterns", "acme/widget", []string{"other/", "widg"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldIgnore(tt.repo, tt.excludes))
		})
	}
}

func TestGetDBFilePaths(t *testing.T) {
	cachePath := GetCacheDBFilePath()
	runsPath := GetRunsDBFilePath()

	assert.True(t, strings.HasSuffix(cachePath, ".repopulse_cache.db"))
	assert.True(t, strings.HasSuffix(runsPath, ".repopulse_runs.db"))
	assert.NotEqual(t, cachePath, runsPath, "cache and runs must resolve to different files")
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		maxWidth int
		want     string
	}{
		{"short path unchanged", "acme/widget", 40, "acme/widget"},
		{"long path truncated", "a-very-long-organization/a-very-long-repository", 20, "...y-long-repository"},
		{"width too small", "acme/widget", 3, "acme/widget"},
		{"exact width", "acme/widget", 11, "acme/widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncatePath(tt.path, tt.maxWidth)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"yes", true, false},
		{"true", true, false},
		{"1", true, false},
		{"YES", true, false},
		{"no", false, false},
		{"false", false, false},
		{"0", false, false},
		{"No", false, false},
		{"maybe", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogWarn(t *testing.T) {
	// LogWarn writes to stderr and must not panic with a nil error.
	LogWarn("something odd", nil)
	LogWarn("something odd", os.ErrNotExist)
}
