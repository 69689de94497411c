package contract

import (
	"strings"
	"testing"
)

// FuzzShouldIgnore exercises the exclude matcher with arbitrary repo strings
// and patterns. The matcher must never panic, even on malformed globs, and
// an empty pattern list must never exclude anything.
func FuzzShouldIgnore(f *testing.F) {
	seeds := []struct {
		repo    string
		pattern string
	}{
		{"octocat/hello-world", "octocat/"},
		{"acme/fork-widget", "*/fork-*"},
		{"acme/widget-mirror", "-mirror"},
		{"acme/widget", ""},
		{"acme/widget", "["}, // malformed glob
		{"", "octocat/"},
		{"a/b", "?"},
	}
	for _, seed := range seeds {
		f.Add(seed.repo, seed.pattern)
	}

	f.Fuzz(func(t *testing.T, repo string, pattern string) {
		// Must not panic on any input.
		got := ShouldIgnore(repo, []string{pattern})

		// Empty or whitespace patterns never match.
		if strings.TrimSpace(pattern) == "" && got {
			t.Errorf("blank pattern %q unexpectedly excluded repo %q", pattern, repo)
		}

		// No patterns at all never match.
		if ShouldIgnore(repo, nil) {
			t.Errorf("empty exclude list unexpectedly excluded repo %q", repo)
		}
	})
}

// FuzzTruncatePath verifies the truncation helper never panics and always
// honors the width contract for widths that leave room for the ellipsis.
func FuzzTruncatePath(f *testing.F) {
	seeds := []struct {
		path     string
		maxWidth int
	}{
		{"octocat/hello-world", 10},
		{"a/b", 100},
		{"", 0},
		{"acme/widget", -1},
		{"acme/widget", 3},
		{"日本語/リポジトリ", 6},
	}
	for _, seed := range seeds {
		f.Add(seed.path, seed.maxWidth)
	}

	f.Fuzz(func(t *testing.T, path string, maxWidth int) {
		got := TruncatePath(path, maxWidth)

		if maxWidth > 3 {
			if n := len([]rune(got)); n > maxWidth {
				t.Errorf("TruncatePath(%q, %d) returned %d runes", path, maxWidth, n)
			}
		} else if got != path {
			t.Errorf("TruncatePath(%q, %d) modified path despite width being too small", path, maxWidth)
		}
	})
}
