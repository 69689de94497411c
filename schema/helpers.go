package schema

import (
	"fmt"
	"sort"
	"strings"
)

// IsBot reports whether a login belongs to an automation account.
// GitHub marks app accounts with a "[bot]" suffix; a few legacy bots
// carry the marker mid-string.
func IsBot(login string) bool {
	return strings.Contains(login, "[bot]")
}

// TruncateLogin shortens a login for table display, keeping the
// leading characters and appending an ellipsis. Logins at or under the
// limit are returned unchanged. Limits of 3 or less fall back to the
// raw login since there is no room for the ellipsis.
func TruncateLogin(login string, maxWidth int) string {
	runes := []rune(login)
	if maxWidth <= 3 || len(runes) <= maxWidth {
		return login
	}
	return string(runes[:maxWidth-3]) + "..."
}

// FormatContributors renders the top contributor logins as
// "alice, bob, carol +2 more", with the overflow count covering
// everything past the limit.
func FormatContributors(logins []string, limit int) string {
	if len(logins) == 0 {
		return ""
	}
	if limit <= 0 || limit >= len(logins) {
		return strings.Join(logins, ", ")
	}
	head := strings.Join(logins[:limit], ", ")
	return fmt.Sprintf("%s +%d more", head, len(logins)-limit)
}

// ContributorsEqual compares two slices of logins, considering them equal
// if they contain the same logins regardless of order.
func ContributorsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	aSorted := make([]string, len(a))
	copy(aSorted, a)
	sort.Strings(aSorted)

	bSorted := make([]string, len(b))
	copy(bSorted, b)
	sort.Strings(bSorted)

	for i := range aSorted {
		if aSorted[i] != bSorted[i] {
			return false
		}
	}
	return true
}

// CountHumans returns how many logins are not automation accounts.
func CountHumans(logins []string) int {
	n := 0
	for _, l := range logins {
		if !IsBot(l) {
			n++
		}
	}
	return n
}
