package bridge

import (
	"strings"

	"github.com/samber/lo"
)

// SplitEmails splits a comma-separated email list, trimming entries and
// dropping empty ones
func SplitEmails(csv string) []string {
	parts := strings.Split(csv, ",")
	return lo.FilterMap(parts, func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
}

// MergeEmails combines the input field's current value with new entries:
// existing entries keep their order, new ones are appended, and duplicates
// are dropped by case-sensitive exact match.
func MergeEmails(existing string, incoming []string) string {
	combined := SplitEmails(existing)
	for _, e := range incoming {
		e = strings.TrimSpace(e)
		if e != "" {
			combined = append(combined, e)
		}
	}
	return strings.Join(lo.Uniq(combined), ", ")
}
