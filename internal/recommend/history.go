package recommend

import (
	"slices"
	"strings"
)

var roleAliases = map[string]string{
	"fan":       RoleUser,
	"user":      RoleUser,
	"customer":  RoleUser,
	"creator":   RoleAssistant,
	"assistant": RoleAssistant,
	"bot":       RoleAssistant,
}

// NormalizeRole maps a stored role tag onto "user" or "assistant".
// Unrecognized roles are returned trimmed but otherwise unchanged.
func NormalizeRole(role string) string {
	role = strings.TrimSpace(role)
	if canonical, ok := roleAliases[strings.ToLower(role)]; ok {
		return canonical
	}
	return role
}

func (e HistoryEntry) resolvedRole() string {
	if strings.TrimSpace(e.Role) != "" {
		return e.Role
	}
	return e.Sender
}

func (e HistoryEntry) resolvedText() string {
	if strings.TrimSpace(e.Content) != "" {
		return e.Content
	}
	return e.Message
}

// NormalizeHistory converts entries into turns. Entries without text are
// dropped. When every entry has a timestamp the result is chronological,
// otherwise the input order is kept. Input that is not already ascending is
// treated as newest first, so entries sharing a timestamp come out oldest
// first.
func NormalizeHistory(entries []HistoryEntry) []Turn {
	ordered := entries
	if len(entries) > 1 && allTimestamped(entries) && !ascending(entries) {
		ordered = slices.Clone(entries)
		slices.Reverse(ordered)
		slices.SortStableFunc(ordered, func(a, b HistoryEntry) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}

	turns := make([]Turn, 0, len(ordered))
	for _, e := range ordered {
		text := strings.TrimSpace(e.resolvedText())
		if text == "" {
			continue
		}
		turns = append(turns, Turn{Role: NormalizeRole(e.resolvedRole()), Content: text})
	}
	return turns
}

func allTimestamped(entries []HistoryEntry) bool {
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			return false
		}
	}
	return true
}

func ascending(entries []HistoryEntry) bool {
	return slices.IsSortedFunc(entries, func(a, b HistoryEntry) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
