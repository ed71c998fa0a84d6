package recommend

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeRole(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"fan":       RoleUser,
		"User":      RoleUser,
		"CUSTOMER":  RoleUser,
		"creator":   RoleAssistant,
		"Bot":       RoleAssistant,
		"assistant": RoleAssistant,
		" fan ":     RoleUser,
		"moderator": "moderator",
		"":          "",
	}
	for in, want := range tests {
		if got := NormalizeRole(in); got != want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeHistory(t *testing.T) {
	t.Parallel()

	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t2.Add(time.Minute)

	tests := []struct {
		name  string
		input []HistoryEntry
		want  []Turn
	}{
		{
			name:  "empty",
			input: nil,
			want:  []Turn{},
		},
		{
			name: "newest first is reordered",
			input: []HistoryEntry{
				{Sender: "creator", Content: "third", CreatedAt: t3},
				{Sender: "fan", Content: "second", CreatedAt: t2},
				{Sender: "fan", Content: "first", CreatedAt: t1},
			},
			want: []Turn{
				{Role: RoleUser, Content: "first"},
				{Role: RoleUser, Content: "second"},
				{Role: RoleAssistant, Content: "third"},
			},
		},
		{
			name: "missing timestamps keep input order",
			input: []HistoryEntry{
				{Role: "user", Content: "b", CreatedAt: t2},
				{Role: "assistant", Content: "a"},
			},
			want: []Turn{
				{Role: RoleUser, Content: "b"},
				{Role: RoleAssistant, Content: "a"},
			},
		},
		{
			name: "role before sender and content before message",
			input: []HistoryEntry{
				{Role: "bot", Sender: "fan", Content: "primary", Message: "secondary"},
				{Sender: "customer", Message: "fallback text"},
			},
			want: []Turn{
				{Role: RoleAssistant, Content: "primary"},
				{Role: RoleUser, Content: "fallback text"},
			},
		},
		{
			name: "empty text dropped",
			input: []HistoryEntry{
				{Sender: "fan", Content: "   "},
				{Sender: "fan"},
				{Sender: "creator", Content: "kept"},
			},
			want: []Turn{{Role: RoleAssistant, Content: "kept"}},
		},
		{
			name:  "unknown role preserved",
			input: []HistoryEntry{{Role: "Moderator", Content: "note"}},
			want:  []Turn{{Role: "Moderator", Content: "note"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeHistory(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizeHistory() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeHistoryDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	input := []HistoryEntry{
		{Sender: "fan", Content: "later", CreatedAt: t1.Add(time.Hour)},
		{Sender: "fan", Content: "earlier", CreatedAt: t1},
	}
	NormalizeHistory(input)
	if input[0].Content != "later" {
		t.Error("NormalizeHistory() reordered its input slice")
	}
}

func TestNormalizeHistoryEqualTimestamps(t *testing.T) {
	t.Parallel()

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	tests := []struct {
		name  string
		input []HistoryEntry
		want  []Turn
	}{
		{
			name: "newest first",
			input: []HistoryEntry{
				{Sender: "creator", Content: "third", CreatedAt: t2},
				{Sender: "creator", Content: "second", CreatedAt: t1},
				{Sender: "fan", Content: "first", CreatedAt: t1},
			},
			want: []Turn{
				{Role: RoleUser, Content: "first"},
				{Role: RoleAssistant, Content: "second"},
				{Role: RoleAssistant, Content: "third"},
			},
		},
		{
			name: "already ascending",
			input: []HistoryEntry{
				{Sender: "fan", Content: "first", CreatedAt: t1},
				{Sender: "creator", Content: "second", CreatedAt: t1},
				{Sender: "creator", Content: "third", CreatedAt: t2},
			},
			want: []Turn{
				{Role: RoleUser, Content: "first"},
				{Role: RoleAssistant, Content: "second"},
				{Role: RoleAssistant, Content: "third"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, NormalizeHistory(tt.input)); diff != "" {
				t.Errorf("NormalizeHistory() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
