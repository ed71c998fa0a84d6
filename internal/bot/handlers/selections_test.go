package handlers

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSelectionCache(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewSelectionCache(30*time.Minute, func() time.Time { return now })

	cache.Put(
		Selection{ReplyID: "rec_1_1", Group: "rec_1_1", Rank: 1},
		Selection{ReplyID: "rec_2_1", Group: "rec_1_1", Rank: 2},
		Selection{ReplyID: "rec_1_2", Group: "rec_1_2", Rank: 1, CreatedAt: now.Add(-time.Hour)},
	)

	if sel, ok := cache.Get("rec_2_1"); !ok || sel.Rank != 2 {
		t.Errorf("Get(rec_2_1) = %+v, %v", sel, ok)
	}
	if _, ok := cache.Get("rec_1_2"); ok {
		t.Error("Get() returned an expired selection")
	}
	if _, ok := cache.Get("missing"); ok {
		t.Error("Get() returned an unknown selection")
	}

	if n := cache.Prune(); n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if n := cache.RemoveGroup("rec_1_1"); n != 2 {
		t.Errorf("RemoveGroup() = %d, want 2", n)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

func TestSelectionCacheTakeOnce(t *testing.T) {
	t.Parallel()

	cache := NewSelectionCache(time.Hour, nil)
	cache.Put(
		Selection{ReplyID: "rec_1_9", Group: "rec_1_9", Rank: 1},
		Selection{ReplyID: "rec_2_9", Group: "rec_1_9", Rank: 2},
		Selection{ReplyID: "rec_3_9", Group: "rec_1_9", Rank: 3},
	)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := []string{"rec_1_9", "rec_2_9", "rec_3_9"}
			if _, _, ok := cache.Take(ids[i%len(ids)]); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("Take() succeeded %d times, want 1", wins.Load())
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

func TestSelectionCacheTakeRestore(t *testing.T) {
	t.Parallel()

	cache := NewSelectionCache(time.Hour, nil)
	cache.Put(
		Selection{ReplyID: "rec_1_3", Group: "rec_1_3", Rank: 1},
		Selection{ReplyID: "rec_2_3", Group: "rec_1_3", Rank: 2},
	)

	sel, group, ok := cache.Take("rec_2_3")
	if !ok || sel.Rank != 2 || len(group) != 2 {
		t.Fatalf("Take() = %+v, %d entries, %v", sel, len(group), ok)
	}
	if _, _, ok := cache.Take("rec_1_3"); ok {
		t.Error("Take() returned a selection from an already taken group")
	}

	cache.Put(group...)
	if _, ok := cache.Get("rec_1_3"); !ok {
		t.Error("group was not restored by Put()")
	}
}

func TestCommandArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		n    int
		want []string
	}{
		{"/suggest", 4, nil},
		{"/suggest   ", 4, nil},
		{"/suggest c1 f1 p1", 5, []string{"c1", "f1", "p1"}},
		{"/suggest  c1\tf1  p1 voice", 5, []string{"c1", "f1", "p1", "voice"}},
		{"/fan c1 f1 hey there  you", 3, []string{"c1", "f1", "hey there  you"}},
		{"/fan c1 f1\nline one\nline two", 3, []string{"c1", "f1", "line one\nline two"}},
		{"/fan c1", 3, []string{"c1"}},
	}

	for _, tt := range tests {
		got := commandArgs(tt.text, tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("commandArgs(%q) = %q, want %q", tt.text, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("commandArgs(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
			}
		}
	}
}
