package handlers

import (
	"sync"
	"time"

	"github.com/edgard/middleman/internal/metrics"
)

// Selection is one suggestion offered over Telegram and waiting to be picked.
type Selection struct {
	ReplyID   string
	Group     string
	Rank      int
	CreatorID string
	FanID     string
	Content   string
	ChatType  string
	CreatedAt time.Time
}

// SelectionCache keeps offered suggestions until one of their group is picked
// or they outlive the TTL.
type SelectionCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]Selection
}

// NewSelectionCache returns an empty cache. A nil now uses time.Now.
func NewSelectionCache(ttl time.Duration, now func() time.Time) *SelectionCache {
	if now == nil {
		now = time.Now
	}
	return &SelectionCache{
		ttl:   ttl,
		now:   now,
		items: make(map[string]Selection),
	}
}

// Put stores the selections, stamping CreatedAt when unset.
func (c *SelectionCache) Put(selections ...Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, sel := range selections {
		if sel.CreatedAt.IsZero() {
			sel.CreatedAt = now
		}
		c.items[sel.ReplyID] = sel
	}
	metrics.PendingSelections.Set(float64(len(c.items)))
}

// Get returns the pending selection for replyID. Expired entries are reported
// as missing.
func (c *SelectionCache) Get(replyID string) (Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sel, ok := c.items[replyID]
	if !ok || c.expired(sel, c.now()) {
		return Selection{}, false
	}
	return sel, true
}

// Take returns the pending selection for replyID together with every entry of
// its group, and drops the group in the same step. Concurrent picks from one
// group therefore succeed only once. Put the group back to undo.
func (c *SelectionCache) Take(replyID string) (Selection, []Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sel, ok := c.items[replyID]
	if !ok || c.expired(sel, c.now()) {
		return Selection{}, nil, false
	}
	return sel, c.removeGroupLocked(sel.Group), true
}

// RemoveGroup drops every selection offered together with group.
func (c *SelectionCache) RemoveGroup(group string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.removeGroupLocked(group))
}

func (c *SelectionCache) removeGroupLocked(group string) []Selection {
	var removed []Selection
	for id, sel := range c.items {
		if sel.Group == group {
			delete(c.items, id)
			removed = append(removed, sel)
		}
	}
	metrics.PendingSelections.Set(float64(len(c.items)))
	return removed
}

// Prune drops expired selections and returns how many were removed.
func (c *SelectionCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, sel := range c.items {
		if c.expired(sel, now) {
			delete(c.items, id)
			removed++
		}
	}
	metrics.PendingSelections.Set(float64(len(c.items)))
	return removed
}

// Len returns the number of stored selections, expired ones included.
func (c *SelectionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *SelectionCache) expired(sel Selection, now time.Time) bool {
	return c.ttl > 0 && now.Sub(sel.CreatedAt) > c.ttl
}
