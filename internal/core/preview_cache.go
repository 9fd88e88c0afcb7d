package core

import (
	"errors"
	"sync"
	"time"
)

// ErrPreviewNotFound is returned when a pending import has expired or was
// already saved.
var ErrPreviewNotFound = errors.New("import preview not found or expired")

// DefaultPreviewTTL is how long an unsaved preview is kept.
const DefaultPreviewTTL = 15 * time.Minute

// previewCache holds previews between the upload and the confirmation
// click on the upload page.
type previewCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]previewEntry
}

type previewEntry struct {
	preview *Preview
	expires time.Time
}

func newPreviewCache(ttl time.Duration) *previewCache {
	if ttl <= 0 {
		ttl = DefaultPreviewTTL
	}
	return &previewCache{ttl: ttl, now: time.Now, entries: make(map[string]previewEntry)}
}

func (c *previewCache) put(p *Preview) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
	c.entries[p.ImportID] = previewEntry{preview: p, expires: c.now().Add(c.ttl)}
}

// take removes and returns the preview; a preview can be saved only once.
func (c *previewCache) take(id string) (*Preview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	delete(c.entries, id)
	return e.preview, true
}

func (c *previewCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
	return len(c.entries)
}

func (c *previewCache) evictLocked() {
	now := c.now()
	for id, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, id)
		}
	}
}
