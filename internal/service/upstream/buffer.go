package upstream

import (
	"strings"
	"sync"
	"time"

	"SentiPulse/internal/domain/models"
)

// PostBuffer holds recently streamed posts per symbol so the REST path can
// serve them without spending upstream quota. Entries age out after ttl.
type PostBuffer struct {
	mu    sync.RWMutex
	ttl   time.Duration
	posts map[string][]models.NormalizedPost
	now   func() time.Time
}

// NewPostBuffer creates a buffer whose entries expire after ttl.
func NewPostBuffer(ttl time.Duration) *PostBuffer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &PostBuffer{
		ttl:   ttl,
		posts: make(map[string][]models.NormalizedPost),
		now:   time.Now,
	}
}

// Add appends a post under symbol, pruning aged entries as it goes.
func (b *PostBuffer) Add(symbol string, post models.NormalizedPost) {
	sym := strings.ToUpper(symbol)

	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-b.ttl)
	kept := b.posts[sym][:0]
	for _, p := range b.posts[sym] {
		if p.PublishedAt.After(cutoff) {
			kept = append(kept, p)
		}
	}
	b.posts[sym] = append(kept, post)
}

// Recent returns buffered posts for symbol published within window.
func (b *PostBuffer) Recent(symbol string, window time.Duration) []models.NormalizedPost {
	sym := strings.ToUpper(symbol)
	cutoff := b.now().Add(-window)

	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []models.NormalizedPost
	for _, p := range b.posts[sym] {
		if p.PublishedAt.After(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the buffered post count for symbol, aged entries included.
func (b *PostBuffer) Len(symbol string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.posts[strings.ToUpper(symbol)])
}
