package store

import "sync"

// DedupStore remembers transaction hashes that were already acted upon
// (alerted or filtered) so the same transaction never produces a second
// notification or stat mutation. Entries live until the next full
// Clear; there is no per-entry expiry.
type DedupStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupStore creates an empty DedupStore.
func NewDedupStore() *DedupStore {
	return &DedupStore{seen: make(map[string]struct{})}
}

// Seen reports whether the hash was already marked.
func (d *DedupStore) Seen(hash string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[hash]
	return ok
}

// MarkSeen records the hash.
func (d *DedupStore) MarkSeen(hash string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[hash] = struct{}{}
}

// CheckAndMark marks the hash and reports whether it was already
// present. The check and the insert happen under one lock so two
// near-simultaneous deliveries of the same transaction cannot both
// pass.
func (d *DedupStore) CheckAndMark(hash string) (alreadySeen bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[hash]; ok {
		return true
	}
	d.seen[hash] = struct{}{}
	return false
}

// Clear drops every entry. Runs on the dedup cycle.
func (d *DedupStore) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]struct{})
}

// Len returns the number of remembered hashes.
func (d *DedupStore) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
