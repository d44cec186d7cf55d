// Package metrics provides thread-safe aggregation of per-address and
// global monitor statistics.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/chainwatch/monitor/internal/store"
)

// ConnState describes the state of a chain's feed connection.
type ConnState string

const (
	ConnDisconnected ConnState = "disconnected"
	ConnConnecting   ConnState = "connecting"
	ConnConnected    ConnState = "connected"
	ConnError        ConnState = "error"
)

// AddressStats tracks activity for one watched address. Alerts and
// Filtered reset on the daily cycle; TotalValueUSD never resets.
type AddressStats struct {
	Alerts        int
	Filtered      int
	TotalValueUSD float64
}

// AddressEntry pairs an address with a copy of its stats, for listings.
type AddressEntry struct {
	Address string
	Stats   AddressStats
}

// Snapshot is a point-in-time, eventually-consistent copy of the
// aggregated state, safe to read without further locking.
type Snapshot struct {
	TotalAlerts     int
	TotalFiltered   int
	ErrorCount      int
	ConnStates      map[store.Chain]ConnState
	AddressStats    map[store.Chain]map[string]AddressStats
	LastPriceUpdate time.Time
	Uptime          time.Duration
}

// Tracker owns per-address counters, global totals, and connection
// health. Mutations for one classification are applied under a single
// lock acquisition so readers never observe a half-applied verdict.
type Tracker struct {
	mu            sync.RWMutex
	addressStats  map[store.Chain]map[string]*AddressStats
	totalAlerts   int
	totalFiltered int
	errorCount    int
	connStates    map[store.Chain]ConnState
	lastPriceAt   time.Time
	startedAt     time.Time
}

// NewTracker creates a Tracker seeded with one stats entry per watched
// address, so listings show zeroed rows before any activity.
func NewTracker(book *store.AddressBook) *Tracker {
	t := &Tracker{
		addressStats: make(map[store.Chain]map[string]*AddressStats),
		connStates:   make(map[store.Chain]ConnState),
		startedAt:    time.Now(),
	}
	for _, chain := range store.Chains {
		t.addressStats[chain] = make(map[string]*AddressStats)
		for _, addr := range book.Addresses(chain) {
			t.addressStats[chain][addr] = &AddressStats{}
		}
		t.connStates[chain] = ConnDisconnected
	}
	return t
}

// RecordAlert applies an alertable verdict: bumps the address's alert
// count and cumulative value plus the global total, atomically.
// Returns the address's alert ordinal for use in the notification.
func (t *Tracker) RecordAlert(chain store.Chain, addr string, valueUSD float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := t.stats(chain, addr)
	stats.Alerts++
	stats.TotalValueUSD += valueUSD
	t.totalAlerts++
	return stats.Alerts
}

// RecordFiltered applies a below-threshold verdict.
func (t *Tracker) RecordFiltered(chain store.Chain, addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats(chain, addr).Filtered++
	t.totalFiltered++
}

// stats returns the entry for addr, creating it if the address was not
// seeded. Callers must hold the write lock.
func (t *Tracker) stats(chain store.Chain, addr string) *AddressStats {
	m := t.addressStats[chain]
	if m == nil {
		m = make(map[string]*AddressStats)
		t.addressStats[chain] = m
	}
	s, ok := m[addr]
	if !ok {
		s = &AddressStats{}
		m[addr] = s
	}
	return s
}

// RecordError bumps the global non-fatal error counter.
func (t *Tracker) RecordError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorCount++
}

// SetConnState records a chain's feed connection state.
func (t *Tracker) SetConnState(chain store.Chain, state ConnState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connStates[chain] = state
}

// SetPriceUpdated records the time of the last successful price fetch.
func (t *Tracker) SetPriceUpdated(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastPriceAt = at
}

// DailyReset zeroes alert and filtered counters for every address and
// the global totals. Cumulative USD value is preserved.
func (t *Tracker) DailyReset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, m := range t.addressStats {
		for _, stats := range m {
			stats.Alerts = 0
			stats.Filtered = 0
		}
	}
	t.totalAlerts = 0
	t.totalFiltered = 0
}

// Snapshot returns a consistent copy of the aggregated state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		TotalAlerts:     t.totalAlerts,
		TotalFiltered:   t.totalFiltered,
		ErrorCount:      t.errorCount,
		ConnStates:      make(map[store.Chain]ConnState, len(t.connStates)),
		AddressStats:    make(map[store.Chain]map[string]AddressStats, len(t.addressStats)),
		LastPriceUpdate: t.lastPriceAt,
		Uptime:          time.Since(t.startedAt),
	}
	for chain, state := range t.connStates {
		snap.ConnStates[chain] = state
	}
	for chain, m := range t.addressStats {
		cp := make(map[string]AddressStats, len(m))
		for addr, stats := range m {
			cp[addr] = *stats
		}
		snap.AddressStats[chain] = cp
	}
	return snap
}

// TopByValue returns up to n addresses on a chain ordered by
// cumulative USD value, highest first.
func (t *Tracker) TopByValue(chain store.Chain, n int) []AddressEntry {
	t.mu.RLock()
	entries := make([]AddressEntry, 0, len(t.addressStats[chain]))
	for addr, stats := range t.addressStats[chain] {
		entries = append(entries, AddressEntry{Address: addr, Stats: *stats})
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Stats.TotalValueUSD != entries[j].Stats.TotalValueUSD {
			return entries[i].Stats.TotalValueUSD > entries[j].Stats.TotalValueUSD
		}
		return entries[i].Address < entries[j].Address
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// MostActive returns the address with the highest alert count on a
// chain, or false when no address has alerted yet.
func (t *Tracker) MostActive(chain store.Chain) (AddressEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var best AddressEntry
	found := false
	for addr, stats := range t.addressStats[chain] {
		if stats.Alerts == 0 {
			continue
		}
		if !found || stats.Alerts > best.Stats.Alerts ||
			(stats.Alerts == best.Stats.Alerts && addr < best.Address) {
			best = AddressEntry{Address: addr, Stats: *stats}
			found = true
		}
	}
	return best, found
}

// Uptime returns how long the tracker has existed.
func (t *Tracker) Uptime() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return time.Since(t.startedAt)
}
