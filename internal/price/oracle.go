// Package price holds the latest fiat prices for the tracked assets
// and the periodic fetcher that refreshes them.
package price

import (
	"sync"

	"github.com/chainwatch/monitor/internal/store"
)

// Oracle holds the most recently fetched USD price per chain asset.
// Price returns 0 until the first successful fetch; classification
// treats that as "everything below threshold" rather than an error.
type Oracle struct {
	mu     sync.RWMutex
	prices map[store.Chain]float64
}

// NewOracle creates an Oracle with no prices yet.
func NewOracle() *Oracle {
	return &Oracle{prices: make(map[store.Chain]float64)}
}

// Price returns the latest USD price for the chain's asset, 0 if none
// has been fetched.
func (o *Oracle) Price(chain store.Chain) float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.prices[chain]
}

// SetPrice stores a price. Zero or negative values are ignored so a
// bad fetch cannot erase the last known good price.
func (o *Oracle) SetPrice(chain store.Chain, usd float64) {
	if usd <= 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[chain] = usd
}

// All returns a copy of the current prices.
func (o *Oracle) All() map[store.Chain]float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	cp := make(map[store.Chain]float64, len(o.prices))
	for chain, usd := range o.prices {
		cp[chain] = usd
	}
	return cp
}
