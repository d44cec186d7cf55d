package price

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/store"
)

// DefaultEndpoint is the CoinGecko simple-price endpoint for the two
// tracked assets.
const DefaultEndpoint = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin,ethereum&vs_currencies=usd"

const fetchTimeout = 10 * time.Second

// simplePrice mirrors CoinGecko's simple/price response shape.
type simplePrice struct {
	Bitcoin  struct{ USD float64 `json:"usd"` } `json:"bitcoin"`
	Ethereum struct{ USD float64 `json:"usd"` } `json:"ethereum"`
}

// Fetcher refreshes the Oracle on a fixed interval. Fetch failures are
// logged and counted; the Oracle keeps its last known values.
type Fetcher struct {
	endpoint string
	interval time.Duration
	oracle   *Oracle
	tracker  *metrics.Tracker
	client   *http.Client
}

// NewFetcher creates a Fetcher polling endpoint every interval.
func NewFetcher(endpoint string, interval time.Duration, oracle *Oracle, tracker *metrics.Tracker) *Fetcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Fetcher{
		endpoint: endpoint,
		interval: interval,
		oracle:   oracle,
		tracker:  tracker,
		client:   &http.Client{Timeout: fetchTimeout},
	}
}

// Run fetches once immediately, then on every tick until ctx is done.
func (f *Fetcher) Run(ctx context.Context) {
	f.refresh(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.refresh(ctx)
		}
	}
}

// refresh performs one fetch and updates the oracle and health state.
func (f *Fetcher) refresh(ctx context.Context) {
	if err := f.FetchOnce(ctx); err != nil {
		slog.Error("price_fetch_failed", "error", err)
		f.tracker.RecordError()
		return
	}
	f.tracker.SetPriceUpdated(time.Now())
	slog.Info("price_updated",
		"btc_usd", f.oracle.Price(store.ChainBTC),
		"eth_usd", f.oracle.Price(store.ChainETH),
	)
}

// FetchOnce performs a single price fetch and stores the result.
func (f *Fetcher) FetchOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("build price request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("price request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("price request: unexpected status %d", resp.StatusCode)
	}

	var body simplePrice
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode price response: %w", err)
	}

	f.oracle.SetPrice(store.ChainBTC, body.Bitcoin.USD)
	f.oracle.SetPrice(store.ChainETH, body.Ethereum.USD)
	return nil
}
