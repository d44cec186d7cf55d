package matcher

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/price"
	"github.com/chainwatch/monitor/internal/store"
)

// recordingSender captures sent alerts and can be told to fail.
type recordingSender struct {
	mu      sync.Mutex
	sent    []store.Classification
	sendErr error
}

func (s *recordingSender) SendAlert(_ context.Context, c store.Classification, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, c)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newTestEngine(t *testing.T) (*Engine, *recordingSender, *metrics.Tracker, *store.DedupStore) {
	t.Helper()
	book := testBook(t)
	tracker := metrics.NewTracker(book)
	dedup := store.NewDedupStore()
	sender := &recordingSender{}
	engine := NewEngine(book, btcOracle(50000), dedup, tracker, sender, 2.0)
	return engine, sender, tracker, dedup
}

func TestEngine_AlertPath(t *testing.T) {
	engine, sender, tracker, _ := newTestEngine(t)

	tx := btcTx("tx-1", []string{stranger},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(5000)})
	engine.Process(context.Background(), tx)

	require.Equal(t, 1, sender.count())
	snap := tracker.Snapshot()
	stats := snap.AddressStats[store.ChainBTC][watchedA]
	assert.Equal(t, 1, stats.Alerts)
	assert.InDelta(t, 2.50, stats.TotalValueUSD, 1e-9)
	assert.Equal(t, 1, snap.TotalAlerts)
}

func TestEngine_FilteredPath(t *testing.T) {
	engine, sender, tracker, dedup := newTestEngine(t)

	tx := btcTx("tx-dust", []string{stranger},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(1000)})
	engine.Process(context.Background(), tx)

	assert.Zero(t, sender.count(), "filtered transactions are not notified")
	snap := tracker.Snapshot()
	stats := snap.AddressStats[store.ChainBTC][watchedA]
	assert.Equal(t, 1, stats.Filtered)
	assert.Zero(t, stats.TotalValueUSD)
	assert.True(t, dedup.Seen("tx-dust"), "filtered transactions enter dedup too")
}

func TestEngine_DedupIdempotence(t *testing.T) {
	engine, sender, tracker, _ := newTestEngine(t)

	tx := btcTx("tx-dup", []string{stranger},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(5000)})
	engine.Process(context.Background(), tx)
	engine.Process(context.Background(), tx)

	assert.Equal(t, 1, sender.count(), "redelivery yields exactly one notification")
	snap := tracker.Snapshot()
	assert.Equal(t, 1, snap.AddressStats[store.ChainBTC][watchedA].Alerts)
}

func TestEngine_FilteredNeverRetried(t *testing.T) {
	book := testBook(t)
	tracker := metrics.NewTracker(book)
	dedup := store.NewDedupStore()
	sender := &recordingSender{}
	oracle := price.NewOracle()
	engine := NewEngine(book, oracle, dedup, tracker, sender, 2.0)

	// No price yet: filtered and deduped.
	tx := btcTx("tx-early", []string{stranger},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(100000000)})
	engine.Process(context.Background(), tx)
	assert.Zero(t, sender.count())

	// Price arrives; the same transaction would now clear the
	// threshold, but it stays deduplicated until the clear cycle.
	oracle.SetPrice(store.ChainBTC, 50000)
	engine.Process(context.Background(), tx)
	assert.Zero(t, sender.count())

	// After the dedup cycle clears, it is processed again.
	dedup.Clear()
	engine.Process(context.Background(), tx)
	assert.Equal(t, 1, sender.count())
}

func TestEngine_IgnoredNotDeduped(t *testing.T) {
	engine, _, tracker, dedup := newTestEngine(t)

	tx := btcTx("tx-ignored", []string{stranger},
		store.TxOutput{Address: stranger, Amount: big.NewInt(100000000)})
	engine.Process(context.Background(), tx)

	assert.False(t, dedup.Seen("tx-ignored"), "ignored transactions leave no state")
	snap := tracker.Snapshot()
	assert.Zero(t, snap.TotalAlerts)
	assert.Zero(t, snap.TotalFiltered)
}

func TestEngine_SendFailureKeepsStats(t *testing.T) {
	engine, sender, tracker, dedup := newTestEngine(t)
	sender.sendErr = errors.New("telegram unreachable")

	tx := btcTx("tx-fail", []string{stranger},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(5000)})
	engine.Process(context.Background(), tx)

	snap := tracker.Snapshot()
	assert.Equal(t, 1, snap.AddressStats[store.ChainBTC][watchedA].Alerts,
		"stat mutation is not rolled back on send failure")
	assert.Equal(t, 1, snap.ErrorCount)
	assert.True(t, dedup.Seen("tx-fail"))
}

func TestEngine_RunDrainsChannel(t *testing.T) {
	engine, sender, _, _ := newTestEngine(t)

	txChan := make(chan store.Tx, 2)
	txChan <- btcTx("run-1", []string{stranger},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(5000)})
	txChan <- btcTx("run-2", []string{stranger},
		store.TxOutput{Address: watchedB, Amount: big.NewInt(6000)})
	close(txChan)

	engine.Run(context.Background(), txChan)
	assert.Equal(t, 2, sender.count())
}
