package matcher

import (
	"context"
	"log/slog"

	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/price"
	"github.com/chainwatch/monitor/internal/store"
)

// AlertSender delivers a formatted alert for an alertable
// classification. ordinal is the address's alert count including this
// one.
type AlertSender interface {
	SendAlert(ctx context.Context, c store.Classification, ordinal int) error
}

// Engine consumes normalized transactions, classifies them, and
// applies the verdicts: dedup first, then stats, then notification.
// One Run goroutine per chain keeps per-chain processing ordered.
type Engine struct {
	book    *store.AddressBook
	oracle  *price.Oracle
	dedup   *store.DedupStore
	tracker *metrics.Tracker
	sender  AlertSender
	minUSD  float64
}

// NewEngine wires the engine's collaborators.
func NewEngine(book *store.AddressBook, oracle *price.Oracle, dedup *store.DedupStore,
	tracker *metrics.Tracker, sender AlertSender, minimumUSD float64) *Engine {
	return &Engine{
		book:    book,
		oracle:  oracle,
		dedup:   dedup,
		tracker: tracker,
		sender:  sender,
		minUSD:  minimumUSD,
	}
}

// Run processes transactions from txChan until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, txChan <-chan store.Tx) {
	for {
		select {
		case <-ctx.Done():
			return
		case tx, ok := <-txChan:
			if !ok {
				return
			}
			e.Process(ctx, tx)
		}
	}
}

// Process classifies one transaction and applies its verdict.
func (e *Engine) Process(ctx context.Context, tx store.Tx) {
	c := Classify(tx, e.book, e.oracle, e.minUSD)
	if c == nil {
		return
	}

	// Mark before stats and before any send so a redelivered frame
	// cannot double-apply. Filtered transactions are marked too and
	// will not be reconsidered if the price later moves.
	if e.dedup.CheckAndMark(c.TxHash) {
		slog.Debug("tx_deduplicated", "chain", c.Chain, "hash", store.TruncateHash(c.TxHash))
		return
	}

	switch c.Verdict {
	case store.VerdictAlertable:
		ordinal := e.tracker.RecordAlert(c.Chain, c.MatchedAddress, c.ValueUSD)
		slog.Info("alert",
			"chain", c.Chain,
			"to", e.book.Label(c.Chain, c.MatchedAddress),
			"amount", c.AmountCoins,
			"value_usd", c.ValueUSD,
			"hash", store.TruncateHash(c.TxHash),
		)
		if err := e.sender.SendAlert(ctx, *c, ordinal); err != nil {
			// The stat mutation stays applied; delivery is best effort.
			slog.Error("alert_send_failed", "chain", c.Chain, "hash", store.TruncateHash(c.TxHash), "error", err)
			e.tracker.RecordError()
		}

	case store.VerdictFiltered:
		e.tracker.RecordFiltered(c.Chain, c.MatchedAddress)
		slog.Info("tx_filtered",
			"chain", c.Chain,
			"to", e.book.Label(c.Chain, c.MatchedAddress),
			"amount", c.AmountCoins,
			"value_usd", c.ValueUSD,
			"minimum_usd", e.minUSD,
		)
	}
}
