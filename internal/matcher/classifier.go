// Package matcher classifies normalized transactions against the
// watch-list and applies the resulting verdicts.
package matcher

import (
	"github.com/chainwatch/monitor/internal/price"
	"github.com/chainwatch/monitor/internal/store"
)

// Classify matches one transaction against the watch-list and returns
// at most one classification: the first output paying a watched
// address wins and no further outputs are evaluated. A nil return
// means the transaction is ignored (no watched recipient).
//
// An output does not qualify when its address also appears among the
// transaction's inputs; a same-address round trip is not an incoming
// transfer.
func Classify(tx store.Tx, book *store.AddressBook, oracle *price.Oracle, minimumUSD float64) *store.Classification {
	assetPrice := oracle.Price(tx.Chain)

	for _, out := range tx.Outputs {
		if out.Address == "" || !book.Contains(tx.Chain, out.Address) {
			continue
		}
		if appearsInInputs(tx, out.Address) {
			continue
		}

		coins := store.CoinAmount(tx.Chain, out.Amount)
		valueUSD := coins * assetPrice

		verdict := store.VerdictFiltered
		// Zero-amount outputs never alert, whatever the price says.
		if valueUSD >= minimumUSD && out.Amount != nil && out.Amount.Sign() > 0 {
			verdict = store.VerdictAlertable
		}

		return &store.Classification{
			Chain:          tx.Chain,
			TxHash:         tx.Hash,
			MatchedAddress: out.Address,
			FromAddress:    firstInputAddress(tx),
			Amount:         out.Amount,
			AmountCoins:    coins,
			ValueUSD:       valueUSD,
			Verdict:        verdict,
		}
	}

	return nil
}

// appearsInInputs reports whether addr is a sender in the transaction.
func appearsInInputs(tx store.Tx, addr string) bool {
	for _, in := range tx.Inputs {
		if in.Address == addr {
			return true
		}
	}
	return false
}

// firstInputAddress returns the first resolvable sender address, or ""
// when none is known.
func firstInputAddress(tx store.Tx) string {
	for _, in := range tx.Inputs {
		if in.Address != "" {
			return in.Address
		}
	}
	return ""
}
