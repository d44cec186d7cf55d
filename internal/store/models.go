// Package store holds the core domain types and the in-memory stores
// shared across the monitor pipeline.
package store

import (
	"fmt"
	"math/big"
)

// Chain identifies a supported blockchain.
type Chain string

const (
	ChainBTC Chain = "btc"
	ChainETH Chain = "eth"
)

// Chains lists every supported chain in a stable order.
var Chains = []Chain{ChainBTC, ChainETH}

// AssetSymbol returns the ticker symbol for the chain's native asset.
func (c Chain) AssetSymbol() string {
	switch c {
	case ChainBTC:
		return "BTC"
	case ChainETH:
		return "ETH"
	}
	return string(c)
}

// UnitsPerCoin returns how many native units make up one coin
// (satoshi for BTC, wei for ETH).
func (c Chain) UnitsPerCoin() *big.Float {
	switch c {
	case ChainBTC:
		return big.NewFloat(1e8)
	case ChainETH:
		return big.NewFloat(1e18)
	}
	return big.NewFloat(1)
}

// ExplorerTxURL returns a block-explorer link for a transaction hash.
func (c Chain) ExplorerTxURL(hash string) string {
	switch c {
	case ChainBTC:
		return "https://blockchain.info/tx/" + hash
	case ChainETH:
		return "https://etherscan.io/tx/" + hash
	}
	return hash
}

// TxInput is one input of a normalized transaction. Address may be
// empty when the feed does not resolve the spending address.
type TxInput struct {
	Address string
}

// TxOutput is one output of a normalized transaction. Amount is in the
// chain's native unit; big.Int because wei values overflow int64.
type TxOutput struct {
	Address string
	Amount  *big.Int
}

// Tx is a transaction event normalized from a chain feed frame.
// Produced fresh per frame and never mutated afterwards.
type Tx struct {
	Chain   Chain
	Hash    string
	Inputs  []TxInput
	Outputs []TxOutput
}

// Verdict is the classification outcome for a transaction relative to
// the watch-list.
type Verdict string

const (
	VerdictAlertable Verdict = "ALERTABLE"
	VerdictFiltered  Verdict = "FILTERED"
)

// Classification is the result of matching one transaction against the
// watch-list. At most one is produced per transaction.
type Classification struct {
	Chain          Chain
	TxHash         string
	MatchedAddress string
	FromAddress    string // first resolvable input address, "" if none
	Amount         *big.Int
	AmountCoins    float64
	ValueUSD       float64
	Verdict        Verdict
}

// CoinAmount converts a native-unit amount to whole coins.
func CoinAmount(c Chain, amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	coins, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), c.UnitsPerCoin()).Float64()
	return coins
}

// TruncateAddress shortens an address for display, keeping enough of
// both ends to stay recognizable.
func TruncateAddress(addr string) string {
	if len(addr) <= 16 {
		return addr
	}
	return fmt.Sprintf("%s...%s", addr[:8], addr[len(addr)-6:])
}

// TruncateHash shortens a transaction hash for display.
func TruncateHash(hash string) string {
	if len(hash) <= 20 {
		return hash
	}
	return hash[:20] + "..."
}
