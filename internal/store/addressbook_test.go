package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	btcAddr  = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	btcAddr2 = "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"
	ethAddr  = "0x742d35cc6634c0532925a3b844bc454e4438f44e"
)

func TestValidAddress(t *testing.T) {
	tests := []struct {
		name  string
		chain Chain
		addr  string
		want  bool
	}{
		{"btc legacy", ChainBTC, btcAddr, true},
		{"btc p2sh", ChainBTC, btcAddr2, true},
		{"btc bech32", ChainBTC, "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", true},
		{"btc too short", ChainBTC, "1abc", false},
		{"btc wrong prefix", ChainBTC, "xyz123", false},
		{"btc testnet", ChainBTC, "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", false},
		{"eth valid", ChainETH, ethAddr, true},
		{"eth no prefix", ChainETH, "742d35cc6634c0532925a3b844bc454e4438f44e42", false},
		{"eth bad length", ChainETH, "0x742d35", false},
		{"eth non-hex", ChainETH, "0x742d35cc6634c0532925a3b844bc454e4438f44z", false},
		{"empty", ChainBTC, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAddress(tt.chain, tt.addr))
		})
	}
}

func TestNewAddressBook_DropsInvalidAndDuplicates(t *testing.T) {
	book := NewAddressBook(map[Chain][]string{
		ChainBTC: {btcAddr, "not-an-address", btcAddr, btcAddr2},
		ChainETH: {ethAddr, "0xshort"},
	}, nil)

	assert.Equal(t, 2, book.Count(ChainBTC))
	assert.Equal(t, 1, book.Count(ChainETH))
	assert.Equal(t, 3, book.Total())

	assert.True(t, book.Contains(ChainBTC, btcAddr))
	assert.False(t, book.Contains(ChainBTC, "not-an-address"))
	assert.False(t, book.Contains(ChainETH, btcAddr), "chains are partitioned")
}

func TestAddressBook_Labels(t *testing.T) {
	book := NewAddressBook(
		map[Chain][]string{ChainBTC: {btcAddr, btcAddr2}},
		map[Chain]map[string]string{ChainBTC: {btcAddr: "Cold Wallet"}},
	)

	assert.Equal(t, "Cold Wallet", book.Label(ChainBTC, btcAddr))

	// Unlabeled addresses fall back to a truncated display form.
	label := book.Label(ChainBTC, btcAddr2)
	require.NotEmpty(t, label)
	assert.NotEqual(t, btcAddr2, label)
	assert.Contains(t, label, "...")
}

func TestAddressBook_NormalizesChecksummedETH(t *testing.T) {
	// Wallets and explorers export EIP-55 mixed-case addresses; the
	// feeds deliver lowercase. Both must land on the same entry.
	checksummed := "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

	book := NewAddressBook(
		map[Chain][]string{ChainETH: {checksummed}},
		map[Chain]map[string]string{ChainETH: {checksummed: "Exchange Hot"}},
	)

	require.Equal(t, 1, book.Count(ChainETH))
	assert.True(t, book.Contains(ChainETH, ethAddr), "lowercase lookup must match")
	assert.True(t, book.Contains(ChainETH, checksummed), "checksummed lookup must match")
	assert.Equal(t, "Exchange Hot", book.Label(ChainETH, ethAddr))
	assert.Equal(t, []string{ethAddr}, book.Addresses(ChainETH), "stored form is lowercase")

	// Same address in two casings is one entry, not two.
	dup := NewAddressBook(map[Chain][]string{ChainETH: {checksummed, ethAddr}}, nil)
	assert.Equal(t, 1, dup.Count(ChainETH))
}

func TestAddressBook_BTCCaseSensitive(t *testing.T) {
	book := NewAddressBook(map[Chain][]string{ChainBTC: {btcAddr}}, nil)
	assert.False(t, book.Contains(ChainBTC, strings.ToLower(btcAddr)), "base58 is case-sensitive")
}

func TestAddressBook_OrderStable(t *testing.T) {
	book := NewAddressBook(map[Chain][]string{ChainBTC: {btcAddr2, btcAddr}}, nil)
	assert.Equal(t, []string{btcAddr2, btcAddr}, book.Addresses(ChainBTC))
}
