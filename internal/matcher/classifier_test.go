package matcher

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/monitor/internal/price"
	"github.com/chainwatch/monitor/internal/store"
)

const (
	watchedA = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	watchedB = "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"
	stranger = "1StrangerAddrXXXXXXXXXXXXXXXXXXXXX"
)

func testBook(t *testing.T) *store.AddressBook {
	t.Helper()
	return store.NewAddressBook(map[store.Chain][]string{
		store.ChainBTC: {watchedA, watchedB},
	}, nil)
}

func btcOracle(usd float64) *price.Oracle {
	o := price.NewOracle()
	o.SetPrice(store.ChainBTC, usd)
	return o
}

func btcTx(hash string, inputs []string, outputs ...store.TxOutput) store.Tx {
	tx := store.Tx{Chain: store.ChainBTC, Hash: hash, Outputs: outputs}
	for _, addr := range inputs {
		tx.Inputs = append(tx.Inputs, store.TxInput{Address: addr})
	}
	return tx
}

func TestClassify_AlertableAboveThreshold(t *testing.T) {
	// 5000 satoshi at $50,000/BTC = $2.50, threshold $2.00.
	tx := btcTx("tx-alert", []string{stranger},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(5000)})

	c := Classify(tx, testBook(t), btcOracle(50000), 2.0)
	require.NotNil(t, c)

	assert.Equal(t, store.VerdictAlertable, c.Verdict)
	assert.Equal(t, watchedA, c.MatchedAddress)
	assert.Equal(t, stranger, c.FromAddress)
	assert.InDelta(t, 2.50, c.ValueUSD, 1e-9)
	assert.InDelta(t, 0.00005, c.AmountCoins, 1e-12)
}

func TestClassify_FilteredBelowThreshold(t *testing.T) {
	// 1000 satoshi at $50,000/BTC = $0.50.
	tx := btcTx("tx-dust", []string{stranger},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(1000)})

	c := Classify(tx, testBook(t), btcOracle(50000), 2.0)
	require.NotNil(t, c)
	assert.Equal(t, store.VerdictFiltered, c.Verdict)
	assert.InDelta(t, 0.50, c.ValueUSD, 1e-9)
}

func TestClassify_RoundTripExcluded(t *testing.T) {
	// Watched address appears as both sender and recipient.
	tx := btcTx("tx-roundtrip", []string{watchedA},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(100000000)})

	c := Classify(tx, testBook(t), btcOracle(50000), 2.0)
	assert.Nil(t, c, "same-address round trip is not an incoming transfer")
}

func TestClassify_RoundTripSkipsToNextOutput(t *testing.T) {
	// First watched output is a round trip, second watched output is a
	// genuine transfer; scanning continues past the disqualified one.
	tx := btcTx("tx-mixed", []string{watchedA},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(50000)},
		store.TxOutput{Address: watchedB, Amount: big.NewInt(60000)})

	c := Classify(tx, testBook(t), btcOracle(50000), 2.0)
	require.NotNil(t, c)
	assert.Equal(t, watchedB, c.MatchedAddress)
	assert.Equal(t, store.VerdictAlertable, c.Verdict)
}

func TestClassify_FirstQualifyingOutputWins(t *testing.T) {
	tx := btcTx("tx-two-watched", []string{stranger},
		store.TxOutput{Address: watchedB, Amount: big.NewInt(5000)},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(900000)})

	c := Classify(tx, testBook(t), btcOracle(50000), 2.0)
	require.NotNil(t, c)
	assert.Equal(t, watchedB, c.MatchedAddress, "declared output order decides")
}

func TestClassify_NoWatchedRecipient(t *testing.T) {
	tx := btcTx("tx-ignored", []string{stranger},
		store.TxOutput{Address: stranger, Amount: big.NewInt(100000000)})

	assert.Nil(t, Classify(tx, testBook(t), btcOracle(50000), 2.0))
}

func TestClassify_ZeroAmountNeverAlerts(t *testing.T) {
	tx := btcTx("tx-zero", []string{stranger},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(0)})

	c := Classify(tx, testBook(t), btcOracle(1e12), 0)
	require.NotNil(t, c)
	assert.Equal(t, store.VerdictFiltered, c.Verdict)
}

func TestClassify_NoPriceYetMeansFiltered(t *testing.T) {
	tx := btcTx("tx-nopraice", []string{stranger},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(100000000)})

	c := Classify(tx, testBook(t), price.NewOracle(), 2.0)
	require.NotNil(t, c)
	assert.Equal(t, store.VerdictFiltered, c.Verdict)
	assert.Zero(t, c.ValueUSD)
}

func TestClassify_UnknownSender(t *testing.T) {
	tx := btcTx("tx-unknown-sender", []string{"", ""},
		store.TxOutput{Address: watchedA, Amount: big.NewInt(5000)})

	c := Classify(tx, testBook(t), btcOracle(50000), 2.0)
	require.NotNil(t, c)
	assert.Empty(t, c.FromAddress, "missing sender does not block classification")
	assert.Equal(t, store.VerdictAlertable, c.Verdict)
}

func TestClassify_ETHTransfer(t *testing.T) {
	watched := "0x742d35cc6634c0532925a3b844bc454e4438f44e"
	book := store.NewAddressBook(map[store.Chain][]string{
		store.ChainETH: {watched},
	}, nil)
	oracle := price.NewOracle()
	oracle.SetPrice(store.ChainETH, 3000)

	// 0.01 ETH = $30.
	wei, _ := new(big.Int).SetString("2386f26fc10000", 16)
	tx := store.Tx{
		Chain:   store.ChainETH,
		Hash:    "0xabc",
		Inputs:  []store.TxInput{{Address: "0xaaaa35cc6634c0532925a3b844bc454e4438aaaa"}},
		Outputs: []store.TxOutput{{Address: watched, Amount: wei}},
	}

	c := Classify(tx, book, oracle, 2.0)
	require.NotNil(t, c)
	assert.Equal(t, store.VerdictAlertable, c.Verdict)
	assert.InDelta(t, 30.0, c.ValueUSD, 1e-6)
}

func TestClassify_ChecksummedConfigMatchesFeedCasing(t *testing.T) {
	// The watch-list is configured with an EIP-55 mixed-case address;
	// the feed delivers the recipient lowercased.
	book := store.NewAddressBook(map[store.Chain][]string{
		store.ChainETH: {"0x742d35Cc6634C0532925a3b844Bc454e4438f44e"},
	}, nil)
	oracle := price.NewOracle()
	oracle.SetPrice(store.ChainETH, 3000)

	// 0.01 ETH = $30.
	wei, _ := new(big.Int).SetString("2386f26fc10000", 16)
	tx := store.Tx{
		Chain:   store.ChainETH,
		Hash:    "0xdef",
		Inputs:  []store.TxInput{{Address: "0xaaaa35cc6634c0532925a3b844bc454e4438aaaa"}},
		Outputs: []store.TxOutput{{Address: "0x742d35cc6634c0532925a3b844bc454e4438f44e", Amount: wei}},
	}

	c := Classify(tx, book, oracle, 2.0)
	require.NotNil(t, c)
	assert.Equal(t, store.VerdictAlertable, c.Verdict)
	assert.Equal(t, "0x742d35cc6634c0532925a3b844bc454e4438f44e", c.MatchedAddress)
	assert.InDelta(t, 30.0, c.ValueUSD, 1e-6)
}
