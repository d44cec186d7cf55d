package ingest

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwatch/monitor/internal/store"
)

func TestBTCCodec_DecodeUTX(t *testing.T) {
	frame := []byte(`{
		"op": "utx",
		"x": {
			"hash": "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b",
			"inputs": [
				{"prev_out": {"addr": "1SenderAddrXXXXXXXXXXXXXXXXXXXXXXX"}},
				{"prev_out": {}}
			],
			"out": [
				{"addr": "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", "value": 5000},
				{"addr": "1ChangeAddrXXXXXXXXXXXXXXXXXXXXXXX", "value": 120000}
			]
		}
	}`)

	tx, err := BTCCodec{}.Decode(frame)
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, store.ChainBTC, tx.Chain)
	assert.Equal(t, "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b", tx.Hash)
	require.Len(t, tx.Inputs, 2)
	assert.Equal(t, "1SenderAddrXXXXXXXXXXXXXXXXXXXXXXX", tx.Inputs[0].Address)
	assert.Empty(t, tx.Inputs[1].Address, "unresolvable input keeps empty address")
	require.Len(t, tx.Outputs, 2)
	assert.Equal(t, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", tx.Outputs[0].Address)
	assert.Equal(t, big.NewInt(5000), tx.Outputs[0].Amount)
}

func TestBTCCodec_IgnoresOtherOps(t *testing.T) {
	tx, err := BTCCodec{}.Decode([]byte(`{"op": "pong"}`))
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestBTCCodec_Malformed(t *testing.T) {
	_, err := BTCCodec{}.Decode([]byte(`{not json`))
	assert.Error(t, err)

	_, err = BTCCodec{}.Decode([]byte(`{"op": "utx", "x": {}}`))
	assert.Error(t, err, "utx frame without hash is malformed")
}

func TestBTCCodec_SubscribeMessage(t *testing.T) {
	msg, err := BTCCodec{}.SubscribeMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"unconfirmed_sub"}`, string(msg))
}

func TestETHCodec_DecodeNotification(t *testing.T) {
	frame := []byte(`{
		"jsonrpc": "2.0",
		"method": "eth_subscription",
		"params": {
			"subscription": "0xabc",
			"result": {
				"hash": "0xdeadbeef00000000000000000000000000000000000000000000000000000001",
				"from": "0xAAAA35cc6634C0532925a3b844Bc454e4438aaaa",
				"to": "0x742D35cc6634C0532925a3b844Bc454e4438f44e",
				"value": "0x2386f26fc10000"
			}
		}
	}`)

	tx, err := ETHCodec{}.Decode(frame)
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, store.ChainETH, tx.Chain)
	require.Len(t, tx.Inputs, 1)
	require.Len(t, tx.Outputs, 1)
	// Addresses are lowercased so watch-list lookups are case-stable.
	assert.Equal(t, "0xaaaa35cc6634c0532925a3b844bc454e4438aaaa", tx.Inputs[0].Address)
	assert.Equal(t, "0x742d35cc6634c0532925a3b844bc454e4438f44e", tx.Outputs[0].Address)

	// 0x2386f26fc10000 = 0.01 ETH in wei.
	want, _ := new(big.Int).SetString("2386f26fc10000", 16)
	assert.Equal(t, want, tx.Outputs[0].Amount)
}

func TestETHCodec_LargeValueExceedsInt64(t *testing.T) {
	// 20000 ETH in wei, larger than math.MaxInt64.
	frame := []byte(`{
		"method": "eth_subscription",
		"params": {"result": {
			"hash": "0x01",
			"from": "0xaaaa35cc6634c0532925a3b844bc454e4438aaaa",
			"to": "0x742d35cc6634c0532925a3b844bc454e4438f44e",
			"value": "0x43c33c1937564800000"
		}}
	}`)

	tx, err := ETHCodec{}.Decode(frame)
	require.NoError(t, err)
	require.NotNil(t, tx)

	want, _ := new(big.Int).SetString("43c33c1937564800000", 16)
	assert.Equal(t, want, tx.Outputs[0].Amount)
	assert.InDelta(t, 20000, store.CoinAmount(store.ChainETH, tx.Outputs[0].Amount), 1e-6)
}

func TestETHCodec_IgnoresAckAndContractCreation(t *testing.T) {
	tx, err := ETHCodec{}.Decode([]byte(`{"jsonrpc":"2.0","id":1,"result":"0xsubid"}`))
	require.NoError(t, err)
	assert.Nil(t, tx, "subscription ack carries no transaction")

	tx, err = ETHCodec{}.Decode([]byte(`{
		"method": "eth_subscription",
		"params": {"result": {"hash": "0x02", "from": "0xaaaa35cc6634c0532925a3b844bc454e4438aaaa", "value": "0x0"}}
	}`))
	require.NoError(t, err)
	assert.Nil(t, tx, "contract creation has no recipient")
}

func TestETHCodec_InvalidHexValue(t *testing.T) {
	_, err := ETHCodec{}.Decode([]byte(`{
		"method": "eth_subscription",
		"params": {"result": {"hash": "0x03", "from": "0xa", "to": "0xb", "value": "0xzz"}}
	}`))
	assert.Error(t, err)
}
