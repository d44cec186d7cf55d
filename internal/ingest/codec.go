// Package ingest maintains the feed subscriptions and decodes raw
// frames into normalized transactions.
package ingest

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/chainwatch/monitor/internal/store"
)

// Codec translates between one chain's wire protocol and normalized
// transactions.
type Codec interface {
	Chain() store.Chain
	// SubscribeMessage is the control frame sent right after connect.
	SubscribeMessage() ([]byte, error)
	// Decode parses one inbound frame. Returns (nil, nil) for frames
	// that are valid but carry no transaction (acks, heartbeats).
	Decode(frame []byte) (*store.Tx, error)
}

// --- BTC: blockchain.info unconfirmed transaction stream ---

// btcFrame mirrors the blockchain.info websocket frame for an
// unconfirmed transaction ("op":"utx").
type btcFrame struct {
	Op string `json:"op"`
	X  struct {
		Hash   string `json:"hash"`
		Inputs []struct {
			PrevOut struct {
				Addr string `json:"addr"`
			} `json:"prev_out"`
		} `json:"inputs"`
		Out []struct {
			Addr  string `json:"addr"`
			Value int64  `json:"value"` // satoshi
		} `json:"out"`
	} `json:"x"`
}

// BTCCodec speaks the blockchain.info inv protocol.
type BTCCodec struct{}

func (BTCCodec) Chain() store.Chain { return store.ChainBTC }

func (BTCCodec) SubscribeMessage() ([]byte, error) {
	return json.Marshal(map[string]string{"op": "unconfirmed_sub"})
}

func (BTCCodec) Decode(frame []byte) (*store.Tx, error) {
	var f btcFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		return nil, fmt.Errorf("decode btc frame: %w", err)
	}
	if f.Op != "utx" {
		return nil, nil
	}
	if f.X.Hash == "" {
		return nil, fmt.Errorf("btc utx frame without hash")
	}

	tx := &store.Tx{Chain: store.ChainBTC, Hash: f.X.Hash}
	for _, in := range f.X.Inputs {
		tx.Inputs = append(tx.Inputs, store.TxInput{Address: in.PrevOut.Addr})
	}
	for _, out := range f.X.Out {
		tx.Outputs = append(tx.Outputs, store.TxOutput{
			Address: out.Addr,
			Amount:  big.NewInt(out.Value),
		})
	}
	return tx, nil
}

// --- ETH: JSON-RPC pending-transaction subscription ---

// ethFrame mirrors both the subscription ack and the notification
// shape of an eth_subscribe stream.
type ethFrame struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params struct {
		Result struct {
			Hash  string `json:"hash"`
			From  string `json:"from"`
			To    string `json:"to"`
			Value string `json:"value"` // hex wei
		} `json:"result"`
	} `json:"params"`
}

// ETHCodec speaks the eth_subscribe pending-transactions protocol
// offered by Alchemy/Infura style endpoints. Each notification carries
// a full transaction object, normalized here to one input and one
// output.
type ETHCodec struct{}

func (ETHCodec) Chain() store.Chain { return store.ChainETH }

func (ETHCodec) SubscribeMessage() ([]byte, error) {
	return json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "eth_subscribe",
		"params":  []any{"alchemy_pendingTransactions", map[string]bool{"hashesOnly": false}},
	})
}

func (ETHCodec) Decode(frame []byte) (*store.Tx, error) {
	var f ethFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		return nil, fmt.Errorf("decode eth frame: %w", err)
	}
	if f.Method != "eth_subscription" {
		// Subscription ack or unrelated RPC response.
		return nil, nil
	}

	result := f.Params.Result
	if result.Hash == "" {
		return nil, fmt.Errorf("eth notification without hash")
	}
	if result.To == "" {
		// Contract creation, no recipient to match.
		return nil, nil
	}

	amount, err := parseHexWei(result.Value)
	if err != nil {
		return nil, fmt.Errorf("tx %s: %w", result.Hash, err)
	}

	return &store.Tx{
		Chain:   store.ChainETH,
		Hash:    result.Hash,
		Inputs:  []store.TxInput{{Address: strings.ToLower(result.From)}},
		Outputs: []store.TxOutput{{Address: strings.ToLower(result.To), Amount: amount}},
	}, nil
}

// parseHexWei parses a 0x-prefixed hex quantity into wei.
func parseHexWei(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	wei, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex value %q", s)
	}
	return wei, nil
}
