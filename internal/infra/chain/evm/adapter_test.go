package evm

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/vietddude/swapwatch/internal/infra/chain"
	"github.com/vietddude/swapwatch/internal/infra/rpc"
)

// MockCaller implements rpc.Caller for testing
type MockCaller struct {
	CallFunc func(ctx context.Context, method string, params []any) (json.RawMessage, error)
}

func (m *MockCaller) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if m.CallFunc != nil {
		return m.CallFunc(ctx, method, params)
	}
	return json.RawMessage("null"), nil
}

const transferLog = `{
	"address": "0x30a538effd91acefb1b12ce9bc0074ed18c9dfc9",
	"topics": [
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		"0x000000000000000000000000a51afafe0263b40edaef0df8781ea9aa03e381a3",
		"0x0000000000000000000000001111111111111111111111111111111111111111"
	],
	"data": "0x00000000000000000000000000000000000000000000000000002d79883d2000",
	"blockNumber": "0x64",
	"transactionHash": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	"transactionIndex": "0x1",
	"blockHash": "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	"logIndex": "0x3",
	"removed": false
}`

func TestEVMAdapter_CurrentBlockNumber(t *testing.T) {
	mock := &MockCaller{
		CallFunc: func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
			if method == "eth_blockNumber" {
				return json.RawMessage(`"0x12d687"`), nil // 1234567 in hex
			}
			return nil, errors.New("unexpected method " + method)
		},
	}

	adapter := NewEVMAdapter(mock)
	height, err := adapter.CurrentBlockNumber(context.Background())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if height != 1234567 {
		t.Errorf("expected height 1234567, got %d", height)
	}
}

func TestEVMAdapter_GetLogs(t *testing.T) {
	var gotFilter map[string]any
	mock := &MockCaller{
		CallFunc: func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
			if method != "eth_getLogs" {
				return nil, errors.New("unexpected method")
			}
			gotFilter = params[0].(map[string]any)
			return json.RawMessage("[" + transferLog + "]"), nil
		},
	}

	token := common.HexToAddress("0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9")
	adapter := NewEVMAdapter(mock)
	logs, err := adapter.GetLogs(context.Background(), ethereum.FilterQuery{
		FromBlock: big.NewInt(100),
		ToBlock:   big.NewInt(120),
		Addresses: []common.Address{token},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotFilter["fromBlock"] != "0x64" || gotFilter["toBlock"] != "0x78" {
		t.Errorf("unexpected range in filter: %v", gotFilter)
	}
	if gotFilter["address"] != token {
		t.Errorf("expected single address filter, got %v", gotFilter["address"])
	}

	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	lg := logs[0]
	if lg.BlockNumber != 100 || lg.Index != 3 {
		t.Errorf("position = (%d,%d), want (100,3)", lg.BlockNumber, lg.Index)
	}
	if lg.Address != token {
		t.Errorf("address = %s", lg.Address.Hex())
	}
	if new(big.Int).SetBytes(lg.Data).Int64() != 50000000000000 {
		t.Errorf("unexpected data %x", lg.Data)
	}
}

func TestEVMAdapter_GetLogs_RangeTooLarge(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"infura result cap", &rpc.RPCError{Code: -32005, Message: "query returned more than 10000 results"}, true},
		{"alchemy span", &rpc.RPCError{Code: -32602, Message: "Log response size exceeded. You can make eth_getLogs requests with up to a 2K block range"}, true},
		{"rate limit", &rpc.RPCError{Code: -32005, Message: "daily request count exceeded, request rate limited"}, false},
		{"network", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockCaller{
				CallFunc: func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
					return nil, tt.err
				},
			}
			_, err := NewEVMAdapter(mock).GetLogs(context.Background(), ethereum.FilterQuery{})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, chain.ErrRangeTooLarge); got != tt.want {
				t.Errorf("ErrRangeTooLarge = %v, want %v (err=%v)", got, tt.want, err)
			}
		})
	}
}

func TestEVMAdapter_GetTransaction(t *testing.T) {
	mock := &MockCaller{
		CallFunc: func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
			switch method {
			case "eth_getTransactionByHash":
				if params[0].(common.Hash) == (common.Hash{}) {
					return json.RawMessage("null"), nil
				}
				return json.RawMessage(`{
					"hash": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
					"from": "0x1111111111111111111111111111111111111111",
					"to": "0xa51afafe0263b40edaef0df8781ea9aa03e381a3"
				}`), nil
			}
			return nil, errors.New("unexpected method")
		},
	}
	adapter := NewEVMAdapter(mock)

	tx, err := adapter.GetTransaction(context.Background(), common.HexToHash("0xaa"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.From != common.HexToAddress("0x1111111111111111111111111111111111111111") {
		t.Errorf("from = %s", tx.From.Hex())
	}
	if tx.Target() != common.HexToAddress("0xa51afafe0263b40edaef0df8781ea9aa03e381a3") {
		t.Errorf("target = %s", tx.Target().Hex())
	}

	_, err = adapter.GetTransaction(context.Background(), common.Hash{})
	if !errors.Is(err, chain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEVMAdapter_GetTransactionReceipt(t *testing.T) {
	mock := &MockCaller{
		CallFunc: func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
			return json.RawMessage(`{"status":"0x1","logs":[` + transferLog + `]}`), nil
		},
	}

	logs, err := NewEVMAdapter(mock).GetTransactionReceipt(context.Background(), common.HexToHash("0xaa"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 || logs[0].Topics[0] != common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef") {
		t.Errorf("unexpected receipt logs %+v", logs)
	}
}

func TestEVMAdapter_HolderPercentage(t *testing.T) {
	balanceSel := hexutil.Encode(erc20.Methods["balanceOf"].ID)
	supplySel := hexutil.Encode(erc20.Methods["totalSupply"].ID)

	word := func(v int64) json.RawMessage {
		return json.RawMessage(`"` + hexutil.Encode(common.LeftPadBytes(big.NewInt(v).Bytes(), 32)) + `"`)
	}

	mock := &MockCaller{
		CallFunc: func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
			if method != "eth_call" {
				return nil, errors.New("unexpected method")
			}
			data := params[0].(map[string]any)["data"].(hexutil.Bytes).String()
			switch {
			case strings.HasPrefix(data, balanceSel):
				return word(25), nil
			case strings.HasPrefix(data, supplySel):
				return word(1000), nil
			}
			return nil, errors.New("unexpected selector " + data)
		},
	}

	pct, err := NewEVMAdapter(mock).HolderPercentage(
		context.Background(),
		common.HexToAddress("0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9"),
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pct != 2.5 {
		t.Errorf("expected 2.5%%, got %v", pct)
	}
}
