package evm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/chain"
	"github.com/vietddude/swapwatch/internal/infra/rpc"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

var erc20 = mustParseABI(erc20ABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}

// Substrings nodes use when rejecting an eth_getLogs span or result size.
var rangeTooLargePatterns = []string{
	"query returned more than",
	"block range",
	"range is too large",
	"exceed maximum block range",
	"too many blocks",
	"log response size exceeded",
}

// EVMAdapter implements chain.Ledger and chain.HolderSource over JSON-RPC.
type EVMAdapter struct {
	client rpc.Caller
	log    *slog.Logger
}

func NewEVMAdapter(client rpc.Caller) *EVMAdapter {
	return &EVMAdapter{
		client: client,
		log:    slog.Default().With("component", "evm"),
	}
}

func (a *EVMAdapter) call(ctx context.Context, out any, method string, params ...any) error {
	raw, err := a.client.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return chain.ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

func (a *EVMAdapter) CurrentBlockNumber(ctx context.Context) (uint64, error) {
	var head hexutil.Uint64
	if err := a.call(ctx, &head, "eth_blockNumber"); err != nil {
		return 0, fmt.Errorf("eth_blockNumber failed: %w", err)
	}
	return uint64(head), nil
}

func (a *EVMAdapter) GetLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := a.call(ctx, &logs, "eth_getLogs", toFilterArg(q))
	if errors.Is(err, chain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		if isRangeTooLarge(err) {
			return nil, fmt.Errorf("%w: %w", chain.ErrRangeTooLarge, err)
		}
		return nil, fmt.Errorf("eth_getLogs failed: %w", err)
	}
	return logs, nil
}

func (a *EVMAdapter) GetTransaction(ctx context.Context, hash common.Hash) (*domain.TxEnvelope, error) {
	var tx struct {
		Hash common.Hash     `json:"hash"`
		From common.Address  `json:"from"`
		To   *common.Address `json:"to"`
	}
	if err := a.call(ctx, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionByHash %s: %w", hash.Hex(), err)
	}
	return &domain.TxEnvelope{Hash: tx.Hash, From: tx.From, To: tx.To}, nil
}

func (a *EVMAdapter) GetTransactionReceipt(ctx context.Context, hash common.Hash) ([]types.Log, error) {
	var receipt struct {
		Status hexutil.Uint64 `json:"status"`
		Logs   []types.Log    `json:"logs"`
	}
	if err := a.call(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt %s: %w", hash.Hex(), err)
	}
	if receipt.Status == 0 {
		a.log.Debug("Receipt reports failed transaction", "tx", hash.Hex())
	}
	return receipt.Logs, nil
}

// HolderPercentage reads balanceOf and totalSupply at the latest block.
func (a *EVMAdapter) HolderPercentage(ctx context.Context, token, wallet common.Address) (float64, error) {
	var balance, supply *big.Int

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = a.callUint256(ctx, token, "balanceOf", wallet)
		return err
	})
	g.Go(func() error {
		var err error
		supply, err = a.callUint256(ctx, token, "totalSupply")
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if supply.Sign() == 0 {
		return 0, nil
	}
	pct, _ := new(big.Float).Quo(
		new(big.Float).Mul(new(big.Float).SetInt(balance), big.NewFloat(100)),
		new(big.Float).SetInt(supply),
	).Float64()
	return pct, nil
}

func (a *EVMAdapter) callUint256(ctx context.Context, to common.Address, method string, args ...any) (*big.Int, error) {
	data, err := erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	var out hexutil.Bytes
	msg := map[string]any{"to": to, "data": hexutil.Bytes(data)}
	if err := a.call(ctx, &out, "eth_call", msg, "latest"); err != nil {
		return nil, fmt.Errorf("eth_call %s: %w", method, err)
	}

	values, err := erc20.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: expected 1 value, got %d", method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected type %T", method, values[0])
	}
	return v, nil
}

func toFilterArg(q ethereum.FilterQuery) map[string]any {
	arg := map[string]any{}
	if len(q.Addresses) == 1 {
		arg["address"] = q.Addresses[0]
	} else if len(q.Addresses) > 1 {
		arg["address"] = q.Addresses
	}
	if len(q.Topics) > 0 {
		arg["topics"] = q.Topics
	}
	if q.FromBlock != nil {
		arg["fromBlock"] = hexutil.EncodeBig(q.FromBlock)
	}
	if q.ToBlock != nil {
		arg["toBlock"] = hexutil.EncodeBig(q.ToBlock)
	}
	return arg
}

func isRangeTooLarge(err error) bool {
	var rpcErr *rpc.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == -32005 && rpc.ClassifyError(rpcErr) == rpc.ActionFatal {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range rangeTooLargePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
