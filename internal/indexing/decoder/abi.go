package decoder

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABI = `[{"anonymous":false,"name":"Transfer","type":"event","inputs":[
  {"indexed":true,"name":"from","type":"address"},
  {"indexed":true,"name":"to","type":"address"},
  {"indexed":false,"name":"value","type":"uint256"}]}]`

// Both pool generations name their event Swap, so each lives in its own ABI.
const poolV2ABI = `[{"anonymous":false,"name":"Swap","type":"event","inputs":[
  {"indexed":true,"name":"sender","type":"address"},
  {"indexed":false,"name":"amount0In","type":"uint256"},
  {"indexed":false,"name":"amount1In","type":"uint256"},
  {"indexed":false,"name":"amount0Out","type":"uint256"},
  {"indexed":false,"name":"amount1Out","type":"uint256"},
  {"indexed":true,"name":"to","type":"address"}]}]`

const poolV3ABI = `[{"anonymous":false,"name":"Swap","type":"event","inputs":[
  {"indexed":true,"name":"sender","type":"address"},
  {"indexed":true,"name":"recipient","type":"address"},
  {"indexed":false,"name":"amount0","type":"int256"},
  {"indexed":false,"name":"amount1","type":"int256"},
  {"indexed":false,"name":"sqrtPriceX96","type":"uint160"},
  {"indexed":false,"name":"liquidity","type":"uint128"},
  {"indexed":false,"name":"tick","type":"int24"}]}]`

var (
	transferEvent = mustParseABI(erc20ABI).Events["Transfer"]
	swapV2Event   = mustParseABI(poolV2ABI).Events["Swap"]
	swapV3Event   = mustParseABI(poolV3ABI).Events["Swap"]

	// TransferTopic is keccak256("Transfer(address,address,uint256)").
	TransferTopic = transferEvent.ID
	// SwapV2Topic is keccak256("Swap(address,uint256,uint256,uint256,uint256,address)").
	SwapV2Topic = swapV2Event.ID
	// SwapV3Topic is keccak256("Swap(address,address,int256,int256,uint160,uint128,int24)").
	SwapV3Topic = swapV3Event.ID
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
