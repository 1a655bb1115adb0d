package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

type abiSpec struct {
	abi abi.ABI
}

func mustABI(raw string) abiSpec {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return abiSpec{abi: parsed}
}

var erc20ABI = mustABI(`[
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`)

var stabilityPoolABI = mustABI(`[
	{"name":"provideToSP","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_amount","type":"uint256"},{"name":"_frontEndTag","type":"address"}],"outputs":[]},
	{"name":"withdrawFromSP","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_amount","type":"uint256"}],"outputs":[]},
	{"name":"getCompoundedLUSDDeposit","type":"function","stateMutability":"view","inputs":[{"name":"_depositor","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"getDepositorETHGain","type":"function","stateMutability":"view","inputs":[{"name":"_depositor","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"getDepositorLQTYGain","type":"function","stateMutability":"view","inputs":[{"name":"_depositor","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`)

var routerABI = mustABI(`[
	{"name":"exactInput","type":"function","stateMutability":"payable","inputs":[{"name":"params","type":"tuple","components":[{"name":"path","type":"bytes"},{"name":"recipient","type":"address"},{"name":"deadline","type":"uint256"},{"name":"amountIn","type":"uint256"},{"name":"amountOutMinimum","type":"uint256"}]}],"outputs":[{"name":"amountOut","type":"uint256"}]},
	{"name":"exactInputSingle","type":"function","stateMutability":"payable","inputs":[{"name":"params","type":"tuple","components":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"fee","type":"uint24"},{"name":"recipient","type":"address"},{"name":"deadline","type":"uint256"},{"name":"amountIn","type":"uint256"},{"name":"amountOutMinimum","type":"uint256"},{"name":"sqrtPriceLimitX96","type":"uint160"}]}],"outputs":[{"name":"amountOut","type":"uint256"}]},
	{"name":"refundETH","type":"function","stateMutability":"payable","inputs":[],"outputs":[]},
	{"name":"multicall","type":"function","stateMutability":"payable","inputs":[{"name":"data","type":"bytes[]"}],"outputs":[{"name":"results","type":"bytes[]"}]}
]`)

var curvePoolABI = mustABI(`[
	{"name":"get_dy","type":"function","stateMutability":"view","inputs":[{"name":"i","type":"int128"},{"name":"j","type":"int128"},{"name":"dx","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"exchange","type":"function","stateMutability":"nonpayable","inputs":[{"name":"i","type":"int128"},{"name":"j","type":"int128"},{"name":"dx","type":"uint256"},{"name":"min_dy","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`)

var priceFeedABI = mustABI(`[
	{"name":"lastGoodPrice","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`)

var vaultABI = mustABI(`[
	{"name":"strategies","type":"function","stateMutability":"view","inputs":[{"name":"strategy","type":"address"}],"outputs":[{"name":"performanceFee","type":"uint256"},{"name":"activation","type":"uint256"},{"name":"debtRatio","type":"uint256"},{"name":"minDebtPerHarvest","type":"uint256"},{"name":"maxDebtPerHarvest","type":"uint256"},{"name":"lastReport","type":"uint256"},{"name":"totalDebt","type":"uint256"},{"name":"totalGain","type":"uint256"},{"name":"totalLoss","type":"uint256"}]},
	{"name":"debtOutstanding","type":"function","stateMutability":"view","inputs":[{"name":"strategy","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`)
