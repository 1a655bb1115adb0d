package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

const swapDeadline = 15 * time.Minute

type exactInputParams struct {
	Path             []byte
	Recipient        common.Address
	Deadline         *big.Int
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// UniswapRouter executes path-based swaps on the Uniswap V3 periphery
// router. Native-in swaps wrap exactInputSingle and refundETH in one
// multicall so unspent ETH comes back in the same transaction.
type UniswapRouter struct {
	client    *Client
	address   common.Address
	contract  *bind.BoundContract
	weth      common.Address
	recipient common.Address
}

func NewUniswapRouter(client *Client, address, weth, recipient common.Address) *UniswapRouter {
	return &UniswapRouter{
		client:    client,
		address:   address,
		contract:  client.bound(address, routerABI),
		weth:      weth,
		recipient: recipient,
	}
}

func (r *UniswapRouter) Address() common.Address {
	return r.address
}

func (r *UniswapRouter) ExactInput(ctx context.Context, path []common.Address, fees []uint32, amountIn, minOut *big.Int) error {
	encoded, err := EncodePath(path, fees)
	if err != nil {
		return err
	}
	params := exactInputParams{
		Path:             encoded,
		Recipient:        r.recipient,
		Deadline:         deadline(),
		AmountIn:         amountIn,
		AmountOutMinimum: minOut,
	}
	tx, err := r.contract.Transact(r.client.txOpts(ctx, nil), "exactInput", params)
	if err != nil {
		return fmt.Errorf("exactInput: %w", err)
	}
	return r.client.waitMined(ctx, tx)
}

func (r *UniswapRouter) ExactInputSingleNative(ctx context.Context, tokenOut common.Address, fee uint32, amountIn, minOut *big.Int) error {
	params := exactInputSingleParams{
		TokenIn:           r.weth,
		TokenOut:          tokenOut,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		Recipient:         r.recipient,
		Deadline:          deadline(),
		AmountIn:          amountIn,
		AmountOutMinimum:  minOut,
		SqrtPriceLimitX96: new(big.Int),
	}
	swapData, err := routerABI.abi.Pack("exactInputSingle", params)
	if err != nil {
		return fmt.Errorf("pack exactInputSingle: %w", err)
	}
	refundData, err := routerABI.abi.Pack("refundETH")
	if err != nil {
		return fmt.Errorf("pack refundETH: %w", err)
	}
	tx, err := r.contract.Transact(r.client.txOpts(ctx, amountIn), "multicall", [][]byte{swapData, refundData})
	if err != nil {
		return fmt.Errorf("multicall: %w", err)
	}
	return r.client.waitMined(ctx, tx)
}

func deadline() *big.Int {
	return big.NewInt(time.Now().Add(swapDeadline).Unix())
}

// EncodePath packs a Uniswap V3 swap path: 20-byte token addresses
// interleaved with 3-byte big-endian pool fees.
func EncodePath(tokens []common.Address, fees []uint32) ([]byte, error) {
	if len(tokens) < 2 {
		return nil, errors.New("path needs at least two tokens")
	}
	if len(fees) != len(tokens)-1 {
		return nil, fmt.Errorf("path has %d hops but %d fees", len(tokens)-1, len(fees))
	}
	path := make([]byte, 0, len(tokens)*common.AddressLength+len(fees)*3)
	for i, fee := range fees {
		if fee >= 1<<24 {
			return nil, fmt.Errorf("fee %d does not fit uint24", fee)
		}
		path = append(path, tokens[i].Bytes()...)
		path = append(path, byte(fee>>16), byte(fee>>8), byte(fee))
	}
	return append(path, tokens[len(tokens)-1].Bytes()...), nil
}
