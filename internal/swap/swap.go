// Package swap converts stability pool rewards (LQTY and ETH) back into
// want through Uniswap V3, with the final DAI -> want hop routed through
// either a Curve pool or Uniswap depending on the operator-controlled
// selector.
package swap

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ERC20 is the token surface the pipeline needs for balances and the
// approve-if-insufficient allowance guard.
type ERC20 interface {
	Address() common.Address
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) error
}

// Router is a Uniswap V3 style path-based swap venue.
type Router interface {
	Address() common.Address
	// ExactInput swaps amountIn of path[0] along the token path. fees has
	// one entry per hop.
	ExactInput(ctx context.Context, path []common.Address, fees []uint32, amountIn, minOut *big.Int) error
	// ExactInputSingleNative pays amountIn of native currency for tokenOut
	// and refunds any unspent native balance.
	ExactInputSingleNative(ctx context.Context, tokenOut common.Address, fee uint32, amountIn, minOut *big.Int) error
}

// CurvePool is a two-coin exchange with quote support.
type CurvePool interface {
	Address() common.Address
	GetDy(ctx context.Context, i, j int64, dx *big.Int) (*big.Int, error)
	Exchange(ctx context.Context, i, j int64, dx, minDy *big.Int) error
}

// Venue is the slice of the stability pool the pipeline needs to force a
// reward claim.
type Venue interface {
	Withdraw(ctx context.Context, amount *big.Int) error
	CompoundedDeposit(ctx context.Context) (*big.Int, error)
}

// NativeBalancer reports the strategy account's native currency balance.
type NativeBalancer interface {
	NativeBalance(ctx context.Context) (*big.Int, error)
}

// MaxApproval is granted whenever an allowance is found insufficient, so a
// hop needs at most one approval transaction over its lifetime.
var MaxApproval = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// EnsureAllowance tops up the allowance from owner to spender only when it
// cannot cover amount.
func EnsureAllowance(ctx context.Context, token ERC20, owner, spender common.Address, amount *big.Int) error {
	current, err := token.Allowance(ctx, owner, spender)
	if err != nil {
		return err
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}
	return token.Approve(ctx, spender, MaxApproval)
}
