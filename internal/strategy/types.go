package strategy

import (
	"context"
	"errors"
	"math/big"
)

var (
	ErrNegativeAmount = errors.New("amount must be >= 0")
	ErrMissingAmount  = errors.New("amount is required")
)

// Holdings reports balances held directly by the strategy account, outside
// the stability pool.
type Holdings interface {
	WantBalance(ctx context.Context) (*big.Int, error)
	NativeBalance(ctx context.Context) (*big.Int, error)
}

// YieldVenue is the stability pool surface the engine deposits into.
// Withdraw is capped by the venue to the compounded deposit rather than
// failing, and any withdrawal also pays out pending ETH and LQTY gains.
type YieldVenue interface {
	Provide(ctx context.Context, amount *big.Int) error
	Withdraw(ctx context.Context, amount *big.Int) error
	CompoundedDeposit(ctx context.Context) (*big.Int, error)
	PendingNativeGain(ctx context.Context) (*big.Int, error)
	PendingRewardGain(ctx context.Context) (*big.Int, error)
}

// Converter claims venue rewards and converts every reward holding back into
// want. After a successful run all LQTY and ETH conversion balances are zero.
type Converter interface {
	ClaimAndConvert(ctx context.Context) error
}

// Vault is the upstream framework's debt view of this strategy.
type Vault interface {
	TotalDebt(ctx context.Context) (*big.Int, error)
	DebtOutstanding(ctx context.Context) (*big.Int, error)
}

// ValuationOracle converts a native-currency amount into want units at the
// most recent available price. A stale or unavailable price is an error, not
// an approximation.
type ValuationOracle interface {
	NativeToWant(ctx context.Context, amount *big.Int) (*big.Int, error)
}

// Report is the result of one PrepareReturn cycle. Profit and Loss are
// mutually exclusive: at most one of them is nonzero.
type Report struct {
	Profit      *big.Int
	Loss        *big.Int
	DebtPayment *big.Int
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
