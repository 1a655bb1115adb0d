package strategy

import (
	"context"
	"fmt"
	"math/big"
)

// EstimatedTotalAssets values every holding in want units: idle want, the
// compounded stability pool deposit, and ETH holdings (idle plus pending
// gain) priced through the oracle. Pending LQTY is carried at zero until it
// is converted; there is no trusted on-chain LQTY price.
func (e *Engine) EstimatedTotalAssets(ctx context.Context) (*big.Int, error) {
	idle, err := e.holdings.WantBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("read want balance: %w", err)
	}
	deposit, err := e.venue.CompoundedDeposit(ctx)
	if err != nil {
		return nil, fmt.Errorf("read compounded deposit: %w", err)
	}
	native, err := e.holdings.NativeBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("read native balance: %w", err)
	}
	pendingNative, err := e.venue.PendingNativeGain(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pending native gain: %w", err)
	}
	nativeValue, err := e.oracle.NativeToWant(ctx, new(big.Int).Add(native, pendingNative))
	if err != nil {
		return nil, fmt.Errorf("value native holdings: %w", err)
	}
	total := new(big.Int).Add(idle, deposit)
	return total.Add(total, nativeValue), nil
}

// postConversionValue is the direct balance sum used right after the
// conversion pipeline has run: idle want plus the recoverable deposit.
// Reward holdings are intentionally excluded since they are zero by then.
func (e *Engine) postConversionValue(ctx context.Context) (*big.Int, error) {
	idle, err := e.holdings.WantBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("read want balance: %w", err)
	}
	deposit, err := e.venue.CompoundedDeposit(ctx)
	if err != nil {
		return nil, fmt.Errorf("read compounded deposit: %w", err)
	}
	return new(big.Int).Add(idle, deposit), nil
}
