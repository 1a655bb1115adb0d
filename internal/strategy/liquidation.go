package strategy

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"
)

// LiquidatePosition frees amountNeeded of want. The idle balance is used
// first; any shortfall is withdrawn from the stability pool, clamped to the
// compounded deposit so the venue is never asked for more than it holds.
// Whatever still cannot be produced after the withdrawal is a realized loss.
// Rewards are never converted here: introducing a swap at withdrawal time
// would expose the exit to front-running.
func (e *Engine) LiquidatePosition(ctx context.Context, amountNeeded *big.Int) (*big.Int, *big.Int, error) {
	if amountNeeded == nil {
		return nil, nil, ErrMissingAmount
	}
	if amountNeeded.Sign() < 0 {
		return nil, nil, ErrNegativeAmount
	}
	idle, err := e.holdings.WantBalance(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read want balance: %w", err)
	}
	if idle.Cmp(amountNeeded) >= 0 {
		return new(big.Int).Set(amountNeeded), new(big.Int), nil
	}

	shortfall := new(big.Int).Sub(amountNeeded, idle)
	deposit, err := e.venue.CompoundedDeposit(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read compounded deposit: %w", err)
	}
	toWithdraw := minBig(shortfall, deposit)
	if toWithdraw.Sign() > 0 {
		if err := e.venue.Withdraw(ctx, toWithdraw); err != nil {
			return nil, nil, fmt.Errorf("withdraw from pool: %w", err)
		}
	}

	idleAfter, err := e.holdings.WantBalance(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read want balance: %w", err)
	}
	if idleAfter.Cmp(amountNeeded) >= 0 {
		return new(big.Int).Set(amountNeeded), new(big.Int), nil
	}
	loss := new(big.Int).Sub(amountNeeded, idleAfter)
	e.log.Warn("liquidation shortfall",
		zap.String("needed", amountNeeded.String()),
		zap.String("freed", idleAfter.String()),
		zap.String("loss", loss.String()),
	)
	return new(big.Int).Set(idleAfter), loss, nil
}
