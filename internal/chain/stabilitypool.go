package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// StabilityPool is a pass-through adapter for Liquity's stability pool. The
// pool caps withdrawals to the compounded deposit instead of failing, and
// any deposit or withdrawal settles pending ETH and LQTY gains to the
// depositor.
type StabilityPool struct {
	client    *Client
	address   common.Address
	contract  *bind.BoundContract
	depositor common.Address
	frontend  common.Address
}

func NewStabilityPool(client *Client, address, depositor, frontend common.Address) *StabilityPool {
	return &StabilityPool{
		client:    client,
		address:   address,
		contract:  client.bound(address, stabilityPoolABI),
		depositor: depositor,
		frontend:  frontend,
	}
}

func (p *StabilityPool) Address() common.Address {
	return p.address
}

func (p *StabilityPool) Provide(ctx context.Context, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("deposit amount must be > 0")
	}
	tx, err := p.contract.Transact(p.client.txOpts(ctx, nil), "provideToSP", amount, p.frontend)
	if err != nil {
		return fmt.Errorf("provideToSP: %w", err)
	}
	return p.client.waitMined(ctx, tx)
}

func (p *StabilityPool) Withdraw(ctx context.Context, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("withdrawal amount must be > 0")
	}
	tx, err := p.contract.Transact(p.client.txOpts(ctx, nil), "withdrawFromSP", amount)
	if err != nil {
		return fmt.Errorf("withdrawFromSP: %w", err)
	}
	return p.client.waitMined(ctx, tx)
}

func (p *StabilityPool) CompoundedDeposit(ctx context.Context) (*big.Int, error) {
	return p.view(ctx, "getCompoundedLUSDDeposit")
}

func (p *StabilityPool) PendingNativeGain(ctx context.Context) (*big.Int, error) {
	return p.view(ctx, "getDepositorETHGain")
}

func (p *StabilityPool) PendingRewardGain(ctx context.Context) (*big.Int, error) {
	return p.view(ctx, "getDepositorLQTYGain")
}

func (p *StabilityPool) view(ctx context.Context, method string) (*big.Int, error) {
	opts, cancel := p.client.callOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := p.contract.Call(opts, &out, method, p.depositor); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
