package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

type ERC20 struct {
	client   *Client
	address  common.Address
	contract *bind.BoundContract
}

func NewERC20(client *Client, address common.Address) *ERC20 {
	return &ERC20{
		client:   client,
		address:  address,
		contract: client.bound(address, erc20ABI),
	}
}

func (t *ERC20) Address() common.Address {
	return t.address
}

func (t *ERC20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	opts, cancel := t.client.callOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := t.contract.Call(opts, &out, "balanceOf", owner); err != nil {
		return nil, fmt.Errorf("balanceOf %s: %w", t.address.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	opts, cancel := t.client.callOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := t.contract.Call(opts, &out, "allowance", owner, spender); err != nil {
		return nil, fmt.Errorf("allowance %s: %w", t.address.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (t *ERC20) Approve(ctx context.Context, spender common.Address, amount *big.Int) error {
	tx, err := t.contract.Transact(t.client.txOpts(ctx, nil), "approve", spender, amount)
	if err != nil {
		return fmt.Errorf("approve %s: %w", t.address.Hex(), err)
	}
	return t.client.waitMined(ctx, tx)
}
