package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Vault reads the upstream vault's debt bookkeeping for this strategy. The
// vault owns these numbers; the engine never writes them.
type Vault struct {
	client   *Client
	contract *bind.BoundContract
	strategy common.Address
}

func NewVault(client *Client, address, strategy common.Address) *Vault {
	return &Vault{
		client:   client,
		contract: client.bound(address, vaultABI),
		strategy: strategy,
	}
}

func (v *Vault) TotalDebt(ctx context.Context) (*big.Int, error) {
	opts, cancel := v.client.callOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := v.contract.Call(opts, &out, "strategies", v.strategy); err != nil {
		return nil, fmt.Errorf("strategies: %w", err)
	}
	// totalDebt is the seventh field of the vault's StrategyParams struct.
	return *abi.ConvertType(out[6], new(*big.Int)).(**big.Int), nil
}

func (v *Vault) DebtOutstanding(ctx context.Context) (*big.Int, error) {
	opts, cancel := v.client.callOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := v.contract.Call(opts, &out, "debtOutstanding", v.strategy); err != nil {
		return nil, fmt.Errorf("debtOutstanding: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
