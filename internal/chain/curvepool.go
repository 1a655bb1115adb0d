package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// CurvePool wraps a two-coin Curve exchange used as the pool-style venue for
// the final DAI -> want hop.
type CurvePool struct {
	client   *Client
	address  common.Address
	contract *bind.BoundContract
}

func NewCurvePool(client *Client, address common.Address) *CurvePool {
	return &CurvePool{
		client:   client,
		address:  address,
		contract: client.bound(address, curvePoolABI),
	}
}

func (p *CurvePool) Address() common.Address {
	return p.address
}

func (p *CurvePool) GetDy(ctx context.Context, i, j int64, dx *big.Int) (*big.Int, error) {
	opts, cancel := p.client.callOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := p.contract.Call(opts, &out, "get_dy", big.NewInt(i), big.NewInt(j), dx); err != nil {
		return nil, fmt.Errorf("get_dy: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (p *CurvePool) Exchange(ctx context.Context, i, j int64, dx, minDy *big.Int) error {
	tx, err := p.contract.Transact(p.client.txOpts(ctx, nil), "exchange", big.NewInt(i), big.NewInt(j), dx, minDy)
	if err != nil {
		return fmt.Errorf("exchange: %w", err)
	}
	return p.client.waitMined(ctx, tx)
}
