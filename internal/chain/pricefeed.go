package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// PriceFeed reads Liquity's ETH:USD feed. lastGoodPrice is the feed's own
// latest accepted answer; its staleness handling lives inside the feed
// contract, not here.
type PriceFeed struct {
	client   *Client
	contract *bind.BoundContract
}

func NewPriceFeed(client *Client, address common.Address) *PriceFeed {
	return &PriceFeed{
		client:   client,
		contract: client.bound(address, priceFeedABI),
	}
}

func (f *PriceFeed) LastGoodPrice(ctx context.Context) (*big.Int, error) {
	opts, cancel := f.client.callOpts(ctx)
	defer cancel()
	var out []interface{}
	if err := f.contract.Call(opts, &out, "lastGoodPrice"); err != nil {
		return nil, fmt.Errorf("lastGoodPrice: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
