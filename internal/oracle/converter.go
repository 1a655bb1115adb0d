// Package oracle values native currency holdings in want units using the
// Liquity price feed.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

var ErrUnavailablePrice = errors.New("price unavailable")

// PriceSource reports the feed's last good want-per-ETH price, scaled by
// 1e18.
type PriceSource interface {
	LastGoodPrice(ctx context.Context) (*big.Int, error)
}

var priceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

type Converter struct {
	source PriceSource
}

func NewConverter(source PriceSource) (*Converter, error) {
	if source == nil {
		return nil, errors.New("price source is required")
	}
	return &Converter{source: source}, nil
}

// NativeToWant converts an ETH amount to want at the most recent feed price.
// An unavailable or non-positive price is an error; no fallback value is
// substituted.
func (c *Converter) NativeToWant(ctx context.Context, amount *big.Int) (*big.Int, error) {
	if amount == nil {
		return nil, errors.New("amount is required")
	}
	if amount.Sign() == 0 {
		return new(big.Int), nil
	}
	price, err := c.source.LastGoodPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("read price feed: %w", err)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrUnavailablePrice
	}
	value := new(big.Int).Mul(amount, price)
	return value.Div(value, priceScale), nil
}
