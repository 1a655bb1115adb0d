package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

type fakeFeed struct {
	price *big.Int
	err   error
	calls int
}

func (f *fakeFeed) LastGoodPrice(context.Context) (*big.Int, error) {
	f.calls++
	return f.price, f.err
}

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestNativeToWantScalesByPrice(t *testing.T) {
	feed := &fakeFeed{price: eth(1600)}
	converter, err := NewConverter(feed)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	value, err := converter.NativeToWant(context.Background(), eth(3))
	if err != nil {
		t.Fatalf("NativeToWant: %v", err)
	}
	if value.Cmp(eth(4800)) != 0 {
		t.Fatalf("value = %s, want %s", value, eth(4800))
	}
}

func TestNativeToWantZeroSkipsFeed(t *testing.T) {
	feed := &fakeFeed{err: errors.New("feed down")}
	converter, err := NewConverter(feed)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	value, err := converter.NativeToWant(context.Background(), new(big.Int))
	if err != nil {
		t.Fatalf("NativeToWant: %v", err)
	}
	if value.Sign() != 0 {
		t.Fatalf("value = %s, want 0", value)
	}
	if feed.calls != 0 {
		t.Fatalf("feed read %d times for a zero amount", feed.calls)
	}
}

func TestNativeToWantRejectsBadPrice(t *testing.T) {
	for _, price := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		converter, err := NewConverter(&fakeFeed{price: price})
		if err != nil {
			t.Fatalf("NewConverter: %v", err)
		}
		if _, err := converter.NativeToWant(context.Background(), big.NewInt(1)); !errors.Is(err, ErrUnavailablePrice) {
			t.Fatalf("price=%v: got %v, want ErrUnavailablePrice", price, err)
		}
	}
}

func TestNativeToWantPropagatesFeedError(t *testing.T) {
	feedErr := errors.New("rpc timeout")
	converter, err := NewConverter(&fakeFeed{err: feedErr})
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	if _, err := converter.NativeToWant(context.Background(), big.NewInt(1)); !errors.Is(err, feedErr) {
		t.Fatalf("got %v, want wrapped feed error", err)
	}
}

func TestNewConverterRequiresSource(t *testing.T) {
	if _, err := NewConverter(nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}
