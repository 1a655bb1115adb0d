package pricefeed

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"lusd-sp-engine/internal/config"
)

func TestParseTickerBarePayload(t *testing.T) {
	symbol, price, ok := parseTicker([]byte(`{"e":"24hrMiniTicker","s":"ethusdt","c":"1834.52"}`))
	if !ok {
		t.Fatal("expected bare payload to parse")
	}
	if symbol != "ETHUSDT" {
		t.Fatalf("symbol = %q, want ETHUSDT", symbol)
	}
	if price != 1834.52 {
		t.Fatalf("price = %v, want 1834.52", price)
	}
}

func TestParseTickerCombinedStreamEnvelope(t *testing.T) {
	payload := `{"stream":"lqtyusdt@miniTicker","data":{"s":"LQTYUSDT","c":"0.92"}}`
	symbol, price, ok := parseTicker([]byte(payload))
	if !ok {
		t.Fatal("expected wrapped payload to parse")
	}
	if symbol != "LQTYUSDT" || price != 0.92 {
		t.Fatalf("got %q/%v, want LQTYUSDT/0.92", symbol, price)
	}
}

func TestParseTickerRejectsJunk(t *testing.T) {
	cases := []string{
		`not json`,
		`{"result":null,"id":1}`,
		`{"s":"ETHUSDT","c":"not a number"}`,
		`{"s":"ETHUSDT","c":"-1"}`,
		`{"s":"","c":"12.3"}`,
	}
	for _, payload := range cases {
		if _, _, ok := parseTicker([]byte(payload)); ok {
			t.Fatalf("payload %q parsed unexpectedly", payload)
		}
	}
}

func TestPriceLookup(t *testing.T) {
	client := New(config.PriceFeedConfig{LQTYSymbol: "LQTYUSDT", ETHSymbol: "ETHUSDT"}, zap.NewNop())

	if _, _, ok := client.Price("ETHUSDT"); ok {
		t.Fatal("expected no quote before any message")
	}
	client.handleMessage([]byte(`{"s":"ETHUSDT","c":"1900.1"}`))

	price, at, ok := client.Price("ethusdt")
	if !ok {
		t.Fatal("expected quote after message")
	}
	if price != 1900.1 {
		t.Fatalf("price = %v, want 1900.1", price)
	}
	if time.Since(at) > time.Minute {
		t.Fatalf("quote timestamp too old: %v", at)
	}
}

func TestStreamNames(t *testing.T) {
	streams := streamNames([]string{"LQTYUSDT", "", "ETHUSDT"})
	if len(streams) != 2 {
		t.Fatalf("got %d streams, want 2", len(streams))
	}
	if streams[0] != "lqtyusdt@miniTicker" || streams[1] != "ethusdt@miniTicker" {
		t.Fatalf("streams = %v", streams)
	}
}
