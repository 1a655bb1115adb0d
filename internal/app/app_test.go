package app

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"lusd-sp-engine/internal/config"
)

func validContracts() config.ContractsConfig {
	return config.ContractsConfig{
		Vault:         "0x0000000000000000000000000000000000000001",
		Want:          "0x0000000000000000000000000000000000000002",
		LQTY:          "0x0000000000000000000000000000000000000003",
		WETH:          "0x0000000000000000000000000000000000000004",
		DAI:           "0x0000000000000000000000000000000000000005",
		StabilityPool: "0x0000000000000000000000000000000000000006",
		PriceFeed:     "0x0000000000000000000000000000000000000007",
		UniswapRouter: "0x0000000000000000000000000000000000000008",
		CurvePool:     "0x0000000000000000000000000000000000000009",
	}
}

func TestParseContracts(t *testing.T) {
	addrs, err := parseContracts(validContracts())
	if err != nil {
		t.Fatalf("parseContracts: %v", err)
	}
	if addrs.vault.Hex() != "0x0000000000000000000000000000000000000001" {
		t.Fatalf("vault = %s", addrs.vault.Hex())
	}
	if addrs.frontend != (common.Address{}) {
		t.Fatalf("frontend should default to the zero address, got %s", addrs.frontend.Hex())
	}
}

func TestParseContractsRejectsMissing(t *testing.T) {
	cfg := validContracts()
	cfg.StabilityPool = ""
	if _, err := parseContracts(cfg); err == nil {
		t.Fatal("expected error for missing stability pool")
	}
}

func TestParseContractsRejectsBadHex(t *testing.T) {
	cfg := validContracts()
	cfg.Want = "not-an-address"
	if _, err := parseContracts(cfg); err == nil {
		t.Fatal("expected error for invalid address")
	}
}

func TestParseOperatorCommand(t *testing.T) {
	cases := []struct {
		text string
		cmd  string
		args []string
		ok   bool
	}{
		{"/status", "status", nil, true},
		{"  /ROUTE uniswap  ", "route", []string{"uniswap"}, true},
		{"/withdraw 12.5", "withdraw", []string{"12.5"}, true},
		{"hello there", "", nil, false},
		{"", "", nil, false},
	}
	for _, tc := range cases {
		cmd, args, ok := parseOperatorCommand(tc.text)
		if ok != tc.ok || cmd != tc.cmd || len(args) != len(tc.args) {
			t.Fatalf("parseOperatorCommand(%q) = (%q, %v, %t), want (%q, %v, %t)", tc.text, cmd, args, ok, tc.cmd, tc.args, tc.ok)
		}
		for i := range args {
			if args[i] != tc.args[i] {
				t.Fatalf("parseOperatorCommand(%q) arg %d = %q, want %q", tc.text, i, args[i], tc.args[i])
			}
		}
	}
}

func TestParseWantAmount(t *testing.T) {
	wei := func(s string) *big.Int {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			t.Fatalf("bad literal %q", s)
		}
		return v
	}
	cases := []struct {
		in   string
		want *big.Int
	}{
		{"1", wei("1000000000000000000")},
		{"12.5", wei("12500000000000000000")},
		{"0.000000000000000001", wei("1")},
		{".5", wei("500000000000000000")},
	}
	for _, tc := range cases {
		got, err := parseWantAmount(tc.in)
		if err != nil {
			t.Fatalf("parseWantAmount(%q): %v", tc.in, err)
		}
		if got.Cmp(tc.want) != 0 {
			t.Fatalf("parseWantAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseWantAmountRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", ".", "0", "-1", "abc", "1.0000000000000000001"} {
		if _, err := parseWantAmount(in); err == nil {
			t.Fatalf("parseWantAmount(%q) accepted", in)
		}
	}
}

func TestBigToFloat(t *testing.T) {
	oneWant := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	if got := bigToFloat(oneWant); got != 1 {
		t.Fatalf("bigToFloat(1e18) = %v, want 1", got)
	}
	if got := bigToFloat(nil); got != 0 {
		t.Fatalf("bigToFloat(nil) = %v, want 0", got)
	}
	half := new(big.Int).Div(oneWant, big.NewInt(2))
	if got := bigToFloat(half); got != 0.5 {
		t.Fatalf("bigToFloat(0.5e18) = %v, want 0.5", got)
	}
}
