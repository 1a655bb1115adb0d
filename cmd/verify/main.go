// Command verify dials the chain with the keeper key and prints the
// strategy's full position without sending any transactions. Run it before
// the first harvest to confirm the configured addresses line up.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lusd-sp-engine/internal/chain"
	"lusd-sp-engine/internal/config"
	"lusd-sp-engine/internal/logging"
	"lusd-sp-engine/internal/oracle"
	"lusd-sp-engine/internal/state/sqlite"
	"lusd-sp-engine/internal/swap"
)

const defaultVerifyEnvFile = ".env"

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	quoteDAI := flag.String("quote-dai", "", "optional DAI amount to quote through the Curve pool")
	flag.Parse()

	if err := config.LoadEnv(defaultVerifyEnvFile); err != nil {
		fatal(err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	log := logging.New(config.LoggingConfig{Level: "warn"})
	defer func() { _ = log.Sync() }()

	privateKey := strings.TrimSpace(os.Getenv("ETH_PRIVATE_KEY"))
	if privateKey == "" {
		fatal(fmt.Errorf("ETH_PRIVATE_KEY is required"))
	}
	signer, err := chain.NewSigner(privateKey, cfg.Eth.ChainID)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := chain.Dial(ctx, cfg.Eth.RPCURL, signer, cfg.Eth.ChainID, cfg.Eth.CallTimeout, cfg.Eth.TxTimeout, log)
	if err != nil {
		fatal(err)
	}
	defer client.Close()
	keeper := client.Keeper()
	fmt.Printf("keeper: %s\n", keeper.Hex())

	want := chain.NewERC20(client, common.HexToAddress(cfg.Contracts.Want))
	pool := chain.NewStabilityPool(client, common.HexToAddress(cfg.Contracts.StabilityPool), keeper, common.HexToAddress(cfg.Contracts.Frontend))
	vault := chain.NewVault(client, common.HexToAddress(cfg.Contracts.Vault), keeper)
	feed := chain.NewPriceFeed(client, common.HexToAddress(cfg.Contracts.PriceFeed))
	curve := chain.NewCurvePool(client, common.HexToAddress(cfg.Contracts.CurvePool))

	idle, err := want.BalanceOf(ctx, keeper)
	if err != nil {
		fatal(err)
	}
	native, err := client.NativeBalance(ctx, keeper)
	if err != nil {
		fatal(err)
	}
	deposit, err := pool.CompoundedDeposit(ctx)
	if err != nil {
		fatal(err)
	}
	pendingNative, err := pool.PendingNativeGain(ctx)
	if err != nil {
		fatal(err)
	}
	pendingReward, err := pool.PendingRewardGain(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("idle want:          %s\n", formatUnits(idle))
	fmt.Printf("idle eth:           %s\n", formatUnits(native))
	fmt.Printf("compounded deposit: %s\n", formatUnits(deposit))
	fmt.Printf("pending eth gain:   %s\n", formatUnits(pendingNative))
	fmt.Printf("pending lqty gain:  %s\n", formatUnits(pendingReward))

	converter, err := oracle.NewConverter(feed)
	if err != nil {
		fatal(err)
	}
	nativeTotal := new(big.Int).Add(native, pendingNative)
	nativeInWant, err := converter.NativeToWant(ctx, nativeTotal)
	if err != nil {
		fmt.Printf("eth valuation:      unavailable (%v)\n", err)
		nativeInWant = new(big.Int)
	}
	total := new(big.Int).Add(new(big.Int).Add(idle, deposit), nativeInWant)
	fmt.Printf("est. total assets:  %s\n", formatUnits(total))

	totalDebt, err := vault.TotalDebt(ctx)
	if err != nil {
		fatal(err)
	}
	debtOutstanding, err := vault.DebtOutstanding(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("vault total debt:   %s\n", formatUnits(totalDebt))
	fmt.Printf("debt outstanding:   %s\n", formatUnits(debtOutstanding))

	store, err := sqlite.New(cfg.State.SQLitePath)
	if err == nil {
		defer store.Close()
		if selector, selErr := swap.NewSelector(ctx, store, swap.Route(cfg.Swap.Route)); selErr == nil {
			fmt.Printf("active route:       %s\n", selector.Route())
		}
	}

	if *quoteDAI != "" {
		dx, ok := new(big.Int).SetString(*quoteDAI, 10)
		if !ok || dx.Sign() <= 0 {
			fatal(fmt.Errorf("invalid -quote-dai amount: %s", *quoteDAI))
		}
		dy, err := curve.GetDy(ctx, cfg.Swap.CurveDAIIndex, cfg.Swap.CurveWantIndex, dx)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("curve quote:        %s DAI -> %s want\n", formatUnits(dx), formatUnits(dy))
	}
}

func formatUnits(x *big.Int) string {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(x), big.NewFloat(1e18)).Float64()
	return fmt.Sprintf("%.6f", f)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
