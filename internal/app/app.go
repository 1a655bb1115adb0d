package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lusd-sp-engine/internal/alerts"
	"lusd-sp-engine/internal/chain"
	"lusd-sp-engine/internal/config"
	"lusd-sp-engine/internal/metrics"
	"lusd-sp-engine/internal/oracle"
	"lusd-sp-engine/internal/pricefeed"
	"lusd-sp-engine/internal/state"
	"lusd-sp-engine/internal/state/sqlite"
	"lusd-sp-engine/internal/strategy"
	"lusd-sp-engine/internal/swap"
	"lusd-sp-engine/internal/timescale"
)

const wantDecimals = 1e18

type App struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *sqlite.Store
	client   *chain.Client
	holdings *chain.Holdings
	venue    *chain.StabilityPool
	vault    *chain.Vault
	selector *swap.Selector
	pipeline *swap.Pipeline
	engine   *strategy.Engine
	feed     *pricefeed.Client
	writer   *timescale.Writer
	metrics  *metrics.Metrics
	prom     *metrics.Prometheus
	alerts   *alerts.Telegram

	// Serializes harvest, emergency, and migration entry points: a cycle
	// runs to completion before another may start.
	cycleMu sync.Mutex

	paused         atomic.Bool
	operatorWarned bool
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}

	privateKey := strings.TrimSpace(os.Getenv("ETH_PRIVATE_KEY"))
	if privateKey == "" {
		return nil, errors.New("ETH_PRIVATE_KEY is required")
	}
	signer, err := chain.NewSigner(privateKey, cfg.Eth.ChainID)
	if err != nil {
		return nil, err
	}
	client, err := chain.Dial(ctx, cfg.Eth.RPCURL, signer, cfg.Eth.ChainID, cfg.Eth.CallTimeout, cfg.Eth.TxTimeout, log)
	if err != nil {
		return nil, err
	}
	keeper := client.Keeper()

	addrs, err := parseContracts(cfg.Contracts)
	if err != nil {
		return nil, err
	}

	want := chain.NewERC20(client, addrs.want)
	lqty := chain.NewERC20(client, addrs.lqty)
	weth := chain.NewERC20(client, addrs.weth)
	dai := chain.NewERC20(client, addrs.dai)
	holdings := chain.NewHoldings(client, want, keeper)
	venue := chain.NewStabilityPool(client, addrs.stabilityPool, keeper, addrs.frontend)
	router := chain.NewUniswapRouter(client, addrs.uniswapRouter, addrs.weth, keeper)
	curve := chain.NewCurvePool(client, addrs.curvePool)
	vault := chain.NewVault(client, addrs.vault, keeper)

	priceConverter, err := oracle.NewConverter(chain.NewPriceFeed(client, addrs.priceFeed))
	if err != nil {
		return nil, err
	}

	selector, err := swap.NewSelector(ctx, store, swap.Route(cfg.Swap.Route))
	if err != nil {
		return nil, err
	}

	m := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}

	pipeline, err := swap.NewPipeline(swap.PipelineParams{
		Self:           keeper,
		Router:         router,
		Curve:          curve,
		Venue:          venue,
		Native:         holdings,
		LQTY:           lqty,
		WETH:           weth,
		DAI:            dai,
		Want:           want,
		Selector:       selector,
		Fees:           swap.Fees{LQTYToWETH: cfg.Swap.LQTYToWETHFee, WETHToDAI: cfg.Swap.WETHToDAIFee, ETHToDAI: cfg.Swap.ETHToDAIFee, DAIToWant: cfg.Swap.DAIToWantFee},
		CurveDAIIndex:  cfg.Swap.CurveDAIIndex,
		CurveWantIndex: cfg.Swap.CurveWantIndex,
		ToleranceBps:   int64(cfg.Swap.CurveToleranceBps),
		Metrics:        m,
		Log:            log,
	})
	if err != nil {
		return nil, err
	}

	engine, err := strategy.NewEngine(strategy.EngineParams{
		Holdings:               holdings,
		Venue:                  venue,
		Converter:              pipeline,
		Vault:                  vault,
		Oracle:                 priceConverter,
		Log:                    log,
		ReserveDebtOutstanding: cfg.Harvest.ReserveDebtOutstanding,
	})
	if err != nil {
		return nil, err
	}

	var feed *pricefeed.Client
	if cfg.PriceFeed.Enabled {
		feed = pricefeed.New(cfg.PriceFeed, log)
	}
	writer, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		client:   client,
		holdings: holdings,
		venue:    venue,
		vault:    vault,
		selector: selector,
		pipeline: pipeline,
		engine:   engine,
		feed:     feed,
		writer:   writer,
		metrics:  m,
		prom:     prom,
		alerts:   alerts.NewTelegram(cfg.Telegram, log),
	}, nil
}

func (a *App) StrategyName() string {
	return a.engine.Name()
}

func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()
	defer a.client.Close()
	defer func() { _ = a.writer.Close() }()

	if err := a.reconcile(ctx); err != nil {
		return err
	}
	if a.feed != nil {
		go func() {
			if err := a.feed.Run(ctx); err != nil && ctx.Err() == nil {
				a.log.Warn("price feed stopped", zap.Error(err))
			}
		}()
	}
	a.writer.Start(ctx)
	a.serveMetrics(ctx)
	a.startOperator(ctx)

	ticker := time.NewTicker(a.cfg.Harvest.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if a.paused.Load() {
				a.log.Info("harvest skipped: paused")
				continue
			}
			skip, err := a.belowRewardFloor(ctx)
			if err != nil {
				a.log.Warn("reward floor check failed", zap.Error(err))
			} else if skip {
				a.log.Info("harvest skipped: pending rewards below floor")
				continue
			}
			if err := a.Harvest(ctx); err != nil {
				a.log.Warn("harvest failed", zap.Error(err))
			}
		}
	}
}

// reconcile logs the strategy's full position at startup so an operator can
// compare it against the vault's expectations before the first cycle.
func (a *App) reconcile(ctx context.Context) error {
	total, err := a.engine.EstimatedTotalAssets(ctx)
	if err != nil {
		return fmt.Errorf("estimate total assets: %w", err)
	}
	deposit, err := a.venue.CompoundedDeposit(ctx)
	if err != nil {
		return err
	}
	pendingNative, err := a.venue.PendingNativeGain(ctx)
	if err != nil {
		return err
	}
	pendingReward, err := a.venue.PendingRewardGain(ctx)
	if err != nil {
		return err
	}
	totalDebt, err := a.vault.TotalDebt(ctx)
	if err != nil {
		return err
	}
	a.metrics.TotalAssets.Set(bigToFloat(total))
	a.metrics.TotalDebt.Set(bigToFloat(totalDebt))
	a.log.Info("reconciled position",
		zap.String("strategy", a.engine.Name()),
		zap.String("estimated_total_assets", total.String()),
		zap.String("compounded_deposit", deposit.String()),
		zap.String("pending_eth_gain", pendingNative.String()),
		zap.String("pending_lqty_gain", pendingReward.String()),
		zap.String("vault_total_debt", totalDebt.String()),
		zap.String("route", string(a.selector.Route())),
	)
	return nil
}

// Harvest runs one full cycle: prepare the return, then redeploy idle want.
func (a *App) Harvest(ctx context.Context) error {
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()

	debtOutstanding, err := a.vault.DebtOutstanding(ctx)
	if err != nil {
		a.metrics.HarvestFailures.Inc()
		return fmt.Errorf("read debt outstanding: %w", err)
	}
	report, err := a.engine.PrepareReturn(ctx, debtOutstanding)
	if err != nil {
		a.metrics.HarvestFailures.Inc()
		return err
	}
	if err := a.engine.AdjustPosition(ctx, debtOutstanding); err != nil {
		a.metrics.HarvestFailures.Inc()
		return err
	}
	a.metrics.Harvests.Inc()
	a.metrics.ProfitReported.Add(bigToFloat(report.Profit))
	a.metrics.LossRealized.Add(bigToFloat(report.Loss))
	a.recordHarvest(ctx, report)
	return nil
}

func (a *App) recordHarvest(ctx context.Context, report strategy.Report) {
	total, err := a.engine.EstimatedTotalAssets(ctx)
	if err != nil {
		a.log.Warn("post-harvest valuation failed", zap.Error(err))
		total = new(big.Int)
	} else {
		a.metrics.TotalAssets.Set(bigToFloat(total))
	}
	totalDebt, err := a.vault.TotalDebt(ctx)
	if err != nil {
		a.log.Warn("post-harvest debt read failed", zap.Error(err))
		totalDebt = new(big.Int)
	} else {
		a.metrics.TotalDebt.Set(bigToFloat(totalDebt))
	}
	route := string(a.selector.Route())
	snapshot := state.HarvestSnapshot{
		Profit:      report.Profit.String(),
		Loss:        report.Loss.String(),
		DebtPayment: report.DebtPayment.String(),
		TotalAssets: total.String(),
		TotalDebt:   totalDebt.String(),
		Route:       route,
		UpdatedAtMS: time.Now().UnixMilli(),
	}
	if err := state.SaveHarvestSnapshot(ctx, a.store, snapshot); err != nil {
		a.log.Warn("harvest snapshot save failed", zap.Error(err))
	}
	a.writer.Enqueue(timescale.HarvestReport{
		Time:        time.Now().UTC(),
		Profit:      snapshot.Profit,
		Loss:        snapshot.Loss,
		DebtPayment: snapshot.DebtPayment,
		TotalAssets: snapshot.TotalAssets,
		TotalDebt:   snapshot.TotalDebt,
		Route:       route,
	})
	message := fmt.Sprintf("Harvest: profit %s loss %s debt payment %s (route %s)",
		formatWant(report.Profit), formatWant(report.Loss), formatWant(report.DebtPayment), route)
	if err := a.alerts.Send(ctx, message); err != nil {
		a.log.Warn("alert send failed", zap.Error(err))
	}
	a.log.Info("harvest complete",
		zap.String("profit", report.Profit.String()),
		zap.String("loss", report.Loss.String()),
		zap.String("debt_payment", report.DebtPayment.String()),
		zap.String("route", route),
	)
}

// belowRewardFloor prices pending gains off-chain and reports whether they
// are worth a harvest. Without a usable feed the harvest always proceeds.
func (a *App) belowRewardFloor(ctx context.Context) (bool, error) {
	if a.feed == nil || a.cfg.Harvest.MinRewardValueUSD <= 0 {
		return false, nil
	}
	pendingReward, err := a.venue.PendingRewardGain(ctx)
	if err != nil {
		return false, err
	}
	pendingNative, err := a.venue.PendingNativeGain(ctx)
	if err != nil {
		return false, err
	}
	lqtyPrice, _, lqtyOK := a.feed.Price(a.cfg.PriceFeed.LQTYSymbol)
	ethPrice, _, ethOK := a.feed.Price(a.cfg.PriceFeed.ETHSymbol)
	if !lqtyOK || !ethOK {
		return false, nil
	}
	valueUSD := bigToFloat(pendingReward)*lqtyPrice + bigToFloat(pendingNative)*ethPrice
	return valueUSD < a.cfg.Harvest.MinRewardValueUSD, nil
}

func (a *App) serveMetrics(ctx context.Context) {
	if a.prom == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.prom.Handler())
	server := &http.Server{Addr: a.cfg.Metrics.ListenAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

type contractAddresses struct {
	vault         common.Address
	want          common.Address
	lqty          common.Address
	weth          common.Address
	dai           common.Address
	stabilityPool common.Address
	priceFeed     common.Address
	uniswapRouter common.Address
	curvePool     common.Address
	frontend      common.Address
}

func parseContracts(cfg config.ContractsConfig) (contractAddresses, error) {
	var addrs contractAddresses
	fields := []struct {
		name     string
		value    string
		target   *common.Address
		optional bool
	}{
		{"contracts.vault", cfg.Vault, &addrs.vault, false},
		{"contracts.want", cfg.Want, &addrs.want, false},
		{"contracts.lqty", cfg.LQTY, &addrs.lqty, false},
		{"contracts.weth", cfg.WETH, &addrs.weth, false},
		{"contracts.dai", cfg.DAI, &addrs.dai, false},
		{"contracts.stability_pool", cfg.StabilityPool, &addrs.stabilityPool, false},
		{"contracts.price_feed", cfg.PriceFeed, &addrs.priceFeed, false},
		{"contracts.uniswap_router", cfg.UniswapRouter, &addrs.uniswapRouter, false},
		{"contracts.curve_pool", cfg.CurvePool, &addrs.curvePool, false},
		{"contracts.frontend", cfg.Frontend, &addrs.frontend, true},
	}
	for _, field := range fields {
		if field.value == "" {
			if field.optional {
				continue
			}
			return contractAddresses{}, fmt.Errorf("%s is required", field.name)
		}
		if !common.IsHexAddress(field.value) {
			return contractAddresses{}, fmt.Errorf("%s is not a valid address: %s", field.name, field.value)
		}
		*field.target = common.HexToAddress(field.value)
	}
	return addrs, nil
}

func bigToFloat(x *big.Int) float64 {
	if x == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(x), big.NewFloat(wantDecimals)).Float64()
	return f
}

func formatWant(x *big.Int) string {
	return fmt.Sprintf("%.6f", bigToFloat(x))
}
