package strategy

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"
)

// Engine orchestrates harvest, rebalance, liquidation and migration cycles
// against the stability pool. Every entry point is synchronous and
// single-attempt: the first failing external call aborts the cycle and the
// error is surfaced to the caller, who decides when to re-invoke.
type Engine struct {
	name      string
	holdings  Holdings
	venue     YieldVenue
	converter Converter
	vault     Vault
	oracle    ValuationOracle
	log       *zap.Logger

	// When set, AdjustPosition keeps debtOutstanding idle for the next
	// vault withdrawal instead of depositing the full idle balance.
	reserveDebtOutstanding bool
}

type EngineParams struct {
	Name                   string
	Holdings               Holdings
	Venue                  YieldVenue
	Converter              Converter
	Vault                  Vault
	Oracle                 ValuationOracle
	Log                    *zap.Logger
	ReserveDebtOutstanding bool
}

func NewEngine(params EngineParams) (*Engine, error) {
	if params.Holdings == nil {
		return nil, fmt.Errorf("holdings is required")
	}
	if params.Venue == nil {
		return nil, fmt.Errorf("venue is required")
	}
	if params.Converter == nil {
		return nil, fmt.Errorf("converter is required")
	}
	if params.Vault == nil {
		return nil, fmt.Errorf("vault is required")
	}
	if params.Oracle == nil {
		return nil, fmt.Errorf("oracle is required")
	}
	name := params.Name
	if name == "" {
		name = "StrategyLiquityStabilityPoolLUSD"
	}
	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		name:                   name,
		holdings:               params.Holdings,
		venue:                  params.Venue,
		converter:              params.Converter,
		vault:                  params.Vault,
		oracle:                 params.Oracle,
		log:                    log,
		reserveDebtOutstanding: params.ReserveDebtOutstanding,
	}, nil
}

func (e *Engine) Name() string {
	return e.name
}

// NativeToWant converts an ETH amount into want units for external
// reporting.
func (e *Engine) NativeToWant(ctx context.Context, amount *big.Int) (*big.Int, error) {
	if amount == nil {
		return nil, ErrMissingAmount
	}
	return e.oracle.NativeToWant(ctx, amount)
}

// PrepareReturn runs one harvest cycle: claim and convert rewards, value the
// post-conversion holdings against the vault's debt, then free
// debtOutstanding plus any profit. Liquidation-time loss is netted against
// the claim-phase profit before reporting, so profit and loss stay mutually
// exclusive.
func (e *Engine) PrepareReturn(ctx context.Context, debtOutstanding *big.Int) (Report, error) {
	if debtOutstanding == nil {
		return Report{}, ErrMissingAmount
	}
	if debtOutstanding.Sign() < 0 {
		return Report{}, ErrNegativeAmount
	}
	totalDebt, err := e.vault.TotalDebt(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("read vault total debt: %w", err)
	}
	// The pipeline runs unconditionally: claiming LQTY requires a
	// withdrawal from the pool, however small.
	if err := e.converter.ClaimAndConvert(ctx); err != nil {
		return Report{}, fmt.Errorf("claim and convert: %w", err)
	}
	assets, err := e.postConversionValue(ctx)
	if err != nil {
		return Report{}, err
	}

	profit := new(big.Int)
	loss := new(big.Int)
	if assets.Cmp(totalDebt) > 0 {
		profit.Sub(assets, totalDebt)
	} else {
		loss.Sub(totalDebt, assets)
	}

	toFree := new(big.Int).Add(debtOutstanding, profit)
	freed, liqLoss, err := e.LiquidatePosition(ctx, toFree)
	if err != nil {
		return Report{}, fmt.Errorf("liquidate for return: %w", err)
	}
	if liqLoss.Sign() > 0 {
		if profit.Cmp(liqLoss) >= 0 {
			profit.Sub(profit, liqLoss)
		} else {
			loss.Add(loss, new(big.Int).Sub(liqLoss, profit))
			profit.SetInt64(0)
		}
	}
	debtPayment := minBig(debtOutstanding, freed)

	e.log.Info("prepared return",
		zap.String("total_debt", totalDebt.String()),
		zap.String("post_conversion_assets", assets.String()),
		zap.String("profit", profit.String()),
		zap.String("loss", loss.String()),
		zap.String("debt_payment", debtPayment.String()),
	)
	return Report{Profit: profit, Loss: loss, DebtPayment: debtPayment}, nil
}

// AdjustPosition deposits idle want into the stability pool. With the
// reserve policy enabled, debtOutstanding is left idle for the vault to
// collect; otherwise the full idle balance is deployed.
func (e *Engine) AdjustPosition(ctx context.Context, debtOutstanding *big.Int) error {
	if debtOutstanding == nil {
		return ErrMissingAmount
	}
	if debtOutstanding.Sign() < 0 {
		return ErrNegativeAmount
	}
	idle, err := e.holdings.WantBalance(ctx)
	if err != nil {
		return fmt.Errorf("read want balance: %w", err)
	}
	toDeposit := new(big.Int).Set(idle)
	if e.reserveDebtOutstanding {
		toDeposit.Sub(toDeposit, debtOutstanding)
	}
	if toDeposit.Sign() <= 0 {
		return nil
	}
	if err := e.venue.Provide(ctx, toDeposit); err != nil {
		return fmt.Errorf("provide to pool: %w", err)
	}
	e.log.Info("deposited idle want", zap.String("amount", toDeposit.String()))
	return nil
}

// LiquidateAllPositions attempts a full exit by targeting the estimated
// total asset value and returns the amount actually freed.
func (e *Engine) LiquidateAllPositions(ctx context.Context) (*big.Int, error) {
	total, err := e.EstimatedTotalAssets(ctx)
	if err != nil {
		return nil, err
	}
	freed, _, err := e.LiquidatePosition(ctx, total)
	if err != nil {
		return nil, err
	}
	return freed, nil
}

// PrepareMigration exits the full compounded deposit so the idle want
// balance can be swept to the successor engine. Rewards are expected to have
// been claimed beforehand; this step does not claim.
func (e *Engine) PrepareMigration(ctx context.Context) error {
	deposit, err := e.venue.CompoundedDeposit(ctx)
	if err != nil {
		return fmt.Errorf("read compounded deposit: %w", err)
	}
	if deposit.Sign() == 0 {
		return nil
	}
	if err := e.venue.Withdraw(ctx, deposit); err != nil {
		return fmt.Errorf("withdraw for migration: %w", err)
	}
	e.log.Info("withdrew full deposit for migration", zap.String("amount", deposit.String()))
	return nil
}
