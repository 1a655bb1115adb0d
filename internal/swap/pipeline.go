package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lusd-sp-engine/internal/metrics"
)

const bpsDenominator = 10_000

// Fees are Uniswap V3 pool fee tiers in hundredths of a bip, one per hop.
type Fees struct {
	LQTYToWETH uint32
	WETHToDAI  uint32
	ETHToDAI   uint32
	DAIToWant  uint32
}

// Pipeline claims stability pool rewards and converts them into want:
//
//  1. a one-wei pool withdrawal to settle reward accrual (claiming requires
//     a withdrawal, however small),
//  2. LQTY -> WETH -> DAI through a fixed Uniswap path with no output floor,
//  3. idle ETH -> DAI through a native-in single swap with refund,
//  4. DAI -> want through Curve (quoted, with a tolerance floor) or Uniswap,
//     per the route selector.
//
// Steps with a zero balance are skipped entirely.
type Pipeline struct {
	self     common.Address
	router   Router
	curve    CurvePool
	venue    Venue
	native   NativeBalancer
	lqty     ERC20
	weth     ERC20
	dai      ERC20
	want     ERC20
	selector *Selector
	fees     Fees

	curveDAIIndex  int64
	curveWantIndex int64
	toleranceBps   int64

	metrics *metrics.Metrics
	log     *zap.Logger
}

type PipelineParams struct {
	Self           common.Address
	Router         Router
	Curve          CurvePool
	Venue          Venue
	Native         NativeBalancer
	LQTY           ERC20
	WETH           ERC20
	DAI            ERC20
	Want           ERC20
	Selector       *Selector
	Fees           Fees
	CurveDAIIndex  int64
	CurveWantIndex int64
	ToleranceBps   int64
	Metrics        *metrics.Metrics
	Log            *zap.Logger
}

func NewPipeline(params PipelineParams) (*Pipeline, error) {
	switch {
	case params.Router == nil:
		return nil, errors.New("router is required")
	case params.Curve == nil:
		return nil, errors.New("curve pool is required")
	case params.Venue == nil:
		return nil, errors.New("venue is required")
	case params.Native == nil:
		return nil, errors.New("native balancer is required")
	case params.LQTY == nil || params.WETH == nil || params.DAI == nil || params.Want == nil:
		return nil, errors.New("all four tokens are required")
	case params.Selector == nil:
		return nil, errors.New("route selector is required")
	}
	if params.ToleranceBps < 0 || params.ToleranceBps >= bpsDenominator {
		return nil, errors.New("tolerance bps out of range")
	}
	m := params.Metrics
	if m == nil {
		m = metrics.NewNoop()
	}
	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		self:           params.Self,
		router:         params.Router,
		curve:          params.Curve,
		venue:          params.Venue,
		native:         params.Native,
		lqty:           params.LQTY,
		weth:           params.WETH,
		dai:            params.DAI,
		want:           params.Want,
		selector:       params.Selector,
		fees:           params.Fees,
		curveDAIIndex:  params.CurveDAIIndex,
		curveWantIndex: params.CurveWantIndex,
		toleranceBps:   params.ToleranceBps,
		metrics:        m,
		log:            log,
	}, nil
}

// ClaimAndConvert runs the full pipeline. The route selection is read once
// at the start so an operator toggle mid-cycle cannot change venues between
// the quote and the execution.
func (p *Pipeline) ClaimAndConvert(ctx context.Context) error {
	route := p.selector.Route()
	if err := p.forceClaim(ctx); err != nil {
		return err
	}
	if err := p.convertLQTY(ctx); err != nil {
		return err
	}
	if err := p.convertNative(ctx); err != nil {
		return err
	}
	return p.convertDAI(ctx, route)
}

// forceClaim withdraws one wei from the pool when a deposit exists, which
// settles and pays out pending LQTY and ETH gains.
func (p *Pipeline) forceClaim(ctx context.Context) error {
	deposit, err := p.venue.CompoundedDeposit(ctx)
	if err != nil {
		return fmt.Errorf("read compounded deposit: %w", err)
	}
	if deposit.Sign() == 0 {
		return nil
	}
	if err := p.venue.Withdraw(ctx, big.NewInt(1)); err != nil {
		return fmt.Errorf("claim withdrawal: %w", err)
	}
	return nil
}

func (p *Pipeline) convertLQTY(ctx context.Context) error {
	balance, err := p.lqty.BalanceOf(ctx, p.self)
	if err != nil {
		return fmt.Errorf("read lqty balance: %w", err)
	}
	if balance.Sign() == 0 {
		return nil
	}
	if err := EnsureAllowance(ctx, p.lqty, p.self, p.router.Address(), balance); err != nil {
		return fmt.Errorf("approve lqty: %w", err)
	}
	path := []common.Address{p.lqty.Address(), p.weth.Address(), p.dai.Address()}
	fees := []uint32{p.fees.LQTYToWETH, p.fees.WETHToDAI}
	// LQTY/WETH has deep on-chain liquidity; the route's own pricing is
	// trusted and no output floor is set.
	if err := p.router.ExactInput(ctx, path, fees, balance, new(big.Int)); err != nil {
		return fmt.Errorf("swap lqty: %w", err)
	}
	p.metrics.SwapsExecuted.Inc()
	p.log.Info("converted lqty rewards", zap.String("amount_in", balance.String()))
	return nil
}

func (p *Pipeline) convertNative(ctx context.Context) error {
	balance, err := p.native.NativeBalance(ctx)
	if err != nil {
		return fmt.Errorf("read native balance: %w", err)
	}
	if balance.Sign() == 0 {
		return nil
	}
	if err := p.router.ExactInputSingleNative(ctx, p.dai.Address(), p.fees.ETHToDAI, balance, new(big.Int)); err != nil {
		return fmt.Errorf("swap native: %w", err)
	}
	p.metrics.SwapsExecuted.Inc()
	p.log.Info("converted native gains", zap.String("amount_in", balance.String()))
	return nil
}

func (p *Pipeline) convertDAI(ctx context.Context, route Route) error {
	balance, err := p.dai.BalanceOf(ctx, p.self)
	if err != nil {
		return fmt.Errorf("read dai balance: %w", err)
	}
	if balance.Sign() == 0 {
		return nil
	}
	switch route {
	case RouteCurve:
		expected, err := p.curve.GetDy(ctx, p.curveDAIIndex, p.curveWantIndex, balance)
		if err != nil {
			return fmt.Errorf("quote curve: %w", err)
		}
		minOut := new(big.Int).Mul(expected, big.NewInt(bpsDenominator-p.toleranceBps))
		minOut.Div(minOut, big.NewInt(bpsDenominator))
		if err := EnsureAllowance(ctx, p.dai, p.self, p.curve.Address(), balance); err != nil {
			return fmt.Errorf("approve dai: %w", err)
		}
		if err := p.curve.Exchange(ctx, p.curveDAIIndex, p.curveWantIndex, balance, minOut); err != nil {
			return fmt.Errorf("exchange dai on curve: %w", err)
		}
	case RouteUniswap:
		if err := EnsureAllowance(ctx, p.dai, p.self, p.router.Address(), balance); err != nil {
			return fmt.Errorf("approve dai: %w", err)
		}
		path := []common.Address{p.dai.Address(), p.want.Address()}
		if err := p.router.ExactInput(ctx, path, []uint32{p.fees.DAIToWant}, balance, new(big.Int)); err != nil {
			return fmt.Errorf("swap dai on uniswap: %w", err)
		}
	default:
		return fmt.Errorf("unknown route %q", route)
	}
	p.metrics.SwapsExecuted.Inc()
	p.log.Info("converted dai to want", zap.String("amount_in", balance.String()), zap.String("route", string(route)))
	return nil
}
