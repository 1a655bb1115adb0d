package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lusd-sp-engine/internal/alerts"
	"lusd-sp-engine/internal/state"
	"lusd-sp-engine/internal/swap"
)

const operatorOffsetKey = "telegram:operator:last_update_id"

type operatorMeta struct {
	UpdateID int64
	UserID   int64
	Username string
	ChatID   int64
	Raw      string
}

type operatorAuditEvent struct {
	UpdateID int64     `json:"update_id"`
	Time     time.Time `json:"time"`
	Action   string    `json:"action"`
	Command  string    `json:"command"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username,omitempty"`
	ChatID   int64     `json:"chat_id"`
	Detail   string    `json:"detail,omitempty"`
}

func (a *App) startOperator(ctx context.Context) {
	if a.cfg == nil || a.alerts == nil || !a.cfg.Telegram.OperatorEnabled {
		return
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(a.cfg.Telegram.ChatID), 10, 64)
	if err != nil {
		a.log.Warn("telegram operator disabled: invalid chat_id", zap.Error(err))
		return
	}
	allowedUsers := make(map[int64]struct{}, len(a.cfg.Telegram.OperatorAllowedUserIDs))
	for _, id := range a.cfg.Telegram.OperatorAllowedUserIDs {
		allowedUsers[id] = struct{}{}
	}
	go a.operatorLoop(ctx, chatID, allowedUsers, a.cfg.Telegram.OperatorPollInterval)
}

func (a *App) operatorLoop(ctx context.Context, chatID int64, allowedUsers map[int64]struct{}, pollInterval time.Duration) {
	offset := a.loadOperatorOffset(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		updates, err := a.alerts.GetUpdates(ctx, offset, pollInterval)
		if err != nil {
			if !a.operatorWarned {
				a.log.Warn("telegram operator poll failed", zap.Error(err))
				a.operatorWarned = true
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
			continue
		}
		if a.operatorWarned {
			a.log.Info("telegram operator recovered")
			a.operatorWarned = false
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
				a.saveOperatorOffset(ctx, offset)
			}
			a.handleOperatorUpdate(ctx, upd, chatID, allowedUsers)
		}
	}
}

func (a *App) handleOperatorUpdate(ctx context.Context, upd alerts.Update, chatID int64, allowedUsers map[int64]struct{}) {
	if upd.Message == nil || upd.Message.Chat == nil || upd.Message.From == nil {
		return
	}
	msg := upd.Message
	if msg.Chat.ID != chatID {
		return
	}
	// Authorization boundary: configuration and emergency commands from
	// anyone outside the allow list are dropped with state unchanged.
	if len(allowedUsers) > 0 {
		if _, ok := allowedUsers[msg.From.ID]; !ok {
			return
		}
	}
	cmd, args, ok := parseOperatorCommand(msg.Text)
	if !ok {
		return
	}
	meta := operatorMeta{
		UpdateID: upd.UpdateID,
		UserID:   msg.From.ID,
		Username: msg.From.Username,
		ChatID:   msg.Chat.ID,
		Raw:      msg.Text,
	}
	resp, err := a.handleOperatorCommand(ctx, cmd, args, meta)
	if err != nil {
		resp = fmt.Sprintf("command failed: %v", err)
	}
	if resp == "" {
		return
	}
	if err := a.alerts.Send(ctx, resp); err != nil {
		a.log.Warn("operator response failed", zap.Error(err))
	}
}

func parseOperatorCommand(text string) (string, []string, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return "", nil, false
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return "", nil, false
	}
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	return cmd, fields[1:], true
}

func (a *App) handleOperatorCommand(ctx context.Context, cmd string, args []string, meta operatorMeta) (string, error) {
	switch cmd {
	case "status":
		return a.operatorStatus(ctx), nil
	case "route":
		return a.handleRouteCommand(ctx, args, meta)
	case "pause":
		a.paused.Store(true)
		a.auditOperatorEvent(ctx, meta, "pause", "")
		return "harvesting paused", nil
	case "resume":
		a.paused.Store(false)
		a.auditOperatorEvent(ctx, meta, "resume", "")
		return "harvesting resumed", nil
	case "harvest":
		a.auditOperatorEvent(ctx, meta, "harvest", "forced")
		if err := a.Harvest(ctx); err != nil {
			return "", err
		}
		return "harvest complete", nil
	case "deposit":
		return a.handleDepositCommand(ctx, args, meta)
	case "withdraw":
		return a.handleWithdrawCommand(ctx, args, meta)
	case "exit":
		return a.handleExitCommand(ctx, meta)
	case "migrate":
		return a.handleMigrateCommand(ctx, meta)
	case "sweep":
		return a.handleSweepCommand(ctx, meta)
	case "help":
		return operatorHelpText(), nil
	default:
		return operatorHelpText(), nil
	}
}

func (a *App) handleRouteCommand(ctx context.Context, args []string, meta operatorMeta) (string, error) {
	if len(args) == 0 || strings.EqualFold(args[0], "show") {
		return fmt.Sprintf("route: %s", a.selector.Route()), nil
	}
	route, err := swap.ParseRoute(strings.ToLower(args[0]))
	if err != nil {
		return "", err
	}
	if err := a.selector.Set(ctx, route); err != nil {
		return "", err
	}
	a.auditOperatorEvent(ctx, meta, "route", string(route))
	return fmt.Sprintf("route set to %s (takes effect next cycle)", route), nil
}

// handleDepositCommand force-deposits idle want, bypassing the harvest
// cycle. Emergency use only.
func (a *App) handleDepositCommand(ctx context.Context, args []string, meta operatorMeta) (string, error) {
	amount, err := parseWantArg(args)
	if err != nil {
		return "", err
	}
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()
	if err := a.venue.Provide(ctx, amount); err != nil {
		return "", err
	}
	a.metrics.DepositsExecuted.Inc()
	a.auditOperatorEvent(ctx, meta, "deposit", amount.String())
	return fmt.Sprintf("deposited %s want", formatWant(amount)), nil
}

// handleWithdrawCommand force-withdraws from the pool, bypassing the
// harvest cycle. Emergency use only.
func (a *App) handleWithdrawCommand(ctx context.Context, args []string, meta operatorMeta) (string, error) {
	amount, err := parseWantArg(args)
	if err != nil {
		return "", err
	}
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()
	if err := a.venue.Withdraw(ctx, amount); err != nil {
		return "", err
	}
	a.metrics.WithdrawalsDone.Inc()
	a.auditOperatorEvent(ctx, meta, "withdraw", amount.String())
	return fmt.Sprintf("withdrew up to %s want", formatWant(amount)), nil
}

// handleExitCommand liquidates the whole position into idle want and pauses
// harvesting so the next ticker cycle does not redeposit it.
func (a *App) handleExitCommand(ctx context.Context, meta operatorMeta) (string, error) {
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()
	freed, err := a.engine.LiquidateAllPositions(ctx)
	if err != nil {
		return "", err
	}
	a.paused.Store(true)
	a.metrics.WithdrawalsDone.Inc()
	a.auditOperatorEvent(ctx, meta, "exit", freed.String())
	return fmt.Sprintf("exited position, %s want idle; harvesting paused", formatWant(freed)), nil
}

// handleMigrateCommand withdraws the full deposit ahead of a strategy
// migration. Rewards should be harvested first; this step does not claim.
func (a *App) handleMigrateCommand(ctx context.Context, meta operatorMeta) (string, error) {
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()
	if err := a.engine.PrepareMigration(ctx); err != nil {
		return "", err
	}
	a.paused.Store(true)
	a.auditOperatorEvent(ctx, meta, "migrate", "")
	return "migration prepared: deposit withdrawn, harvesting paused", nil
}

// handleSweepCommand moves the full idle ETH balance to the configured
// sweep address. ETH cannot leave through the want path, so this is the
// only way to recover stray native balance.
func (a *App) handleSweepCommand(ctx context.Context, meta operatorMeta) (string, error) {
	target := strings.TrimSpace(a.cfg.Eth.SweepAddress)
	if target == "" {
		return "", errors.New("eth.sweep_address is not configured")
	}
	if !common.IsHexAddress(target) {
		return "", fmt.Errorf("invalid sweep address: %s", target)
	}
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()
	balance, err := a.holdings.NativeBalance(ctx)
	if err != nil {
		return "", err
	}
	if balance.Sign() == 0 {
		return "nothing to sweep", nil
	}
	if err := a.client.SendNative(ctx, common.HexToAddress(target), balance); err != nil {
		return "", err
	}
	a.auditOperatorEvent(ctx, meta, "sweep", balance.String())
	return fmt.Sprintf("swept %s ETH to %s", formatWant(balance), target), nil
}

func (a *App) operatorStatus(ctx context.Context) string {
	lines := []string{
		fmt.Sprintf("strategy: %s", a.engine.Name()),
		fmt.Sprintf("paused: %t", a.paused.Load()),
		fmt.Sprintf("route: %s", a.selector.Route()),
	}
	if total, err := a.engine.EstimatedTotalAssets(ctx); err == nil {
		lines = append(lines, fmt.Sprintf("estimated_total_assets: %s", formatWant(total)))
	} else {
		lines = append(lines, fmt.Sprintf("estimated_total_assets: error: %v", err))
	}
	if deposit, err := a.venue.CompoundedDeposit(ctx); err == nil {
		lines = append(lines, fmt.Sprintf("compounded_deposit: %s", formatWant(deposit)))
	}
	if gain, err := a.venue.PendingNativeGain(ctx); err == nil {
		lines = append(lines, fmt.Sprintf("pending_eth_gain: %s", formatWant(gain)))
	}
	if gain, err := a.venue.PendingRewardGain(ctx); err == nil {
		lines = append(lines, fmt.Sprintf("pending_lqty_gain: %s", formatWant(gain)))
	}
	if snapshot, ok, err := state.LoadHarvestSnapshot(ctx, a.store); err == nil && ok {
		lines = append(lines, fmt.Sprintf("last_harvest: profit=%s loss=%s at %s",
			snapshot.Profit, snapshot.Loss, time.UnixMilli(snapshot.UpdatedAtMS).UTC().Format(time.RFC3339)))
	}
	return strings.Join(lines, "\n")
}

func operatorHelpText() string {
	return strings.Join([]string{
		"/status - position and route overview",
		"/route show|curve|uniswap - inspect or switch the final swap hop",
		"/pause /resume - stop or restart scheduled harvests",
		"/harvest - force a harvest cycle now",
		"/deposit <amount> - emergency deposit idle want into the pool",
		"/withdraw <amount> - emergency withdrawal from the pool",
		"/exit - liquidate everything into idle want and pause",
		"/migrate - withdraw the full deposit ahead of a migration",
		"/sweep - send idle ETH to the sweep address",
	}, "\n")
}

func (a *App) auditOperatorEvent(ctx context.Context, meta operatorMeta, action, detail string) {
	event := operatorAuditEvent{
		UpdateID: meta.UpdateID,
		Time:     time.Now().UTC(),
		Action:   action,
		Command:  meta.Raw,
		UserID:   meta.UserID,
		Username: meta.Username,
		ChatID:   meta.ChatID,
		Detail:   detail,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		a.log.Warn("operator audit marshal failed", zap.Error(err))
		return
	}
	if err := a.store.AppendAudit(ctx, string(payload)); err != nil {
		a.log.Warn("operator audit write failed", zap.Error(err))
	}
}

func (a *App) loadOperatorOffset(ctx context.Context) int64 {
	raw, ok, err := a.store.Get(ctx, operatorOffsetKey)
	if err != nil || !ok {
		return 0
	}
	offset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return offset
}

func (a *App) saveOperatorOffset(ctx context.Context, offset int64) {
	if err := a.store.Set(ctx, operatorOffsetKey, strconv.FormatInt(offset, 10)); err != nil {
		a.log.Warn("operator offset save failed", zap.Error(err))
	}
}

func parseWantArg(args []string) (*big.Int, error) {
	if len(args) != 1 {
		return nil, errors.New("exactly one amount argument is required")
	}
	return parseWantAmount(args[0])
}

// parseWantAmount converts a decimal token amount ("12.5") into base units.
func parseWantAmount(s string) (*big.Int, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if whole == "" && frac == "" {
		return nil, errors.New("amount is required")
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 18 {
		return nil, errors.New("amount has more than 18 decimal places")
	}
	digits := whole + frac + strings.Repeat("0", 18-len(frac))
	amount, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	if amount.Sign() <= 0 {
		return nil, errors.New("amount must be > 0")
	}
	return amount, nil
}
