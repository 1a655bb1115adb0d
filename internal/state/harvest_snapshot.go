package state

import (
	"context"
	"encoding/json"
	"strings"
)

const HarvestSnapshotKey = "harvest:last_report"

// HarvestSnapshot is the persisted record of the most recent harvest cycle.
// Amounts are decimal strings in want-token base units so 256-bit values
// survive the round trip.
type HarvestSnapshot struct {
	Profit      string `json:"profit"`
	Loss        string `json:"loss"`
	DebtPayment string `json:"debt_payment"`
	TotalAssets string `json:"total_assets"`
	TotalDebt   string `json:"total_debt"`
	Route       string `json:"route"`
	TxHash      string `json:"tx_hash,omitempty"`
	UpdatedAtMS int64  `json:"updated_at_ms"`
}

func LoadHarvestSnapshot(ctx context.Context, store Store) (HarvestSnapshot, bool, error) {
	if store == nil {
		return HarvestSnapshot{}, false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	raw, ok, err := store.Get(ctx, HarvestSnapshotKey)
	if err != nil {
		return HarvestSnapshot{}, false, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return HarvestSnapshot{}, false, nil
	}
	var snapshot HarvestSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return HarvestSnapshot{}, false, err
	}
	return snapshot, true, nil
}

func SaveHarvestSnapshot(ctx context.Context, store Store, snapshot HarvestSnapshot) error {
	if store == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return store.Set(ctx, HarvestSnapshotKey, string(payload))
}
