package state

import (
	"context"
	"testing"
)

type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.values, key)
	return nil
}

func (s *memStore) Close() error { return nil }

func TestHarvestSnapshotRoundTrip(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	saved := HarvestSnapshot{
		Profit:      "115792089237316195423570985008687907853269984665640564039457584007913129639935",
		Loss:        "0",
		DebtPayment: "42",
		TotalAssets: "1000000000000000000000",
		TotalDebt:   "900000000000000000000",
		Route:       "curve",
		UpdatedAtMS: 1756400000000,
	}
	if err := SaveHarvestSnapshot(ctx, store, saved); err != nil {
		t.Fatalf("SaveHarvestSnapshot: %v", err)
	}

	loaded, ok, err := LoadHarvestSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("LoadHarvestSnapshot: %v", err)
	}
	if !ok {
		t.Fatal("snapshot not found after save")
	}
	if loaded != saved {
		t.Fatalf("loaded = %+v, want %+v", loaded, saved)
	}
}

func TestLoadHarvestSnapshotAbsent(t *testing.T) {
	_, ok, err := LoadHarvestSnapshot(context.Background(), newMemStore())
	if err != nil {
		t.Fatalf("LoadHarvestSnapshot: %v", err)
	}
	if ok {
		t.Fatal("reported a snapshot where none was saved")
	}
}

func TestLoadHarvestSnapshotCorrupt(t *testing.T) {
	store := newMemStore()
	store.values[HarvestSnapshotKey] = "{not json"
	if _, _, err := LoadHarvestSnapshot(context.Background(), store); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}

func TestHarvestSnapshotNilStore(t *testing.T) {
	if err := SaveHarvestSnapshot(context.Background(), nil, HarvestSnapshot{}); err != nil {
		t.Fatalf("SaveHarvestSnapshot(nil store): %v", err)
	}
	if _, ok, err := LoadHarvestSnapshot(context.Background(), nil); err != nil || ok {
		t.Fatalf("LoadHarvestSnapshot(nil store) = ok=%t err=%v", ok, err)
	}
}
