package swap

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

func TestParseRoute(t *testing.T) {
	if _, err := ParseRoute("curve"); err != nil {
		t.Fatalf("curve: %v", err)
	}
	if _, err := ParseRoute("uniswap"); err != nil {
		t.Fatalf("uniswap: %v", err)
	}
	if _, err := ParseRoute("sushiswap"); err == nil {
		t.Fatal("expected error for unknown route")
	}
}

func TestSelectorFallsBackToDefault(t *testing.T) {
	s, err := NewSelector(context.Background(), newMemStore(), RouteCurve)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	if s.Route() != RouteCurve {
		t.Fatalf("route = %s, want curve", s.Route())
	}
}

func TestSelectorPersistsAcrossRestarts(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	s, err := NewSelector(ctx, store, RouteCurve)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	if err := s.Set(ctx, RouteUniswap); err != nil {
		t.Fatalf("Set: %v", err)
	}

	restarted, err := NewSelector(ctx, store, RouteCurve)
	if err != nil {
		t.Fatalf("NewSelector after restart: %v", err)
	}
	if restarted.Route() != RouteUniswap {
		t.Fatalf("route after restart = %s, want uniswap", restarted.Route())
	}
}

func TestSelectorRejectsUnknownRoute(t *testing.T) {
	s, err := NewSelector(context.Background(), newMemStore(), RouteCurve)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	if err := s.Set(context.Background(), Route("balancer")); err == nil {
		t.Fatal("expected error for unknown route")
	}
	if s.Route() != RouteCurve {
		t.Fatalf("route mutated to %s on failed Set", s.Route())
	}
}

func TestSelectorRejectsCorruptPersistedRoute(t *testing.T) {
	store := newMemStore()
	store.values[routeKey] = "bancor"
	if _, err := NewSelector(context.Background(), store, RouteCurve); err == nil {
		t.Fatal("expected error for corrupt persisted route")
	}
}
