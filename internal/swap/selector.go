package swap

import (
	"context"
	"fmt"
	"sync/atomic"

	"lusd-sp-engine/internal/config"
	"lusd-sp-engine/internal/state"
)

// Route selects the venue for the final DAI -> want conversion hop.
type Route string

const (
	RouteCurve   Route = config.RouteCurve
	RouteUniswap Route = config.RouteUniswap
)

const routeKey = "swap:route"

func ParseRoute(s string) (Route, error) {
	switch Route(s) {
	case RouteCurve, RouteUniswap:
		return Route(s), nil
	default:
		return "", fmt.Errorf("unknown route %q", s)
	}
}

// Selector holds the current final-hop route. Changes are persisted and only
// observed by the pipeline at the start of its next cycle; the harvest path
// itself never mutates the selection.
type Selector struct {
	store state.Store
	route atomic.Value
}

// NewSelector restores the persisted route if one exists, otherwise the
// configured default.
func NewSelector(ctx context.Context, store state.Store, fallback Route) (*Selector, error) {
	s := &Selector{store: store}
	route := fallback
	if store != nil {
		raw, ok, err := store.Get(ctx, routeKey)
		if err != nil {
			return nil, fmt.Errorf("load route: %w", err)
		}
		if ok {
			parsed, err := ParseRoute(raw)
			if err != nil {
				return nil, fmt.Errorf("persisted route: %w", err)
			}
			route = parsed
		}
	}
	s.route.Store(route)
	return s, nil
}

func (s *Selector) Route() Route {
	return s.route.Load().(Route)
}

// Set switches the final-hop venue and persists the choice.
func (s *Selector) Set(ctx context.Context, route Route) error {
	if _, err := ParseRoute(string(route)); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Set(ctx, routeKey, string(route)); err != nil {
			return fmt.Errorf("persist route: %w", err)
		}
	}
	s.route.Store(route)
	return nil
}
