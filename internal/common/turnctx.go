package common

import (
	"context"
	"sync"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// Identity holds the authenticated caller for a request. When absent (nil),
// the request has no identity attached and must be rejected before any
// provider call.
type Identity struct {
	Username string
	Tier     string
}

type contextKey int

const (
	identityKey  contextKey = iota
	chartSlotKey contextKey = iota
)

// WithIdentity stores the authenticated identity in the request context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the identity from context, or nil if absent.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// ChartSlot is the turn-scoped side channel for renderable artifacts. A tool
// may deposit at most one chart per turn; the conversation session takes and
// clears the slot immediately after dispatch, so an artifact can never leak
// into an unrelated turn.
type ChartSlot struct {
	mu    sync.Mutex
	chart *models.Chart
}

// Put deposits a chart, replacing any previous one from the same turn.
func (s *ChartSlot) Put(chart *models.Chart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chart = chart
}

// Take returns the deposited chart (or nil) and clears the slot.
func (s *ChartSlot) Take() *models.Chart {
	s.mu.Lock()
	defer s.mu.Unlock()
	chart := s.chart
	s.chart = nil
	return chart
}

// WithChartSlot stores a turn-scoped chart slot in the context.
func WithChartSlot(ctx context.Context, slot *ChartSlot) context.Context {
	return context.WithValue(ctx, chartSlotKey, slot)
}

// ChartSlotFromContext retrieves the chart slot from context, or nil if the
// current call is not part of a conversation turn.
func ChartSlotFromContext(ctx context.Context) *ChartSlot {
	slot, _ := ctx.Value(chartSlotKey).(*ChartSlot)
	return slot
}
