package cache

import (
	"context"

	"guestbook/backend/internal/models"
	"guestbook/backend/pkg/resilience"
)

// Guarded routes cache calls through a circuit breaker. While the breaker is
// open every call fails fast with resilience.ErrOpen and callers fall back to
// the database.
type Guarded struct {
	next    EntryCache
	breaker *resilience.Breaker
}

var _ EntryCache = (*Guarded)(nil)

// NewGuarded wraps next with breaker
func NewGuarded(next EntryCache, breaker *resilience.Breaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) GetRecent(ctx context.Context) ([]models.Entry, bool, error) {
	var (
		entries []models.Entry
		ok      bool
	)
	err := g.breaker.Do(func() error {
		var err error
		entries, ok, err = g.next.GetRecent(ctx)
		return err
	})
	return entries, ok, err
}

func (g *Guarded) Generation(ctx context.Context) (uint64, error) {
	var gen uint64
	err := g.breaker.Do(func() error {
		var err error
		gen, err = g.next.Generation(ctx)
		return err
	})
	return gen, err
}

func (g *Guarded) SetRecent(ctx context.Context, gen uint64, entries []models.Entry) error {
	return g.breaker.Do(func() error {
		return g.next.SetRecent(ctx, gen, entries)
	})
}

func (g *Guarded) InvalidateRecent(ctx context.Context) error {
	return g.breaker.Do(func() error {
		return g.next.InvalidateRecent(ctx)
	})
}
