package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/apperr"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/session"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/signal"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/storage"
)

const cartKey = "cart"

// IdentityProvider supplies the current signed-in identity. Satisfied
// by *session.Store.
type IdentityProvider interface {
	Current(ctx context.Context) (session.Identity, error)
}

// Store owns the active buyer's cart lines under the "cart" key.
// Invariants: at most one line per product id, every line quantity is
// at least 1.
type Store struct {
	kv       storage.KeyValueStore
	bus      signal.Bus
	sessions IdentityProvider

	mu sync.Mutex
}

func NewStore(kv storage.KeyValueStore, bus signal.Bus, sessions IdentityProvider) *Store {
	return &Store{kv: kv, bus: bus, sessions: sessions}
}

func (s *Store) load(ctx context.Context) ([]Line, error) {
	raw, err := s.kv.Get(ctx, cartKey)
	if err == storage.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Store) save(ctx context.Context, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, cartKey, string(data)); err != nil {
		return err
	}
	s.bus.Publish(signal.CartChanged)
	return nil
}

// Items returns the current cart lines.
func (s *Store) Items(ctx context.Context) ([]Line, error) {
	return s.load(ctx)
}

// Totals derives the current price breakdown.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	lines, err := s.load(ctx)
	if err != nil {
		return Totals{}, err
	}
	return TotalsFor(lines), nil
}

// Add puts one unit of the product snapshot in the cart, merging into
// an existing line for the same product. Only a signed-in buyer may
// add to the cart.
func (s *Store) Add(ctx context.Context, snapshot Line) error {
	identity, err := s.sessions.Current(ctx)
	if err != nil {
		return err
	}
	if identity.IsFarmer() {
		return apperr.ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return err
	}

	for i := range lines {
		if lines[i].ProductID == snapshot.ProductID {
			lines[i].Quantity++
			return s.save(ctx, lines)
		}
	}

	snapshot.Quantity = 1
	return s.save(ctx, append(lines, snapshot))
}

// SetQuantity replaces a line's quantity. Anything below 1 removes the
// line instead; a zero-quantity line is never persisted.
func (s *Store) SetQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return err
	}

	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			return s.save(ctx, lines)
		}
	}
	return nil
}

// Remove drops the product's line if present. Removing an absent line
// is not an error.
func (s *Store) Remove(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	return s.save(ctx, kept)
}

// Clear empties the cart. Checkout completion is its only caller.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, nil)
}
