package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/irsalhamdi/pet-marketplace/store"
)

var ErrNotFound = errors.New("order not found")

const keyPrefix = "order:"

// Store persists orders next to the carts. Unlike carts, order writes must
// not be lost silently, so every failure is returned.
type Store struct {
	backend store.Backend
}

func NewStore(backend store.Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) Save(ctx context.Context, o Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encoding order[%s]: %w", o.ID, err)
	}

	if err := s.backend.Write(ctx, keyPrefix+o.ProviderID, b); err != nil {
		return fmt.Errorf("writing order[%s]: %w", o.ID, err)
	}
	return nil
}

func (s *Store) FetchByProviderID(ctx context.Context, providerID string) (Order, error) {
	b, err := s.backend.Read(ctx, keyPrefix+providerID)
	if errors.Is(err, store.ErrNotFound) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("reading order bound to payment[%s]: %w", providerID, err)
	}

	var o Order
	if err := json.Unmarshal(b, &o); err != nil {
		return Order{}, fmt.Errorf("decoding order bound to payment[%s]: %w", providerID, err)
	}
	return o, nil
}
