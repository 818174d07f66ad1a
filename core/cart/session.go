package cart

import (
	"context"
	"sync"
)

// Session is the working copy of one user's cart. Every mutation
// re-sequences item ids, recomputes the totals, persists the cart through the
// repository and notifies subscribers. Operations never fail: storage
// problems are absorbed by the store.
type Session struct {
	mu        sync.Mutex
	repo      *Repository
	cart      Cart
	observers []func(Cart)
}

func NewSession(ctx context.Context, repo *Repository, userID int) *Session {
	return &Session{
		repo: repo,
		cart: repo.Load(ctx, userID),
	}
}

// Refresh replaces the working copy with the persisted cart, picking up
// writes made by other sessions of the same user.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.cart = s.repo.Load(ctx, s.cart.UserID)
	s.mu.Unlock()
}

// Subscribe registers fn to be called with the new cart after every
// persisted mutation.
func (s *Session) Subscribe(fn func(Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = append(s.observers, fn)
}

// Add appends item to the cart. A non-bookable listing already in the cart
// has its entry incremented by one instead, whatever the quantity of item.
// Bookings are never stacked, in either direction.
func (s *Session) Add(ctx context.Context, item Item) {
	s.mutate(ctx, func(items []Item) ([]Item, bool) {
		if !item.Listing.Bookable() {
			for i := range items {
				if items[i].Listing.ID == item.Listing.ID && !items[i].Listing.Bookable() {
					items[i].Quantity++
					return items, true
				}
			}
		}
		return append(items, item.Normalize()), true
	})
}

// Increment adds one to the quantity of the item. Unknown ids and bookings
// are left alone.
func (s *Session) Increment(ctx context.Context, cartItemID int) bool {
	return s.mutate(ctx, func(items []Item) ([]Item, bool) {
		i := indexOf(items, cartItemID)
		if i < 0 || items[i].Listing.Bookable() {
			return items, false
		}
		items[i].Quantity++
		return items, true
	})
}

func (s *Session) Remove(ctx context.Context, cartItemID int) bool {
	return s.mutate(ctx, func(items []Item) ([]Item, bool) {
		i := indexOf(items, cartItemID)
		if i < 0 {
			return items, false
		}
		return append(items[:i], items[i+1:]...), true
	})
}

// SetQuantity sets the quantity of the item; n <= 0 removes it. Bookings
// keep a quantity of one.
func (s *Session) SetQuantity(ctx context.Context, cartItemID, n int) bool {
	if n <= 0 {
		return s.Remove(ctx, cartItemID)
	}

	return s.mutate(ctx, func(items []Item) ([]Item, bool) {
		i := indexOf(items, cartItemID)
		if i < 0 || items[i].Listing.Bookable() || items[i].Quantity == n {
			return items, false
		}
		items[i].Quantity = n
		return items, true
	})
}

// Clear empties the cart. The user's entry stays in the store.
func (s *Session) Clear(ctx context.Context) {
	s.mutate(ctx, func([]Item) ([]Item, bool) {
		return []Item{}, true
	})
}

// Settle takes paid items out of the cart. Each paid line consumes the
// matching entry: a booking is removed, other entries lose the paid
// quantity. Entries added after the payment started are kept.
func (s *Session) Settle(ctx context.Context, paid []Item) bool {
	return s.mutate(ctx, func(items []Item) ([]Item, bool) {
		changed := false
		for _, p := range paid {
			i := indexOfListing(items, p.Listing)
			if i < 0 {
				continue
			}
			changed = true

			items[i].Quantity -= p.Normalize().Quantity
			if items[i].Listing.Bookable() || items[i].Quantity <= 0 {
				items = append(items[:i], items[i+1:]...)
			}
		}
		return items, changed
	})
}

// Cart returns a snapshot of the working copy.
func (s *Session) Cart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.clone()
}

func (s *Session) Items() []Item {
	return s.Cart().Items
}

// Item returns the item at position cartItemID. Ids are only meaningful
// until the next mutation.
func (s *Session) Item(cartItemID int) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := cartItemID - 1
	if i < 0 || i >= len(s.cart.Items) {
		return Item{}, false
	}
	return s.cart.Items[i], true
}

func (s *Session) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.Subtotal
}

func (s *Session) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.ItemCount
}

func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.Empty()
}

// mutate applies fn to a copy of the items. When fn reports a change the
// cart is recalculated, persisted and published.
func (s *Session) mutate(ctx context.Context, fn func([]Item) ([]Item, bool)) bool {
	s.mu.Lock()

	next := s.cart.clone()
	items, changed := fn(next.Items)
	if !changed {
		s.mu.Unlock()
		return false
	}

	next.Items = items
	next.recalculate()

	s.repo.Save(ctx, next)
	s.cart = next

	snapshot := next.clone()
	observers := make([]func(Cart), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot.clone())
	}
	return true
}

func indexOf(items []Item, cartItemID int) int {
	for i := range items {
		if items[i].ID == cartItemID {
			return i
		}
	}
	return -1
}

func indexOfListing(items []Item, l Listing) int {
	for i := range items {
		if items[i].Listing.ID == l.ID && items[i].Listing.CalendarGroupID == l.CalendarGroupID {
			return i
		}
	}
	return -1
}
