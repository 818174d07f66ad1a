package cart

import (
	"context"
	"sync"

	"github.com/irsalhamdi/pet-marketplace/store"
)

const DefaultKey = "carts"

// Repository maps the single persisted collection of every user's cart to
// the cart of one user.
type Repository struct {
	mu    sync.Mutex
	store *store.JSON[[]Cart]
	key   string
}

func NewRepository(st *store.JSON[[]Cart], key string) *Repository {
	if key == "" {
		key = DefaultKey
	}
	return &Repository{store: st, key: key}
}

// Load returns the cart of userID, or a fresh empty cart that is not
// persisted until it is first saved.
func (r *Repository) Load(ctx context.Context, userID int) Cart {
	for _, c := range r.store.Get(ctx, r.key, []Cart{}) {
		if c.UserID == userID {
			for i := range c.Items {
				c.Items[i] = c.Items[i].Normalize()
			}
			c.recalculate()
			return c
		}
	}
	return New(userID)
}

// Save replaces the entry of c.UserID with c and writes the whole
// collection back. The last save wins.
func (r *Repository) Save(ctx context.Context, c Cart) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.store.Get(ctx, r.key, []Cart{})

	kept := make([]Cart, 0, len(all)+1)
	for _, other := range all {
		if other.UserID != c.UserID {
			kept = append(kept, other)
		}
	}
	kept = append(kept, c)

	r.store.Set(ctx, r.key, kept)
}
