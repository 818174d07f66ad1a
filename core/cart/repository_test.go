package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/pet-marketplace/store"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestLoadDoesNotPersistFreshCart(t *testing.T) {
	repo, m := newRepo(t)
	ctx := context.Background()

	c := repo.Load(ctx, 11)
	if diff := cmp.Diff(New(11), c); diff != "" {
		t.Fatalf("fresh cart (-want +got):\n%s", diff)
	}

	if _, err := m.Read(ctx, DefaultKey); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("loading must not write the collection, got %v", err)
	}

	NewSession(ctx, repo, 11)
	if _, err := m.Read(ctx, DefaultKey); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("opening a session must not write the collection, got %v", err)
	}
}

func TestSaveReplacesEntry(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		c := New(8)
		c.Items = []Item{{Listing: boarding, Quantity: i}}
		c.recalculate()
		repo.Save(ctx, c)
	}

	all := repo.store.Get(ctx, repo.key, nil)
	if len(all) != 1 {
		t.Fatalf("expected a single entry per user, got %d", len(all))
	}
	if all[0].ItemCount != 3 {
		t.Fatalf("expected the last save to win, got %+v", all[0])
	}
}

func TestOperationsAreIsolatedPerUser(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	b := NewSession(ctx, repo, 2)
	b.Add(ctx, Item{Listing: grooming, Quantity: 2})
	b.Add(ctx, Item{Listing: walking})
	wantB := repo.Load(ctx, 2)

	a := NewSession(ctx, repo, 1)
	a.Add(ctx, Item{Listing: grooming})
	a.Add(ctx, Item{Listing: boarding})
	a.Increment(ctx, 1)
	a.SetQuantity(ctx, 2, 7)
	a.Remove(ctx, 1)
	a.Clear(ctx)

	if diff := cmp.Diff(wantB, repo.Load(ctx, 2)); diff != "" {
		t.Fatalf("user 2's cart changed (-want +got):\n%s", diff)
	}
}

func TestConcurrentSavesKeepEveryUser(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	const users = 50
	var wg sync.WaitGroup
	for u := 1; u <= users; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			s := NewSession(ctx, repo, u)
			s.Add(ctx, Item{Listing: grooming, Quantity: u})
		}(u)
	}
	wg.Wait()

	for u := 1; u <= users; u++ {
		c := repo.Load(ctx, u)
		if c.ItemCount != u {
			t.Fatalf("user %d: expected %d items, got %d", u, u, c.ItemCount)
		}
	}
}

func TestCorruptedCollectionDegradesToEmptyCart(t *testing.T) {
	log, hook := test.NewNullLogger()
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.Write(ctx, DefaultKey, []byte(`{"oops"`)); err != nil {
		t.Fatal(err)
	}

	repo := NewRepository(store.NewJSON[[]Cart](m, log), "")
	s := NewSession(ctx, repo, 1)
	if !s.Empty() {
		t.Fatal("expected an empty cart from a corrupted store")
	}
	if len(hook.AllEntries()) == 0 {
		t.Fatal("expected the corruption to be logged")
	}

	s.Add(ctx, Item{Listing: grooming})
	if got := repo.Load(ctx, 1).ItemCount; got != 1 {
		t.Fatalf("expected the next write to repair the collection, got %d items", got)
	}
}

func TestLoadNormalizesStoredItems(t *testing.T) {
	log, _ := test.NewNullLogger()
	m := store.NewMemory()
	ctx := context.Background()

	// an entry written without quantities or derived fields
	raw := `[{"userId":4,"cartItems":[
		{"cartItemId":7,"serviceListing":{"serviceListingId":1,"basePrice":10}},
		{"cartItemId":9,"serviceListing":{"serviceListingId":2,"basePrice":5,"calendarGroupId":"CG1"},"quantity":3}
	]}]`
	if err := m.Write(ctx, DefaultKey, []byte(raw)); err != nil {
		t.Fatal(err)
	}

	repo := NewRepository(store.NewJSON[[]Cart](m, log), "")
	s := NewSession(ctx, repo, 4)
	checkInvariants(t, s.Cart())

	if s.ItemCount() != 2 || s.Subtotal() != 15 {
		t.Fatalf("unexpected totals: count=%d subtotal=%v", s.ItemCount(), s.Subtotal())
	}
	if !s.Increment(ctx, 1) {
		t.Fatal("an item stored without quantity must still be incrementable")
	}
}

func TestCustomKey(t *testing.T) {
	log, _ := test.NewNullLogger()
	m := store.NewMemory()
	ctx := context.Background()

	repo := NewRepository(store.NewJSON[[]Cart](m, log), "tenant-a/carts")
	NewSession(ctx, repo, 1).Add(ctx, Item{Listing: grooming})

	if _, err := m.Read(ctx, "tenant-a/carts"); err != nil {
		t.Fatalf("expected the collection under the custom key: %v", err)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{0.1 + 0.2, "0.30"},
		{42.5, "42.50"},
		{19.999, "20.00"},
	}

	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
