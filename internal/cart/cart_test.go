package cart

import (
	"context"
	"errors"
	"testing"

	"MicroShop/internal/catalog"
	"MicroShop/internal/kv"
)

func newCart(t *testing.T) (*Store, *catalog.MemStore, int64) {
	t.Helper()
	products := catalog.NewMemStore()
	id, err := products.Create(context.Background(), "Laptop", 999.99, 10)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return NewStore(kv.NewMemory(), products), products, id
}

func TestAddAccumulates(t *testing.T) {
	cartStore, _, pid := newCart(t)
	ctx := context.Background()

	if err := cartStore.Add(ctx, 1, pid, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cartStore.Add(ctx, 1, pid, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	contents, err := cartStore.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := contents["1"]; got != 5 {
		t.Fatalf("quantity = %d, want 5", got)
	}
}

func TestGetAbsentCartIsEmpty(t *testing.T) {
	cartStore, _, _ := newCart(t)

	contents, err := cartStore.Get(context.Background(), 99)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(contents) != 0 {
		t.Fatalf("expected empty cart, got %v", contents)
	}
}

func TestAddUnknownProduct(t *testing.T) {
	cartStore, _, _ := newCart(t)

	err := cartStore.Add(context.Background(), 1, 404, 1)
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	contents, _ := cartStore.Get(context.Background(), 1)
	if len(contents) != 0 {
		t.Fatalf("failed add mutated the cart: %v", contents)
	}
}

func TestAddRejectsBadQuantity(t *testing.T) {
	cartStore, _, pid := newCart(t)

	for _, qty := range []int{0, -3} {
		if err := cartStore.Add(context.Background(), 1, pid, qty); !errors.Is(err, ErrBadQuantity) {
			t.Fatalf("qty %d: expected ErrBadQuantity, got %v", qty, err)
		}
	}
}

func TestClear(t *testing.T) {
	cartStore, _, pid := newCart(t)
	ctx := context.Background()

	if err := cartStore.Add(ctx, 1, pid, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cartStore.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}

	contents, err := cartStore.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(contents) != 0 {
		t.Fatalf("cart not cleared: %v", contents)
	}
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	cartStore, _, pid := newCart(t)
	ctx := context.Background()

	if err := cartStore.Add(ctx, 1, pid, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	other, err := cartStore.Get(ctx, 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("user 2 sees user 1's cart: %v", other)
	}
}
