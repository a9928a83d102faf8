package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"MicroShop/internal/cart"
	"MicroShop/internal/catalog"
	"MicroShop/internal/kv"
	"MicroShop/internal/notify"
)

type fixture struct {
	svc      *Service
	store    *MemStore
	cart     *cart.Store
	pipeline *notify.Pipeline
	products *catalog.MemStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := kv.NewMemory()
	products := catalog.NewMemStore()
	cartStore := cart.NewStore(mem, products)
	pipeline := notify.NewPipeline(mem, zap.NewNop())
	store := NewMemStore()

	return &fixture{
		svc: &Service{
			Store:  store,
			Cart:   cartStore,
			Notify: pipeline,
			Log:    zap.NewNop(),
		},
		store:    store,
		cart:     cartStore,
		pipeline: pipeline,
		products: products,
	}
}

func TestCreateEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), 1)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	if _, found, _ := f.store.Get(context.Background(), 1); found {
		t.Fatal("order row created from empty cart")
	}
}

func TestCreateFromCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p7seed := int64(0)
	for i := 0; i < 9; i++ {
		id, err := f.products.Create(ctx, "Product", 10.0, 100)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if id == 7 {
			p7seed = id
		}
	}
	if p7seed == 0 {
		t.Fatal("expected product 7 to exist")
	}

	if err := f.cart.Add(ctx, 1, 7, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.cart.Add(ctx, 1, 9, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	orderID, err := f.svc.Create(ctx, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	o, found, err := f.store.Get(ctx, orderID)
	if err != nil || !found {
		t.Fatalf("order not persisted: %v", err)
	}
	if o.UserID != 1 || o.Status != StatusPending {
		t.Fatalf("unexpected order: %+v", o)
	}

	items, err := f.store.Items(ctx, orderID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("item count = %d, want 2", len(items))
	}
	if items[0].ProductID != 7 || items[0].Quantity != 2 {
		t.Fatalf("item 0: %+v", items[0])
	}
	if items[1].ProductID != 9 || items[1].Quantity != 1 {
		t.Fatalf("item 1: %+v", items[1])
	}

	contents, err := f.cart.Get(ctx, 1)
	if err != nil {
		t.Fatalf("cart get: %v", err)
	}
	if len(contents) != 0 {
		t.Fatalf("cart not cleared: %v", contents)
	}

	history, err := f.pipeline.History(ctx, 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("notification count = %d, want 1", len(history))
	}
	n := history[0]
	if n.OrderID != orderID || n.Status != StatusPending {
		t.Fatalf("notification: %+v", n)
	}
	want := fmt.Sprintf("Order %d created with status Pending", orderID)
	if n.Message != want {
		t.Fatalf("message = %q, want %q", n.Message, want)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orderID, err := f.store.Create(ctx, 5, StatusPending, []Item{{ProductID: 1, Quantity: 1}})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	if err := f.svc.UpdateStatus(ctx, orderID, "Shipped"); err != nil {
		t.Fatalf("update: %v", err)
	}

	o, _, _ := f.store.Get(ctx, orderID)
	if o.Status != "Shipped" {
		t.Fatalf("status = %q, want Shipped", o.Status)
	}

	// The notification lands in the owner's history, not the admin's.
	history, err := f.pipeline.History(ctx, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Status != "Shipped" {
		t.Fatalf("owner history: %+v", history)
	}
	if history[0].Message != fmt.Sprintf("Order %d status updated to Shipped", orderID) {
		t.Fatalf("message: %q", history[0].Message)
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	f := newFixture(t)

	err := f.svc.UpdateStatus(context.Background(), 404, "Shipped")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
