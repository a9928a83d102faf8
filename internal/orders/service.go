package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"MicroShop/internal/cart"
	"MicroShop/internal/notify"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNotFound  = errors.New("order not found")
)

// Service turns a cart into a persisted order and keeps order-change
// notifications flowing.
type Service struct {
	Store  Store
	Cart   *cart.Store
	Notify *notify.Pipeline
	Log    *zap.Logger
}

// Create reads the user's cart, persists the order and its items in one
// transaction, then clears the cart and emits a notification. The two
// post-commit steps are best-effort: the order stands even if they fail.
func (s *Service) Create(ctx context.Context, userID int64) (int64, error) {
	contents, err := s.Cart.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(contents) == 0 {
		return 0, ErrEmptyCart
	}

	items, err := cartItems(contents)
	if err != nil {
		return 0, err
	}

	orderID, err := s.Store.Create(ctx, userID, StatusPending, items)
	if err != nil {
		return 0, fmt.Errorf("order create: %w", err)
	}

	if err := s.Cart.Clear(ctx, userID); err != nil {
		s.Log.Warn("cart clear after order failed", zap.Error(err), zap.Int64("user_id", userID))
	}

	msg := fmt.Sprintf("Order %d created with status %s", orderID, StatusPending)
	if err := s.Notify.Emit(ctx, userID, orderID, StatusPending, msg); err != nil {
		s.Log.Warn("order notification failed", zap.Error(err), zap.Int64("order_id", orderID))
	}

	return orderID, nil
}

// UpdateStatus overwrites the order's status and notifies its owner.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	o, found, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("order load: %w", err)
	}
	if !found {
		return ErrNotFound
	}

	if _, err := s.Store.UpdateStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("order update: %w", err)
	}

	msg := fmt.Sprintf("Order %d status updated to %s", orderID, status)
	if err := s.Notify.Emit(ctx, o.UserID, orderID, status, msg); err != nil {
		s.Log.Warn("status notification failed", zap.Error(err), zap.Int64("order_id", orderID))
	}

	return nil
}

func cartItems(contents map[string]int) ([]Item, error) {
	items := make([]Item, 0, len(contents))
	for pid, qty := range contents {
		id, err := strconv.ParseInt(pid, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad cart entry %q: %w", pid, err)
		}
		items = append(items, Item{ProductID: id, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}
