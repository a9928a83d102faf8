package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"MicroShop/internal/catalog"
	"MicroShop/internal/kv"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrBadQuantity     = errors.New("quantity must be positive")
)

// Store keeps one cart per user in the key-value store: a product-id to
// quantity map under cart:<user_id>, expiring a day after the last write.
type Store struct {
	kv       kv.Store
	products catalog.Store
}

// NewStore takes the relational product store, not the cache: adding to a
// cart must see current product existence, not a possibly-stale entry.
func NewStore(store kv.Store, products catalog.Store) *Store {
	return &Store{kv: store, products: products}
}

// Add increments the product's quantity and resets the cart TTL. The
// read-modify-write is not atomic: two concurrent adds for the same user
// are last-writer-wins over the whole map. Accepted, not worth a lock for
// a browsing cart.
func (s *Store) Add(ctx context.Context, userID, productID int64, qty int) error {
	if qty < 1 {
		return ErrBadQuantity
	}

	_, found, err := s.products.Get(ctx, productID)
	if err != nil {
		return fmt.Errorf("product lookup: %w", err)
	}
	if !found {
		return ErrProductNotFound
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	key := strconv.FormatInt(productID, 10)
	cart[key] += qty

	b, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, kv.KeyCart(userID), b, kv.TTLCart); err != nil {
		return fmt.Errorf("cart write: %w", err)
	}
	return nil
}

// Get returns the cart contents; a missing key is an empty cart.
func (s *Store) Get(ctx context.Context, userID int64) (map[string]int, error) {
	b, err := s.kv.Get(ctx, kv.KeyCart(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart read: %w", err)
	}

	var cart map[string]int
	if err := json.Unmarshal(b, &cart); err != nil {
		return nil, fmt.Errorf("cart decode: %w", err)
	}
	if cart == nil {
		cart = map[string]int{}
	}
	return cart, nil
}

func (s *Store) Clear(ctx context.Context, userID int64) error {
	if err := s.kv.Del(ctx, kv.KeyCart(userID)); err != nil {
		return fmt.Errorf("cart clear: %w", err)
	}
	return nil
}
