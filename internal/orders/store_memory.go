package orders

import (
	"context"
	"sync"
)

type MemStore struct {
	mu         sync.RWMutex
	nextOrder  int64
	nextItem   int64
	orders     map[int64]Order
	itemsByOrd map[int64][]OrderItem
}

func NewMemStore() *MemStore {
	return &MemStore{
		orders:     make(map[int64]Order),
		itemsByOrd: make(map[int64][]OrderItem),
	}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Create(_ context.Context, userID int64, status string, items []Item) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextOrder++
	id := s.nextOrder
	s.orders[id] = Order{ID: id, UserID: userID, Status: status}

	for _, it := range items {
		s.nextItem++
		s.itemsByOrd[id] = append(s.itemsByOrd[id], OrderItem{
			ID:        s.nextItem,
			OrderID:   id,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return id, nil
}

func (s *MemStore) Get(_ context.Context, id int64) (Order, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	return o, ok, nil
}

func (s *MemStore) Items(_ context.Context, orderID int64) ([]OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]OrderItem(nil), s.itemsByOrd[orderID]...), nil
}

func (s *MemStore) UpdateStatus(_ context.Context, id int64, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	o.Status = status
	s.orders[id] = o
	return true, nil
}
