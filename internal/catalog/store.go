package catalog

import "context"

type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// Update carries a partial product mutation; nil fields keep the stored
// value.
type Update struct {
	Name  *string
	Price *float64
	Stock *int
}

type Store interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, bool, error)
	Create(ctx context.Context, name string, price float64, stock int) (int64, error)
	Update(ctx context.Context, id int64, upd Update) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}
