package orders

import "context"

// StatusPending is the only status the system itself assigns. Admins may
// overwrite it with any string; there is no validated transition graph.
const StatusPending = "Pending"

type Order struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Status string `json:"status"`
}

type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type Item struct {
	ProductID int64
	Quantity  int
}

type Store interface {
	// Create persists the order row and its items as one relational
	// transaction: both land or neither does.
	Create(ctx context.Context, userID int64, status string, items []Item) (int64, error)
	Get(ctx context.Context, id int64) (Order, bool, error)
	Items(ctx context.Context, orderID int64) ([]OrderItem, error)
	UpdateStatus(ctx context.Context, id int64, status string) (bool, error)
	Ping(ctx context.Context) error
}
