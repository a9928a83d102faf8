package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"MicroShop/internal/kv"
)

// historyLimit caps each user's stored notification history; older entries
// fall off the tail.
const historyLimit = 100

type Notification struct {
	OrderID   int64  `json:"order_id"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// Pipeline persists order notifications to a bounded per-user history and
// fans them out live on the per-user and global channels.
type Pipeline struct {
	kv  kv.Store
	log *zap.Logger

	// Now and StreamBudget are swapped in tests.
	Now          func() time.Time
	StreamBudget time.Duration
}

func NewPipeline(store kv.Store, log *zap.Logger) *Pipeline {
	return &Pipeline{
		kv:           store,
		log:          log,
		Now:          time.Now,
		StreamBudget: 30 * time.Second,
	}
}

// Emit appends an entry to the user's history, trims it to the most recent
// hundred, and publishes it on user_notifications:<uid> and the global
// orders channel. Push and trim are two store calls, not one atomic
// operation; the list is within bounds once Emit returns.
func (p *Pipeline) Emit(ctx context.Context, userID, orderID int64, status, message string) error {
	entry, err := json.Marshal(Notification{
		OrderID:   orderID,
		Status:    status,
		Timestamp: p.Now().Unix(),
		Message:   message,
	})
	if err != nil {
		return err
	}

	key := kv.KeyNotifications(userID)
	if err := p.kv.LPush(ctx, key, entry); err != nil {
		return fmt.Errorf("notification push: %w", err)
	}
	if err := p.kv.LTrim(ctx, key, 0, historyLimit-1); err != nil {
		return fmt.Errorf("notification trim: %w", err)
	}

	if err := p.kv.Publish(ctx, kv.ChanUserNotifications(userID), entry); err != nil {
		return fmt.Errorf("notification publish: %w", err)
	}
	if err := p.kv.Publish(ctx, kv.ChanOrders, entry); err != nil {
		return fmt.Errorf("notification publish: %w", err)
	}
	return nil
}

// History returns the stored list, most-recent-first; empty if none.
func (p *Pipeline) History(ctx context.Context, userID int64) ([]Notification, error) {
	raw, err := p.kv.LRange(ctx, kv.KeyNotifications(userID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("notification read: %w", err)
	}

	out := make([]Notification, 0, len(raw))
	for _, b := range raw {
		var n Notification
		if err := json.Unmarshal(b, &n); err != nil {
			p.log.Warn("dropping unreadable notification", zap.Error(err), zap.Int64("user_id", userID))
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
