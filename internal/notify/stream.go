package notify

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"MicroShop/internal/kv"
)

type streamEvent struct {
	Event string `json:"event"`
}

type flusher interface {
	Flush()
}

// Stream relays live notifications for one user to w as line-delimited
// JSON, one event per line. It acknowledges the subscription immediately,
// delivers each published entry as it arrives, and closes with a timeout
// event once the delivery budget elapses. The subscription is released on
// every exit path; a gone client is detected on the next write and by ctx
// cancellation.
func (p *Pipeline) Stream(ctx context.Context, w io.Writer, userID int64) error {
	sub := p.kv.Subscribe(ctx, kv.ChanUserNotifications(userID))
	defer func() { _ = sub.Close() }()

	if err := writeLine(w, streamEvent{Event: "subscribed"}); err != nil {
		return err
	}

	budget := time.NewTimer(p.StreamBudget)
	defer budget.Stop()

	for {
		select {
		case msg, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := writeRawLine(w, msg.Payload); err != nil {
				return err
			}
		case <-budget.C:
			return writeLine(w, streamEvent{Event: "timeout"})
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeLine(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeRawLine(w, b)
}

func writeRawLine(w io.Writer, b []byte) error {
	if _, err := w.Write(append(b, '\n')); err != nil {
		return err
	}
	if f, ok := w.(flusher); ok {
		f.Flush()
	}
	return nil
}
