package auth

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"MicroShop/internal/kv"
	"MicroShop/pkg/kit"
)

// ErrInvalidToken covers every validation failure: missing, expired,
// malformed, wrong role, and a failing token store (fail closed). Logs and
// metrics keep those apart; the caller never sees the difference.
var ErrInvalidToken = errors.New("invalid token")

type tokenRecord struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// Tokens issues and validates opaque session tokens backed by the
// key-value store. A token is hard-capped at its issue TTL: Validate never
// refreshes it.
type Tokens struct {
	kv      kv.Store
	log     *zap.Logger
	metrics *kit.LookupMetrics
}

func NewTokens(store kv.Store, log *zap.Logger, metrics *kit.LookupMetrics) *Tokens {
	return &Tokens{kv: store, log: log, metrics: metrics}
}

// Issue stores a {user_id, role} record under a fresh random token for one
// hour. No collision check: uuid collisions are treated as negligible.
func (t *Tokens) Issue(ctx context.Context, userID int64, role string) (string, error) {
	token := uuid.NewString()

	val, err := json.Marshal(tokenRecord{UserID: userID, Role: role})
	if err != nil {
		return "", err
	}
	if err := t.kv.Set(ctx, kv.KeyToken(token), val, kv.TTLToken); err != nil {
		return "", err
	}
	return token, nil
}

// Validate resolves a token to its user id. requiredRole "" accepts any
// role; otherwise the stored role must match exactly.
func (t *Tokens) Validate(ctx context.Context, token, requiredRole string) (int64, error) {
	if token == "" {
		t.metrics.Observe("token", kit.ResultMiss)
		return 0, ErrInvalidToken
	}

	val, err := t.kv.Get(ctx, kv.KeyToken(token))
	if errors.Is(err, kv.ErrNotFound) {
		t.metrics.Observe("token", kit.ResultMiss)
		return 0, ErrInvalidToken
	}
	if err != nil {
		t.metrics.Observe("token", kit.ResultError)
		t.log.Error("token store unavailable", zap.Error(err))
		return 0, ErrInvalidToken
	}

	var rec tokenRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		t.metrics.Observe("token", kit.ResultError)
		t.log.Error("malformed token record", zap.Error(err))
		return 0, ErrInvalidToken
	}

	if requiredRole != "" && rec.Role != requiredRole {
		t.metrics.Observe("token", kit.ResultMiss)
		return 0, ErrInvalidToken
	}

	t.metrics.Observe("token", kit.ResultHit)
	return rec.UserID, nil
}
