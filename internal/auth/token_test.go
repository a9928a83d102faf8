package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"MicroShop/internal/kv"
	"MicroShop/pkg/kit"
)

func newTokens(t *testing.T, store kv.Store) *Tokens {
	t.Helper()
	metrics := kit.NewLookupMetrics(nil, "token_lookups_total", "test")
	return NewTokens(store, zap.NewNop(), metrics)
}

func TestIssueThenValidate(t *testing.T) {
	mem := kv.NewMemory()
	tokens := newTokens(t, mem)
	ctx := context.Background()

	token, err := tokens.Issue(ctx, 42, RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	userID, err := tokens.Validate(ctx, token, "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if userID != 42 {
		t.Fatalf("user id = %d, want 42", userID)
	}
}

func TestValidateRoleMatch(t *testing.T) {
	mem := kv.NewMemory()
	tokens := newTokens(t, mem)
	ctx := context.Background()

	token, err := tokens.Issue(ctx, 7, RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := tokens.Validate(ctx, token, RoleAdmin); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("role mismatch accepted: %v", err)
	}
	if _, err := tokens.Validate(ctx, token, RoleUser); err != nil {
		t.Fatalf("matching role rejected: %v", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	mem := kv.NewMemory()
	now := time.Unix(1_700_000_000, 0)
	mem.Now = func() time.Time { return now }

	tokens := newTokens(t, mem)
	ctx := context.Background()

	token, err := tokens.Issue(ctx, 7, RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = now.Add(3601 * time.Second)
	if _, err := tokens.Validate(ctx, token, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	tokens := newTokens(t, kv.NewMemory())

	if _, err := tokens.Validate(context.Background(), "no-such-token", ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unknown token accepted: %v", err)
	}
	if _, err := tokens.Validate(context.Background(), "", ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token accepted: %v", err)
	}
}

// failingKV errors on every read, simulating an unreachable store.
type failingKV struct {
	kv.Store
}

func (failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestValidateFailsClosedOnStoreError(t *testing.T) {
	tokens := newTokens(t, failingKV{Store: kv.NewMemory()})

	if _, err := tokens.Validate(context.Background(), "whatever", ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("store failure not treated as unauthorized: %v", err)
	}
}

func TestValidateDoesNotRefreshTTL(t *testing.T) {
	mem := kv.NewMemory()
	now := time.Unix(1_700_000_000, 0)
	mem.Now = func() time.Time { return now }

	tokens := newTokens(t, mem)
	ctx := context.Background()

	token, err := tokens.Issue(ctx, 7, RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Validating near the deadline must not extend the session.
	now = now.Add(3599 * time.Second)
	if _, err := tokens.Validate(ctx, token, ""); err != nil {
		t.Fatalf("validate before expiry: %v", err)
	}

	now = now.Add(2 * time.Second)
	if _, err := tokens.Validate(ctx, token, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("session outlived its hard cap: %v", err)
	}
}
