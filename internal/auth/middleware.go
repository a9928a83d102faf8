package auth

import (
	"context"
	"net/http"

	"MicroShop/pkg/kit"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Require rejects requests whose Authorization header does not hold a
// valid token (with the given role, when non-empty). The header carries
// the raw opaque token, no scheme prefix.
func Require(tokens *Tokens, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")

			userID, err := tokens.Validate(r.Context(), token, role)
			if err != nil {
				if role == RoleAdmin {
					kit.WriteError(w, r, http.StatusUnauthorized, "unauthorized or not an admin", nil)
					return
				}
				kit.WriteError(w, r, http.StatusUnauthorized, "unauthorized", nil)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
