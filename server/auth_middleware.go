package server

import (
	"context"
	"net/http"
	"strings"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyAccountID stores the authenticated account ID
	ContextKeyAccountID ContextKey = "account_id"
)

// RequireAccess validates the access token from the access_token cookie or
// an Authorization: Bearer header and stores the account id in the context.
func (s *Server) RequireAccess() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			accountID, err := s.auth.AccountIDFromAccessToken(accessToken(r))
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAccountID, accountID)
			next(w, r.WithContext(ctx))
		}
	}
}

func accessToken(r *http.Request) string {
	if v := cookieValue(r, accessTokenCookie); v != "" {
		return v
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func accountIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyAccountID).(string)
	return id
}
