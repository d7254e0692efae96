package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/repository"
)

type ctxKey string

const UserIDKey ctxKey = "userID"

// TokenMiddleware authenticates requests with a bearer token, either from
// the Authorization header or from the token query parameter. The query
// fallback exists for websocket clients, which cannot set headers.
func TokenMiddleware(tokenRepo *repository.TokenRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token *domain.APIToken

			if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				plain := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
				if plain != "" {
					if t, err := tokenRepo.FindByPlainToken(r.Context(), plain); err == nil {
						token = t
					}
				}
			}

			if token == nil {
				if plain := r.URL.Query().Get("token"); plain != "" {
					if t, err := tokenRepo.FindByPlainToken(r.Context(), plain); err == nil {
						token = t
					}
				}
			}

			if token == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
				log.Printf("[AUTH] token %d for user %d expired at %v", token.ID, token.UserID, token.ExpiresAt)
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, token.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	if !ok {
		return 0, errors.New("userID not found in context")
	}
	return userID, nil
}
