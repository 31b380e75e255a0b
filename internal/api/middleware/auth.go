package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pulseid/internal/common"
	"pulseid/internal/common/security"
	"pulseid/internal/domain/model"
	"pulseid/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey contextKey = "userID"
	UserCtxKey   contextKey = "user"
)

// Authenticator verifies the bearer token found by jwtauth.Verifier and loads
// the referenced user. A token whose user no longer exists is treated as
// revoked. Exactly one store read per request.
func Authenticator(userRepo repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context()) // Extracts token from Authorization header

			if err != nil {
				if strings.Contains(err.Error(), "token not found") || token == nil {
					common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				} else {
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
				}
				return
			}

			if token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}

			user, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					common.RespondWithError(w, http.StatusUnauthorized, "User no longer exists")
				} else {
					common.RespondWithError(w, http.StatusInternalServerError, "Failed to load user")
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
			ctx = context.WithValue(ctx, UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

// Helper to get the authenticated user from context
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok
}
