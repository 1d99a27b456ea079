package middleware

import (
	"context"
	"net/http"
	"strings"

	"questa/utils"
)

// AuthMiddleware validates the bearer token and injects the user id into the
// request context. Admin tokens are rejected on user endpoints.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		claims, err := utils.ValidateAccessToken(strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")))
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				utils.WriteError(w, http.StatusUnauthorized, "Your session has expired, please log in again")
				return
			}
			utils.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		if role, _ := claims["role"].(string); role == "admin" {
			utils.WriteError(w, http.StatusForbidden, "Admin tokens cannot access user endpoints")
			return
		}

		userID, ok := utils.ClaimID(claims, "id")
		if !ok || userID == 0 {
			utils.WriteError(w, http.StatusUnauthorized, "Invalid token payload")
			return
		}

		ctx := context.WithValue(r.Context(), utils.UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
