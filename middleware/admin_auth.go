package middleware

import (
	"context"
	"net/http"
	"strings"

	"questa/utils"
)

// AdminAuthMiddleware verifies the request carries an admin-role token and
// injects the admin id into the context.
func AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: no token provided")
			return
		}
		claims, err := utils.ValidateAccessToken(strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")))
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: invalid token")
			return
		}
		if role, _ := claims["role"].(string); role != "admin" {
			utils.WriteError(w, http.StatusForbidden, "Forbidden: admin access required")
			return
		}
		adminID, ok := utils.ClaimID(claims, "id")
		if !ok || adminID == 0 {
			utils.WriteError(w, http.StatusUnauthorized, "Invalid token payload")
			return
		}

		ctx := context.WithValue(r.Context(), utils.AdminIDKey, int64(adminID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
