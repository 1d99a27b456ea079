package auth

import (
	"net/http"
	"strings"
	"time"

	"questa/database"
	"questa/models"
	"questa/utils"
)

// LogoutHandler revokes the caller's refresh tokens and blacklists the
// presented access token for its remaining lifetime.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := database.DB.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", uid, false).
		Update("revoked", true).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	authz := r.Header.Get("Authorization")
	tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	if claims, err := utils.ValidateAccessToken(tokenStr); err == nil {
		if jti, ok := claims["jti"].(string); ok {
			_ = utils.RevokeJTI(jti, 24*time.Hour)
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
