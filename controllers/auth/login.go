package auth

import (
	"net/http"
	"strings"
	"time"

	"questa/database"
	"questa/middleware"
	"questa/models"
	"questa/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwdmin"`
}

func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB
	var user models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteError(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if strings.ToLower(user.Status) != "active" {
		utils.WriteError(w, http.StatusForbidden, "Your account is suspended, please contact support")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	access, err := utils.GenerateAccessToken(user.ID, "user", 24*time.Hour)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	refresh, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Logged in",
		Data: map[string]interface{}{
			"user": map[string]interface{}{
				"id":      user.ID,
				"name":    user.Name,
				"email":   user.Email,
				"balance": user.Balance,
			},
			"access_token":  access,
			"refresh_token": refresh,
		},
	})
}

// AdminLoginHandler authenticates an admin account and issues an admin token.
func AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required,pwdmin"`
	}
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	var admin models.Admin
	if err := database.DB.Where("username = ? AND is_active = ?", strings.TrimSpace(req.Username), true).First(&admin).Error; err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if !admin.ValidatePassword(req.Password) {
		utils.WriteError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	access, err := utils.GenerateAccessToken(uint(admin.ID), "admin", 6*time.Hour)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Logged in",
		Data: map[string]interface{}{
			"admin": map[string]interface{}{
				"id":       admin.ID,
				"username": admin.Username,
				"name":     admin.Name,
			},
			"access_token": access,
		},
	})
}
