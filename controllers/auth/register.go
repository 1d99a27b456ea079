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

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,nameok"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwdmin"`
}

func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	db := database.DB
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.WriteError(w, http.StatusBadRequest, "Email is already registered")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashed),
		Status:   "Active",
	}
	if err := db.Create(&user).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create account")
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

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Account created",
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
