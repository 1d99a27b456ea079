package users

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"questa/middleware"
	"questa/models"
	"questa/services"
	"questa/utils"

	"gorm.io/gorm"
)

// WithdrawalController serves withdrawal submission and history. All wallet
// movement goes through the injected ledger.
type WithdrawalController struct {
	DB     *gorm.DB
	Ledger *services.Ledger
}

func NewWithdrawalController(db *gorm.DB, ledger *services.Ledger) *WithdrawalController {
	return &WithdrawalController{DB: db, Ledger: ledger}
}

type withdrawalRequest struct {
	Amount        float64 `json:"amount"`
	Method        string  `json:"method" validate:"required"`
	AccountName   string  `json:"account_name" validate:"required,nameok"`
	AccountNumber string  `json:"account_number" validate:"required"`
}

// POST /users/withdrawals
func (c *WithdrawalController) Submit(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req withdrawalRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	var user models.User
	if err := c.DB.First(&user, uid).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user.Status != "Active" {
		utils.WriteError(w, http.StatusForbidden, "Your account is suspended, please contact support")
		return
	}

	wd, err := c.Ledger.SubmitWithdrawal(uid, req.Amount, req.Method, req.AccountName, req.AccountNumber)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientBalance):
			utils.WriteError(w, http.StatusBadRequest, "Insufficient balance")
		case errors.Is(err, services.ErrInvalidAmount):
			utils.WriteError(w, http.StatusBadRequest, "Withdrawal amount must be greater than zero")
		case errors.Is(err, services.ErrInvalidMethod):
			utils.WriteError(w, http.StatusBadRequest, "Unsupported withdrawal method")
		case errors.Is(err, services.ErrInvalidAccount):
			utils.WriteError(w, http.StatusBadRequest, "Account details are incomplete")
		default:
			utils.WriteError(w, http.StatusInternalServerError, "Something went wrong, please try again")
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Withdrawal request submitted",
		Data: map[string]interface{}{
			"withdrawal": map[string]interface{}{
				"id":             wd.ID,
				"reference":      wd.Reference,
				"amount":         wd.Amount,
				"method":         wd.Method,
				"account_name":   wd.AccountName,
				"account_number": utils.MaskAccountNumber(wd.AccountNumber),
				"status":         wd.Status,
				"created_at":     wd.CreatedAt.Format(time.RFC3339),
			},
		},
	})
}

// GET /users/withdrawals
func (c *WithdrawalController) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 10
	}

	var totalRows int64
	if err := c.DB.Model(&models.Withdrawal{}).Where("user_id = ?", uid).Count(&totalRows).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load withdrawals")
		return
	}

	var withdrawals []models.Withdrawal
	if err := c.DB.Where("user_id = ?", uid).
		Order("id DESC").Limit(limit).Offset((page - 1) * limit).
		Find(&withdrawals).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load withdrawals")
		return
	}

	items := make([]map[string]interface{}, 0, len(withdrawals))
	for _, wd := range withdrawals {
		items = append(items, map[string]interface{}{
			"id":             wd.ID,
			"reference":      wd.Reference,
			"amount":         wd.Amount,
			"method":         wd.Method,
			"account_name":   wd.AccountName,
			"account_number": utils.MaskAccountNumber(wd.AccountNumber),
			"status":         wd.Status,
			"review_note":    wd.ReviewNote,
			"created_at":     wd.CreatedAt.Format(time.RFC3339),
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"data": items,
			"pagination": map[string]interface{}{
				"page":        page,
				"limit":       limit,
				"total_rows":  totalRows,
				"total_pages": int(math.Ceil(float64(totalRows) / float64(limit))),
			},
		},
	})
}
