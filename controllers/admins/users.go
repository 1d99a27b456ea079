package admins

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"questa/middleware"
	"questa/models"
	"questa/services"
	"questa/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// UserController covers the admin side of user accounts: listing, manual
// wallet adjustments and the ledger audit endpoint.
type UserController struct {
	DB     *gorm.DB
	Ledger *services.Ledger
}

func NewUserController(db *gorm.DB, ledger *services.Ledger) *UserController {
	return &UserController{DB: db, Ledger: ledger}
}

// GET /admin/users
func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := c.DB.Model(&models.User{})
	if search := r.URL.Query().Get("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load users")
		return
	}
	var users []models.User
	if err := query.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load users")
		return
	}

	resp := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		resp = append(resp, map[string]interface{}{
			"id":         u.ID,
			"name":       u.Name,
			"email":      u.Email,
			"balance":    u.Balance,
			"status":     u.Status,
			"created_at": u.CreatedAt.Format(time.RFC3339),
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"data": resp,
			"pagination": map[string]interface{}{
				"page":       page,
				"limit":      limit,
				"total_rows": totalRows,
			},
		},
	})
}

// POST /admin/users/{id}/balance
//
// Manual adjustments go through the ledger like every other balance write,
// so the audit trail covers them too.
func (c *UserController) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.Amount == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Amount must be non-zero")
		return
	}

	reference := "adjust:" + utils.GenerateReferenceID(uint(id))
	var meta *string
	if req.Reason != "" {
		meta = &req.Reason
	}

	change, err := c.Ledger.ApplyChange(uint(id), req.Amount, models.ReasonAdminAdjust, reference, meta)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientBalance):
			utils.WriteError(w, http.StatusBadRequest, "Adjustment would make the balance negative")
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.WriteError(w, http.StatusNotFound, "User not found")
		default:
			utils.WriteError(w, http.StatusInternalServerError, "Failed to adjust balance")
		}
		return
	}

	verb := "credited to"
	if req.Amount < 0 {
		verb = "deducted from"
	}
	notify(c.DB, uint(id), "Balance adjusted",
		fmt.Sprintf("%.2f was %s your wallet by an administrator.", utils.Round2(absFloat(req.Amount)), verb))

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Balance adjusted",
		Data: map[string]interface{}{
			"reference":      change.Reference,
			"change_amount":  change.ChangeAmount,
			"before_balance": change.BeforeBalance,
			"after_balance":  change.AfterBalance,
		},
	})
}

// GET /admin/users/{id}/audit
func (c *UserController) Audit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	report, err := c.Ledger.Audit(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to audit user")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: report})
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
