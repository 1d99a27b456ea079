package admins

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"questa/models"
	"questa/services"
	"questa/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// WithdrawalController is the admin withdrawal review queue. Approval and
// rejection both go through the ledger so the refund stays exactly-once.
type WithdrawalController struct {
	DB     *gorm.DB
	Ledger *services.Ledger
}

func NewWithdrawalController(db *gorm.DB, ledger *services.Ledger) *WithdrawalController {
	return &WithdrawalController{DB: db, Ledger: ledger}
}

// GET /admin/withdrawals
func (c *WithdrawalController) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := c.DB.Model(&models.Withdrawal{}).
		Joins("JOIN users ON withdrawals.user_id = users.id")
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("withdrawals.status = ?", status)
	}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		query = query.Where("withdrawals.user_id = ?", userID)
	}
	if search := r.URL.Query().Get("search"); search != "" {
		query = query.Where("withdrawals.reference LIKE ?", "%"+search+"%")
	}

	type withdrawalRow struct {
		models.Withdrawal
		UserName  string
		UserEmail string
	}
	var rows []withdrawalRow
	if err := query.
		Select("withdrawals.*, users.name AS user_name, users.email AS user_email").
		Order("withdrawals.created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rows).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load withdrawals")
		return
	}

	resp := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, map[string]interface{}{
			"id":             row.ID,
			"user_id":        row.UserID,
			"user_name":      row.UserName,
			"user_email":     row.UserEmail,
			"amount":         row.Amount,
			"method":         row.Method,
			"account_name":   row.AccountName,
			"account_number": row.AccountNumber,
			"reference":      row.Reference,
			"status":         row.Status,
			"created_at":     row.CreatedAt.Format(time.RFC3339),
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: resp})
}

// POST /admin/withdrawals/{id}/approve
func (c *WithdrawalController) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := withdrawalID(w, r)
	if !ok {
		return
	}
	var req struct {
		Note *string `json:"note"`
	}
	_ = decodeOptionalJSON(r, &req)

	wd, err := c.Ledger.ApproveWithdrawal(id, req.Note)
	if err != nil {
		writeReviewError(w, err)
		return
	}

	notify(c.DB, wd.UserID, "Withdrawal approved",
		fmt.Sprintf("Your withdrawal %s of %.2f was approved and is being paid out.", wd.Reference, wd.Amount))

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Withdrawal approved",
		Data:    map[string]interface{}{"id": wd.ID, "status": wd.Status},
	})
}

// POST /admin/withdrawals/{id}/reject
func (c *WithdrawalController) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := withdrawalID(w, r)
	if !ok {
		return
	}
	var req struct {
		Note *string `json:"note"`
	}
	_ = decodeOptionalJSON(r, &req)

	wd, err := c.Ledger.RejectWithdrawal(id, req.Note)
	if err != nil {
		writeReviewError(w, err)
		return
	}

	notify(c.DB, wd.UserID, "Withdrawal rejected",
		fmt.Sprintf("Your withdrawal %s of %.2f was rejected and the amount was returned to your wallet.", wd.Reference, wd.Amount))

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Withdrawal rejected and refunded",
		Data:    map[string]interface{}{"id": wd.ID, "status": wd.Status},
	})
}

func withdrawalID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid withdrawal id")
		return 0, false
	}
	return uint(id), true
}

func writeReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAlreadyReviewed):
		utils.WriteError(w, http.StatusBadRequest, "Only pending withdrawals can be reviewed")
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.WriteError(w, http.StatusNotFound, "Withdrawal not found")
	default:
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update withdrawal")
	}
}
