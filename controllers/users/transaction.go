package users

import (
	"net/http"
	"strconv"

	"questa/models"
	"questa/services"
	"questa/utils"

	"gorm.io/gorm"
)

// HistoryController serves the merged wallet history view.
type HistoryController struct {
	DB *gorm.DB
}

func NewHistoryController(db *gorm.DB) *HistoryController {
	return &HistoryController{DB: db}
}

// GET /users/transactions
//
// Ledger rows and withdrawal rows describe overlapping events, so the two
// sets are merged and deduplicated before paging. Pagination happens in
// memory over the merged list.
func (c *HistoryController) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var changes []models.BalanceChange
	if err := c.DB.Where("user_id = ?", uid).Order("created_at DESC").Find(&changes).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	var withdrawals []models.Withdrawal
	if err := c.DB.Where("user_id = ?", uid).Order("created_at DESC").Find(&withdrawals).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	merged := services.MergeHistory(changes, withdrawals)
	pageItems, totalPages := services.PageHistory(merged, page, limit)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"data": pageItems,
			"pagination": map[string]interface{}{
				"page":        page,
				"limit":       limit,
				"total_rows":  len(merged),
				"total_pages": totalPages,
			},
		},
	})
}
