package admins

import (
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

// SubmissionController is the admin review queue. Approval credits the task
// reward through the ledger.
type SubmissionController struct {
	DB     *gorm.DB
	Ledger *services.Ledger
}

func NewSubmissionController(db *gorm.DB, ledger *services.Ledger) *SubmissionController {
	return &SubmissionController{DB: db, Ledger: ledger}
}

// GET /admin/submissions?status=pending_review
func (c *SubmissionController) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := c.DB.Model(&models.TaskSubmission{}).
		Joins("JOIN users ON task_submissions.user_id = users.id").
		Joins("JOIN tasks ON task_submissions.task_id = tasks.id")
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(models.StatusPendingReview)
	}
	query = query.Where("task_submissions.status = ?", status)
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		query = query.Where("task_submissions.user_id = ?", userID)
	}

	type submissionRow struct {
		models.TaskSubmission
		UserName  string
		UserEmail string
		TaskTitle string
		Reward    float64
	}
	var rows []submissionRow
	if err := query.
		Select("task_submissions.*, users.name AS user_name, users.email AS user_email, tasks.title AS task_title, tasks.reward AS reward").
		Order("task_submissions.created_at ASC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rows).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load submissions")
		return
	}

	resp := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, map[string]interface{}{
			"id":            row.ID,
			"user_id":       row.UserID,
			"user_name":     row.UserName,
			"user_email":    row.UserEmail,
			"task_id":       row.TaskID,
			"task_title":    row.TaskTitle,
			"reward":        row.Reward,
			"restart_count": row.RestartCount,
			"status":        row.Status,
			"proof_url":     row.ProofImageURL,
			"note":          row.Note,
			"created_at":    row.CreatedAt.Format(time.RFC3339),
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: resp})
}

// POST /admin/submissions/{id}/approve
func (c *SubmissionController) Approve(w http.ResponseWriter, r *http.Request) {
	sub, task, ok := c.loadPending(w, r)
	if !ok {
		return
	}

	now := time.Now()
	meta := fmt.Sprintf("Reward for task %q", task.Title)
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		sub.Status = models.StatusApproved
		sub.ReviewedAt = &now
		if err := tx.Save(sub).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.TaskStatusRecord{}).
			Where("user_id = ? AND task_id = ?", sub.UserID, sub.TaskID).
			Update("status", models.StatusApproved).Error; err != nil {
			return err
		}
		// The reward credit commits or rolls back with the review itself,
		// so a failed credit leaves the submission pending and retryable.
		_, err := c.Ledger.ApplyChangeTx(tx, sub.UserID, task.Reward, models.ReasonTaskReward,
			fmt.Sprintf("task:%d", sub.ID), &meta)
		return err
	})
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to approve submission")
		return
	}

	notify(c.DB, sub.UserID, "Task approved",
		fmt.Sprintf("Your submission for %q was approved. %.2f has been credited to your wallet.", task.Title, task.Reward))

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Submission approved and reward credited",
		Data:    map[string]interface{}{"id": sub.ID, "status": sub.Status},
	})
}

// POST /admin/submissions/{id}/reject
func (c *SubmissionController) Reject(w http.ResponseWriter, r *http.Request) {
	sub, task, ok := c.loadPending(w, r)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = decodeOptionalJSON(r, &req)

	now := time.Now()
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		sub.Status = models.StatusRejected
		sub.ReviewedAt = &now
		if req.Reason != "" {
			sub.ReviewNote = &req.Reason
		}
		if err := tx.Save(sub).Error; err != nil {
			return err
		}
		return tx.Model(&models.TaskStatusRecord{}).
			Where("user_id = ? AND task_id = ?", sub.UserID, sub.TaskID).
			Update("status", models.StatusRejected).Error
	})
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to reject submission")
		return
	}

	body := fmt.Sprintf("Your submission for %q was rejected.", task.Title)
	if req.Reason != "" {
		body += " Reason: " + req.Reason
	}
	notify(c.DB, sub.UserID, "Task rejected", body)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Submission rejected",
		Data:    map[string]interface{}{"id": sub.ID, "status": sub.Status},
	})
}

func (c *SubmissionController) loadPending(w http.ResponseWriter, r *http.Request) (*models.TaskSubmission, *models.Task, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid submission id")
		return nil, nil, false
	}
	var sub models.TaskSubmission
	if err := c.DB.First(&sub, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteError(w, http.StatusNotFound, "Submission not found")
			return nil, nil, false
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load submission")
		return nil, nil, false
	}
	if sub.Status != models.StatusPendingReview {
		utils.WriteError(w, http.StatusBadRequest, "Only pending submissions can be reviewed")
		return nil, nil, false
	}
	var task models.Task
	if err := c.DB.First(&task, sub.TaskID).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load task")
		return nil, nil, false
	}
	return &sub, &task, true
}
