package admins

import (
	"net/http"
	"strconv"
	"time"

	"questa/database"
	"questa/middleware"
	"questa/models"
	"questa/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type taskRequest struct {
	Title                 string     `json:"title" validate:"required"`
	Instructions          string     `json:"instructions"`
	Reward                float64    `json:"reward"`
	Status                string     `json:"status"`
	ImageURL              *string    `json:"image_url"`
	Deadline              *time.Time `json:"deadline"`
	TaskDeadlineHours     int        `json:"task_deadline_hours"`
	UserTimeLimitHours    int        `json:"user_time_limit_hours"`
	MaxRestarts           int        `json:"max_restarts"`
	RequiresReferrerEmail bool       `json:"requires_referrer_email"`
}

var taskStatuses = map[string]bool{"Active": true, "Inactive": true, "Ended": true}

// GET /admin/tasks
func ListTasks(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := database.DB.Model(&models.Task{})
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}
	var tasks []models.Task
	if err := query.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&tasks).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"data": tasks,
			"pagination": map[string]interface{}{
				"page":       page,
				"limit":      limit,
				"total_rows": totalRows,
			},
		},
	})
}

// POST /admin/tasks
func CreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.Reward <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "Reward must be greater than zero")
		return
	}
	status := req.Status
	if status == "" {
		status = "Active"
	}
	if !taskStatuses[status] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid task status")
		return
	}

	task := models.Task{
		Title:                 req.Title,
		Instructions:          req.Instructions,
		Reward:                utils.Round2(req.Reward),
		Status:                status,
		ImageURL:              req.ImageURL,
		Deadline:              req.Deadline,
		TaskDeadlineHours:     req.TaskDeadlineHours,
		UserTimeLimitHours:    req.UserTimeLimitHours,
		MaxRestarts:           req.MaxRestarts,
		RequiresReferrerEmail: req.RequiresReferrerEmail,
	}
	if err := database.DB.Create(&task).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Task created", Data: task})
}

// PUT /admin/tasks/{id}
func UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	var task models.Task
	if err := database.DB.First(&task, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteError(w, http.StatusNotFound, "Task not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load task")
		return
	}

	var req taskRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.Reward <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "Reward must be greater than zero")
		return
	}
	if req.Status != "" && !taskStatuses[req.Status] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid task status")
		return
	}

	task.Title = req.Title
	task.Instructions = req.Instructions
	task.Reward = utils.Round2(req.Reward)
	if req.Status != "" {
		task.Status = req.Status
	}
	task.ImageURL = req.ImageURL
	task.Deadline = req.Deadline
	task.TaskDeadlineHours = req.TaskDeadlineHours
	task.UserTimeLimitHours = req.UserTimeLimitHours
	task.MaxRestarts = req.MaxRestarts
	task.RequiresReferrerEmail = req.RequiresReferrerEmail

	if err := database.DB.Save(&task).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update task")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task updated", Data: task})
}

// DELETE /admin/tasks/{id}
//
// Tasks with submissions are deactivated instead of deleted so attempt
// history and ledger references stay intact.
func DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	var task models.Task
	if err := database.DB.First(&task, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteError(w, http.StatusNotFound, "Task not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load task")
		return
	}

	var submissions int64
	database.DB.Model(&models.TaskSubmission{}).Where("task_id = ?", task.ID).Count(&submissions)
	if submissions > 0 {
		if err := database.DB.Model(&task).Update("status", "Inactive").Error; err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "Failed to deactivate task")
			return
		}
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task has submissions and was deactivated instead"})
		return
	}

	if err := database.DB.Delete(&task).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task deleted"})
}
