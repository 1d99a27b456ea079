package users

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"questa/middleware"
	"questa/models"
	"questa/services"
	"questa/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// TaskController serves the user task surface. Store, resolver and timer
// cache are injected rather than reached through globals.
type TaskController struct {
	DB       *gorm.DB
	Resolver *services.StatusResolver
	Timers   *services.TimerCache
}

func NewTaskController(db *gorm.DB, resolver *services.StatusResolver, timers *services.TimerCache) *TaskController {
	return &TaskController{DB: db, Resolver: resolver, Timers: timers}
}

// GET /users/tasks
func (c *TaskController) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var tasks []models.Task
	if err := c.DB.Where("status IN ?", []string{"Active", "Ended"}).Order("id ASC").Find(&tasks).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}

	// A failed status fetch degrades to "never started" instead of blocking
	// the whole list.
	recordsByTask := map[uint]*models.TaskStatusRecord{}
	var records []models.TaskStatusRecord
	if err := c.DB.Where("user_id = ?", uid).Find(&records).Error; err != nil {
		log.Printf("[tasks] status records fetch failed for user %d: %v", uid, err)
	} else {
		for i := range records {
			recordsByTask[records[i].TaskID] = &records[i]
		}
	}

	completedByTask := map[uint]int{}
	var counts []struct {
		TaskID uint
		N      int
	}
	if err := c.DB.Model(&models.TaskSubmission{}).
		Select("task_id, COUNT(*) as n").
		Where("user_id = ? AND status = ?", uid, models.StatusApproved).
		Group("task_id").
		Scan(&counts).Error; err != nil {
		log.Printf("[tasks] completion counts fetch failed for user %d: %v", uid, err)
	} else {
		for _, row := range counts {
			completedByTask[row.TaskID] = row.N
		}
	}

	resp := make([]map[string]interface{}, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		local := c.Timers.State(r.Context(), uid, t.ID)
		res := c.Resolver.Resolve(t, recordsByTask[t.ID], local, completedByTask[t.ID])
		if res.TimedOut {
			// Persist the observed expiry so later renders do not
			// re-derive it.
			if err := c.Timers.MarkExpired(r.Context(), uid, t.ID); err != nil {
				log.Printf("[tasks] mark expired failed for user %d task %d: %v", uid, t.ID, err)
			}
		}
		resp = append(resp, map[string]interface{}{
			"id":                      t.ID,
			"title":                   t.Title,
			"instructions":            t.Instructions,
			"reward":                  t.Reward,
			"image_url":               t.ImageURL,
			"requires_referrer_email": t.RequiresReferrerEmail,
			"status":                  res.Status,
			"remaining":               res.Remaining,
			"deadline":                res.Deadline,
			"started_at":              res.StartedAt,
			"can_restart":             res.CanRestart,
			"completed_count":         res.CompletedCount,
			"max_completions":         t.MaxRestarts + 1,
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: resp})
}

type startTaskRequest struct {
	ReferrerEmail string `json:"referrer_email" validate:"email"`
}

// POST /users/tasks/{id}/start
func (c *TaskController) Start(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	task, ok := c.loadTask(w, r)
	if !ok {
		return
	}

	var req startTaskRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := middleware.ValidateJSON(w, r, &req); err != nil {
			return
		}
	}
	if task.RequiresReferrerEmail && strings.TrimSpace(req.ReferrerEmail) == "" {
		utils.WriteError(w, http.StatusBadRequest, "This task requires a referrer email")
		return
	}

	rec, completed := c.loadUserState(uid, task.ID)
	local := c.Timers.State(r.Context(), uid, task.ID)
	res, canStart := c.Resolver.CanStart(task, rec, local, completed)
	if !canStart {
		utils.WriteError(w, http.StatusBadRequest, startRefusalMessage(res.Status))
		return
	}

	now := time.Now()
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if rec == nil {
			rec = &models.TaskStatusRecord{UserID: uid, TaskID: task.ID}
		}
		rec.Status = models.StatusInProgress
		rec.Phase = models.PhaseInitial
		rec.StartedAt = &now
		if task.RequiresReferrerEmail {
			email := strings.TrimSpace(req.ReferrerEmail)
			rec.ReferrerEmail = &email
		}
		if err := tx.Save(rec).Error; err != nil {
			return err
		}
		sub := models.TaskSubmission{
			UserID:       uid,
			TaskID:       task.ID,
			RestartCount: 0,
			Status:       models.StatusInProgress,
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to start task")
		return
	}

	if err := c.Timers.MarkStarted(r.Context(), uid, task.ID, now, services.EffectiveDeadline(task, &now)); err != nil {
		log.Printf("[tasks] start timer cache failed for user %d task %d: %v", uid, task.ID, err)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Task started",
		Data: map[string]interface{}{
			"task_id":    task.ID,
			"status":     models.StatusInProgress,
			"started_at": now,
			"deadline":   services.EffectiveDeadline(task, &now),
		},
	})
}

// POST /users/tasks/{id}/restart
func (c *TaskController) Restart(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	task, ok := c.loadTask(w, r)
	if !ok {
		return
	}

	rec, completed := c.loadUserState(uid, task.ID)
	if rec == nil {
		utils.WriteError(w, http.StatusBadRequest, "Task was never started")
		return
	}
	local := c.Timers.State(r.Context(), uid, task.ID)
	res := c.Resolver.Resolve(task, rec, local, completed)
	if !res.CanRestart {
		if res.Status == models.StatusEnded {
			utils.WriteError(w, http.StatusBadRequest, "This task has ended and cannot be restarted")
			return
		}
		if completed >= task.MaxRestarts+1 {
			utils.WriteError(w, http.StatusBadRequest, "Restart limit reached for this task")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, "Task cannot be restarted right now")
		return
	}

	var lastRestart int
	var last models.TaskSubmission
	if err := c.DB.Where("user_id = ? AND task_id = ?", uid, task.ID).Order("id DESC").First(&last).Error; err == nil {
		lastRestart = last.RestartCount
	}

	now := time.Now()
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		rec.Status = models.StatusInProgress
		rec.Phase = models.PhaseInitial
		rec.StartedAt = &now
		if err := tx.Save(rec).Error; err != nil {
			return err
		}
		// Old attempt rows stay untouched for history.
		sub := models.TaskSubmission{
			UserID:       uid,
			TaskID:       task.ID,
			RestartCount: lastRestart + 1,
			Status:       models.StatusInProgress,
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to restart task")
		return
	}

	if err := c.Timers.Clear(r.Context(), uid, task.ID); err != nil {
		log.Printf("[tasks] timer cache clear failed for user %d task %d: %v", uid, task.ID, err)
	}
	if err := c.Timers.MarkStarted(r.Context(), uid, task.ID, now, services.EffectiveDeadline(task, &now)); err != nil {
		log.Printf("[tasks] start timer cache failed for user %d task %d: %v", uid, task.ID, err)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Task restarted",
		Data: map[string]interface{}{
			"task_id":       task.ID,
			"status":        models.StatusInProgress,
			"started_at":    now,
			"restart_count": lastRestart + 1,
			"deadline":      services.EffectiveDeadline(task, &now),
		},
	})
}

// POST /users/tasks/{id}/submit (multipart: proof image + optional note)
func (c *TaskController) SubmitProof(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	task, ok := c.loadTask(w, r)
	if !ok {
		return
	}

	rec, completed := c.loadUserState(uid, task.ID)
	local := c.Timers.State(r.Context(), uid, task.ID)
	res := c.Resolver.Resolve(task, rec, local, completed)
	if res.Status != models.StatusInProgress {
		utils.WriteError(w, http.StatusBadRequest, submitRefusalMessage(res.Status))
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	file, header, err := r.FormFile("proof")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Proof screenshot is required")
		return
	}
	defer file.Close()

	proofURL, err := utils.UploadProofImage(r.Context(), file, header.Filename)
	if err != nil {
		log.Printf("[tasks] proof upload failed for user %d task %d: %v", uid, task.ID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to upload proof, please try again")
		return
	}

	var note *string
	if n := strings.TrimSpace(r.FormValue("note")); n != "" {
		note = &n
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		var sub models.TaskSubmission
		if err := tx.Where("user_id = ? AND task_id = ? AND status = ?", uid, task.ID, models.StatusInProgress).
			Order("id DESC").First(&sub).Error; err != nil {
			return err
		}
		sub.Status = models.StatusPendingReview
		sub.ProofImageURL = &proofURL
		sub.Note = note
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}
		rec.Status = models.StatusPendingReview
		rec.Phase = models.PhaseFinal
		return tx.Save(rec).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteError(w, http.StatusBadRequest, "No attempt in progress for this task")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to submit proof")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Proof submitted for review",
		Data: map[string]interface{}{
			"task_id":   task.ID,
			"status":    models.StatusPendingReview,
			"proof_url": proofURL,
		},
	})
}

func (c *TaskController) loadTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid task id")
		return nil, false
	}
	var task models.Task
	if err := c.DB.First(&task, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteError(w, http.StatusNotFound, "Task not found")
			return nil, false
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load task")
		return nil, false
	}
	return &task, true
}

func (c *TaskController) loadUserState(uid, taskID uint) (*models.TaskStatusRecord, int) {
	var rec models.TaskStatusRecord
	var recPtr *models.TaskStatusRecord
	if err := c.DB.Where("user_id = ? AND task_id = ?", uid, taskID).First(&rec).Error; err == nil {
		recPtr = &rec
	}
	var completed int64
	if err := c.DB.Model(&models.TaskSubmission{}).
		Where("user_id = ? AND task_id = ? AND status = ?", uid, taskID, models.StatusApproved).
		Count(&completed).Error; err != nil {
		completed = 0
	}
	return recPtr, int(completed)
}

func startRefusalMessage(status models.TaskStatus) string {
	switch status {
	case models.StatusEnded:
		return "This task has ended"
	case models.StatusExpired:
		return "Your time for this task ran out, restart it instead"
	case models.StatusInProgress, models.StatusPendingReview:
		return "Task is already in progress"
	case models.StatusApproved, models.StatusRejected:
		return "Task was already reviewed, restart it instead"
	default:
		return "Task cannot be started right now"
	}
}

func submitRefusalMessage(status models.TaskStatus) string {
	switch status {
	case models.StatusEnded:
		return "This task has ended"
	case models.StatusExpired:
		return "Your time for this task ran out"
	case models.StatusPendingReview:
		return "Proof already submitted and awaiting review"
	default:
		return "Start the task before submitting proof"
	}
}
