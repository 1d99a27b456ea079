package admins

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"questa/models"
	"questa/services"

	"github.com/gorilla/mux"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Hand-written schema; the MySQL enum column tags in the models do not
// translate to sqlite.
var reviewSchema = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT, email TEXT, password TEXT,
		balance REAL DEFAULT 0, status TEXT DEFAULT 'Active',
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT, instructions TEXT, reward REAL,
		status TEXT DEFAULT 'Active', image_url TEXT,
		deadline DATETIME, task_deadline_hours INTEGER DEFAULT 0,
		user_time_limit_hours INTEGER DEFAULT 0, max_restarts INTEGER DEFAULT 0,
		requires_referrer_email INTEGER DEFAULT 0,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE task_status_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER, task_id INTEGER,
		status TEXT, phase TEXT, started_at DATETIME, referrer_email TEXT,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE task_submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER, task_id INTEGER, restart_count INTEGER DEFAULT 0,
		status TEXT, proof_image_url TEXT, profile_image_url TEXT,
		note TEXT, review_note TEXT, reviewed_at DATETIME,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME)`,
	`CREATE TABLE balance_changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER, before_balance REAL, after_balance REAL,
		change_amount REAL, reason TEXT, reference TEXT UNIQUE,
		metadata TEXT, created_at DATETIME)`,
	`CREATE TABLE notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER, title TEXT, body TEXT,
		"read" INTEGER DEFAULT 0, created_at DATETIME)`,
}

func newReviewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	for _, stmt := range reviewSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func TestApprove_CreditsRewardWithReview(t *testing.T) {
	db := newReviewDB(t)
	c := NewSubmissionController(db, services.NewLedger(db))

	user := models.User{Name: "Juan", Email: "juan@example.com", Password: "x", Balance: 10, Status: "Active"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	task := models.Task{Title: "Install app", Reward: 25, Status: "Active"}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	sub := models.TaskSubmission{UserID: user.ID, TaskID: task.ID, Status: models.StatusPendingReview}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	rec := models.TaskStatusRecord{UserID: user.ID, TaskID: task.ID, Status: models.StatusPendingReview, Phase: models.PhaseFinal}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/admin/submissions/{id:[0-9]+}/approve", c.Approve).Methods(http.MethodPost)
	url := fmt.Sprintf("/admin/submissions/%d/approve", sub.ID)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, url, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", rr.Code, rr.Body.String())
	}

	var freshSub models.TaskSubmission
	db.First(&freshSub, sub.ID)
	if freshSub.Status != models.StatusApproved {
		t.Fatalf("submission status = %q, want approved", freshSub.Status)
	}
	var freshRec models.TaskStatusRecord
	db.First(&freshRec, rec.ID)
	if freshRec.Status != models.StatusApproved {
		t.Fatalf("record status = %q, want approved", freshRec.Status)
	}

	var freshUser models.User
	db.First(&freshUser, user.ID)
	if freshUser.Balance != 35 {
		t.Fatalf("balance = %v, want 35", freshUser.Balance)
	}
	var change models.BalanceChange
	if err := db.Where("reference = ?", fmt.Sprintf("task:%d", sub.ID)).First(&change).Error; err != nil {
		t.Fatalf("reward row missing: %v", err)
	}
	if change.BeforeBalance != 10 || change.AfterBalance != 35 || change.ChangeAmount != 25 {
		t.Fatalf("reward row before/after/change = %v/%v/%v, want 10/35/25",
			change.BeforeBalance, change.AfterBalance, change.ChangeAmount)
	}

	// replaying the approval is refused and must not credit again
	rr2 := httptest.NewRecorder()
	router.ServeHTTP(rr2, httptest.NewRequest(http.MethodPost, url, nil))
	if rr2.Code != http.StatusBadRequest {
		t.Fatalf("second approve status = %d, want 400", rr2.Code)
	}
	db.First(&freshUser, user.ID)
	if freshUser.Balance != 35 {
		t.Fatalf("balance after replay = %v, want 35", freshUser.Balance)
	}
	var rows int64
	db.Model(&models.BalanceChange{}).Count(&rows)
	if rows != 1 {
		t.Fatalf("balance change rows = %d, want exactly 1", rows)
	}
}
