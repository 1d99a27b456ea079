package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskStatus is the closed set of display statuses a (task, user) pair can
// resolve to. "expired" and "ended" are overlays: expired means the user's
// personal time budget ran out (restartable), ended means the task-wide
// deadline passed (not restartable).
type TaskStatus string

const (
	StatusAvailable     TaskStatus = "available"
	StatusInProgress    TaskStatus = "in_progress"
	StatusPendingReview TaskStatus = "pending_review"
	StatusApproved      TaskStatus = "approved"
	StatusRejected      TaskStatus = "rejected"
	StatusExpired       TaskStatus = "expired"
	StatusEnded         TaskStatus = "ended"
)

// Verification phase markers on TaskStatusRecord.
const (
	PhaseInitial = "initial"
	PhaseFinal   = "final"
)

// TaskStatusRecord is the per-(user, task) state row. Absence of a record
// means the user never started the task. Terminal transitions
// (approved/rejected) are admin-authored.
type TaskStatusRecord struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;uniqueIndex:idx_user_task" json:"user_id"`
	TaskID        uint       `gorm:"not null;uniqueIndex:idx_user_task" json:"task_id"`
	Status        TaskStatus `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	Phase         string     `gorm:"type:enum('initial','final');default:'initial'" json:"phase"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	ReferrerEmail *string    `gorm:"type:varchar(191)" json:"referrer_email,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (TaskStatusRecord) TableName() string {
	return "task_status_records"
}

// TaskSubmission is one attempt row. Restarts create a fresh row and leave
// old ones in place; the latest non-deleted row is authoritative for
// in-progress state, approved rows accumulate toward the completion counter.
type TaskSubmission struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index:idx_sub_user_task" json:"user_id"`
	TaskID          uint           `gorm:"not null;index:idx_sub_user_task" json:"task_id"`
	RestartCount    int            `gorm:"default:0" json:"restart_count"`
	Status          TaskStatus     `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	ProofImageURL   *string        `gorm:"type:varchar(255)" json:"proof_image_url,omitempty"`
	ProfileImageURL *string        `gorm:"type:varchar(255)" json:"profile_image_url,omitempty"`
	Note            *string        `gorm:"type:text" json:"note,omitempty"`
	ReviewNote      *string        `gorm:"type:text" json:"review_note,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TaskSubmission) TableName() string {
	return "task_submissions"
}
