package models

import "time"

type Task struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Title        string  `gorm:"type:varchar(150);not null" json:"title"`
	Instructions string  `gorm:"type:text" json:"instructions"`
	Reward       float64 `gorm:"type:decimal(15,2);not null" json:"reward"`
	Status       string  `gorm:"type:enum('Active','Inactive','Ended');default:'Active'" json:"status"`
	ImageURL     *string `gorm:"type:varchar(255)" json:"image_url,omitempty"`

	// Deadline is the absolute task-wide cutoff. When unset,
	// TaskDeadlineHours (relative to CreatedAt) takes its place.
	Deadline          *time.Time `json:"deadline,omitempty"`
	TaskDeadlineHours int        `gorm:"default:0" json:"task_deadline_hours"`

	// UserTimeLimitHours is the per-user completion budget counted from
	// the moment that user starts the task. Zero means no budget.
	UserTimeLimitHours int `gorm:"default:0" json:"user_time_limit_hours"`

	// MaxRestarts bounds completions at MaxRestarts+1 per user.
	MaxRestarts           int  `gorm:"default:0" json:"max_restarts"`
	RequiresReferrerEmail bool `gorm:"default:false" json:"requires_referrer_email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}
