package workers

import (
	"context"
	"log"
	"time"

	"questa/models"
	"questa/services"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Sweeper moves time-based transitions forward in the background so clients
// that never poll still see consistent state: tasks past their deadline get
// ended, and in-progress attempts past the user's time budget get expired.
type Sweeper struct {
	DB     *gorm.DB
	Timers *services.TimerCache
}

func NewSweeper(db *gorm.DB, timers *services.TimerCache) *Sweeper {
	return &Sweeper{DB: db, Timers: timers}
}

// Start runs both sweeps once a minute. The returned scheduler should be
// shut down on exit.
func (s *Sweeper) Start() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.endOverdueTasks()
			s.expireOverrunAttempts()
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}

// endOverdueTasks flips Active tasks whose task-wide deadline has passed to
// Ended. Relative deadlines (task_deadline_hours off created_at) are computed
// in Go so both forms share one definition.
func (s *Sweeper) endOverdueTasks() {
	var tasks []models.Task
	if err := s.DB.Where("status = ?", "Active").
		Where("deadline IS NOT NULL OR task_deadline_hours > 0").
		Find(&tasks).Error; err != nil {
		log.Printf("[sweeper] task scan failed: %v", err)
		return
	}

	now := time.Now()
	for _, task := range tasks {
		deadline := services.TaskDeadline(&task)
		if deadline == nil || now.Before(*deadline) {
			continue
		}
		if err := s.DB.Model(&task).Update("status", "Ended").Error; err != nil {
			log.Printf("[sweeper] failed to end task %d: %v", task.ID, err)
			continue
		}
		log.Printf("[sweeper] task %d ended (deadline %s)", task.ID, deadline.Format(time.RFC3339))
	}
}

// expireOverrunAttempts expires in-progress records whose effective deadline
// (task deadline capped by the per-user time budget) has passed.
func (s *Sweeper) expireOverrunAttempts() {
	var records []models.TaskStatusRecord
	if err := s.DB.Where("status = ?", models.StatusInProgress).
		Find(&records).Error; err != nil {
		log.Printf("[sweeper] record scan failed: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	now := time.Now()
	ctx := context.Background()
	for _, rec := range records {
		var task models.Task
		if err := s.DB.First(&task, rec.TaskID).Error; err != nil {
			continue
		}
		deadline := services.EffectiveDeadline(&task, rec.StartedAt)
		if deadline == nil || now.Before(*deadline) {
			continue
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.TaskStatusRecord{}).
				Where("id = ? AND status = ?", rec.ID, models.StatusInProgress).
				Update("status", models.StatusExpired).Error; err != nil {
				return err
			}
			return tx.Model(&models.TaskSubmission{}).
				Where("user_id = ? AND task_id = ? AND status = ?", rec.UserID, rec.TaskID, models.StatusInProgress).
				Update("status", models.StatusExpired).Error
		})
		if err != nil {
			log.Printf("[sweeper] failed to expire record %d: %v", rec.ID, err)
			continue
		}
		if err := s.Timers.MarkExpired(ctx, rec.UserID, rec.TaskID); err != nil {
			log.Printf("[sweeper] timer flag failed for user %d task %d: %v", rec.UserID, rec.TaskID, err)
		}
	}
}
