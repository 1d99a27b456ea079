package database

import (
	"questa/models"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema. Run only in development; the
// production schema is managed by hand.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Admin{},
		&models.RefreshToken{},
		&models.User{},
		&models.Task{},
		&models.TaskStatusRecord{},
		&models.TaskSubmission{},
		&models.BalanceChange{},
		&models.Withdrawal{},
		&models.Notification{},
	)
}
