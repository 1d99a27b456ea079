package models

import "time"

type Withdrawal struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	Amount        float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Method        string     `gorm:"type:enum('gcash','paymaya','bank','other');not null" json:"method"`
	AccountName   string     `gorm:"type:varchar(100);not null" json:"account_name"`
	AccountNumber string     `gorm:"type:varchar(50);not null" json:"account_number"`
	Reference     string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"reference"`
	Status        string     `gorm:"type:enum('Pending','Approved','Rejected');not null;default:'Pending'" json:"status"`
	ReviewNote    *string    `gorm:"type:text" json:"review_note,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
