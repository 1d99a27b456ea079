package models

import "time"

// BalanceReason is the closed set of business events that may move a wallet.
type BalanceReason string

const (
	ReasonTaskReward       BalanceReason = "task_reward"
	ReasonWithdraw         BalanceReason = "withdraw"
	ReasonWithdrawApproved BalanceReason = "withdraw_approved"
	ReasonWithdrawRefund   BalanceReason = "withdraw_refund"
	ReasonAdminAdjust      BalanceReason = "admin_adjust"
)

// BalanceChange is one append-only audit row. Replaying all rows for a user
// in order, starting from zero, must reconstruct users.balance exactly; the
// balance column is the cache, this table is the trail.
type BalanceChange struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UserID        uint          `gorm:"not null;index" json:"user_id"`
	BeforeBalance float64       `gorm:"type:decimal(15,2);not null" json:"before_balance"`
	AfterBalance  float64       `gorm:"type:decimal(15,2);not null" json:"after_balance"`
	ChangeAmount  float64       `gorm:"type:decimal(15,2);not null" json:"change_amount"`
	Reason        BalanceReason `gorm:"type:varchar(30);not null" json:"reason"`
	Reference     string        `gorm:"type:varchar(191);not null;uniqueIndex" json:"reference"`
	Metadata      *string       `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

func (BalanceChange) TableName() string {
	return "balance_changes"
}
