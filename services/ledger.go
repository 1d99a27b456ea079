package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"questa/models"
	"questa/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidMethod       = errors.New("invalid withdrawal method")
	ErrInvalidAccount      = errors.New("invalid account details")
	ErrAlreadyReviewed     = errors.New("withdrawal already reviewed")
)

var withdrawalMethods = map[string]bool{
	"gcash":   true,
	"paymaya": true,
	"bank":    true,
	"other":   true,
}

// Ledger owns every wallet mutation. Each business event moves the balance
// exactly once inside a row-locked transaction and appends exactly one
// BalanceChange row in the same transaction, so replaying the rows always
// reconstructs the live balance.
type Ledger struct {
	DB *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// ApplyChange moves the user's balance by amount (negative for debits) and
// appends the matching audit row. Debits that would take the balance below
// zero fail with ErrInsufficientBalance before anything is written.
func (l *Ledger) ApplyChange(userID uint, amount float64, reason models.BalanceReason, reference string, metadata *string) (*models.BalanceChange, error) {
	var change *models.BalanceChange
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = l.ApplyChangeTx(tx, userID, amount, reason, reference, metadata)
		return err
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// ApplyChangeTx is ApplyChange inside an existing transaction, for callers
// that need the wallet movement to commit or roll back with their own writes.
func (l *Ledger) ApplyChangeTx(tx *gorm.DB, userID uint, amount float64, reason models.BalanceReason, reference string, metadata *string) (*models.BalanceChange, error) {
	if reference == "" {
		reference = utils.GenerateReferenceID(userID)
	}
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		return nil, err
	}
	// Update writes newBalance into user.Balance, so the starting balance
	// has to be captured first or the audit row loses its before value.
	before := user.Balance
	if amount < 0 && before+amount < 0 {
		return nil, ErrInsufficientBalance
	}
	newBalance := utils.Round2(before + amount)
	if err := tx.Model(&user).Update("balance", newBalance).Error; err != nil {
		return nil, err
	}
	change := models.BalanceChange{
		UserID:        userID,
		BeforeBalance: before,
		AfterBalance:  newBalance,
		ChangeAmount:  utils.Round2(amount),
		Reason:        reason,
		Reference:     reference,
		Metadata:      metadata,
	}
	if err := tx.Create(&change).Error; err != nil {
		return nil, err
	}
	return &change, nil
}

// ValidateWithdrawalRequest checks a withdrawal before any write happens.
func ValidateWithdrawalRequest(amount float64, method, accountName, accountNumber string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !withdrawalMethods[strings.ToLower(strings.TrimSpace(method))] {
		return ErrInvalidMethod
	}
	if strings.TrimSpace(accountName) == "" || strings.TrimSpace(accountNumber) == "" {
		return ErrInvalidAccount
	}
	return nil
}

// SubmitWithdrawal debits the balance and creates the withdrawal row in one
// transaction. The row lock on the user serializes concurrent submissions so
// two requests cannot both pass the sufficiency check against a stale
// balance. On any failure nothing is written.
func (l *Ledger) SubmitWithdrawal(userID uint, amount float64, method, accountName, accountNumber string) (*models.Withdrawal, error) {
	if err := ValidateWithdrawalRequest(amount, method, accountName, accountNumber); err != nil {
		return nil, err
	}
	method = strings.ToLower(strings.TrimSpace(method))
	amount = utils.Round2(amount)
	reference := utils.GenerateReferenceID(userID)

	var wd models.Withdrawal
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}
		before := user.Balance
		if before < amount {
			return ErrInsufficientBalance
		}
		newBalance := utils.Round2(before - amount)
		if err := tx.Model(&user).Update("balance", newBalance).Error; err != nil {
			return err
		}

		wd = models.Withdrawal{
			UserID:        userID,
			Amount:        amount,
			Method:        method,
			AccountName:   strings.TrimSpace(accountName),
			AccountNumber: strings.TrimSpace(accountNumber),
			Reference:     reference,
			Status:        "Pending",
		}
		if err := tx.Create(&wd).Error; err != nil {
			return err
		}

		msg := fmt.Sprintf("Withdrawal via %s to %s", method, utils.MaskAccountNumber(accountNumber))
		change := models.BalanceChange{
			UserID:        userID,
			BeforeBalance: before,
			AfterBalance:  newBalance,
			ChangeAmount:  -amount,
			Reason:        models.ReasonWithdraw,
			Reference:     reference,
			Metadata:      &msg,
		}
		return tx.Create(&change).Error
	})
	if err != nil {
		return nil, err
	}
	return &wd, nil
}

// ApproveWithdrawal marks a pending withdrawal approved. Funds were already
// debited at submission, so only a zero-delta marker row is appended for
// traceability.
func (l *Ledger) ApproveWithdrawal(id uint, note *string) (*models.Withdrawal, error) {
	var wd models.Withdrawal
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wd, id).Error; err != nil {
			return err
		}
		if wd.Status != "Pending" {
			return ErrAlreadyReviewed
		}
		now := time.Now()
		wd.Status = "Approved"
		wd.ReviewNote = note
		wd.ReviewedAt = &now
		if err := tx.Save(&wd).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, wd.UserID).Error; err != nil {
			return err
		}
		msg := fmt.Sprintf("Withdrawal %s approved", wd.Reference)
		change := models.BalanceChange{
			UserID:        wd.UserID,
			BeforeBalance: user.Balance,
			AfterBalance:  user.Balance,
			ChangeAmount:  0,
			Reason:        models.ReasonWithdrawApproved,
			Reference:     "approved:" + wd.Reference,
			Metadata:      &msg,
		}
		return tx.Create(&change).Error
	})
	if err != nil {
		return nil, err
	}
	return &wd, nil
}

// RejectWithdrawal marks a pending withdrawal rejected and refunds the
// debited amount exactly once. The refund row's reference is derived from
// the withdrawal reference and checked inside the transaction, so a re-run
// reject can never credit twice.
func (l *Ledger) RejectWithdrawal(id uint, note *string) (*models.Withdrawal, error) {
	var wd models.Withdrawal
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wd, id).Error; err != nil {
			return err
		}
		if wd.Status != "Pending" {
			return ErrAlreadyReviewed
		}
		refundRef := "refund:" + wd.Reference
		var existing int64
		if err := tx.Model(&models.BalanceChange{}).Where("reference = ?", refundRef).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyReviewed
		}

		now := time.Now()
		wd.Status = "Rejected"
		wd.ReviewNote = note
		wd.ReviewedAt = &now
		if err := tx.Save(&wd).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, wd.UserID).Error; err != nil {
			return err
		}
		before := user.Balance
		newBalance := utils.Round2(before + wd.Amount)
		if err := tx.Model(&user).Update("balance", newBalance).Error; err != nil {
			return err
		}
		msg := fmt.Sprintf("Refund for rejected withdrawal %s", wd.Reference)
		change := models.BalanceChange{
			UserID:        wd.UserID,
			BeforeBalance: before,
			AfterBalance:  newBalance,
			ChangeAmount:  wd.Amount,
			Reason:        models.ReasonWithdrawRefund,
			Reference:     refundRef,
			Metadata:      &msg,
		}
		return tx.Create(&change).Error
	})
	if err != nil {
		return nil, err
	}
	return &wd, nil
}

// AuditReport compares the replayed ledger against the cached balance.
type AuditReport struct {
	UserID         uint    `json:"user_id"`
	WalletBalance  float64 `json:"wallet_balance"`
	ReplayedAmount float64 `json:"replayed_amount"`
	Entries        int     `json:"entries"`
	Consistent     bool    `json:"consistent"`
}

// Audit replays every BalanceChange row for the user from zero and checks
// the result against users.balance.
func (l *Ledger) Audit(userID uint) (*AuditReport, error) {
	var user models.User
	if err := l.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}
	var changes []models.BalanceChange
	if err := l.DB.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&changes).Error; err != nil {
		return nil, err
	}
	replayed := ReplayBalance(changes)
	return &AuditReport{
		UserID:         userID,
		WalletBalance:  user.Balance,
		ReplayedAmount: replayed,
		Entries:        len(changes),
		Consistent:     replayed == user.Balance,
	}, nil
}
