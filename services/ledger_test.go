package services

import (
	"errors"
	"testing"

	"questa/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The MySQL enum column tags do not translate to sqlite, so the test schema
// is created by hand.
var ledgerSchema = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT, email TEXT, password TEXT,
		balance REAL DEFAULT 0, status TEXT DEFAULT 'Active',
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE withdrawals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER, amount REAL, method TEXT,
		account_name TEXT, account_number TEXT,
		reference TEXT UNIQUE, status TEXT DEFAULT 'Pending',
		review_note TEXT, reviewed_at DATETIME,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE balance_changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER, before_balance REAL, after_balance REAL,
		change_amount REAL, reason TEXT, reference TEXT UNIQUE,
		metadata TEXT, created_at DATETIME)`,
}

func newLedgerDB(t *testing.T) *gorm.DB {
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
	// one connection so every session sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	for _, stmt := range ledgerSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, balance float64) models.User {
	t.Helper()
	u := models.User{Name: "Juan", Email: "juan@example.com", Password: "x", Balance: balance, Status: "Active"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestApplyChange_AuditRowMatchesMovement(t *testing.T) {
	db := newLedgerDB(t)
	l := NewLedger(db)
	u := seedUser(t, db, 100)

	change, err := l.ApplyChange(u.ID, 50, models.ReasonTaskReward, "task:1", nil)
	if err != nil {
		t.Fatalf("ApplyChange: %v", err)
	}
	if change.BeforeBalance != 100 || change.AfterBalance != 150 || change.ChangeAmount != 50 {
		t.Fatalf("audit row before/after/change = %v/%v/%v, want 100/150/50",
			change.BeforeBalance, change.AfterBalance, change.ChangeAmount)
	}
	if change.BeforeBalance+change.ChangeAmount != change.AfterBalance {
		t.Fatalf("audit row does not add up: %v + %v != %v",
			change.BeforeBalance, change.ChangeAmount, change.AfterBalance)
	}

	var fresh models.User
	if err := db.First(&fresh, u.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if fresh.Balance != 150 {
		t.Fatalf("wallet balance = %v, want 150", fresh.Balance)
	}
}

func TestApplyChange_DebitAuditRow(t *testing.T) {
	db := newLedgerDB(t)
	l := NewLedger(db)
	u := seedUser(t, db, 100)

	change, err := l.ApplyChange(u.ID, -30, models.ReasonAdminAdjust, "adjust:1", nil)
	if err != nil {
		t.Fatalf("ApplyChange: %v", err)
	}
	if change.BeforeBalance != 100 || change.AfterBalance != 70 || change.ChangeAmount != -30 {
		t.Fatalf("audit row before/after/change = %v/%v/%v, want 100/70/-30",
			change.BeforeBalance, change.AfterBalance, change.ChangeAmount)
	}
}

func TestApplyChange_InsufficientBalanceWritesNothing(t *testing.T) {
	db := newLedgerDB(t)
	l := NewLedger(db)
	u := seedUser(t, db, 20)

	if _, err := l.ApplyChange(u.ID, -50, models.ReasonAdminAdjust, "adjust:2", nil); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	var fresh models.User
	db.First(&fresh, u.ID)
	if fresh.Balance != 20 {
		t.Fatalf("balance = %v, want untouched 20", fresh.Balance)
	}
	var rows int64
	db.Model(&models.BalanceChange{}).Count(&rows)
	if rows != 0 {
		t.Fatalf("balance change rows = %d, want 0", rows)
	}
}

func TestSubmitWithdrawal_DebitsOnceWithSharedReference(t *testing.T) {
	db := newLedgerDB(t)
	l := NewLedger(db)
	u := seedUser(t, db, 100)

	wd, err := l.SubmitWithdrawal(u.ID, 40, "gcash", "Juan Dela Cruz", "09171234567")
	if err != nil {
		t.Fatalf("SubmitWithdrawal: %v", err)
	}
	if wd.Status != "Pending" {
		t.Fatalf("withdrawal status = %q, want Pending", wd.Status)
	}

	var fresh models.User
	db.First(&fresh, u.ID)
	if fresh.Balance != 60 {
		t.Fatalf("balance = %v, want 60", fresh.Balance)
	}

	var change models.BalanceChange
	if err := db.Where("reference = ?", wd.Reference).First(&change).Error; err != nil {
		t.Fatalf("ledger row for %q missing: %v", wd.Reference, err)
	}
	if change.BeforeBalance != 100 || change.AfterBalance != 60 || change.ChangeAmount != -40 {
		t.Fatalf("audit row before/after/change = %v/%v/%v, want 100/60/-40",
			change.BeforeBalance, change.AfterBalance, change.ChangeAmount)
	}
	if change.Reason != models.ReasonWithdraw {
		t.Fatalf("reason = %q, want %q", change.Reason, models.ReasonWithdraw)
	}
}

func TestSubmitWithdrawal_InsufficientBalanceLeavesNothing(t *testing.T) {
	db := newLedgerDB(t)
	l := NewLedger(db)
	u := seedUser(t, db, 100)

	if _, err := l.SubmitWithdrawal(u.ID, 150, "gcash", "Juan", "09171234567"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	var fresh models.User
	db.First(&fresh, u.ID)
	if fresh.Balance != 100 {
		t.Fatalf("balance = %v, want untouched 100", fresh.Balance)
	}
	var withdrawals, changes int64
	db.Model(&models.Withdrawal{}).Count(&withdrawals)
	db.Model(&models.BalanceChange{}).Count(&changes)
	if withdrawals != 0 || changes != 0 {
		t.Fatalf("rows after failed submit = %d withdrawals, %d changes; want none", withdrawals, changes)
	}
}

func TestRejectWithdrawal_RefundsExactlyOnce(t *testing.T) {
	db := newLedgerDB(t)
	l := NewLedger(db)
	u := seedUser(t, db, 100)

	wd, err := l.SubmitWithdrawal(u.ID, 40, "gcash", "Juan", "09171234567")
	if err != nil {
		t.Fatalf("SubmitWithdrawal: %v", err)
	}

	rejected, err := l.RejectWithdrawal(wd.ID, nil)
	if err != nil {
		t.Fatalf("RejectWithdrawal: %v", err)
	}
	if rejected.Status != "Rejected" {
		t.Fatalf("status = %q, want Rejected", rejected.Status)
	}

	var fresh models.User
	db.First(&fresh, u.ID)
	if fresh.Balance != 100 {
		t.Fatalf("balance after refund = %v, want 100", fresh.Balance)
	}
	var refund models.BalanceChange
	if err := db.Where("reference = ?", "refund:"+wd.Reference).First(&refund).Error; err != nil {
		t.Fatalf("refund row missing: %v", err)
	}
	if refund.BeforeBalance != 60 || refund.AfterBalance != 100 || refund.ChangeAmount != 40 {
		t.Fatalf("refund row before/after/change = %v/%v/%v, want 60/100/40",
			refund.BeforeBalance, refund.AfterBalance, refund.ChangeAmount)
	}

	// second reject must not credit again
	if _, err := l.RejectWithdrawal(wd.ID, nil); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("second reject err = %v, want ErrAlreadyReviewed", err)
	}
	db.First(&fresh, u.ID)
	if fresh.Balance != 100 {
		t.Fatalf("balance after double reject = %v, want 100", fresh.Balance)
	}
	var refunds int64
	db.Model(&models.BalanceChange{}).Where("reason = ?", models.ReasonWithdrawRefund).Count(&refunds)
	if refunds != 1 {
		t.Fatalf("refund rows = %d, want exactly 1", refunds)
	}
}

func TestApproveWithdrawal_ZeroDeltaMarker(t *testing.T) {
	db := newLedgerDB(t)
	l := NewLedger(db)
	u := seedUser(t, db, 100)

	wd, err := l.SubmitWithdrawal(u.ID, 40, "bank", "Juan", "1234567890")
	if err != nil {
		t.Fatalf("SubmitWithdrawal: %v", err)
	}
	approved, err := l.ApproveWithdrawal(wd.ID, nil)
	if err != nil {
		t.Fatalf("ApproveWithdrawal: %v", err)
	}
	if approved.Status != "Approved" {
		t.Fatalf("status = %q, want Approved", approved.Status)
	}

	// funds left at submission; approval only appends the marker row
	var fresh models.User
	db.First(&fresh, u.ID)
	if fresh.Balance != 60 {
		t.Fatalf("balance = %v, want 60", fresh.Balance)
	}
	var marker models.BalanceChange
	if err := db.Where("reference = ?", "approved:"+wd.Reference).First(&marker).Error; err != nil {
		t.Fatalf("marker row missing: %v", err)
	}
	if marker.ChangeAmount != 0 || marker.BeforeBalance != marker.AfterBalance {
		t.Fatalf("marker row must be zero-delta, got %v/%v/%v",
			marker.BeforeBalance, marker.AfterBalance, marker.ChangeAmount)
	}

	if _, err := l.ApproveWithdrawal(wd.ID, nil); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("second approve err = %v, want ErrAlreadyReviewed", err)
	}
}
