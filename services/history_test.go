package services

import (
	"errors"
	"testing"
	"time"

	"questa/models"
)

func TestMergeHistory_SuppressesWithdrawLedgerRows(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	changes := []models.BalanceChange{
		{Reference: "QST-1", ChangeAmount: 50, Reason: models.ReasonTaskReward, CreatedAt: base},
		{Reference: "QST-2", ChangeAmount: -30, Reason: models.ReasonWithdraw, CreatedAt: base.Add(time.Minute)},
		{Reference: "approved:QST-2", ChangeAmount: 0, Reason: models.ReasonWithdrawApproved, CreatedAt: base.Add(2 * time.Minute)},
		{Reference: "refund:QST-3", ChangeAmount: 20, Reason: models.ReasonWithdrawRefund, CreatedAt: base.Add(3 * time.Minute)},
	}
	withdrawals := []models.Withdrawal{
		{Reference: "QST-2", Amount: 30, Method: "gcash", AccountNumber: "09171234567", Status: "Approved", CreatedAt: base.Add(time.Minute)},
	}

	entries := MergeHistory(changes, withdrawals)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(entries), entries)
	}
	for _, e := range entries {
		if e.Type == "balance_change" && (e.Reason == models.ReasonWithdraw || e.Reason == models.ReasonWithdrawApproved) {
			t.Errorf("ledger row %q should have been suppressed", e.Reference)
		}
	}
	// newest first
	if entries[0].Reference != "refund:QST-3" {
		t.Errorf("entries[0] = %q, want the refund row first", entries[0].Reference)
	}
	// the withdrawal row carries the debit with its review status
	var found bool
	for _, e := range entries {
		if e.Type == "withdrawal" && e.Reference == "QST-2" {
			found = true
			if e.Amount != -30 {
				t.Errorf("withdrawal amount = %v, want -30", e.Amount)
			}
			if e.Status != "Approved" {
				t.Errorf("withdrawal status = %q, want Approved", e.Status)
			}
		}
	}
	if !found {
		t.Error("withdrawal row missing from merged history")
	}
}

func TestMergeHistory_Dedupes(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	row := models.BalanceChange{Reference: "QST-9", ChangeAmount: 10, Reason: models.ReasonTaskReward, CreatedAt: base}

	entries := MergeHistory([]models.BalanceChange{row, row}, nil)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
}

func TestReplayBalance_FoldsInOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	changes := []models.BalanceChange{
		{ID: 3, ChangeAmount: 25.50, CreatedAt: base.Add(2 * time.Minute)},
		{ID: 1, ChangeAmount: 100, CreatedAt: base},
		{ID: 2, ChangeAmount: -30.25, CreatedAt: base.Add(time.Minute)},
	}
	if got := ReplayBalance(changes); got != 95.25 {
		t.Fatalf("replayed = %v, want 95.25", got)
	}
	if got := ReplayBalance(nil); got != 0 {
		t.Fatalf("empty replay = %v, want 0", got)
	}
}

func TestPageHistory(t *testing.T) {
	entries := make([]HistoryEntry, 25)
	page, totalPages := PageHistory(entries, 2, 10)
	if len(page) != 10 || totalPages != 3 {
		t.Fatalf("page 2 = %d rows, %d pages; want 10 rows, 3 pages", len(page), totalPages)
	}
	page, _ = PageHistory(entries, 3, 10)
	if len(page) != 5 {
		t.Fatalf("last page = %d rows, want 5", len(page))
	}
	page, _ = PageHistory(entries, 9, 10)
	if len(page) != 0 {
		t.Fatalf("past-the-end page = %d rows, want 0", len(page))
	}
}

func TestValidateWithdrawalRequest(t *testing.T) {
	cases := []struct {
		name    string
		amount  float64
		method  string
		accName string
		accNum  string
		want    error
	}{
		{"valid", 100, "gcash", "Juan Dela Cruz", "09171234567", nil},
		{"method case-insensitive", 100, " GCash ", "Juan", "0917", nil},
		{"zero amount", 0, "gcash", "Juan", "0917", ErrInvalidAmount},
		{"negative amount", -5, "gcash", "Juan", "0917", ErrInvalidAmount},
		{"unknown method", 100, "paypal", "Juan", "0917", ErrInvalidMethod},
		{"blank account name", 100, "bank", "  ", "0917", ErrInvalidAccount},
		{"blank account number", 100, "bank", "Juan", "", ErrInvalidAccount},
	}
	for _, tc := range cases {
		err := ValidateWithdrawalRequest(tc.amount, tc.method, tc.accName, tc.accNum)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}
