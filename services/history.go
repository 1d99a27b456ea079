package services

import (
	"fmt"
	"sort"
	"time"

	"questa/models"
	"questa/utils"
)

// HistoryEntry is one row in the user-facing transaction list, built by
// merging ledger rows with withdrawal rows.
type HistoryEntry struct {
	Type      string               `json:"type"` // "balance_change" or "withdrawal"
	Reference string               `json:"reference"`
	Amount    float64              `json:"amount"`
	Reason    models.BalanceReason `json:"reason,omitempty"`
	Status    string               `json:"status,omitempty"`
	Detail    string               `json:"detail,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// MergeHistory merges BalanceChange and Withdrawal rows into one list.
// Ledger rows for the withdraw and withdraw-approved reasons are suppressed
// because the withdrawal row already carries that economic event with its
// status; refund rows are kept since no withdrawal row duplicates them.
// Results are deduplicated and sorted descending by timestamp.
func MergeHistory(changes []models.BalanceChange, withdrawals []models.Withdrawal) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(changes)+len(withdrawals))
	for _, c := range changes {
		if c.Reason == models.ReasonWithdraw || c.Reason == models.ReasonWithdrawApproved {
			continue
		}
		detail := ""
		if c.Metadata != nil {
			detail = *c.Metadata
		}
		entries = append(entries, HistoryEntry{
			Type:      "balance_change",
			Reference: c.Reference,
			Amount:    c.ChangeAmount,
			Reason:    c.Reason,
			Detail:    detail,
			CreatedAt: c.CreatedAt,
		})
	}
	for _, wd := range withdrawals {
		entries = append(entries, HistoryEntry{
			Type:      "withdrawal",
			Reference: wd.Reference,
			Amount:    -wd.Amount,
			Status:    wd.Status,
			Detail:    fmt.Sprintf("Withdrawal via %s to %s", wd.Method, utils.MaskAccountNumber(wd.AccountNumber)),
			CreatedAt: wd.CreatedAt,
		})
	}

	seen := make(map[string]bool, len(entries))
	deduped := entries[:0]
	for _, e := range entries {
		key := fmt.Sprintf("%s|%s|%.2f|%d", e.Type, e.Reference, e.Amount, e.CreatedAt.Unix())
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, e)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].CreatedAt.After(deduped[j].CreatedAt)
	})
	return deduped
}

// ReplayBalance folds ledger rows in timestamp order starting from zero.
// The result must equal the live wallet balance.
func ReplayBalance(changes []models.BalanceChange) float64 {
	ordered := make([]models.BalanceChange, len(changes))
	copy(ordered, changes)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	balance := 0.0
	for _, c := range ordered {
		balance = utils.Round2(balance + c.ChangeAmount)
	}
	return balance
}

// PageHistory slices a merged history list for display.
func PageHistory(entries []HistoryEntry, page, limit int) ([]HistoryEntry, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	totalPages := (len(entries) + limit - 1) / limit
	start := (page - 1) * limit
	if start >= len(entries) {
		return []HistoryEntry{}, totalPages
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end], totalPages
}
