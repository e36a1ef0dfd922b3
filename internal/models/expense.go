package models

import "time"

// Expense is a single spending record. Deletion is a tombstone (Deleted
// flag), not row removal, so the deletion itself can be propagated and is not
// resurrected by a stale remote copy.
type Expense struct {
	Envelope
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
	OriginalAmount   *float64  `json:"original_amount,omitempty"`
	OriginalCurrency string    `json:"original_currency,omitempty"`
	CategoryID       string    `json:"category_id"`
	Description      string    `json:"description"`
	Date             time.Time `json:"date"`
	ReceiptKey       string    `json:"receipt_key,omitempty"`
}

// Clone returns an independent copy of the expense.
func (x *Expense) Clone() *Expense {
	c := *x
	c.LastSyncedAt = cloneTime(x.LastSyncedAt)
	c.OriginalAmount = cloneFloat(x.OriginalAmount)
	return &c
}
