package models

// Category groups expenses for display and budgeting. Categories carry no
// delete tombstone: deletion is a local-only operation guarded by checking
// that no non-deleted expense references the category.
type Category struct {
	Envelope
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	IsDefault bool   `json:"is_default"`
}

// Clone returns an independent copy of the category.
func (c *Category) Clone() *Category {
	cp := *c
	cp.LastSyncedAt = cloneTime(c.LastSyncedAt)
	return &cp
}
