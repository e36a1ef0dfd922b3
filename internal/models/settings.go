package models

// Settings is the single per-user preferences record. It is never tombstoned,
// only overwritten.
type Settings struct {
	Envelope
	Currency      string `json:"currency"`
	WeekStartDay  int    `json:"week_start_day"`
	MonthStartDay int    `json:"month_start_day"`
	Theme         string `json:"theme"`
	ShowDecimals  bool   `json:"show_decimals"`
}

// Clone returns an independent copy of the settings record.
func (s *Settings) Clone() *Settings {
	cp := *s
	cp.LastSyncedAt = cloneTime(s.LastSyncedAt)
	return &cp
}

// DefaultSettings returns the settings a fresh device starts with.
func DefaultSettings() *Settings {
	return &Settings{
		Currency:      "EUR",
		WeekStartDay:  1,
		MonthStartDay: 1,
		Theme:         "system",
		ShowDecimals:  true,
	}
}
