package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvelope_Pending(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	synced := now.Add(-time.Minute)

	tests := []struct {
		name string
		env  Envelope
		want bool
	}{
		{"never synced", Envelope{ID: "a", UpdatedAt: now}, true},
		{"updated after sync", Envelope{ID: "a", UpdatedAt: now, LastSyncedAt: &synced}, true},
		{"synced after update", Envelope{ID: "a", UpdatedAt: synced, LastSyncedAt: &now}, false},
		{"synced exactly at update", Envelope{ID: "a", UpdatedAt: now, LastSyncedAt: &now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.env.Pending())
		})
	}
}

func TestEnvelope_Touch_StrictlyIncreases(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	e := Envelope{ID: "a"}
	e.Touch(now)
	assert.Equal(t, now, e.UpdatedAt)

	// Same instant again: the timestamp must still move forward.
	e.Touch(now)
	assert.True(t, e.UpdatedAt.After(now))

	// A clock running backwards must not rewind UpdatedAt.
	prev := e.UpdatedAt
	e.Touch(now.Add(-time.Hour))
	assert.True(t, e.UpdatedAt.After(prev))
}

func TestEnvelope_Valid(t *testing.T) {
	now := time.Now()
	assert.True(t, (&Envelope{ID: "a", UpdatedAt: now}).Valid())
	assert.False(t, (&Envelope{UpdatedAt: now}).Valid())
	assert.False(t, (&Envelope{ID: "a"}).Valid())
}

func TestExpense_Clone_Independent(t *testing.T) {
	now := time.Now()
	amt := 12.5
	x := &Expense{
		Envelope:       Envelope{ID: "e1", UpdatedAt: now},
		Amount:         20,
		Currency:       "EUR",
		OriginalAmount: &amt,
	}
	x.StampSynced(now)

	c := x.Clone()
	c.Amount = 99
	*c.OriginalAmount = 1
	c.StampSynced(now.Add(time.Hour))

	assert.Equal(t, 20.0, x.Amount)
	assert.Equal(t, 12.5, *x.OriginalAmount)
	assert.Equal(t, now, *x.LastSyncedAt)
}
