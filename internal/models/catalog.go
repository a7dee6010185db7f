package models

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Fund is a reporting bucket transactions may reference. The ledger never mutates it.
type Fund struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// MasterCategory maps a category name to its reporting parent.
type MasterCategory struct {
	ID     uuid.UUID
	Name   string
	Parent string
}

// User is a caller of the ledger. IsAdmin bypasses project scoping.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	IsAdmin   bool
	CreatedAt time.Time
}

// ActivityLog is one entry of the append-only audit trail.
type ActivityLog struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Details    map[string]string
	Timestamp  time.Time
}

// Cycle is the recurrence of a fixed cost.
type Cycle string

const (
	CycleDaily   Cycle = "DAILY"
	CycleWeekly  Cycle = "WEEKLY"
	CycleMonthly Cycle = "MONTHLY"
	CycleYearly  Cycle = "YEARLY"
)

// Valid reports whether c is a known cycle.
func (c Cycle) Valid() bool {
	switch c {
	case CycleDaily, CycleWeekly, CycleMonthly, CycleYearly:
		return true
	}
	return false
}

// Period returns the period marker of t for the cycle. Two instants in the
// same period share a marker.
func (c Cycle) Period(t time.Time) (string, error) {
	t = t.UTC()
	switch c {
	case CycleDaily:
		return t.Format("2006-01-02"), nil
	case CycleWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case CycleMonthly:
		return t.Format("2006-01"), nil
	case CycleYearly:
		return t.Format("2006"), nil
	}
	return "", fmt.Errorf("unknown cycle %q", c)
}

// FixedCostStatus switches generation of a fixed cost on or off.
type FixedCostStatus string

const (
	FixedCostOn  FixedCostStatus = "ON"
	FixedCostOff FixedCostStatus = "OFF"
)

// FixedCost is a template the recurring job turns into PENDING transactions,
// at most once per period.
type FixedCost struct {
	ID            uuid.UUID
	Name          string
	Amount        decimal.Decimal
	Currency      string
	Cycle         Cycle
	Status        FixedCostStatus
	AccountID     uuid.UUID
	ProjectID     *uuid.UUID
	Category      string
	LastGenerated string
	CreatedAt     time.Time
}

// Clone returns a deep copy of the fixed cost.
func (f FixedCost) Clone() FixedCost {
	out := f
	out.ProjectID = cloneID(f.ProjectID)
	return out
}
