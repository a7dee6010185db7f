// Package models holds the ledger's persisted records.
package models

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Account is a currency-denominated balance, owned by at most one project.
type Account struct {
	ID             uuid.UUID
	Name           string
	Currency       string
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	ProjectID      *uuid.UUID
	IsLocked       bool
	CreatedAt      time.Time
}

// Clone returns a deep copy of the account.
func (a Account) Clone() Account {
	out := a
	out.ProjectID = cloneID(a.ProjectID)
	return out
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// SameID reports whether two optional ids are equal.
func SameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
