package models

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction relative to its account.
type TransactionType string

const (
	TransactionIn  TransactionType = "IN"
	TransactionOut TransactionType = "OUT"
)

// Valid reports whether t is IN or OUT.
func (t TransactionType) Valid() bool {
	return t == TransactionIn || t == TransactionOut
}

// TransactionStatus is the approval state of a transaction.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusRejected TransactionStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible from s.
func (s TransactionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// Transaction is one entry of the transaction log.
type Transaction struct {
	ID              uuid.UUID
	Type            TransactionType
	Amount          decimal.Decimal
	Currency        string
	Category        string
	ParentCategory  string
	Description     string
	AccountID       uuid.UUID
	ProjectID       *uuid.UUID
	FundID          *uuid.UUID
	Status          TransactionStatus
	CreatedBy       uuid.UUID
	ApprovedBy      *uuid.UUID
	RejectedBy      *uuid.UUID
	RejectionReason string
	Attachments     []string
	TransferRef     string
	FixedCostID     *uuid.UUID
	Period          string
	Date            time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DecidedAt       *time.Time
}

// Clone returns a deep copy of the transaction.
func (t Transaction) Clone() Transaction {
	out := t
	out.ProjectID = cloneID(t.ProjectID)
	out.FundID = cloneID(t.FundID)
	out.ApprovedBy = cloneID(t.ApprovedBy)
	out.RejectedBy = cloneID(t.RejectedBy)
	out.FixedCostID = cloneID(t.FixedCostID)
	if t.Attachments != nil {
		out.Attachments = append([]string(nil), t.Attachments...)
	}
	if t.DecidedAt != nil {
		v := *t.DecidedAt
		out.DecidedAt = &v
	}
	return out
}

// ReportingCategory is the grouping key used by reports: the parent category
// when present, otherwise the category itself.
func (t Transaction) ReportingCategory() string {
	if t.ParentCategory != "" {
		return t.ParentCategory
	}
	return t.Category
}

// SignedAmount returns +amount for IN and -amount for OUT.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionOut {
		return t.Amount.Neg()
	}
	return t.Amount
}
