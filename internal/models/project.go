package models

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/authz"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectPaused    ProjectStatus = "PAUSED"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectPaused:
		return true
	}
	return false
}

// Project groups accounts, transactions and a membership list.
type Project struct {
	ID        uuid.UUID
	Name      string
	Status    ProjectStatus
	Budget    decimal.Decimal
	Currency  string
	Members   []authz.Member
	CreatedAt time.Time
}

var _ authz.Scope = (*Project)(nil)

// ProjectMembers implements authz.Scope. A nil project has no members.
func (p *Project) ProjectMembers() []authz.Member {
	if p == nil {
		return nil
	}
	return p.Members
}

// Member returns the membership of userID, if any.
func (p *Project) Member(userID uuid.UUID) (authz.Member, bool) {
	if p == nil {
		return authz.Member{}, false
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return authz.Member{}, false
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	if p.Members != nil {
		out.Members = append([]authz.Member(nil), p.Members...)
	}
	return out
}
