package project

import (
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// Member is the API form of a project membership.
type Member struct {
	UserID      string   `json:"userID" doc:"User UUID"`
	Role        string   `json:"role" doc:"OWNER, MANAGER, MEMBER or VIEWER"`
	Permissions []string `json:"permissions" doc:"Permissions the member holds on this project"`
	Customized  bool     `json:"customized" doc:"Whether permissions differ from the role default"`
	JoinedAt    string   `json:"joinedAt,omitempty" doc:"RFC3339 time the member joined"`
}

// Project is the API response model for a project.
type Project struct {
	ID        string   `json:"id" doc:"Project UUID"`
	Name      string   `json:"name" doc:"Project name"`
	Status    string   `json:"status" doc:"ACTIVE, PAUSED or COMPLETED"`
	Budget    string   `json:"budget" doc:"Decimal budget in the project currency"`
	Currency  string   `json:"currency" doc:"ISO 4217 code of the budget"`
	Members   []Member `json:"members" doc:"Membership list"`
	CreatedAt string   `json:"createdAt" doc:"RFC3339 creation time"`
}

// MemberFromModel converts a membership into its API form.
func MemberFromModel(m authz.Member) Member {
	return Member{
		UserID:      m.UserID.String(),
		Role:        string(m.Role),
		Permissions: m.Permissions.Strings(),
		Customized:  m.IsCustomized(),
		JoinedAt:    shared.FormatTime(m.JoinedAt),
	}
}

// FromModel converts a stored project into its API form.
func FromModel(p models.Project) Project {
	out := Project{
		ID:        p.ID.String(),
		Name:      p.Name,
		Status:    string(p.Status),
		Budget:    p.Budget.String(),
		Currency:  p.Currency,
		Members:   make([]Member, len(p.Members)),
		CreatedAt: shared.FormatTime(p.CreatedAt),
	}
	for i, m := range p.Members {
		out.Members[i] = MemberFromModel(m)
	}
	return out
}
