package project

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/models"
)

const (
	tableName        = "projects"
	membersTableName = "project_members"
)

var (
	columns       = []string{"id", "name", "status", "budget", "currency", "created_at"}
	memberColumns = []string{"project_id", "user_id", "role", "permissions", "joined_at"}
)

type row struct {
	ID        uuid.UUID       `db:"id"`
	Name      string          `db:"name"`
	Status    string          `db:"status"`
	Budget    decimal.Decimal `db:"budget"`
	Currency  string          `db:"currency"`
	CreatedAt time.Time       `db:"created_at"`
}

type memberRow struct {
	ProjectID   uuid.UUID      `db:"project_id"`
	UserID      uuid.UUID      `db:"user_id"`
	Role        string         `db:"role"`
	Permissions pq.StringArray `db:"permissions"`
	JoinedAt    time.Time      `db:"joined_at"`
}

func (r row) toModel(members []authz.Member) *models.Project {
	return &models.Project{
		ID:        r.ID,
		Name:      r.Name,
		Status:    models.ProjectStatus(r.Status),
		Budget:    r.Budget,
		Currency:  r.Currency,
		Members:   members,
		CreatedAt: r.CreatedAt,
	}
}

// toMember drops permission names the current universe does not know, so a
// stored set is always a subset of it.
func (r memberRow) toMember() authz.Member {
	var perms authz.PermissionSet
	for _, name := range r.Permissions {
		if p, err := authz.ParsePermission(name); err == nil {
			perms = perms.With(p)
		}
	}
	return authz.Member{
		UserID:      r.UserID,
		Role:        authz.Role(r.Role),
		Permissions: perms,
		JoinedAt:    r.JoinedAt,
	}
}
