package reference

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
	"github.com/carson-networks/project-ledger/internal/storage/pgerr"
)

var activityColumns = []string{"id", "actor_id", "action", "entity_type", "entity_id", "details", "occurred_at"}

type activityRow struct {
	ID         uuid.UUID `db:"id"`
	ActorID    uuid.UUID `db:"actor_id"`
	Action     string    `db:"action"`
	EntityType string    `db:"entity_type"`
	EntityID   uuid.UUID `db:"entity_id"`
	Details    []byte    `db:"details"`
	Timestamp  time.Time `db:"occurred_at"`
}

func (r activityRow) toModel() (*models.ActivityLog, error) {
	entry := &models.ActivityLog{
		ID:         r.ID,
		ActorID:    r.ActorID,
		Action:     r.Action,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Timestamp:  r.Timestamp,
	}
	if len(r.Details) > 0 {
		if err := json.Unmarshal(r.Details, &entry.Details); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

type Activity struct {
	exec bob.Executor
}

var _ storage.ActivityWriter = (*Activity)(nil)

func NewActivity(exec bob.Executor) *Activity {
	return &Activity{exec: exec}
}

// List returns the newest entries first.
func (a *Activity) List(ctx context.Context, filter *storage.ActivityFilter) ([]*models.ActivityLog, error) {
	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(activityColumns...),
		sm.From("activity_logs"),
		sm.OrderBy("occurred_at").Desc(),
		sm.OrderBy("id").Asc(),
	}
	if filter != nil {
		if filter.EntityID != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote("entity_id").EQ(psql.Arg(*filter.EntityID))))
		}
		if filter.Limit > 0 {
			queryMods = append(queryMods, sm.Limit(filter.Limit))
		}
	}
	rows, err := bob.All(ctx, a.exec, psql.Select(queryMods...), scan.StructMapper[activityRow]())
	if err != nil {
		return nil, err
	}
	out := make([]*models.ActivityLog, 0, len(rows))
	for _, r := range rows {
		entry, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (a *Activity) Insert(ctx context.Context, entry *models.ActivityLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	q := psql.Insert(
		im.Into("activity_logs", activityColumns...),
		im.Values(
			psql.Arg(entry.ID),
			psql.Arg(entry.ActorID),
			psql.Arg(entry.Action),
			psql.Arg(entry.EntityType),
			psql.Arg(entry.EntityID),
			psql.Arg(string(details)),
			psql.Arg(entry.Timestamp),
		),
	)
	_, err = bob.Exec(ctx, a.exec, q)
	return pgerr.Translate(err)
}
