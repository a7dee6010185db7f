package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/activity"
	"github.com/carson-networks/project-ledger/internal/attachment"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/operator/actions"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// Processor runs an action inside a single storage write.
type Processor interface {
	Process(ctx context.Context, action actions.IAction) error
}

// Recorder receives fire-and-forget activity entries.
type Recorder interface {
	Record(actorID uuid.UUID, action, entityType string, entityID uuid.UUID, details map[string]string)
}

var _ Recorder = (*activity.Recorder)(nil)

// Deps are the collaborators shared by every service.
type Deps struct {
	Storage       *storage.Storage
	Operator      Processor
	Activity      Recorder
	Rates         currency.Provider
	Uploader      attachment.Uploader
	Thresholds    currency.Thresholds
	BaseCurrency  string
	WatchlistSize int
	Logger        *logrus.Logger
	Now           func() time.Time
}

// Service holds all business logic services.
type Service struct {
	Transaction *TransactionService
	Transfer    *TransferService
	Account     *AccountService
	Project     *ProjectService
	Reference   *ReferenceService
	FixedCost   *FixedCostService
	Report      *ReportService
}

// NewService creates a new Service from deps.
func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Activity == nil {
		deps.Activity = nopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	b := &base{deps: deps}
	return &Service{
		Transaction: &TransactionService{base: b},
		Transfer:    &TransferService{base: b},
		Account:     &AccountService{base: b},
		Project:     &ProjectService{base: b},
		Reference:   &ReferenceService{base: b},
		FixedCost:   &FixedCostService{base: b},
		Report:      &ReportService{base: b},
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(uuid.UUID, string, string, uuid.UUID, map[string]string) {}

type base struct {
	deps Deps
}

func (b *base) now() time.Time {
	return b.deps.Now().UTC()
}

func (b *base) read() *storage.Reader {
	return b.deps.Storage.Read
}

func (b *base) logger() *logrus.Logger {
	return b.deps.Logger
}

// process runs action on the operator and normalizes the error.
func (b *base) process(ctx context.Context, action actions.IAction) error {
	if err := b.deps.Operator.Process(ctx, action); err != nil {
		return translate(err)
	}
	return nil
}

func (b *base) record(actor authz.Principal, action, entityType string, entityID uuid.UUID, details map[string]string) {
	b.deps.Activity.Record(actor.UserID, action, entityType, entityID, details)
}

// translate turns storage and infrastructure failures into domain errors.
// Domain errors pass through untouched.
func translate(err error) error {
	if err == nil || domainerr.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, storage.ErrConflict) {
		return domainerr.Validation("", "conflicts with an existing record")
	}
	return domainerr.Upstream("storage", err)
}

// lookup translates a read error for entity id.
func lookup(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domainerr.NotFound(entity, id)
	}
	return translate(err)
}

// scope lists the projects where actor holds perm. all is true for
// administrators, who also see records without a project.
type scope struct {
	all bool
	ids []uuid.UUID
}

func (s scope) allows(projectID *uuid.UUID) bool {
	if s.all {
		return true
	}
	if projectID == nil {
		return false
	}
	for _, id := range s.ids {
		if id == *projectID {
			return true
		}
	}
	return false
}

// narrow restricts the scope to requested, failing when any requested
// project is outside it.
func (s scope) narrow(requested []uuid.UUID, perm authz.Permission) (scope, error) {
	if len(requested) == 0 {
		return s, nil
	}
	for _, id := range requested {
		id := id
		if !s.allows(&id) {
			return scope{}, domainerr.PermissionDenied(string(perm))
		}
	}
	return scope{ids: requested}, nil
}

func (b *base) scopeFor(ctx context.Context, actor authz.Principal, perm authz.Permission) (scope, error) {
	if actor.IsAdmin {
		return scope{all: true}, nil
	}
	projects, err := b.read().Projects.List(ctx)
	if err != nil {
		return scope{}, translate(err)
	}
	allowed := authz.ProjectsWithPermission(actor, projects, perm)
	ids := make([]uuid.UUID, len(allowed))
	for i, p := range allowed {
		ids[i] = p.ID
	}
	return scope{ids: ids}, nil
}

// checkPermission resolves perm against the committed state of projectID.
// Actions re-check under lock; this early check keeps side effects such as
// uploads from happening for callers who will be refused anyway.
func (b *base) checkPermission(ctx context.Context, actor authz.Principal, projectID *uuid.UUID, perm authz.Permission) error {
	if actor.IsAdmin {
		return nil
	}
	if projectID == nil {
		return domainerr.PermissionDenied(string(perm))
	}
	p, err := b.read().Projects.FindByID(ctx, *projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domainerr.PermissionDenied(string(perm))
		}
		return translate(err)
	}
	if !authz.HasPermission(actor, p, perm) {
		return domainerr.PermissionDenied(string(perm))
	}
	return nil
}

// Cursor identifies a position in a paginated result set.
type Cursor struct {
	Position int
	Limit    int
}

const (
	defaultLimit = 20
	maxLimit     = 200
)

func (c *Cursor) bounds() (limit, offset int) {
	limit = defaultLimit
	if c != nil {
		if c.Limit > 0 {
			limit = c.Limit
		}
		offset = c.Position
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, offset
}

// page trims rows fetched with limit+1 and returns the next cursor, if any.
func page[T any](rows []T, limit, offset int) ([]T, *Cursor) {
	if len(rows) <= limit {
		return rows, nil
	}
	return rows[:limit], &Cursor{Position: offset + limit, Limit: limit}
}
