package storage

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing row")
)

// AccountFilter specifies filters for listing accounts. AllProjects ignores
// ProjectIDs and also includes accounts without a project.
type AccountFilter struct {
	ProjectIDs  []uuid.UUID
	AllProjects bool
	Limit       int
	Offset      int
}

// TransactionFilter specifies filters for listing transactions. A zero Limit
// returns every matching row. From is inclusive, To exclusive.
type TransactionFilter struct {
	AccountID   *uuid.UUID
	ProjectIDs  []uuid.UUID
	AllProjects bool
	Status      *models.TransactionStatus
	Type        *models.TransactionType
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// FixedCostFilter specifies filters for listing fixed costs.
type FixedCostFilter struct {
	Status *models.FixedCostStatus
}

// ActivityFilter specifies filters for listing activity logs.
type ActivityFilter struct {
	EntityID *uuid.UUID
	Limit    int
}

type AccountReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	List(ctx context.Context, filter *AccountFilter) ([]*models.Account, error)
}

type AccountWriter interface {
	AccountReader
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Insert(ctx context.Context, account *models.Account) error
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	SetLocked(ctx context.Context, id uuid.UUID, locked bool) error
}

type TransactionReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, filter *TransactionFilter) ([]*models.Transaction, error)
}

type TransactionWriter interface {
	TransactionReader
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByFixedCostPeriod(ctx context.Context, fixedCostID uuid.UUID, period string) (*models.Transaction, error)
	Insert(ctx context.Context, tx *models.Transaction) error
	Update(ctx context.Context, tx *models.Transaction) error
}

type ProjectReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
}

type ProjectWriter interface {
	ProjectReader
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Insert(ctx context.Context, project *models.Project) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProjectStatus) error
	SaveMember(ctx context.Context, projectID uuid.UUID, member authz.Member) error
	DeleteMember(ctx context.Context, projectID, userID uuid.UUID) error
}

type FixedCostReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.FixedCost, error)
	List(ctx context.Context, filter *FixedCostFilter) ([]*models.FixedCost, error)
}

type FixedCostWriter interface {
	FixedCostReader
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.FixedCost, error)
	Insert(ctx context.Context, fc *models.FixedCost) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.FixedCostStatus) error
	UpdateLastGenerated(ctx context.Context, id uuid.UUID, period string) error
}

type FundReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Fund, error)
	List(ctx context.Context) ([]*models.Fund, error)
}

type FundWriter interface {
	FundReader
	Insert(ctx context.Context, fund *models.Fund) error
}

type CategoryReader interface {
	FindByName(ctx context.Context, name string) (*models.MasterCategory, error)
	List(ctx context.Context) ([]*models.MasterCategory, error)
}

type CategoryWriter interface {
	CategoryReader
	Insert(ctx context.Context, category *models.MasterCategory) error
}

type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

type UserWriter interface {
	UserReader
	Insert(ctx context.Context, user *models.User) error
}

type ActivityReader interface {
	List(ctx context.Context, filter *ActivityFilter) ([]*models.ActivityLog, error)
}

type ActivityWriter interface {
	ActivityReader
	Insert(ctx context.Context, entry *models.ActivityLog) error
}

// Reader reads committed state outside of any write transaction.
type Reader struct {
	Accounts     AccountReader
	Transactions TransactionReader
	Projects     ProjectReader
	FixedCosts   FixedCostReader
	Funds        FundReader
	Categories   CategoryReader
	Users        UserReader
	Activity     ActivityReader
}

// Writer is a single atomic unit of work. Every change made through it is
// applied on Commit or discarded on Rollback.
type Writer struct {
	Account     AccountWriter
	Transaction TransactionWriter
	Project     ProjectWriter
	FixedCost   FixedCostWriter
	Fund        FundWriter
	Category    CategoryWriter
	User        UserWriter
	Activity    ActivityWriter

	commit   func(ctx context.Context) error
	rollback func(ctx context.Context) error
}

// NewWriter binds entity writers to the unit of work's commit and rollback.
func NewWriter(w Writer, commit, rollback func(ctx context.Context) error) *Writer {
	w.commit = commit
	w.rollback = rollback
	return &w
}

func (w *Writer) Commit() error {
	return w.commit(context.Background())
}

func (w *Writer) Rollback() error {
	return w.rollback(context.Background())
}

// Backend is implemented by each persistence technology.
type Backend interface {
	Reader() *Reader
	Begin(ctx context.Context) (*Writer, error)
	Close() error
}

// Storage is the persistence collaborator handed to services and the operator.
type Storage struct {
	Read    *Reader
	backend Backend
}

func NewStorage(backend Backend) *Storage {
	return &Storage{
		Read:    backend.Reader(),
		backend: backend,
	}
}

// Write opens a new unit of work.
func (s *Storage) Write(ctx context.Context) (*Writer, error) {
	return s.backend.Begin(ctx)
}

func (s *Storage) Close() error {
	return s.backend.Close()
}
