// Package memory is an in-process storage backend. Writers are serialized:
// a unit of work stages its changes on a private copy of the committed state
// and swaps it in on commit.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

var errFinished = errors.New("unit of work already finished")

type periodKey struct {
	fixedCostID uuid.UUID
	period      string
}

type state struct {
	accounts     map[uuid.UUID]models.Account
	transactions map[uuid.UUID]models.Transaction
	periods      map[periodKey]uuid.UUID
	projects     map[uuid.UUID]models.Project
	fixedCosts   map[uuid.UUID]models.FixedCost
	funds        map[uuid.UUID]models.Fund
	categories   map[string]models.MasterCategory
	users        map[uuid.UUID]models.User
	activity     []models.ActivityLog
}

func newState() *state {
	return &state{
		accounts:     make(map[uuid.UUID]models.Account),
		transactions: make(map[uuid.UUID]models.Transaction),
		periods:      make(map[periodKey]uuid.UUID),
		projects:     make(map[uuid.UUID]models.Project),
		fixedCosts:   make(map[uuid.UUID]models.FixedCost),
		funds:        make(map[uuid.UUID]models.Fund),
		categories:   make(map[string]models.MasterCategory),
		users:        make(map[uuid.UUID]models.User),
	}
}

// clone copies the maps. Values are cloned again on every read and write, so
// sharing them between states is safe.
func (s *state) clone() *state {
	out := &state{
		accounts:     make(map[uuid.UUID]models.Account, len(s.accounts)),
		transactions: make(map[uuid.UUID]models.Transaction, len(s.transactions)),
		periods:      make(map[periodKey]uuid.UUID, len(s.periods)),
		projects:     make(map[uuid.UUID]models.Project, len(s.projects)),
		fixedCosts:   make(map[uuid.UUID]models.FixedCost, len(s.fixedCosts)),
		funds:        make(map[uuid.UUID]models.Fund, len(s.funds)),
		categories:   make(map[string]models.MasterCategory, len(s.categories)),
		users:        make(map[uuid.UUID]models.User, len(s.users)),
		activity:     append([]models.ActivityLog(nil), s.activity...),
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.transactions {
		out.transactions[k] = v
	}
	for k, v := range s.periods {
		out.periods[k] = v
	}
	for k, v := range s.projects {
		out.projects[k] = v
	}
	for k, v := range s.fixedCosts {
		out.fixedCosts[k] = v
	}
	for k, v := range s.funds {
		out.funds[k] = v
	}
	for k, v := range s.categories {
		out.categories[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	return out
}

// access runs fn against a state.
type access func(fn func(st *state) error) error

// Store holds the committed state.
type Store struct {
	sem       chan struct{}
	mu        sync.RWMutex
	committed *state
}

var _ storage.Backend = (*Store)(nil)

func New() *Store {
	return &Store{
		sem:       make(chan struct{}, 1),
		committed: newState(),
	}
}

// NewStorage returns a storage.Storage backed by a fresh in-memory store.
func NewStorage() *storage.Storage {
	return storage.NewStorage(New())
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.committed)
}

func (s *Store) Reader() *storage.Reader {
	return &storage.Reader{
		Accounts:     &accounts{with: s.read},
		Transactions: &transactions{with: s.read},
		Projects:     &projects{with: s.read},
		FixedCosts:   &fixedCosts{with: s.read},
		Funds:        &funds{with: s.read},
		Categories:   &categories{with: s.read},
		Users:        &users{with: s.read},
		Activity:     &activity{with: s.read},
	}
}

// Begin waits for the previous unit of work to finish, or for ctx to end.
func (s *Store) Begin(ctx context.Context) (*storage.Writer, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	staged := s.committed.clone()
	s.mu.RUnlock()

	var once sync.Once
	finished := false
	release := func() {
		once.Do(func() {
			finished = true
			<-s.sem
		})
	}

	write := func(fn func(st *state) error) error {
		if finished {
			return errFinished
		}
		return fn(staged)
	}

	commit := func(_ context.Context) error {
		if finished {
			return errFinished
		}
		s.mu.Lock()
		s.committed = staged
		s.mu.Unlock()
		release()
		return nil
	}
	rollback := func(_ context.Context) error {
		release()
		return nil
	}

	return storage.NewWriter(storage.Writer{
		Account:     &accounts{with: write},
		Transaction: &transactions{with: write},
		Project:     &projects{with: write},
		FixedCost:   &fixedCosts{with: write},
		Fund:        &funds{with: write},
		Category:    &categories{with: write},
		User:        &users{with: write},
		Activity:    &activity{with: write},
	}, commit, rollback), nil
}

func (s *Store) Close() error {
	return nil
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func containsID(ids []uuid.UUID, id *uuid.UUID) bool {
	if id == nil {
		return false
	}
	for _, candidate := range ids {
		if candidate == *id {
			return true
		}
	}
	return false
}
