// Package postgres wires the bob entity tables into a storage backend.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/project-ledger/internal/config"
	"github.com/carson-networks/project-ledger/internal/storage"
	"github.com/carson-networks/project-ledger/internal/storage/account"
	"github.com/carson-networks/project-ledger/internal/storage/fixedcost"
	"github.com/carson-networks/project-ledger/internal/storage/project"
	"github.com/carson-networks/project-ledger/internal/storage/reference"
	"github.com/carson-networks/project-ledger/internal/storage/transaction"
	"github.com/carson-networks/project-ledger/migrations"
)

// ConnectionString builds the lib/pq URL for env.
func ConnectionString(env *config.Config) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(env.PostgresUsername, env.PostgresPassword),
		Host:     env.PostgresAddress + ":" + env.PostgresPort,
		Path:     "/" + env.PostgresDB,
		RawQuery: "sslmode=" + env.PostgresSSLMode,
	}
	return u.String()
}

// Open connects and pings the database.
func Open(ctx context.Context, env *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", ConnectionString(env))
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

type Backend struct {
	raw *sql.DB
	db  bob.DB
}

var _ storage.Backend = (*Backend)(nil)

func New(db *sql.DB) *Backend {
	return &Backend{raw: db, db: bob.NewDB(db)}
}

// NewStorage returns a storage.Storage backed by db.
func NewStorage(db *sql.DB) *storage.Storage {
	return storage.NewStorage(New(db))
}

func (b *Backend) Reader() *storage.Reader {
	return &storage.Reader{
		Accounts:     account.NewReader(b.db),
		Transactions: transaction.NewReader(b.db),
		Projects:     project.NewReader(b.db),
		FixedCosts:   fixedcost.NewReader(b.db),
		Funds:        reference.NewFunds(b.db),
		Categories:   reference.NewCategories(b.db),
		Users:        reference.NewUsers(b.db),
		Activity:     reference.NewActivity(b.db),
	}
}

func (b *Backend) Begin(ctx context.Context) (*storage.Writer, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return storage.NewWriter(storage.Writer{
		Account:     account.NewWriter(tx),
		Transaction: transaction.NewWriter(tx),
		Project:     project.NewWriter(tx),
		FixedCost:   fixedcost.NewWriter(tx),
		Fund:        reference.NewFunds(tx),
		Category:    reference.NewCategories(tx),
		User:        reference.NewUsers(tx),
		Activity:    reference.NewActivity(tx),
	}, tx.Commit, tx.Rollback), nil
}

func (b *Backend) Close() error {
	return b.raw.Close()
}

// Migrate applies every embedded migration that has not run yet.
func Migrate(db *sql.DB, logger *logrus.Logger) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("iofs.New: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("postgres.WithInstance: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate.NewWithInstance: %w", err)
	}

	preMigrationVersion, _, err := m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		preMigrationVersion = 0
	} else if err != nil {
		return fmt.Errorf("m.Version.preMigrationVersion: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("m.Up: %w", err)
	}

	postMigrationVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("m.Version.postMigrationVersion: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"preMigrationVersion":  preMigrationVersion,
		"postMigrationVersion": postMigrationVersion,
	}).Info("Migration status")
	return nil
}
