package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements domain.Store over database/sql. Queries use $N
// placeholders, which both lib/pq and modernc.org/sqlite accept.
type SQLStore struct {
	db     *sql.DB
	q      Querier
	logger *slog.Logger
}

// NewSQLStore creates a store backed by db
func NewSQLStore(db *sql.DB, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{db: db, q: db, logger: logger}
}

func (s *SQLStore) Users() domain.UserRepository {
	return NewUserRepository(s.q, s.logger)
}

func (s *SQLStore) Teams() domain.TeamRepository {
	return NewTeamRepository(s.q, s.logger)
}

func (s *SQLStore) Sites() domain.SiteRepository {
	return NewSiteRepository(s.q, s.logger)
}

func (s *SQLStore) Issues() domain.IssueRepository {
	return NewIssueRepository(s.q, s.logger)
}

// WithinTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&SQLStore{db: s.db, q: tx, logger: s.logger}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to roll back transaction",
				slog.String("error", rbErr.Error()),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var _ domain.Store = (*SQLStore)(nil)
