package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/client/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrCommitNotFound = errors.New("commit not found")

const schema = `
CREATE TABLE IF NOT EXISTS commit_log (
	id                 UUID PRIMARY KEY,
	current_product_id TEXT        NOT NULL,
	status             TEXT        NOT NULL,
	steps              JSONB       NOT NULL,
	started_at         TIMESTAMPTZ NOT NULL,
	finished_at        TIMESTAMPTZ NOT NULL
)`

// DBTX is the subset of pgxpool.Pool the repository needs
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CommitRepository keeps an audit trail of bundle commits, so a partially applied
// bundle can be reconstructed step by step.
type CommitRepository interface {
	SaveCommit(ctx context.Context, commit *domain.Commit) error
	GetCommit(ctx context.Context, commitID string) (*domain.Commit, error)
}

type commitRepository struct {
	db DBTX
}

func NewCommitRepository(db DBTX) CommitRepository {
	return &commitRepository{
		db: db,
	}
}

// EnsureSchema creates the commit_log table when missing
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create commit_log table: %w", err)
	}
	return nil
}

func (r *commitRepository) SaveCommit(ctx context.Context, commit *domain.Commit) error {
	steps, err := json.Marshal(commit.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode commit steps: %w", err)
	}

	query := `
	INSERT INTO commit_log (id, current_product_id, status, steps, started_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id)
	DO UPDATE SET status = $3, steps = $4, finished_at = $6`
	_, err = r.db.Exec(ctx, query,
		commit.ID,
		commit.CurrentProductID,
		string(commit.Status),
		steps,
		commit.StartedAt,
		commit.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save commit %s: %w", commit.ID, err)
	}

	return nil
}

func (r *commitRepository) GetCommit(ctx context.Context, commitID string) (*domain.Commit, error) {
	query := `
	SELECT id, current_product_id, status, steps, started_at, finished_at
	FROM commit_log
	WHERE id = $1`

	var (
		commit domain.Commit
		status string
		steps  []byte
	)
	err := r.db.QueryRow(ctx, query, commitID).Scan(
		&commit.ID,
		&commit.CurrentProductID,
		&status,
		&steps,
		&commit.StartedAt,
		&commit.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommitNotFound
		}
		return nil, fmt.Errorf("failed to load commit %s: %w", commitID, err)
	}

	commit.Status = domain.CommitStatus(status)
	if err := json.Unmarshal(steps, &commit.Steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps of commit %s: %w", commitID, err)
	}

	return &commit, nil
}
