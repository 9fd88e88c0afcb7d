package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/checkin/internal/participant"
)

//go:embed schema_postgres.sql
var postgresSchema string

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Postgres stores participants in PostgreSQL through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool. Call Migrate before first use.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the participants table and its indexes if missing.
func (r *Postgres) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (r *Postgres) List(ctx context.Context) ([]participant.Participant, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+selectColumns+" FROM participants ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[participant.Participant])
	if err != nil {
		return nil, fmt.Errorf("scan participants: %w", err)
	}
	return list, nil
}

func (r *Postgres) Create(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	created, err := insertOne(ctx, r.pool, insertSQL(postgresPlaceholder, false), prepare(p))
	if err != nil {
		if isUniqueViolation(err) {
			return participant.Participant{}, fmt.Errorf("%w: %s", ErrDuplicate, p.Identity())
		}
		return participant.Participant{}, fmt.Errorf("insert participant: %w", err)
	}
	return created, nil
}

// CreateMany queues every insert in one batch inside a transaction. Inserts
// that hit the identity index return no row and count as skipped.
func (r *Postgres) CreateMany(ctx context.Context, records []participant.Participant) (BulkResult, error) {
	res := BulkResult{Created: make([]participant.Participant, 0, len(records))}
	if len(records) == 0 {
		return res, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := insertSQL(postgresPlaceholder, true)
	batch := &pgx.Batch{}
	for _, p := range records {
		batch.Queue(query, insertArgs(prepare(p))...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range records {
		rows, err := br.Query()
		if err != nil {
			br.Close()
			return BulkResult{}, fmt.Errorf("insert row %d: %w", i+1, err)
		}
		inserted, err := pgx.CollectRows(rows, pgx.RowToStructByName[participant.Participant])
		if err != nil {
			br.Close()
			return BulkResult{}, fmt.Errorf("insert row %d: %w", i+1, err)
		}
		if len(inserted) == 0 {
			res.Skipped++
			continue
		}
		res.Created = append(res.Created, inserted...)
	}
	if err := br.Close(); err != nil {
		return BulkResult{}, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return BulkResult{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func (r *Postgres) Update(ctx context.Context, id participant.Identity, patch participant.Patch) (int64, error) {
	query, args, ok := updateSQL(postgresPlaceholder, id, patch)
	if !ok {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		return 0, fmt.Errorf("update participant %s: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

func (r *Postgres) Delete(ctx context.Context, id participant.Identity) (int64, error) {
	where, args := identityWhere(postgresPlaceholder, id, 0)
	tag, err := r.pool.Exec(ctx, "DELETE FROM participants WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete participant %s: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

func (r *Postgres) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM participants")
	if err != nil {
		return 0, fmt.Errorf("delete all participants: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Postgres) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close is a no-op; the pool belongs to the caller.
func (r *Postgres) Close() error {
	return nil
}

func insertOne(ctx context.Context, db DBTX, query string, p participant.Participant) (participant.Participant, error) {
	rows, err := db.Query(ctx, query, insertArgs(p)...)
	if err != nil {
		return participant.Participant{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[participant.Participant])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
