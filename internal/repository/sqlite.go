package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/checkin/internal/participant"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLite stores participants in a single database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite creates or opens the database at path and applies the schema.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Safe to call repeatedly on the same file.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (r *SQLite) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLite) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLite) List(ctx context.Context) ([]participant.Participant, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM participants ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var list []participant.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return list, nil
}

func (r *SQLite) Create(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	row := r.db.QueryRowContext(ctx, r.insertQuery(false), r.insertArgs(p)...)
	created, err := scanParticipant(row)
	if err != nil {
		if isConstraintUnique(err) {
			return participant.Participant{}, fmt.Errorf("%w: %s", ErrDuplicate, p.Identity())
		}
		return participant.Participant{}, fmt.Errorf("insert participant: %w", err)
	}
	return created, nil
}

func (r *SQLite) CreateMany(ctx context.Context, records []participant.Participant) (BulkResult, error) {
	res := BulkResult{Created: make([]participant.Participant, 0, len(records))}
	if len(records) == 0 {
		return res, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.insertQuery(true))
	if err != nil {
		return res, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range records {
		created, err := scanParticipant(stmt.QueryRowContext(ctx, r.insertArgs(p)...))
		if errors.Is(err, sql.ErrNoRows) {
			res.Skipped++
			continue
		}
		if err != nil {
			return BulkResult{}, fmt.Errorf("insert row %d: %w", i+1, err)
		}
		res.Created = append(res.Created, created)
	}

	if err := tx.Commit(); err != nil {
		return BulkResult{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func (r *SQLite) Update(ctx context.Context, id participant.Identity, patch participant.Patch) (int64, error) {
	query, args, ok := updateSQL(sqlitePlaceholder, id, patch)
	if !ok {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintUnique(err) {
			return 0, fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		return 0, fmt.Errorf("update participant %s: %w", id, err)
	}
	return result.RowsAffected()
}

func (r *SQLite) Delete(ctx context.Context, id participant.Identity) (int64, error) {
	where, args := identityWhere(sqlitePlaceholder, id, 0)
	result, err := r.db.ExecContext(ctx, "DELETE FROM participants WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete participant %s: %w", id, err)
	}
	return result.RowsAffected()
}

func (r *SQLite) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM participants")
	if err != nil {
		return 0, fmt.Errorf("delete all participants: %w", err)
	}
	return result.RowsAffected()
}

// insertQuery prepends created_at, which SQLite cannot default with
// sub-second precision.
func (r *SQLite) insertQuery(onConflict bool) string {
	q := insertSQL(sqlitePlaceholder, onConflict)
	q = strings.Replace(q, "INSERT INTO participants (", "INSERT INTO participants (created_at, ", 1)
	return strings.Replace(q, "VALUES (", "VALUES (?, ", 1)
}

func (r *SQLite) insertArgs(p participant.Participant) []any {
	return append([]any{r.now().UTC()}, insertArgs(prepare(p))...)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanParticipant(s scanner) (participant.Participant, error) {
	var p participant.Participant
	err := s.Scan(
		&p.ID, &p.CreatedAt,
		&p.RegistrantID, &p.RegistrationType, &p.FirstName, &p.LastName,
		&p.Email, &p.Phone, &p.Address, &p.City, &p.State, &p.Zip,
		&p.CheckedIn, &p.Attendees, &p.AdditionalFamily, &p.TotalPaid, &p.Shirts,
	)
	return p, err
}

func isConstraintUnique(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
