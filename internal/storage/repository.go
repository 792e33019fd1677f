package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"smartspend/internal/core"

	_ "modernc.org/sqlite"
)

// Sync states of a stored transaction.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

const (
	// MaxSyncAttempts is how many failed remote writes a row gets before
	// the worker stops retrying it.
	MaxSyncAttempts = 5
	// ClaimTTL bounds how long a claim holds a row. A worker that dies
	// mid-sync releases its rows once the claim expires.
	ClaimTTL = 5 * time.Minute
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// StoredTransaction is a transaction row with its bookkeeping columns.
type StoredTransaction struct {
	ID          int64
	Kind        core.Kind
	Transaction core.Transaction
	Version      int64
	SyncStatus   string
	SyncAttempts int
	CreatedAt    time.Time
}

// PendingSync is the minimal data needed to enqueue a sync message.
type PendingSync struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateTransaction validates and inserts a transaction, returning its row ID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, kind core.Kind, tx core.Transaction) (int64, error) {
	if err := kind.Validate(); err != nil {
		return 0, err
	}
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (kind, year, month, day, amount, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(kind), tx.Year, tx.Month, tx.Day, tx.Amount, tx.Description, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"kind", kind,
		"year", tx.Year,
		"month", tx.Month,
		"amount", tx.Amount)

	return id, nil
}

// GetTransaction retrieves a single transaction by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*StoredTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kind, year, month, day, amount, description, version, sync_status, sync_attempts, created_at
		 FROM transactions WHERE id = ?`, id)

	st, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return st, nil
}

// ListTransactions returns every stored transaction of the given kind.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, kind core.Kind) ([]core.Transaction, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, year, month, day, amount, description, version, sync_status, sync_attempts, created_at
		 FROM transactions WHERE kind = ? ORDER BY id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s transactions: %w", kind, err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		st, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, st.Transaction)
	}
	return out, rows.Err()
}

// GetPendingSync returns up to limit transactions not yet mirrored remotely,
// oldest first. Failed rows are included until they run out of attempts;
// rows under a live claim are not.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM transactions
		 WHERE sync_status IN (?, ?) AND sync_attempts < ?
		   AND (claimed_at IS NULL OR claimed_at <= ?)
		 ORDER BY created_at, id LIMIT ?`,
		SyncPending, SyncError, MaxSyncAttempts, r.claimCutoff(), limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var p PendingSync
		var created int64
		if err := rows.Scan(&p.ID, &p.Version, &created); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		p.CreatedAt = time.Unix(created, 0)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ClaimForSync takes the row for one sync attempt. It reports false when the
// row is already synced, out of attempts, or claimed by someone else.
func (r *SQLiteRepository) ClaimForSync(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET claimed_at = ?
		 WHERE id = ? AND sync_status IN (?, ?) AND sync_attempts < ?
		   AND (claimed_at IS NULL OR claimed_at <= ?)`,
		r.now().Unix(), id, SyncPending, SyncError, MaxSyncAttempts, r.claimCutoff())
	if err != nil {
		return false, fmt.Errorf("claim transaction for sync: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim transaction for sync: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) claimCutoff() int64 {
	return r.now().Add(-ClaimTTL).Unix()
}

// MarkSynced marks a transaction as successfully mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id,
		`UPDATE transactions SET sync_status = ?, claimed_at = NULL WHERE id = ?`, SyncSynced); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as failed to mirror and counts the attempt.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id,
		`UPDATE transactions SET sync_status = ?, sync_attempts = sync_attempts + 1, claimed_at = NULL
		 WHERE id = ?`, SyncError); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id int64, query, status string) error {
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// CreateUser inserts a user. A duplicate email returns core.ErrEmailTaken.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.CreatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	slog.InfoContext(ctx, "User saved to SQLite", "id", u.ID)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*StoredTransaction, error) {
	var (
		st      StoredTransaction
		kind    string
		created int64
	)
	err := row.Scan(&st.ID, &kind,
		&st.Transaction.Year, &st.Transaction.Month, &st.Transaction.Day,
		&st.Transaction.Amount, &st.Transaction.Description,
		&st.Version, &st.SyncStatus, &st.SyncAttempts, &created)
	if err != nil {
		return nil, err
	}
	st.Kind = core.Kind(kind)
	st.CreatedAt = time.Unix(created, 0)
	return &st, nil
}

// Ref formats a row ID as the reference string returned to callers.
func Ref(id int64) string {
	return strconv.FormatInt(id, 10)
}
