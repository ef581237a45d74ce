package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/williamn/expense-assistant/pkg/models"
)

// SQLiteStore is a SQLite-based implementation of the receipt store
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL for concurrent reads during writes, busy timeout instead of
	// immediate SQLITE_BUSY, single writer connection
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		stored_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_receipts_user ON receipts(user_id);
	CREATE INDEX IF NOT EXISTS idx_receipts_session ON receipts(user_id, session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// PutReceipt creates or replaces a receipt record
func (s *SQLiteStore) PutReceipt(ctx context.Context, receipt *models.Receipt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO receipts (id, user_id, session_id, mime_type, size_bytes, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			session_id = excluded.session_id,
			mime_type = excluded.mime_type,
			size_bytes = excluded.size_bytes,
			stored_at = excluded.stored_at`,
		receipt.ID, receipt.UserID, receipt.SessionID, receipt.MIMEType,
		receipt.SizeBytes, receipt.StoredAt)
	if err != nil {
		return fmt.Errorf("failed to store receipt: %w", err)
	}
	return nil
}

// GetReceipt retrieves a receipt by ID
func (s *SQLiteStore) GetReceipt(ctx context.Context, id string) (*models.Receipt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, session_id, mime_type, size_bytes, stored_at
		FROM receipts WHERE id = ?`, id)

	var r models.Receipt
	err := row.Scan(&r.ID, &r.UserID, &r.SessionID, &r.MIMEType, &r.SizeBytes, &r.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query receipt: %w", err)
	}
	return &r, nil
}

// ListReceiptsByUser returns all receipts for a user, newest first
func (s *SQLiteStore) ListReceiptsByUser(ctx context.Context, userID string) ([]*models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, session_id, mime_type, size_bytes, stored_at
		FROM receipts WHERE user_id = ? ORDER BY stored_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()
	return scanReceipts(rows)
}

// ListReceiptsBySession returns all receipts for a user session, newest first
func (s *SQLiteStore) ListReceiptsBySession(ctx context.Context, userID, sessionID string) ([]*models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, session_id, mime_type, size_bytes, stored_at
		FROM receipts WHERE user_id = ? AND session_id = ? ORDER BY stored_at DESC`,
		userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()
	return scanReceipts(rows)
}

func scanReceipts(rows *sql.Rows) ([]*models.Receipt, error) {
	receipts := make([]*models.Receipt, 0)
	for rows.Next() {
		var r models.Receipt
		if err := rows.Scan(&r.ID, &r.UserID, &r.SessionID, &r.MIMEType, &r.SizeBytes, &r.StoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, &r)
	}
	return receipts, rows.Err()
}

// DeleteReceipt removes a receipt record
func (s *SQLiteStore) DeleteReceipt(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

// HealthCheck pings the database
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
