package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lumis-app/invoice-ocr/internal/entity"
)

const keyPrefix = "ocr_session:"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ocr_sessions (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ocr_sessions_expires ON ocr_sessions (expires_at);
`

// SQLiteStore implements Store on a local sqlite file. Expiry is enforced on
// read, and stale rows are purged opportunistically on write since sqlite has
// no native TTL.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) the store at path. ":memory:" works for
// tests.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	// A single connection keeps :memory: stores coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init session store schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*entity.Session, error) {
	var payload string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM ocr_sessions WHERE key = ?`, keyPrefix+id,
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	if s.now().Unix() >= expiresAt {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM ocr_sessions WHERE key = ?`, keyPrefix+id); err != nil {
			s.logger.Warn("session.store.purge_failed", "session_id", id, "error", err)
		}
		return nil, nil
	}

	var sess entity.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		s.logger.Warn("session.store.decode_failed", "session_id", id, "error", err)
		return nil, nil
	}
	return &sess, nil
}

func (s *SQLiteStore) Put(ctx context.Context, sess *entity.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}

	now := s.now()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ocr_sessions WHERE expires_at <= ?`, now.Unix()); err != nil {
		s.logger.Warn("session.store.sweep_failed", "error", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ocr_sessions (key, payload, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		keyPrefix+sess.ID, string(payload), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("put session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ocr_sessions WHERE key = ?`, keyPrefix+id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
