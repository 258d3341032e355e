package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-go-golems/docqa/pkg/conversation"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const sqliteConversationsSchemaV1 = `
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    payload_json TEXT NOT NULL,
    created_at_ms INTEGER NOT NULL DEFAULT 0,
    updated_at_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS conversations_updated_at ON conversations (updated_at_ms DESC);
`

// SQLiteStore persists conversations in a SQLite database.
//
// Each row holds the whole conversation record as one JSON payload; the
// timestamp columns only exist for ordering.
type SQLiteStore struct {
	mu     sync.RWMutex
	dsn    string
	db     *sql.DB
	now    Clock
	closed bool
}

type SQLiteStoreOption func(*SQLiteStore)

func WithSQLiteClock(now Clock) SQLiteStoreOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

func NewSQLiteStore(dsn string, options ...SQLiteStoreOption) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite conversation store: empty dsn")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	// sqlite serializes writers anyway, and a single connection keeps
	// in-memory databases shared.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		dsn: dsn,
		db:  db,
		now: time.Now,
	}
	for _, o := range options {
		o(s)
	}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Create(ctx context.Context, title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return "", err
	}

	c := conversation.New(newConversationID(), title, s.now())
	payload, err := json.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "marshal conversation")
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO conversations (id, payload_json, created_at_ms, updated_at_ms) VALUES (?, ?, ?, ?)`,
		c.ID,
		string(payload),
		c.CreatedAt.UnixMilli(),
		c.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return "", errors.Wrap(err, "insert conversation")
	}
	return c.ID, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*conversation.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, false, err
	}

	c, err := s.load(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return c, true, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*conversation.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, payload_json FROM conversations ORDER BY updated_at_ms DESC, created_at_ms DESC, id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "query conversations")
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []*conversation.Conversation{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		c, err := decodeConversation(id, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// millisecond columns can tie where the payload timestamps do not
	sortByRecency(out)
	return out, nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, id string, msg *conversation.Message) error {
	return s.update(ctx, id, func(c *conversation.Conversation, now time.Time) {
		c.AppendMessage(msg, now)
	})
}

func (s *SQLiteStore) Overwrite(ctx context.Context, id string, msgs []*conversation.Message) error {
	return s.update(ctx, id, func(c *conversation.Conversation, now time.Time) {
		c.Overwrite(msgs, now)
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	return errors.Wrap(err, "delete conversation")
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) update(ctx context.Context, id string, f func(*conversation.Conversation, time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	c, err := s.load(ctx, tx, id)
	if err != nil {
		return err
	}
	f(c, s.now())

	payload, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal conversation")
	}
	_, err = tx.ExecContext(
		ctx,
		`UPDATE conversations SET payload_json = ?, updated_at_ms = ? WHERE id = ?`,
		string(payload),
		c.UpdatedAt.UnixMilli(),
		id,
	)
	if err != nil {
		return errors.Wrap(err, "update conversation")
	}
	return errors.Wrap(tx.Commit(), "commit conversation update")
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *SQLiteStore) load(ctx context.Context, q queryer, id string) (*conversation.Conversation, error) {
	var payload string
	err := q.QueryRowContext(ctx, `SELECT payload_json FROM conversations WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, errors.Wrap(err, "load conversation")
	}
	return decodeConversation(id, payload)
}

func decodeConversation(id string, payload string) (*conversation.Conversation, error) {
	c := &conversation.Conversation{}
	if err := json.Unmarshal([]byte(payload), c); err != nil {
		return nil, errors.Wrapf(err, "decode conversation %s", id)
	}
	if c.ID == "" {
		c.ID = id
	}
	if c.ID != id {
		return nil, fmt.Errorf("sqlite conversation store: id mismatch payload=%q row=%q", c.ID, id)
	}
	if c.Messages == nil {
		c.Messages = conversation.Messages{}
	}
	return c, nil
}

func (s *SQLiteStore) migrate() error {
	if s.db == nil {
		return fmt.Errorf("sqlite conversation store: db is nil")
	}
	if _, err := s.db.Exec(sqliteConversationsSchemaV1); err != nil {
		return errors.Wrap(err, "migrate sqlite conversation store")
	}
	return nil
}

func (s *SQLiteStore) ensureOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	if s.db == nil {
		return fmt.Errorf("sqlite conversation store db is nil")
	}
	return nil
}

func SQLiteDSNForFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite conversation store: empty path")
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path), nil
}

var _ Store = (*SQLiteStore)(nil)
