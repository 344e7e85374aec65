package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"fithub/models"

	_ "modernc.org/sqlite"
)

const (
	keyPrefix   = "fithub_"
	accountsKey = keyPrefix + "accounts"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// Local keeps every collection as an independent JSON blob in a SQLite
// key-value table. A missing or unreadable blob never fails a load.
type Local struct {
	db *sql.DB
	mu sync.Mutex // serializes account writes
}

// OpenLocal opens (or creates) the SQLite file at path.
func OpenLocal(ctx context.Context, path string) (*Local, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &Local{db: db}, nil
}

func (l *Local) Close() error {
	return l.db.Close()
}

func collectionKey(c models.Collection) string {
	return keyPrefix + string(c)
}

// Load overlays every stored collection onto st, which already holds defaults.
func (l *Local) Load(ctx context.Context, st *models.State) error {
	return l.load(ctx, st, models.AllCollections)
}

func (l *Local) load(ctx context.Context, st *models.State, colls []models.Collection) error {
	rows, err := l.db.QueryContext(ctx, `SELECT key, value FROM kv`)
	if err != nil {
		return fmt.Errorf("read kv: %w", err)
	}
	defer rows.Close()

	blobs := make(map[string][]byte)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan kv: %w", err)
		}
		blobs[key] = []byte(value)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate kv: %w", err)
	}

	for _, c := range colls {
		raw, ok := blobs[collectionKey(c)]
		if !ok {
			continue
		}
		cd, ok := codecs[c]
		if !ok {
			continue
		}
		if err := cd.decode(st, raw); err != nil {
			log.Printf("[Local] ignoring malformed %s blob: %v", c, err)
		}
	}
	return nil
}

// Persist writes the dirty collections in one transaction.
func (l *Local) Persist(ctx context.Context, st *models.State, dirty models.CollectionSet) error {
	if len(dirty) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, c := range dirty.Sorted() {
		cd, ok := codecs[c]
		if !ok {
			continue
		}
		value, err := json.Marshal(cd.encode(st))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode %s: %w", c, err)
		}
		if err := upsert(ctx, tx, collectionKey(c), value, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("write %s: %w", c, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func upsert(ctx context.Context, tx *sql.Tx, key string, value []byte, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), now)
	return err
}

// FindAccount looks an account up by normalized email.
func (l *Local) FindAccount(ctx context.Context, email string) (*models.Account, error) {
	accounts, err := l.accounts(ctx, l.db)
	if err != nil {
		return nil, err
	}
	acc, ok := accounts[email]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

// SaveAccount stores a new account; emails are unique.
func (l *Local) SaveAccount(ctx context.Context, acc models.Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	accounts, err := l.accounts(ctx, tx)
	if err != nil {
		return err
	}
	if _, ok := accounts[acc.Email]; ok {
		return models.ErrEmailTaken
	}
	accounts[acc.Email] = acc
	value, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := upsert(ctx, tx, accountsKey, value, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write accounts: %w", err)
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (l *Local) accounts(ctx context.Context, q queryer) (map[string]models.Account, error) {
	accounts := make(map[string]models.Account)
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, accountsKey).Scan(&value)
	if err == sql.ErrNoRows {
		return accounts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	if err := json.Unmarshal([]byte(value), &accounts); err != nil || accounts == nil {
		log.Printf("[Local] accounts blob unreadable, starting empty: %v", err)
		return make(map[string]models.Account), nil
	}
	return accounts, nil
}
