package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/shoyaib4265a/st-shop-poss/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	stateKeyDeviceID = "device_id"
	stateKeySession  = "session"
)

// Seed describes the bootstrap credential written into an empty store so a
// fresh installation is never locked out.
type Seed struct {
	AdminPhone string
	AdminPIN   string
	BcryptCost int
}

// SQLiteStore keeps the document in a single-row table so Save is one
// transaction: the replace and the version bump commit together or not at
// all. Local-only state (fingerprint, session) lives in a key/value table in
// the same file.
type SQLiteStore struct {
	db   *sql.DB
	seed Seed
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the store at path.
func OpenSQLite(path string, seed Seed) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// One writer at a time; the process is the only client of this file.
	db.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS dataset (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			version    INTEGER NOT NULL,
			body       BLOB    NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS local_state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: init schema: %w", err)
		}
	}
	return &SQLiteStore{db: db, seed: seed}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(ctx context.Context) (*model.Dataset, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM dataset WHERE id = 1`).Scan(&body)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.seedDefault(ctx)
	case err != nil:
		return nil, fmt.Errorf("store: load: %w", err)
	}

	var d model.Dataset
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("store: decode document: %w", err)
	}
	d.Normalize()
	return &d, nil
}

func (s *SQLiteStore) Save(ctx context.Context, d *model.Dataset) error {
	d.Normalize()
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE dataset SET body = ?, version = version + 1, updated_at = ? WHERE id = 1`,
		body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dataset (id, version, body, updated_at) VALUES (1, 1, ?, ?)`,
			body, time.Now().UTC()); err != nil {
			return fmt.Errorf("store: save: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Version(ctx context.Context) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM dataset WHERE id = 1`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: version: %w", err)
	}
	return v, nil
}

// seedDefault writes the initial document: a single admin credential with
// the well-known bootstrap PIN, hashed. Everything else starts empty.
func (s *SQLiteStore) seedDefault(ctx context.Context) (*model.Dataset, error) {
	cost := s.seed.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.seed.AdminPIN), cost)
	if err != nil {
		return nil, fmt.Errorf("store: seed admin: %w", err)
	}

	d := &model.Dataset{
		Users: []model.Credential{{
			Phone:   s.seed.AdminPhone,
			PINHash: string(hash),
			Role:    model.RoleAdmin,
			Devices: []string{},
		}},
	}
	d.Normalize()
	if err := s.Save(ctx, d); err != nil {
		return nil, err
	}
	log.Info().Str("phone", s.seed.AdminPhone).Msg("store: seeded bootstrap admin")
	return d, nil
}

func (s *SQLiteStore) DeviceID(ctx context.Context) (string, error) {
	id, err := s.stateGet(ctx, stateKeyDeviceID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	id = "dev_" + uuid.NewString()
	if err := s.stateSet(ctx, stateKeyDeviceID, id); err != nil {
		return "", err
	}
	log.Info().Str("device", id).Msg("store: generated device fingerprint")
	return id, nil
}

func (s *SQLiteStore) Session(ctx context.Context) (*model.Session, error) {
	raw, err := s.stateGet(ctx, stateKeySession)
	if err != nil || raw == "" {
		return nil, err
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("store: decode session: %w", err)
	}
	return &sess, nil
}

func (s *SQLiteStore) SetSession(ctx context.Context, sess model.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("store: encode session: %w", err)
	}
	return s.stateSet(ctx, stateKeySession, string(raw))
}

func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM local_state WHERE key = ?`, stateKeySession)
	if err != nil {
		return fmt.Errorf("store: clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) stateGet(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: state %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) stateSet(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO local_state (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("store: state %s: %w", key, err)
	}
	return nil
}
