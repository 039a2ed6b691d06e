package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/model"
)

// SQLite keeps snapshots in the answer_snapshot table so that respondents
// can pick up where they left off after a restart.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLite(db *sql.DB, ttl time.Duration) *SQLite {
	return &SQLite{db: db, ttl: ttl, now: time.Now}
}

func (s *SQLite) Load(ctx context.Context, key Key) (model.Snapshot, error) {
	var payload []byte
	var expires int64
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, expires_at
		FROM answer_snapshot
		WHERE session_id = ?
			AND slug = ?`,
		key.Session,
		key.Slug,
	).Scan(&payload, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, errors.Wrap(err, "db.get_snapshot")
	}

	if expires <= s.now().Unix() {
		if err := s.Delete(ctx, key); err != nil {
			return model.Snapshot{}, err
		}
		return model.Snapshot{}, ErrNotFound
	}
	return decode(payload)
}

func (s *SQLite) Save(ctx context.Context, key Key, snap model.Snapshot) error {
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	now := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO answer_snapshot (session_id, slug, payload, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id, slug) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		key.Session,
		key.Slug,
		string(payload),
		now.Unix(),
		now.Add(s.ttl).Unix(),
	)
	return errors.Wrap(err, "db.save_snapshot")
}

func (s *SQLite) Delete(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM answer_snapshot
		WHERE session_id = ?
			AND slug = ?`,
		key.Session,
		key.Slug,
	)
	return errors.Wrap(err, "db.delete_snapshot")
}

// Purge removes every expired snapshot and returns how many were dropped.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM answer_snapshot WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, errors.Wrap(err, "db.purge_snapshots")
	}
	return res.RowsAffected()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
