// Package sqlite archives fetched chunks in a SQLite database and replays them later.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/orrery/internal/dto"
	"github.com/aretw0/orrery/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	session_id TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	payload    BLOB    NOT NULL,
	frames     INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// Chunk is one archived chunk.
type Chunk struct {
	SessionID string
	Seq       int64
	Frames    []domain.Frame
	CreatedAt time.Time
}

// Recording summarizes the archived chunks of one session.
type Recording struct {
	SessionID string
	Chunks    int64
	Frames    int64
	First     time.Time
	Last      time.Time
}

// Archive stores chunks in SQLite.
type Archive struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Archive, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Archive{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (a *Archive) Close() error {
	if a == nil || a.sqlDB == nil {
		return nil
	}
	return a.sqlDB.Close()
}

// Append stores frames as the next chunk of sessionID and returns its sequence number.
func (a *Archive) Append(ctx context.Context, sessionID string, frames []domain.Frame) (int64, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("session id is required")
	}
	payload, err := dto.EncodeChunk(frames)
	if err != nil {
		return 0, err
	}

	tx, err := a.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM chunks WHERE session_id = ?`, sessionID,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chunks (session_id, seq, payload, frames, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, seq, payload, len(frames), toMillis(a.now()),
	); err != nil {
		return 0, fmt.Errorf("insert chunk: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return seq, nil
}

// Next returns the first chunk of sessionID with a sequence number above after.
// ok is false when there is none.
func (a *Archive) Next(ctx context.Context, sessionID string, after int64) (Chunk, bool, error) {
	var (
		c       Chunk
		payload []byte
		created int64
	)
	err := a.sqlDB.QueryRowContext(ctx,
		`SELECT seq, payload, created_at FROM chunks WHERE session_id = ? AND seq > ? ORDER BY seq LIMIT 1`,
		sessionID, after,
	).Scan(&c.Seq, &payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Chunk{}, false, nil
	}
	if err != nil {
		return Chunk{}, false, fmt.Errorf("select chunk: %w", err)
	}
	c.Frames, err = dto.DecodeChunk(payload)
	if err != nil {
		return Chunk{}, false, fmt.Errorf("chunk %d of %s: %w", c.Seq, sessionID, err)
	}
	c.SessionID = sessionID
	c.CreatedAt = fromMillis(created)
	return c, true, nil
}

// Recordings lists the archived sessions ordered by id.
func (a *Archive) Recordings(ctx context.Context) ([]Recording, error) {
	rows, err := a.sqlDB.QueryContext(ctx,
		`SELECT session_id, COUNT(*), SUM(frames), MIN(created_at), MAX(created_at)
		 FROM chunks GROUP BY session_id ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		var (
			r           Recording
			first, last int64
		)
		if err := rows.Scan(&r.SessionID, &r.Chunks, &r.Frames, &first, &last); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		r.First = fromMillis(first)
		r.Last = fromMillis(last)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes every chunk of sessionID.
func (a *Archive) Delete(ctx context.Context, sessionID string) error {
	_, err := a.sqlDB.ExecContext(ctx, `DELETE FROM chunks WHERE session_id = ?`, sessionID)
	return err
}
