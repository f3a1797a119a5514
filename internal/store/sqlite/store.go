// Package sqlitestore persists rooms in a single SQLite file. Updates use a
// version column as the compare-and-set guard.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"doodleduel/internal/domain"
	"doodleduel/internal/store"
)

//go:embed schema.sql
var schema string

// Store persists rooms in SQLite.
type Store struct {
	sqlDB  *sql.DB
	logger *slog.Logger
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies the embedded schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single writer keeps the version check and the write in one place
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, logger: logger}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get returns the room with presence timestamps merged in.
func (s *Store) Get(ctx context.Context, code string) (*domain.Room, error) {
	room, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT player_id, seen_at FROM presence WHERE room_code = ?`, code)
	if err != nil {
		return nil, fmt.Errorf("query presence: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			playerID string
			seenAt   int64
		)
		if err := rows.Scan(&playerID, &seenAt); err != nil {
			return nil, fmt.Errorf("scan presence: %w", err)
		}
		_ = room.UpdatePlayer(playerID, func(p *domain.Player) {
			p.LastSeen = fromMillis(seenAt)
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presence: %w", err)
	}
	return room, nil
}

// Update applies fn and writes the result only if nobody else wrote in between.
func (s *Store) Update(ctx context.Context, code string, fn domain.Transform) (*domain.Room, error) {
	for attempt := 0; attempt < store.MaxUpdateRetries; attempt++ {
		room, err := s.load(ctx, code)
		if err != nil {
			return nil, err
		}
		version := room.Version
		if err := fn(room); err != nil {
			return nil, err
		}
		room.Code = code
		room.Version = version + 1
		room.UpdatedAt = time.Now().UTC()

		doc, err := json.Marshal(room)
		if err != nil {
			return nil, fmt.Errorf("encode room: %w", err)
		}
		res, err := s.sqlDB.ExecContext(ctx,
			`UPDATE rooms SET doc = ?, version = ?, updated_at = ? WHERE code = ? AND version = ?`,
			string(doc), room.Version, toMillis(room.UpdatedAt), code, version)
		if err != nil {
			return nil, fmt.Errorf("update room: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("update room rows: %w", err)
		}
		if n == 1 {
			return room, nil
		}
		s.logger.Debug("sqlite: room write conflict, retrying", "roomCode", code, "attempt", attempt)
	}
	return nil, store.ErrVersionConflict
}

// Heartbeat upserts the player's presence row.
func (s *Store) Heartbeat(ctx context.Context, code, playerID string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO presence (room_code, player_id, seen_at) VALUES (?, ?, ?)
		 ON CONFLICT(room_code, player_id) DO UPDATE SET seen_at = excluded.seen_at`,
		code, playerID, toMillis(time.Now()))
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrRoomNotFound
		}
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

// Create inserts the room under a fresh code.
func (s *Store) Create(ctx context.Context, room *domain.Room) (string, error) {
	stored := room.Clone()
	stored.Normalize()
	stored.Version = 1
	stored.UpdatedAt = time.Now().UTC()

	code := room.Code
	for attempts := 0; attempts < store.MaxCodeAttempts; attempts++ {
		if code == "" || attempts > 0 {
			code = store.GenerateRoomCode(store.DefaultRoomCodeLength)
		}
		stored.Code = code

		doc, err := json.Marshal(stored)
		if err != nil {
			return "", fmt.Errorf("encode room: %w", err)
		}
		_, err = s.sqlDB.ExecContext(ctx,
			`INSERT INTO rooms (code, doc, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			code, string(doc), stored.Version, toMillis(stored.CreatedAt), toMillis(stored.UpdatedAt))
		if err == nil {
			s.logger.Info("room created", "roomCode", code)
			return code, nil
		}
		if !isUniqueViolation(err) {
			return "", fmt.Errorf("create room: %w", err)
		}
	}
	return "", store.ErrCodeExhausted
}

// Delete removes the room; presence rows cascade.
func (s *Store) Delete(ctx context.Context, code string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM rooms WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete room rows: %w", err)
	}
	if n == 0 {
		return store.ErrRoomNotFound
	}
	s.logger.Info("room deleted", "roomCode", code)
	return nil
}

// DeleteStale removes rooms not written since cutoff and returns how many.
func (s *Store) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM rooms WHERE updated_at < ?
		 AND NOT EXISTS (SELECT 1 FROM presence p WHERE p.room_code = rooms.code AND p.seen_at >= ?)`,
		toMillis(cutoff), toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete stale rooms: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) load(ctx context.Context, code string) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		doc     string
		version int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT doc, version FROM rooms WHERE code = ?`, code).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	var room domain.Room
	if err := json.Unmarshal([]byte(doc), &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	room.Normalize()
	room.Version = version
	return &room, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}
