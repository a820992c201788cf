// Package sqlite provides a SQLite-backed object state store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/milk9111/pedalswitch/storage"
	"github.com/milk9111/pedalswitch/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists object records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens a SQLite store at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// the game loop is the only writer
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadScene returns every stored record of scene ordered by object id.
func (s *Store) LoadScene(ctx context.Context, scene string) ([]storage.ObjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT object_id, name, layer_index, times_remaining, switch_state, linked_object_id
		   FROM scene_objects
		  WHERE scene = ?
		  ORDER BY object_id`,
		scene,
	)
	if err != nil {
		return nil, fmt.Errorf("query scene objects: %w", err)
	}
	defer rows.Close()

	var out []storage.ObjectRecord
	for rows.Next() {
		var rec storage.ObjectRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.LayerIndex, &rec.TimesRemaining, &rec.SwitchState, &rec.LinkedObjectID); err != nil {
			return nil, fmt.Errorf("scan scene object: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scene objects: %w", err)
	}
	return out, nil
}

// SaveObject inserts or replaces one record. Saving the same record twice is
// a no-op apart from the timestamp.
func (s *Store) SaveObject(ctx context.Context, scene string, rec storage.ObjectRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := storage.Validate(scene, rec); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO scene_objects (
		   scene, object_id, name, layer_index, times_remaining, switch_state, linked_object_id, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(scene, object_id) DO UPDATE SET
		   name = excluded.name,
		   layer_index = excluded.layer_index,
		   times_remaining = excluded.times_remaining,
		   switch_state = excluded.switch_state,
		   linked_object_id = excluded.linked_object_id,
		   updated_at = excluded.updated_at`,
		scene,
		rec.ID,
		rec.Name,
		rec.LayerIndex,
		rec.TimesRemaining,
		rec.SwitchState,
		rec.LinkedObjectID,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save scene object %q: %w", rec.ID, err)
	}
	return nil
}
