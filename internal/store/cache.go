// Package store provides the local sqlite cache of reconciled turn
// state. The engine writes to it after each reconciliation; at startup
// the cache is read back as the first authoritative snapshot so a
// reload begins warm instead of empty.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"loreloom/internal/logging"
	"loreloom/internal/turns"
)

const schema = `
CREATE TABLE IF NOT EXISTS turn_cache (
    session_id   TEXT NOT NULL,
    turn_number  INTEGER NOT NULL,
    input_json   TEXT,
    final_json   TEXT,
    completed_at TIMESTAMP,
    updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, turn_number)
);
CREATE INDEX IF NOT EXISTS idx_turn_cache_session ON turn_cache(session_id);
`

// Cache is a mutex-guarded sqlite handle. Streaming text and errors
// are deliberately not persisted: they are live-side state that a
// fresh process must not resurrect.
type Cache struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open turn cache: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set sqlite synchronous=NORMAL: %v", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create turn cache schema: %w", err)
	}

	logging.Store("turn cache opened: %s", path)
	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}

// SaveTurns upserts the durable parts of each turn: input and final
// records. Turns with neither are skipped.
func (c *Cache) SaveTurns(sessionID string, states []turns.TurnState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin turn cache tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO turn_cache (session_id, turn_number, input_json, final_json, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id, turn_number) DO UPDATE SET
			input_json   = COALESCE(excluded.input_json, turn_cache.input_json),
			final_json   = COALESCE(excluded.final_json, turn_cache.final_json),
			completed_at = COALESCE(excluded.completed_at, turn_cache.completed_at),
			updated_at   = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare turn cache upsert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, t := range states {
		if t.Input == nil && t.FinalMessage == nil {
			continue
		}
		var inputJSON, finalJSON interface{}
		var completedAt interface{}
		if t.Input != nil {
			b, err := json.Marshal(t.Input)
			if err != nil {
				return fmt.Errorf("marshal input for turn %d: %w", t.TurnNumber, err)
			}
			inputJSON = string(b)
		}
		if t.FinalMessage != nil {
			b, err := json.Marshal(t.FinalMessage)
			if err != nil {
				return fmt.Errorf("marshal final for turn %d: %w", t.TurnNumber, err)
			}
			finalJSON = string(b)
			completedAt = t.FinalMessage.CompletedAt
		}
		if _, err := stmt.Exec(sessionID, t.TurnNumber, inputJSON, finalJSON, completedAt); err != nil {
			return fmt.Errorf("upsert turn %d: %w", t.TurnNumber, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit turn cache tx: %w", err)
	}
	logging.StoreDebug("saved %d turns for session %s", saved, sessionID)
	return nil
}

// LoadSnapshot reads the cached turns back as snapshot messages, ready
// to be reconciled into a fresh store exactly like a backend fetch.
func (c *Cache) LoadSnapshot(sessionID string) ([]turns.SnapshotMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(
		`SELECT turn_number, input_json, final_json
		 FROM turn_cache WHERE session_id = ? ORDER BY turn_number`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query turn cache: %w", err)
	}
	defer rows.Close()

	var out []turns.SnapshotMessage
	for rows.Next() {
		var turnNumber int
		var inputJSON, finalJSON sql.NullString
		if err := rows.Scan(&turnNumber, &inputJSON, &finalJSON); err != nil {
			return nil, fmt.Errorf("scan turn cache row: %w", err)
		}
		if inputJSON.Valid {
			var in turns.InputRecord
			if err := json.Unmarshal([]byte(inputJSON.String), &in); err == nil {
				out = append(out, turns.SnapshotMessage{
					TurnNumber:    turnNumber,
					HasTurnNumber: true,
					ResponseType:  turns.ResponseTurnInput,
					Content:       in.CombinedText,
					PlayerInput:   in.PlayerInput,
					DMInput:       in.DMInput,
				})
			}
		}
		if finalJSON.Valid {
			var fin turns.FinalRecord
			if err := json.Unmarshal([]byte(finalJSON.String), &fin); err == nil {
				out = append(out, turns.SnapshotMessage{
					TurnNumber:    turnNumber,
					HasTurnNumber: true,
					ResponseType:  turns.ResponseFinal,
					Content:       fin.Content,
					MessageID:     fin.MessageID,
					Role:          fin.Role,
					CharacterName: fin.CharacterName,
					HasAudio:      fin.HasAudio,
					Timestamp:     fin.CompletedAt,
				})
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn cache: %w", err)
	}

	logging.StoreDebug("loaded %d cached snapshot messages for session %s", len(out), sessionID)
	return out, nil
}

// Reset deletes all cached turns for a session.
func (c *Cache) Reset(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.Exec("DELETE FROM turn_cache WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("reset turn cache: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		logging.Store("turn cache reset: session=%s rows=%d", sessionID, n)
	}
	return nil
}

// Sessions lists the session IDs with cached turns, most recently
// updated first.
func (c *Cache) Sessions() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(
		`SELECT session_id, MAX(updated_at) AS last
		 FROM turn_cache GROUP BY session_id ORDER BY last DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cached sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		// MAX() strips the column's declared type, so the timestamp
		// comes back as text; it only drives the ordering anyway.
		var last string
		if err := rows.Scan(&id, &last); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
