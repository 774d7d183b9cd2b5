package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwebster45206/adventure-engine/pkg/state"
)

const timeFormat = time.RFC3339Nano

const savesSchema = `
CREATE TABLE IF NOT EXISTS saves (
	save_id         TEXT PRIMARY KEY,
	player_name     TEXT NOT NULL,
	character_class TEXT NOT NULL,
	health          INTEGER NOT NULL,
	location        TEXT NOT NULL,
	data            TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS saves_updated_at ON saves (updated_at);
`

// SQLiteSaveStore keeps saves in a single SQLite database file.
type SQLiteSaveStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ SaveStore = (*SQLiteSaveStore)(nil)

// OpenSQLiteSaveStore opens (and if needed creates) the database at path.
func OpenSQLiteSaveStore(path string, logger *slog.Logger) (*SQLiteSaveStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(savesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create saves table: %w", err)
	}

	return &SQLiteSaveStore{db: db, logger: logger}, nil
}

func (s *SQLiteSaveStore) Save(ctx context.Context, saveID string, ps *state.PlayerState) error {
	if err := ValidateSaveID(saveID); err != nil {
		return err
	}
	data, err := json.Marshal(ps)
	if err != nil {
		return &SaveError{SaveID: saveID, Err: fmt.Errorf("failed to marshal player state: %w", err)}
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO saves (save_id, player_name, character_class, health, location, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (save_id) DO UPDATE SET
	player_name = excluded.player_name,
	character_class = excluded.character_class,
	health = excluded.health,
	location = excluded.location,
	data = excluded.data,
	updated_at = excluded.updated_at`,
		saveID,
		ps.Name,
		ps.Class.String(),
		ps.Health,
		ps.Location,
		string(data),
		ps.CreatedAt.UTC().Format(timeFormat),
		ps.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		s.logger.Error("Failed to write save", "save_id", saveID, "error", err)
		return &SaveError{SaveID: saveID, Err: err}
	}

	s.logger.Info("Game saved", "save_id", saveID, "backend", "sqlite")
	return nil
}

func (s *SQLiteSaveStore) Load(ctx context.Context, saveID string) (*state.PlayerState, error) {
	if err := ValidateSaveID(saveID); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM saves WHERE save_id = ?`, saveID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &SaveError{SaveID: saveID, Err: ErrSaveNotFound}
		}
		return nil, &SaveError{SaveID: saveID, Err: err}
	}

	ps, err := decodeSave(saveID, []byte(data))
	if err != nil {
		s.logger.Warn("Corrupt save row", "save_id", saveID, "error", err)
		return nil, err
	}
	return ps, nil
}

func (s *SQLiteSaveStore) List(ctx context.Context) ([]SaveSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT save_id, player_name, character_class, health, location, updated_at
FROM saves`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer func() { _ = rows.Close() }()

	saves := []SaveSummary{}
	for rows.Next() {
		var (
			sum       SaveSummary
			updatedAt string
		)
		if err := rows.Scan(&sum.SaveID, &sum.PlayerName, &sum.CharacterClass, &sum.Health, &sum.Location, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan save row: %w", err)
		}
		if t, err := time.Parse(timeFormat, updatedAt); err == nil {
			sum.UpdatedAt = t
		}
		saves = append(saves, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}

	sortSummaries(saves)
	return saves, nil
}

func (s *SQLiteSaveStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
