package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/state"
)

// FileSaveStore writes one JSON file per save under a directory.
type FileSaveStore struct {
	dir    string
	logger *slog.Logger
}

var _ SaveStore = (*FileSaveStore)(nil)

func NewFileSaveStore(dir string, logger *slog.Logger) (*FileSaveStore, error) {
	if dir == "" {
		dir = "./saves"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileSaveStore{dir: dir, logger: logger}, nil
}

func (f *FileSaveStore) path(saveID string) string {
	return filepath.Join(f.dir, saveID+".json")
}

func (f *FileSaveStore) Save(ctx context.Context, saveID string, ps *state.PlayerState) error {
	if err := ValidateSaveID(saveID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return &SaveError{SaveID: saveID, Err: fmt.Errorf("failed to marshal player state: %w", err)}
	}

	// Write then rename so a crash never leaves half a save behind.
	tmp, err := os.CreateTemp(f.dir, saveID+".*.tmp")
	if err != nil {
		return &SaveError{SaveID: saveID, Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &SaveError{SaveID: saveID, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &SaveError{SaveID: saveID, Err: err}
	}
	if err := os.Rename(tmp.Name(), f.path(saveID)); err != nil {
		return &SaveError{SaveID: saveID, Err: err}
	}

	f.logger.Info("Game saved", "save_id", saveID, "backend", "file")
	return nil
}

func (f *FileSaveStore) Load(ctx context.Context, saveID string) (*state.PlayerState, error) {
	if err := ValidateSaveID(saveID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(saveID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SaveError{SaveID: saveID, Err: ErrSaveNotFound}
		}
		return nil, &SaveError{SaveID: saveID, Err: err}
	}

	ps, err := decodeSave(saveID, data)
	if err != nil {
		f.logger.Warn("Corrupt save file", "save_id", saveID, "error", err)
		return nil, err
	}
	return ps, nil
}

// List returns every readable save, most recently updated first. Corrupt
// files are skipped.
func (f *FileSaveStore) List(ctx context.Context) ([]SaveSummary, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []SaveSummary{}, nil
		}
		return nil, fmt.Errorf("failed to read save directory: %w", err)
	}

	saves := []SaveSummary{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		saveID := strings.TrimSuffix(entry.Name(), ".json")
		ps, err := f.Load(ctx, saveID)
		if err != nil {
			f.logger.Warn("Skipping unreadable save", "save_id", saveID, "error", err)
			continue
		}
		saves = append(saves, summarize(saveID, ps))
	}

	sortSummaries(saves)
	return saves, nil
}

func (f *FileSaveStore) Close() error {
	return nil
}

func sortSummaries(saves []SaveSummary) {
	slices.SortFunc(saves, func(a, b SaveSummary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.SaveID, b.SaveID)
	})
}
