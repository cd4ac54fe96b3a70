// Package files stores generated per-user files on disk.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"schedule_bot/internal/model"
)

// ScheduleFile is the name of every user's calendar file.
const ScheduleFile = "schedule.ics"

// Store keeps files under root/<user id>/<name>.
type Store struct {
	root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create files root: %w", err)
	}
	return &Store{root: root}, nil
}

// Path returns where the named file of a user lives.
func (s *Store) Path(userID uuid.UUID, name string) string {
	return filepath.Join(s.root, userID.String(), name)
}

// Write replaces the named file of a user. The data is written to a
// temporary file in the same directory and renamed over the old one, so
// readers see either the old or the new content.
func (s *Store) Write(userID uuid.UUID, name string, data []byte) error {
	dir := filepath.Join(s.root, userID.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create user dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(userID, name)); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

// Read returns the named file of a user.
func (s *Store) Read(userID uuid.UUID, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(userID, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file %s of user %s: %w", name, userID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
