// Package filestore persists uploaded documents under a single flat
// directory, keyed by filename, and purges them at process exit.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

// Save writes data to <dir>/<filename>, creating the directory if needed.
// A second save with the same filename overwrites the previous file.
func (s *Store) Save(filename string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating uploads dir: %w", err)
	}
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	return path, nil
}

// Purge removes the contents of the uploads directory, keeping the
// directory itself. Best-effort: failures are logged, never returned.
func (s *Store) Purge() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dir", s.dir).Msg("uploads cleanup skipped")
		}
		return
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			log.Warn().Err(err).Str("name", e.Name()).Msg("could not remove upload")
		}
	}
}
