package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultVersionFile is the version record location relative to the working directory.
const DefaultVersionFile = "conf/version.json"

// VersionStore persists the installed version record of a project.
type VersionStore interface {
	// Load returns the stored version, or nil when none has been recorded.
	Load() (*Version, error)
	// Save replaces the stored version.
	Save(v *Version) error
}

// FileVersionStore keeps the version record as a JSON file.
type FileVersionStore struct {
	fs   afero.Fs
	path string
}

// NewFileVersionStore creates a store backed by path on fs.
func NewFileVersionStore(fs afero.Fs, path string) *FileVersionStore {
	if path == "" {
		path = DefaultVersionFile
	}
	return &FileVersionStore{fs: fs, path: path}
}

// Path returns the location of the record.
func (s *FileVersionStore) Path() string {
	return s.path
}

func (s *FileVersionStore) Load() (*Version, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read version record: %w", err)
	}
	var v Version
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse version record %s: %w", s.path, err)
	}
	if v.ID == "" {
		return nil, fmt.Errorf("version record %s has no id", s.path)
	}
	return &v, nil
}

func (s *FileVersionStore) Save(v *Version) error {
	if v == nil || v.ID == "" {
		return fmt.Errorf("cannot save a version without id")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode version record: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create version record directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write version record: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace version record: %w", err)
	}
	return nil
}
