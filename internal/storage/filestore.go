// Package storage persists the vehicle registry as a single JSON array file.
//
// Every call reads or writes the whole file and no handle is kept open between
// calls. Writes are plain overwrites, so two processes sharing the file race
// with last-writer-wins semantics.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const filePerm = 0o644

var ErrCorruptData = errors.New("corrupt registry data")

// CorruptDataError reports a backing file whose contents are not a JSON array
// of strings.
type CorruptDataError struct {
	Path string
	Err  error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCorruptData, e.Path, e.Err)
}

func (e *CorruptDataError) Unwrap() []error {
	return []error{ErrCorruptData, e.Err}
}

type FileStore struct {
	fs   afero.Fs
	path string
}

func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{
		fs:   fs,
		path: path,
	}
}

func (s *FileStore) Path() string {
	return s.path
}

// EnsureReady creates the backing directory and, when missing, a file holding
// an empty array. An existing file is left untouched.
func (s *FileStore) EnsureReady() error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	_, err := s.fs.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}

	if err := afero.WriteFile(s.fs, s.path, []byte("[]"), filePerm); err != nil {
		return fmt.Errorf("initialize %s: %w", s.path, err)
	}
	return nil
}

// Load returns the stored plates in file order. A missing or blank file, or a
// JSON null, yields an empty slice.
func (s *FileStore) Load() ([]string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []string{}, nil
	}

	var plates []string
	if err := json.Unmarshal(data, &plates); err != nil {
		return nil, &CorruptDataError{Path: s.path, Err: err}
	}
	if plates == nil {
		plates = []string{}
	}
	return plates, nil
}

// Save overwrites the backing file with plates.
func (s *FileStore) Save(plates []string) error {
	if plates == nil {
		plates = []string{}
	}

	data, err := json.Marshal(plates)
	if err != nil {
		return fmt.Errorf("encode vehicles: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
