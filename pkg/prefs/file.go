package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/olimci/bijou/pkg/lang"
	"github.com/olimci/bijou/pkg/utils/fileutils"
)

// FileStore keeps preferences in a small JSON object on disk. Unknown keys in
// the file are preserved.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// DefaultPath is bijou/prefs.json under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bijou", "prefs.json"), nil
}

func (s *FileStore) Language() (lang.Lang, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false
	}
	raw, ok := values[Key].(string)
	if !ok {
		return "", false
	}
	l, err := lang.Parse(raw)
	if err != nil {
		return "", false
	}
	return l, true
}

func (s *FileStore) SetLanguage(l lang.Lang) error {
	if !l.Valid() {
		return lang.ErrUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		// a corrupt file is replaced rather than blocking the preference
		values = map[string]any{}
	}
	values[Key] = string(l)

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if _, err := fileutils.WriteIfChanged(s.Path, append(data, '\n')); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]any, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}

	values := map[string]any{}
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}
