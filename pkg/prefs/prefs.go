// Package prefs persists the visitor's display language.
package prefs

import (
	"sync"

	"github.com/olimci/bijou/pkg/lang"
)

// Key is the name the preference is stored under.
const Key = "preferredLanguage"

// Store holds the last selected language.
type Store interface {
	// Language returns the stored language, and false when none is stored.
	Language() (lang.Lang, bool)
	SetLanguage(l lang.Lang) error
}

// Resolve returns the stored language, or lang.Default.
func Resolve(s Store) lang.Lang {
	if s == nil {
		return lang.Default
	}
	if l, ok := s.Language(); ok && l.Valid() {
		return l
	}
	return lang.Default
}

type MemoryStore struct {
	mu   sync.Mutex
	lang lang.Lang
	set  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Language() (lang.Lang, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang, s.set
}

func (s *MemoryStore) SetLanguage(l lang.Lang) error {
	if !l.Valid() {
		return lang.ErrUnsupported
	}
	s.mu.Lock()
	s.lang, s.set = l, true
	s.mu.Unlock()
	return nil
}
