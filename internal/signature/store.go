package signature

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Store maps source keys to their last-synced signature. It is loaded once before
// the sync units run and saved once after they finish, and only when mutated.
//
// Store is not safe for concurrent use; units run sequentially.
type Store struct {
	path    string
	entries map[string]Signature
	loaded  map[string]Signature
	log     zerolog.Logger

	// rename is os.Rename outside of tests.
	rename func(oldpath, newpath string) error
}

// Load reads the store at path. A missing file yields an empty store; an unreadable
// or corrupt file is logged and also yields an empty store, so every source
// re-syncs rather than the run aborting.
func Load(path string, log zerolog.Logger) *Store {
	s := &Store{
		path:    path,
		entries: make(map[string]Signature),
		loaded:  make(map[string]Signature),
		log:     log.With().Str("component", "signature_store").Logger(),
		rename:  os.Rename,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", path).Msg("Failed to read signature store, starting empty")
		}
		return s
	}

	var entries map[string]Signature
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("Corrupt signature store, starting empty")
		return s
	}
	for k, v := range entries {
		s.entries[k] = v
		s.loaded[k] = v
	}

	s.log.Debug().Int("entries", len(entries)).Msg("Signature store loaded")
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the signature stored under key.
func (s *Store) Get(key string) (Signature, bool) {
	sig, ok := s.entries[key]
	return sig, ok
}

// Changed compares sig against the stored signature for key. When they differ
// (including when key is absent) the store records sig and Changed returns true.
// When they are equal the store is left untouched and Changed returns false.
func (s *Store) Changed(key string, sig Signature) bool {
	if prev, ok := s.entries[key]; ok && prev.Equal(sig) {
		return false
	}
	s.entries[key] = sig
	return true
}

// Rollback restores key to the signature it had when the store was loaded. Units
// call it when a transport failure happens before any data was fetched, so the
// next run retries instead of treating the source as already synced.
func (s *Store) Rollback(key string) {
	if prev, ok := s.loaded[key]; ok {
		s.entries[key] = prev
		return
	}
	delete(s.entries, key)
}

// Dirty reports whether any entry differs from what was loaded.
func (s *Store) Dirty() bool {
	if len(s.entries) != len(s.loaded) {
		return true
	}
	for k, v := range s.entries {
		prev, ok := s.loaded[k]
		if !ok || !prev.Equal(v) {
			return true
		}
	}
	return false
}

// Save writes the store if it was mutated since Load. The write goes to a
// temporary sibling file which is then renamed over the target, so an
// interrupted save leaves the previous file intact.
func (s *Store) Save() (bool, error) {
	if !s.Dirty() {
		return false, nil
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to encode signature store: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create signature store directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write signature store: %w", err)
	}
	if err := s.rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("failed to replace signature store: %w", err)
	}

	for k, v := range s.entries {
		s.loaded[k] = v
	}
	for k := range s.loaded {
		if _, ok := s.entries[k]; !ok {
			delete(s.loaded, k)
		}
	}

	s.log.Debug().Int("entries", len(s.entries)).Str("path", s.path).Msg("Signature store saved")
	return true, nil
}
