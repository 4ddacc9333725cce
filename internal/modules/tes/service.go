// Package tes syncs the habit-game character progression.
package tes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aristath/mcsync/internal/domain"
	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
)

const (
	// StateKey is the signature store key of the character domain.
	StateKey = "tes"

	upsertPath       = "tes:upsertTes"
	defaultClassName = "The Regulated Architect"
)

// character is the on-disk layout of character.json.
type character struct {
	OverallLevel *int            `json:"overall_level"`
	TotalXP      int             `json:"total_xp"`
	Streaks      json.RawMessage `json:"streaks"`
	BadgesEarned []string        `json:"badges_earned"`
	Domains      json.RawMessage `json:"domains"`
	Class        *string         `json:"class"`
}

// Service syncs character.json and the habit event log.
type Service struct {
	characterPath string
	habitsPath    string
	store         work.Upserter
	log           zerolog.Logger
}

// NewService creates a character sync service reading from dataDir/tes.
func NewService(dataDir string, store work.Upserter, log zerolog.Logger) *Service {
	dir := filepath.Join(dataDir, "tes")
	return &Service{
		characterPath: filepath.Join(dir, "character.json"),
		habitsPath:    filepath.Join(dir, "habits.jsonl"),
		store:         store,
		log:           log.With().Str("unit", StateKey).Logger(),
	}
}

// Sync pushes the character record when either file changed.
func (s *Service) Sync(ctx context.Context, state *signature.Store) work.Outcome {
	sig := signature.Stat(map[string]string{
		"character": s.characterPath,
		"habits":    s.habitsPath,
	})
	if sig.Stats["character"] == nil {
		return work.Skipped("character.json not found")
	}
	if !state.Changed(StateKey, sig) {
		return work.Unchanged()
	}

	rec, err := s.read()
	if err != nil {
		return work.Failed(err)
	}

	var out work.Outcome
	if out.Record(s.store.Upsert(ctx, upsertPath, rec)) {
		s.log.Info().
			Int("level", rec.Level).
			Int("xp", rec.XP).
			Int("badges", len(rec.Badges)).
			Msg("Character synced")
	}
	return out
}

func (s *Service) read() (domain.CharacterProgression, error) {
	data, err := os.ReadFile(s.characterPath)
	if err != nil {
		return domain.CharacterProgression{}, fmt.Errorf("failed to read character: %w", err)
	}
	var c character
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.CharacterProgression{}, fmt.Errorf("failed to parse character: %w", err)
	}

	events, err := countEvents(s.habitsPath)
	if err != nil {
		return domain.CharacterProgression{}, err
	}

	rec := domain.CharacterProgression{
		Level:       1,
		XP:          c.TotalXP,
		TotalXP:     c.TotalXP,
		Streaks:     orEmptyObject(c.Streaks),
		Badges:      c.BadgesEarned,
		Domains:     orEmptyObject(c.Domains),
		ClassName:   defaultClassName,
		TotalEvents: events,
	}
	if c.OverallLevel != nil {
		rec.Level = *c.OverallLevel
	}
	if c.Class != nil {
		rec.ClassName = *c.Class
	}
	if rec.Badges == nil {
		rec.Badges = []string{}
	}
	return rec, nil
}

// countEvents counts non-blank lines of the habit log. A missing log counts zero.
func countEvents(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open habit log: %w", err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read habit log: %w", err)
	}
	return n, nil
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return json.RawMessage("{}")
	}
	return raw
}
