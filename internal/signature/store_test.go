package signature

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Signature
		equal bool
	}{
		{
			name:  "same hash",
			a:     Signature{Kind: KindHash, Hash: "abc"},
			b:     Signature{Kind: KindHash, Hash: "abc"},
			equal: true,
		},
		{
			name:  "different hash",
			a:     Signature{Kind: KindHash, Hash: "abc"},
			b:     Signature{Kind: KindHash, Hash: "abd"},
			equal: false,
		},
		{
			name:  "same stat payload",
			a:     Signature{Kind: KindStat, Stats: map[string]*FileStat{"file": {ModTime: 10, Size: 5}}},
			b:     Signature{Kind: KindStat, Stats: map[string]*FileStat{"file": {ModTime: 10, Size: 5}}},
			equal: true,
		},
		{
			name:  "stat size differs",
			a:     Signature{Kind: KindStat, Stats: map[string]*FileStat{"file": {ModTime: 10, Size: 5}}},
			b:     Signature{Kind: KindStat, Stats: map[string]*FileStat{"file": {ModTime: 10, Size: 6}}},
			equal: false,
		},
		{
			name:  "missing file vs present file",
			a:     Signature{Kind: KindStat, Stats: map[string]*FileStat{"habits": nil}},
			b:     Signature{Kind: KindStat, Stats: map[string]*FileStat{"habits": {ModTime: 1, Size: 1}}},
			equal: false,
		},
		{
			name:  "both missing",
			a:     Signature{Kind: KindStat, Stats: map[string]*FileStat{"habits": nil}},
			b:     Signature{Kind: KindStat, Stats: map[string]*FileStat{"habits": nil}},
			equal: true,
		},
		{
			name:  "same versions",
			a:     Versions(map[string]string{"main": "r1", "paper": "r2"}),
			b:     Versions(map[string]string{"paper": "r2", "main": "r1"}),
			equal: true,
		},
		{
			name:  "version advanced",
			a:     Versions(map[string]string{"main": "r1"}),
			b:     Versions(map[string]string{"main": "r2"}),
			equal: false,
		},
		{
			name:  "kind mismatch",
			a:     Signature{Kind: KindHash, Hash: "x"},
			b:     Versions(map[string]string{"hash": "x"}),
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
			assert.Equal(t, tt.equal, tt.b.Equal(tt.a))
		})
	}
}

func TestHashOf_SensitiveToFieldChanges(t *testing.T) {
	a, err := HashOf(map[string]any{"level": 3, "xp": 120})
	require.NoError(t, err)
	b, err := HashOf(map[string]any{"xp": 120, "level": 3})
	require.NoError(t, err)
	c, err := HashOf(map[string]any{"level": 3, "xp": 121})
	require.NoError(t, err)

	assert.True(t, a.Equal(b), "key order must not matter")
	assert.False(t, a.Equal(c))
}

func TestStat_DetectsOneByteChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracker.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c,d\n"), 0644))

	before := StatOne(path)
	require.True(t, before.AnyStat())

	require.NoError(t, os.WriteFile(path, []byte("a,b,c,dd\n"), 0644))
	after := StatOne(path)

	assert.False(t, before.Equal(after))
}

func TestStat_MissingFile(t *testing.T) {
	sig := StatOne(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, KindStat, sig.Kind)
	assert.False(t, sig.AnyStat())
}

func TestStore_ChangedRecordsNewSignature(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
	sig := Versions(map[string]string{"garmin_last_sync": "t1"})

	assert.True(t, s.Changed("health", sig), "absent key counts as changed")
	assert.False(t, s.Changed("health", sig), "identical signature is unchanged")

	next := Versions(map[string]string{"garmin_last_sync": "t2"})
	assert.True(t, s.Changed("health", next))
	got, ok := s.Get("health")
	require.True(t, ok)
	assert.True(t, got.Equal(next))
}

func TestStore_UnchangedLeavesStoreClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := Load(path, zerolog.Nop())
	s.Changed("cron", Signature{Kind: KindHash, Hash: "h"})
	saved, err := s.Save()
	require.NoError(t, err)
	require.True(t, saved)

	reloaded := Load(path, zerolog.Nop())
	assert.False(t, reloaded.Changed("cron", Signature{Kind: KindHash, Hash: "h"}))
	assert.False(t, reloaded.Dirty())

	saved, err = reloaded.Save()
	require.NoError(t, err)
	assert.False(t, saved, "an unmutated store must not be written")
}

func TestStore_ChangeTouchesOnlyOneKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := Load(path, zerolog.Nop())
	s.Changed("tes", Signature{Kind: KindHash, Hash: "a"})
	s.Changed("ziolo", Signature{Kind: KindHash, Hash: "b"})
	_, err := s.Save()
	require.NoError(t, err)

	reloaded := Load(path, zerolog.Nop())
	assert.True(t, reloaded.Changed("ziolo", Signature{Kind: KindHash, Hash: "c"}))

	tes, _ := reloaded.Get("tes")
	assert.Equal(t, "a", tes.Hash)
}

func TestStore_Rollback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := Load(path, zerolog.Nop())
	s.Changed("health", Versions(map[string]string{"garmin_last_sync": "t1"}))
	_, err := s.Save()
	require.NoError(t, err)

	reloaded := Load(path, zerolog.Nop())

	t.Run("restores loaded value", func(t *testing.T) {
		require.True(t, reloaded.Changed("health", Versions(map[string]string{"garmin_last_sync": "t2"})))
		reloaded.Rollback("health")
		got, _ := reloaded.Get("health")
		assert.Equal(t, "t1", got.Versions["garmin_last_sync"])
		assert.False(t, reloaded.Dirty())
	})

	t.Run("removes key absent at load", func(t *testing.T) {
		require.True(t, reloaded.Changed("trading", Versions(map[string]string{"main": "r"})))
		reloaded.Rollback("trading")
		_, ok := reloaded.Get("trading")
		assert.False(t, ok)
		assert.False(t, reloaded.Dirty())
	})
}

func TestStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := Load(path, zerolog.Nop())
	_, ok := s.Get("anything")
	assert.False(t, ok)
	assert.True(t, s.Changed("anything", Signature{Kind: KindHash, Hash: "x"}))
}

func TestStore_SaveRoundTripsAllVariants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s := Load(path, zerolog.Nop())
	stat := Signature{Kind: KindStat, Stats: map[string]*FileStat{
		"character": {ModTime: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC).Unix(), Size: 99},
		"habits":    nil,
	}}
	hash := Signature{Kind: KindHash, Hash: "deadbeef"}
	versions := Versions(map[string]string{"main": "r1", "binance": "", "paper": "r3"})
	s.Changed("tes", stat)
	s.Changed("meal_plan", hash)
	s.Changed("trading", versions)

	_, err := s.Save()
	require.NoError(t, err)

	reloaded := Load(path, zerolog.Nop())
	assert.False(t, reloaded.Changed("tes", stat))
	assert.False(t, reloaded.Changed("meal_plan", hash))
	assert.False(t, reloaded.Changed("trading", versions))
}

func TestStore_InterruptedSaveKeepsPreviousFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := Load(path, zerolog.Nop())
	s.Changed("cron", Signature{Kind: KindHash, Hash: "v1"})
	_, err := s.Save()
	require.NoError(t, err)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	next := Load(path, zerolog.Nop())
	next.Changed("cron", Signature{Kind: KindHash, Hash: "v2"})
	next.rename = func(string, string) error { return errors.New("killed before rename") }

	_, err = next.Save()
	require.Error(t, err)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, current)

	survivor := Load(path, zerolog.Nop())
	got, ok := survivor.Get("cron")
	require.True(t, ok)
	assert.Equal(t, "v1", got.Hash)
}
