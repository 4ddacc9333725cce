// Package signature tracks the last-synced state of each data source so a sync
// unit can skip work when its source has not changed since the previous run.
//
// A Signature is one of three variants:
//   - hash: a SHA-256 digest of a canonical JSON encoding of some value
//   - stat: one or more named (modification time, size) pairs
//   - versions: a set of named opaque version tokens (e.g. git revisions)
//
// Two signatures are equal iff their kind and payload match exactly.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"os"
)

// Kind identifies the signature variant.
type Kind string

const (
	KindHash     Kind = "hash"
	KindStat     Kind = "stat"
	KindVersions Kind = "versions"
)

// FileStat is the (modification time, byte size) pair of a file.
// A nil *FileStat inside a stat signature means the file was absent.
type FileStat struct {
	ModTime int64 `json:"mtime"`
	Size    int64 `json:"size"`
}

// Signature is the persisted fingerprint of a source.
type Signature struct {
	Kind     Kind                 `json:"kind"`
	Hash     string               `json:"hash,omitempty"`
	Stats    map[string]*FileStat `json:"stats,omitempty"`
	Versions map[string]string    `json:"versions,omitempty"`
}

// Equal reports whether two signatures have the same variant and payload.
func (s Signature) Equal(o Signature) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindHash:
		return s.Hash == o.Hash
	case KindStat:
		return maps.EqualFunc(s.Stats, o.Stats, func(a, b *FileStat) bool {
			if a == nil || b == nil {
				return a == nil && b == nil
			}
			return *a == *b
		})
	case KindVersions:
		return maps.Equal(s.Versions, o.Versions)
	default:
		return false
	}
}

// IsZero reports whether the signature carries no variant.
func (s Signature) IsZero() bool {
	return s.Kind == ""
}

// HashOf returns a content-hash signature of v. Maps are encoded with sorted keys
// by encoding/json, so logically equal values hash identically.
func HashOf(v any) (Signature, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to encode value for hashing: %w", err)
	}
	sum := sha256.Sum256(raw)
	return Signature{Kind: KindHash, Hash: hex.EncodeToString(sum[:])}, nil
}

// StatFile returns the stat pair of path, or nil when the file cannot be stat'ed.
func StatFile(path string) *FileStat {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	return &FileStat{ModTime: info.ModTime().Unix(), Size: info.Size()}
}

// Stat builds a stat signature from named paths. Missing files are recorded as nil
// so that a file appearing later counts as a change.
func Stat(paths map[string]string) Signature {
	stats := make(map[string]*FileStat, len(paths))
	for name, path := range paths {
		stats[name] = StatFile(path)
	}
	return Signature{Kind: KindStat, Stats: stats}
}

// StatOne is Stat for a single file recorded under the name "file".
func StatOne(path string) Signature {
	return Stat(map[string]string{"file": path})
}

// Versions builds a version-token signature.
func Versions(tokens map[string]string) Signature {
	return Signature{Kind: KindVersions, Versions: maps.Clone(tokens)}
}

// AnyStat reports whether at least one file in a stat signature exists.
func (s Signature) AnyStat() bool {
	for _, st := range s.Stats {
		if st != nil {
			return true
		}
	}
	return false
}

// AnyVersion reports whether at least one version token is non-empty.
func (s Signature) AnyVersion() bool {
	for _, v := range s.Versions {
		if v != "" {
			return true
		}
	}
	return false
}
