// Package gitrepo reads files from a git repository at named revisions without
// touching its working copy.
package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Reader resolves revisions and reads trees and blobs at a revision.
type Reader interface {
	// Revision returns the commit id ref points at.
	Revision(ctx context.Context, ref string) (string, error)
	// ListTree returns every file path under dir at ref, recursively.
	ListTree(ctx context.Context, ref, dir string) ([]string, error)
	// ReadFile returns the content of path at ref.
	ReadFile(ctx context.Context, ref, path string) ([]byte, error)
}

// Git implements Reader by running the git binary against a local clone.
type Git struct {
	dir     string
	timeout time.Duration
	log     zerolog.Logger
}

// New returns a Reader for the repository at dir. Each command is bounded by timeout.
func New(dir string, timeout time.Duration, log zerolog.Logger) *Git {
	return &Git{
		dir:     dir,
		timeout: timeout,
		log:     log.With().Str("component", "gitrepo").Str("repo", dir).Logger(),
	}
}

// Dir returns the repository directory.
func (g *Git) Dir() string {
	return g.dir
}

// Revision resolves ref to a commit id.
func (g *Git) Revision(ctx context.Context, ref string) (string, error) {
	out, err := g.exec(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		if errors.Is(err, ErrCommandFailed) {
			return "", fmt.Errorf("%w: %s", ErrRefNotFound, ref)
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ListTree lists files under dir at ref. A directory absent at ref yields no paths.
func (g *Git) ListTree(ctx context.Context, ref, dir string) ([]string, error) {
	out, err := g.exec(ctx, "ls-tree", "-r", "--name-only", ref, dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

// ReadFile returns the blob at ref:path.
func (g *Git) ReadFile(ctx context.Context, ref, path string) ([]byte, error) {
	return g.exec(ctx, "show", ref+":"+path)
}

func (g *Git) exec(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: git %s", ErrTimeout, strings.Join(args, " "))
		}
		g.log.Debug().
			Strs("args", args).
			Str("stderr", strings.TrimSpace(stderr.String())).
			Msg("git command failed")
		return nil, fmt.Errorf("%w: git %s: %v", ErrCommandFailed, strings.Join(args, " "), err)
	}
	return out, nil
}
