package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aristath/mcsync/internal/clients/bridge"
	"github.com/aristath/mcsync/internal/clients/convex"
	"github.com/aristath/mcsync/internal/gitrepo"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Call is one function call received by a RemoteStore.
type Call struct {
	Path string
	Args map[string]any
}

// RemoteStore is an in-process fake of the remote store's function API.
type RemoteStore struct {
	server *httptest.Server

	mu     sync.Mutex
	calls  []Call
	reject map[string]string
	values map[string]json.RawMessage
}

// NewRemoteStore starts a fake remote store that accepts every call.
func NewRemoteStore(t *testing.T) *RemoteStore {
	t.Helper()
	rs := &RemoteStore{
		reject: make(map[string]string),
		values: make(map[string]json.RawMessage),
	}

	r := chi.NewRouter()
	r.Post("/api/mutation", rs.handle)
	r.Post("/api/query", rs.handle)
	rs.server = httptest.NewServer(r)
	t.Cleanup(rs.server.Close)
	return rs
}

func (rs *RemoteStore) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string         `json:"path"`
		Args map[string]any `json:"args"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rs.mu.Lock()
	rs.calls = append(rs.calls, Call{Path: req.Path, Args: req.Args})
	msg, rejected := rs.reject[req.Path]
	value := rs.values[req.Path]
	rs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if rejected {
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "errorMessage": msg})
		return
	}
	if value == nil {
		value = json.RawMessage("null")
	}
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "value": value})
}

// URL returns the fake's base URL.
func (rs *RemoteStore) URL() string {
	return rs.server.URL
}

// Client returns a convex client pointed at the fake.
func (rs *RemoteStore) Client() *convex.Client {
	return convex.NewClient(rs.server.URL, 5*time.Second, zerolog.Nop())
}

// Reject makes every call to path return an error status.
func (rs *RemoteStore) Reject(path, message string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.reject[path] = message
}

// SetValue sets the value returned by calls to path.
func (rs *RemoteStore) SetValue(path string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.values[path] = data
}

// Calls returns the calls made to path, in order. An empty path returns every call.
func (rs *RemoteStore) Calls(path string) []Call {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	var out []Call
	for _, c := range rs.calls {
		if path == "" || c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (rs *RemoteStore) Reset() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.calls = nil
}

// Bridge is an in-process fake of the HTTP API bridge serving canned JSON bodies.
type Bridge struct {
	server *httptest.Server

	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

// NewBridge starts a fake bridge. Paths without a body answer 404.
func NewBridge(t *testing.T) *Bridge {
	t.Helper()
	b := &Bridge{
		bodies: make(map[string]string),
		hits:   make(map[string]int),
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.server.Close)
	return b
}

func (b *Bridge) handle(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	b.mu.Lock()
	body, ok := b.bodies[key]
	b.hits[key]++
	b.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

// Serve registers a JSON body for path (including any query string).
func (b *Bridge) Serve(path, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bodies[path] = body
}

// Remove makes path answer 404 again.
func (b *Bridge) Remove(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bodies, path)
}

// Hits returns how often path was requested.
func (b *Bridge) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

// Client returns a bridge client pointed at the fake.
func (b *Bridge) Client() *bridge.Client {
	return bridge.NewClient(b.server.URL, "test-token", 5*time.Second, zerolog.Nop())
}

// FakeRepo is an in-memory gitrepo.Reader: ref -> path -> content. A ref is
// resolvable when it has been given at least one file or a revision.
type FakeRepo struct {
	Files     map[string]map[string]string
	Revisions map[string]string
	// Reads counts ReadFile calls.
	Reads int
}

var _ gitrepo.Reader = (*FakeRepo)(nil)

// NewFakeRepo returns an empty fake repository.
func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		Files:     make(map[string]map[string]string),
		Revisions: make(map[string]string),
	}
}

// Put stores content at ref:path.
func (f *FakeRepo) Put(ref, path, content string) {
	if f.Files[ref] == nil {
		f.Files[ref] = make(map[string]string)
	}
	f.Files[ref][path] = content
	if f.Revisions[ref] == "" {
		f.Revisions[ref] = "rev-" + ref
	}
}

// Revision returns the configured revision of ref.
func (f *FakeRepo) Revision(_ context.Context, ref string) (string, error) {
	rev, ok := f.Revisions[ref]
	if !ok || rev == "" {
		return "", fmt.Errorf("%w: %s", gitrepo.ErrRefNotFound, ref)
	}
	return rev, nil
}

// ListTree lists paths under dir at ref in lexical order.
func (f *FakeRepo) ListTree(_ context.Context, ref, dir string) ([]string, error) {
	files, ok := f.Files[ref]
	if !ok {
		return nil, fmt.Errorf("%w: ls-tree %s", gitrepo.ErrCommandFailed, ref)
	}
	var out []string
	for p := range files {
		if strings.HasPrefix(p, dir) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ReadFile returns ref:path.
func (f *FakeRepo) ReadFile(_ context.Context, ref, path string) ([]byte, error) {
	f.Reads++
	content, ok := f.Files[ref][path]
	if !ok {
		return nil, fmt.Errorf("%w: show %s:%s", gitrepo.ErrCommandFailed, ref, path)
	}
	return []byte(content), nil
}
