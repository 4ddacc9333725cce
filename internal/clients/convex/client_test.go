package convex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/mcsync/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/api/mutation", handler)
	r.Post("/api/query", handler)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 2*time.Second, zerolog.Nop())
}

func TestMutation_SendsPathArgsAndFormat(t *testing.T) {
	var got map[string]any
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/mutation", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":"success","value":null}`))
	})

	result := client.Mutation(context.Background(), "cron:upsertCronJob", map[string]any{"jobId": "j1"})

	assert.True(t, result.OK())
	assert.Equal(t, "cron:upsertCronJob", got["path"])
	assert.Equal(t, "json", got["format"])
	assert.Equal(t, map[string]any{"jobId": "j1"}, got["args"])
}

func TestMutation_RemoteRejection(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","errorMessage":"` + strings.Repeat("x", 300) + `"}`))
	})

	result := client.Mutation(context.Background(), "health:upsertHealth", map[string]any{})

	assert.False(t, result.OK())
	assert.NoError(t, result.Err)
	assert.Equal(t, StatusError, result.Status)
}

func TestMutation_NonErrorStatusIsSuccess(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"whatever"}`))
	})

	assert.True(t, client.Mutation(context.Background(), "x:y", nil).OK())
}

func TestMutation_TransportFailures(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", time.Second, zerolog.Nop())
		result := client.Mutation(context.Background(), "x:y", nil)
		assert.Error(t, result.Err)
		assert.False(t, result.OK())
	})

	t.Run("timeout", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			w.Write([]byte(`{"status":"success"}`))
		})
		client.client.Timeout = 50 * time.Millisecond
		result := client.Mutation(context.Background(), "x:y", nil)
		assert.Error(t, result.Err)
	})

	t.Run("non-json error page", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		})
		result := client.Mutation(context.Background(), "x:y", nil)
		require.Error(t, result.Err)
		assert.Contains(t, result.Err.Error(), "502")
	})
}

func TestQuery_UsesQueryEndpoint(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/query", r.URL.Path)
		w.Write([]byte(`{"status":"success","value":[{"agent":"coach"}]}`))
	})

	result := client.Query(context.Background(), "weekly:getWeeklyReports", map[string]any{})
	require.True(t, result.OK())

	var value []map[string]string
	require.NoError(t, json.Unmarshal(result.Value, &value))
	assert.Equal(t, "coach", value[0]["agent"])
}

func TestUpsert_RejectsRecordWithoutKey(t *testing.T) {
	calls := 0
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"status":"success"}`))
	})

	result := client.Upsert(context.Background(), "health:upsertHealth", domain.HealthSnapshot{})
	assert.ErrorIs(t, result.Err, ErrMissingKey)
	assert.Equal(t, 0, calls)

	result = client.Upsert(context.Background(), "health:upsertHealth", domain.HealthSnapshot{Date: "2026-02-01"})
	assert.True(t, result.OK())
	assert.Equal(t, 1, calls)
}

func TestUpsert_OmitsAbsentOptionalFields(t *testing.T) {
	var args map[string]any
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Args map[string]any `json:"args"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		args = req.Args
		w.Write([]byte(`{"status":"success"}`))
	})

	rec := domain.HealthSnapshot{Date: "2026-02-01", Steps: domain.Float(0)}
	require.True(t, client.Upsert(context.Background(), "health:upsertHealth", rec).OK())

	assert.Equal(t, map[string]any{"date": "2026-02-01", "steps": float64(0)}, args)
}
