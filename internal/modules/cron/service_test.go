package cron

import (
	"context"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/aristath/mcsync/internal/signature"
	testingpkg "github.com/aristath/mcsync/internal/testing"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		in   Schedule
		want string
	}{
		{name: "cron with timezone", in: Schedule{Kind: "cron", Expr: "0 7 * * *", TZ: "Europe/Athens"}, want: "0 7 * * * (Europe/Athens)"},
		{name: "cron without timezone", in: Schedule{Kind: "cron", Expr: "*/5 * * * *"}, want: "*/5 * * * *"},
		{name: "hours", in: Schedule{Kind: "every", EveryMs: 2 * 3600000}, want: "every 2h"},
		{name: "minutes", in: Schedule{Kind: "every", EveryMs: 90 * 60000}, want: "every 90m"},
		{name: "seconds", in: Schedule{Kind: "every", EveryMs: 45000}, want: "every 45s"},
		{name: "other kind", in: Schedule{Kind: "at"}, want: "at"},
		{name: "no kind", in: Schedule{}, want: "?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.in))
		})
	}
}

func TestNextRun(t *testing.T) {
	now := time.Date(2026, 2, 11, 6, 30, 0, 0, time.UTC)

	next, err := NextRun(Schedule{Kind: "cron", Expr: "0 7 * * *"}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 11, 7, 0, 0, 0, time.UTC).UnixMilli(), next)

	next, err = NextRun(Schedule{Kind: "cron", Expr: "0 7 * * *", TZ: "Europe/Athens"}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 12, 5, 0, 0, 0, time.UTC).UnixMilli(), next, "07:00 Athens is 05:00 UTC")

	_, err = NextRun(Schedule{Kind: "cron", Expr: "not a schedule"}, now)
	assert.Error(t, err)
}

const snapshot = `[
	{"id": "morning", "name": "Morning brief", "schedule": {"kind": "cron", "expr": "0 7 * * *"},
	 "state": {"lastStatus": "ok", "lastRunAtMs": 1770789600000, "lastDurationMs": 5120, "lastError": "", "consecutiveErrors": 0}},
	{"id": "poll", "enabled": false, "schedule": {"kind": "every", "everyMs": 300000},
	 "state": {"nextRunAtMs": 1770800000000, "lastError": "timeout"}},
	{"name": "orphan", "schedule": {"kind": "every", "everyMs": 1000}}
]`

func TestSync(t *testing.T) {
	path := testingpkg.WriteFile(t, t.TempDir(), "cron_snapshot.json", snapshot)
	remote := testingpkg.NewRemoteStore(t)
	store := signature.Load(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())

	svc := NewService(path, remote.Client(), zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 2, 11, 6, 30, 0, 0, time.UTC) }

	out := svc.Sync(context.Background(), store)
	assert.Equal(t, 2, out.Synced, "job without id skipped")

	calls := remote.Calls(upsertPath)
	require.Len(t, calls, 2)

	morning := calls[0].Args
	assert.Equal(t, "Morning brief", morning["name"])
	assert.Equal(t, true, morning["enabled"])
	assert.Equal(t, 0.0, morning["consecutiveErrors"], "zero is a reading")
	assert.NotContains(t, morning, "lastError", "empty error omitted")
	assert.Equal(t, float64(time.Date(2026, 2, 11, 7, 0, 0, 0, time.UTC).UnixMilli()), morning["nextRunAt"])

	poll := calls[1].Args
	assert.Equal(t, "unnamed", poll["name"])
	assert.Equal(t, false, poll["enabled"])
	assert.Equal(t, "every 5m", poll["schedule"])
	assert.Equal(t, "timeout", poll["lastError"])
	assert.Equal(t, 1770800000000.0, poll["nextRunAt"])
	assert.NotContains(t, poll, "lastStatus")

	assert.Equal(t, work.StatusUnchanged, svc.Sync(context.Background(), store).Status)
}

func TestSync_MissingSnapshot(t *testing.T) {
	store := signature.Load(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
	svc := NewService(filepath.Join(t.TempDir(), "none.json"), testingpkg.NewRemoteStore(t).Client(), zerolog.Nop())
	assert.Equal(t, work.StatusSkipped, svc.Sync(context.Background(), store).Status)
}

func TestSync_MalformedSnapshot(t *testing.T) {
	path := testingpkg.WriteFile(t, t.TempDir(), "cron_snapshot.json", `{"jobs": []}`)
	store := signature.Load(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
	out := NewService(path, testingpkg.NewRemoteStore(t).Client(), zerolog.Nop()).Sync(context.Background(), store)
	assert.Equal(t, work.StatusFailed, out.Status)
}
