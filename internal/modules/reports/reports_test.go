package reports

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/mcsync/internal/signature"
	testingpkg "github.com/aristath/mcsync/internal/testing"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *signature.Store {
	t.Helper()
	return signature.Load(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
}

func TestBuildWeeklyReport(t *testing.T) {
	content := "# Coach weekly\n\n## Overview\nTraining load was steady.\nMore text.\n"
	rep := BuildWeeklyReport("coach", "/r/coach/coach-weekly-2026-W06.md", content)

	assert.Equal(t, "coach", rep.Domain)
	assert.Equal(t, "W06", rep.ReportDate)
	assert.Equal(t, "coach-weekly-2026-W06", rep.Title)
	require.NotNil(t, rep.Summary)
	assert.Equal(t, "Training load was steady.", *rep.Summary)
	assert.Equal(t, content, rep.Content)
}

func TestBuildWeeklyReport_Caps(t *testing.T) {
	long := strings.Repeat("é", 250)
	content := long + "\n" + strings.Repeat("x", 5000)
	rep := BuildWeeklyReport("qq", "/r/qq/2026-02-09.md", content)

	require.NotNil(t, rep.Summary)
	assert.Equal(t, strings.Repeat("é", 200)+"…", *rep.Summary)
	assert.True(t, strings.HasSuffix(rep.Content, "\n\n[TRUNCATED]"))
	assert.Equal(t, 4000+len([]rune("\n\n[TRUNCATED]")), len([]rune(rep.Content)))
	assert.Equal(t, "09", rep.ReportDate)
}

func TestBuildWeeklyReport_HeadingsOnly(t *testing.T) {
	rep := BuildWeeklyReport("chef", "/r/chef/a.md", "# Title\n\n## Sub\n")
	assert.Nil(t, rep.Summary)
}

func TestWeeklySync(t *testing.T) {
	dir := t.TempDir()
	testingpkg.WriteFile(t, dir, "coach/coach-2026-02-02.md", "old")
	latest := testingpkg.WriteFile(t, dir, "coach/coach-2026-02-09.md", "# C\nnew week")
	testingpkg.WriteFile(t, dir, "marco/marco-2026-02-09.md", "macro view")
	testingpkg.WriteFile(t, dir, "other/x-2026-02-09.md", "ignored domain")

	remote := testingpkg.NewRemoteStore(t)
	store := newStore(t)
	svc := NewWeeklyService(dir, remote.Client(), zerolog.Nop())

	out := svc.Sync(context.Background(), store)
	assert.Equal(t, 2, out.Synced)
	calls := remote.Calls(upsertWeeklyPath)
	require.Len(t, calls, 2)
	assert.Equal(t, "coach", calls[0].Args["domain"])
	assert.Equal(t, "09", calls[0].Args["reportDate"])
	assert.Equal(t, "new week", calls[0].Args["summary"])

	assert.Equal(t, work.StatusUnchanged, svc.Sync(context.Background(), store).Status)

	remote.Reset()
	testingpkg.Touch(t, latest)
	out = svc.Sync(context.Background(), store)
	assert.Equal(t, 1, out.Synced, "only the touched domain re-syncs")
	assert.Equal(t, "coach", remote.Calls(upsertWeeklyPath)[0].Args["domain"])
}

func TestWeeklySync_NoReports(t *testing.T) {
	svc := NewWeeklyService(t.TempDir(), testingpkg.NewRemoteStore(t).Client(), zerolog.Nop())
	assert.Equal(t, work.StatusSkipped, svc.Sync(context.Background(), newStore(t)).Status)
}

func TestParsePending(t *testing.T) {
	body := `{"agent": "coach", "reportType": "daily", "date": "2026-02-10", "title": "T",
		"summary": "` + strings.Repeat("s", 600) + `", "content": "` + strings.Repeat("c", 9000) + `",
		"metrics": {"load": 3}}`
	rep, err := ParsePending([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "coach-daily-2026-02-10", rep.ReportID)
	assert.Len(t, rep.Summary, 500)
	assert.Len(t, rep.Content, 4000)
	require.NotNil(t, rep.ContentOverflow)
	assert.Len(t, *rep.ContentOverflow, 4000)
	assert.Equal(t, []string{}, rep.DeliveredTo)
	assert.JSONEq(t, `{"load": 3}`, string(rep.Metrics))
}

func TestParsePending_Optional(t *testing.T) {
	body := `{"reportId": "custom", "agent": "a", "reportType": "r", "date": "d", "title": "t",
		"summary": "s", "content": "short", "deliveredTo": ["telegram"], "metrics": {}}`
	rep, err := ParsePending([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "custom", rep.ReportID)
	assert.Nil(t, rep.ContentOverflow)
	assert.Nil(t, rep.Metrics)
	assert.Equal(t, []string{"telegram"}, rep.DeliveredTo)
}

func TestParsePending_MissingFields(t *testing.T) {
	_, err := ParsePending([]byte(`{"agent": "a", "date": "d"}`))
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.ErrorContains(t, err, "reportType")
}

type fakeMirror struct {
	paths []string
	err   error
}

func (m *fakeMirror) MirrorFile(_ context.Context, path string) error {
	m.paths = append(m.paths, path)
	return m.err
}

const validReport = `{"agent": "chef", "reportType": "daily", "date": "2026-02-10", "title": "T", "summary": "S", "content": "C"}`

func TestQueueSync_ArchivesAccepted(t *testing.T) {
	dir := t.TempDir()
	testingpkg.WriteFile(t, dir, "a.json", validReport)
	testingpkg.WriteFile(t, dir, "b.json", `{"agent": "x"}`)
	testingpkg.WriteFile(t, dir, "c.json", `{broken`)
	testingpkg.WriteFile(t, dir, "notes.txt", "ignored")

	remote := testingpkg.NewRemoteStore(t)
	mirror := &fakeMirror{err: errors.New("offline")}
	svc := NewQueueService(dir, remote.Client(), mirror, zerolog.Nop())

	out := svc.Sync(context.Background(), newStore(t))
	assert.Equal(t, 1, out.Synced)
	assert.Equal(t, 2, out.Failed)

	assert.NoFileExists(t, filepath.Join(dir, "a.json"))
	assert.FileExists(t, filepath.Join(dir, archiveDirName, "a.json"))
	assert.FileExists(t, filepath.Join(dir, "b.json"), "invalid reports stay queued")
	assert.Equal(t, []string{filepath.Join(dir, archiveDirName, "a.json")}, mirror.paths)

	args := remote.Calls(upsertReportPath)[0].Args
	assert.Equal(t, "chef-daily-2026-02-10", args["reportId"])
}

func TestQueueSync_NeverOverwritesArchive(t *testing.T) {
	dir := t.TempDir()
	testingpkg.WriteFile(t, dir, "archive/a.json", "first delivery")
	testingpkg.WriteFile(t, dir, "archive/a-1.json", "second delivery")
	testingpkg.WriteFile(t, dir, "a.json", validReport)

	mirror := &fakeMirror{}
	svc := NewQueueService(dir, testingpkg.NewRemoteStore(t).Client(), mirror, zerolog.Nop())

	out := svc.Sync(context.Background(), newStore(t))
	assert.Equal(t, 1, out.Synced)

	for name, want := range map[string]string{"a.json": "first delivery", "a-1.json": "second delivery", "a-2.json": validReport} {
		data, err := os.ReadFile(filepath.Join(dir, archiveDirName, name))
		require.NoError(t, err)
		assert.Equal(t, want, string(data), name)
	}
	assert.Equal(t, []string{filepath.Join(dir, archiveDirName, "a-2.json")}, mirror.paths)
}

func TestQueueSync_RejectedStaysQueued(t *testing.T) {
	dir := t.TempDir()
	testingpkg.WriteFile(t, dir, "a.json", validReport)

	remote := testingpkg.NewRemoteStore(t)
	remote.Reject(upsertReportPath, "validation failed")
	svc := NewQueueService(dir, remote.Client(), nil, zerolog.Nop())

	out := svc.Sync(context.Background(), newStore(t))
	assert.Equal(t, 1, out.Failed)
	assert.FileExists(t, filepath.Join(dir, "a.json"))
}

func TestQueueSync_EmptyAndMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	svc := NewQueueService(dir, testingpkg.NewRemoteStore(t).Client(), nil, zerolog.Nop())

	assert.Equal(t, work.StatusSkipped, svc.Sync(context.Background(), newStore(t)).Status)
	_, err := os.Stat(dir)
	require.NoError(t, err, "queue directory created")

	assert.Equal(t, work.StatusUnchanged, svc.Sync(context.Background(), newStore(t)).Status)
}

func TestMigrateWeekly(t *testing.T) {
	remote := testingpkg.NewRemoteStore(t)
	remote.SetValue(legacyWeeklyQuery, []map[string]any{
		{"domain": "coach", "reportDate": "2026-02-09", "title": "Coach week 6", "summary": "Solid", "content": "Body"},
		{"domain": "qq", "reportDate": "2026-02-02"},
	})

	res, err := MigrateWeekly(context.Background(), remote.Client(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, MigrationResult{Found: 2, Migrated: 2}, res)

	calls := remote.Calls(upsertReportPath)
	require.Len(t, calls, 2)
	assert.Equal(t, "coach-weekly-report-2026-02-09", calls[0].Args["reportId"])
	assert.Equal(t, "Coach week 6", calls[0].Args["title"])
	assert.Equal(t, []any{"mission-control"}, calls[0].Args["deliveredTo"])

	qq := calls[1].Args
	assert.Equal(t, "qq weekly 2026-02-02", qq["title"])
	assert.Equal(t, "Weekly report", qq["summary"])
	assert.Equal(t, "No content available", qq["content"])
}

func TestMigrateWeekly_QueryRejected(t *testing.T) {
	remote := testingpkg.NewRemoteStore(t)
	remote.Reject(legacyWeeklyQuery, "no such function")

	_, err := MigrateWeekly(context.Background(), remote.Client(), zerolog.Nop())
	assert.ErrorContains(t, err, "no such function")
}
