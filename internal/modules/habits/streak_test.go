package habits

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/mcsync/internal/signature"
	testingpkg "github.com/aristath/mcsync/internal/testing"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackerCSV = `id,dose,start,end
1,5mg,2025-12-28 09:00,2026-01-02 09:00
2,5mg,2026-01-20 08:30,2026-01-25 21:00
short,row
3,5mg,2026-02-01 07:45,
`

func TestParseRows(t *testing.T) {
	rows, err := ParseRows(strings.NewReader(trackerCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3, "header and short rows are dropped")
	assert.Equal(t, "2026-02-01 07:45", rows[2][2])
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 2, 11, 18, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		csv  string
		want int
	}{
		{name: "open course counts days since start", csv: trackerCSV, want: 10},
		{name: "ended course resets to zero", csv: "h,h,h,h\n1,x,2026-02-01 07:45,2026-02-05 10:00\n", want: 0},
		{name: "unparseable start resets to zero", csv: "h,h,h,h\n1,x,yesterday,\n", want: 0},
		{name: "start today is zero", csv: "h,h,h,h\n1,x,2026-02-11 06:00,\n", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseRows(strings.NewReader(tt.csv))
			require.NoError(t, err)
			got, err := Summarize(rows, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.CurrentStreak)
		})
	}
}

func TestSummarize_Counts(t *testing.T) {
	rows, err := ParseRows(strings.NewReader(trackerCSV))
	require.NoError(t, err)

	got, err := Summarize(rows, time.Date(2026, 2, 11, 18, 0, 0, 0, time.Local))
	require.NoError(t, err)

	assert.Equal(t, 1, got.MonthlyUseDays)
	assert.Equal(t, 2, got.YearlyUseDays)
	assert.Equal(t, "2026-02-01", got.LastUseDate)
	assert.Equal(t, MonthlyGoal, got.MonthlyGoal)
	assert.Equal(t, YearlyGoal, got.YearlyGoal)
}

func TestSummarize_NoRows(t *testing.T) {
	_, err := Summarize(nil, time.Now())
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestSync_Tracker(t *testing.T) {
	dataDir := t.TempDir()
	path := testingpkg.WriteFile(t, dataDir, "ziolo_tracker.csv", trackerCSV)

	remote := testingpkg.NewRemoteStore(t)
	store := signature.Load(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
	svc := NewService(dataDir, remote.Client(), zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 2, 11, 18, 0, 0, 0, time.Local) }

	out := svc.Sync(context.Background(), store)
	require.Equal(t, 1, out.Synced)
	args := remote.Calls(upsertPath)[0].Args
	assert.Equal(t, float64(10), args["currentStreak"])
	assert.Equal(t, float64(8), args["monthlyGoal"])
	assert.Equal(t, float64(96), args["yearlyGoal"])

	assert.Equal(t, work.StatusUnchanged, svc.Sync(context.Background(), store).Status)

	testingpkg.WriteFile(t, dataDir, "ziolo_tracker.csv", trackerCSV+"4,5mg,2026-02-10 08:00,\n")
	testingpkg.Touch(t, path)
	out = svc.Sync(context.Background(), store)
	require.Equal(t, 1, out.Synced)
	assert.Equal(t, float64(1), remote.Calls(upsertPath)[1].Args["currentStreak"])
}

func TestSync_MissingTracker(t *testing.T) {
	store := signature.Load(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
	out := NewService(t.TempDir(), testingpkg.NewRemoteStore(t).Client(), zerolog.Nop()).Sync(context.Background(), store)
	assert.Equal(t, work.StatusSkipped, out.Status)
}
