package habits

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
)

const (
	// StateKey is the signature store key of the tracker domain.
	StateKey = "ziolo"

	upsertPath = "ziolo:upsertZiolo"
)

// Service syncs the tracker CSV.
type Service struct {
	path  string
	store work.Upserter
	now   func() time.Time
	log   zerolog.Logger
}

// NewService creates a tracker sync service for dataDir/ziolo_tracker.csv.
func NewService(dataDir string, store work.Upserter, log zerolog.Logger) *Service {
	return &Service{
		path:  filepath.Join(dataDir, "ziolo_tracker.csv"),
		store: store,
		now:   time.Now,
		log:   log.With().Str("unit", StateKey).Logger(),
	}
}

// Sync pushes the streak summary when the tracker file changed.
func (s *Service) Sync(ctx context.Context, state *signature.Store) work.Outcome {
	sig := signature.StatOne(s.path)
	if !sig.AnyStat() {
		return work.Skipped("ziolo_tracker.csv not found")
	}
	if !state.Changed(StateKey, sig) {
		return work.Unchanged()
	}

	f, err := os.Open(s.path)
	if err != nil {
		return work.Failed(err)
	}
	defer f.Close()

	rows, err := ParseRows(f)
	if err != nil {
		return work.Failed(err)
	}

	summary, err := Summarize(rows, s.now())
	if errors.Is(err, ErrNoRows) {
		return work.Skipped("tracker has no rows")
	}
	if err != nil {
		return work.Failed(err)
	}

	var out work.Outcome
	if out.Record(s.store.Upsert(ctx, upsertPath, summary)) {
		s.log.Info().
			Int("streak", summary.CurrentStreak).
			Int("monthly", summary.MonthlyUseDays).
			Int("yearly", summary.YearlyUseDays).
			Msg("Streak synced")
	}
	return out
}
