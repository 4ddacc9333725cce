package health

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
)

const (
	// StateKey is the signature store key of the health domain.
	StateKey = "health"

	upsertPath = "health:upsertHealth"
	windowDays = 7
)

// Fetcher reads JSON documents from the API bridge.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, out any) error
}

// Service syncs the 7-day health window plus the live "today" snapshot.
type Service struct {
	bridge Fetcher
	store  work.Upserter
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a health sync service.
func NewService(bridge Fetcher, store work.Upserter, log zerolog.Logger) *Service {
	return &Service{
		bridge: bridge,
		store:  store,
		now:    time.Now,
		log:    log.With().Str("unit", StateKey).Logger(),
	}
}

// Sync runs one health sync. The change gate is the bridge's last-sync token,
// which needs the cheap /garmin/today probe first.
func (s *Service) Sync(ctx context.Context, state *signature.Store) work.Outcome {
	var today *Today
	var t Today
	if err := s.bridge.GetJSON(ctx, "/garmin/today", &t); err != nil {
		s.log.Warn().Err(err).Msg("Live health payload unavailable")
	} else {
		today = &t
	}

	gated := false
	if today != nil {
		if token := today.SyncToken(); token != "" {
			if !state.Changed(StateKey, signature.Versions(map[string]string{"garmin_last_sync": token})) {
				s.log.Debug().Str("last_sync", token).Msg("Garmin unchanged")
				return work.Unchanged()
			}
			gated = true
		}
	}

	var out work.Outcome
	var window Window
	windowErr := s.bridge.GetJSON(ctx, fmt.Sprintf("/garmin/data?days=%d", windowDays), &window)
	if windowErr != nil {
		// Nothing fetched for the window: let the next run retry it.
		if gated {
			state.Rollback(StateKey)
		}
		if today == nil {
			return work.Skipped("api bridge returned no health data")
		}
		out.Detail = "7-day window unavailable"
	} else {
		for _, snap := range Join(window) {
			out.Record(s.store.Upsert(ctx, upsertPath, snap))
		}
	}

	if today != nil {
		live := LiveSnapshot(*today, s.now())
		if out.Record(s.store.Upsert(ctx, upsertPath, live)) {
			s.log.Info().
				Str("date", live.Date).
				Interface("hrv", live.HRV).
				Interface("sleep_score", live.SleepScore).
				Interface("body_battery", live.BodyBattery).
				Msg("Live snapshot synced")
		}
	}

	return out
}
