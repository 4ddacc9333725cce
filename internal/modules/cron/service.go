// Package cron syncs the scheduler's job status snapshot.
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aristath/mcsync/internal/domain"
	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/work"
	robfig "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	// StateKey is the signature store key of the scheduler domain.
	StateKey = "cron"

	upsertPath = "cron:upsertCronJob"
)

// parser accepts five- or six-field expressions and descriptors such as "@daily".
var parser = robfig.NewParser(
	robfig.SecondOptional | robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow | robfig.Descriptor,
)

// Schedule is the scheduler's job timing descriptor.
type Schedule struct {
	Kind    string `json:"kind"`
	Expr    string `json:"expr"`
	TZ      string `json:"tz"`
	EveryMs int64  `json:"everyMs"`
}

// JobState is the scheduler's runtime view of a job.
type JobState struct {
	LastStatus        *string `json:"lastStatus"`
	LastRunAtMs       *int64  `json:"lastRunAtMs"`
	LastDurationMs    *int64  `json:"lastDurationMs"`
	LastError         *string `json:"lastError"`
	ConsecutiveErrors *int    `json:"consecutiveErrors"`
	NextRunAtMs       *int64  `json:"nextRunAtMs"`
}

// Job is one entry of the snapshot file.
type Job struct {
	ID       string   `json:"id"`
	Name     *string  `json:"name"`
	Enabled  *bool    `json:"enabled"`
	Schedule Schedule `json:"schedule"`
	State    JobState `json:"state"`
}

// Describe renders a schedule for display: the expression with its timezone, or
// an interval in the coarsest whole unit.
func Describe(s Schedule) string {
	switch s.Kind {
	case "cron":
		expr := s.Expr
		if expr == "" {
			expr = "?"
		}
		if s.TZ != "" {
			expr += " (" + s.TZ + ")"
		}
		return expr
	case "every":
		switch {
		case s.EveryMs >= int64(time.Hour/time.Millisecond):
			return fmt.Sprintf("every %dh", s.EveryMs/int64(time.Hour/time.Millisecond))
		case s.EveryMs >= int64(time.Minute/time.Millisecond):
			return fmt.Sprintf("every %dm", s.EveryMs/int64(time.Minute/time.Millisecond))
		default:
			return fmt.Sprintf("every %ds", s.EveryMs/int64(time.Second/time.Millisecond))
		}
	case "":
		return "?"
	default:
		return s.Kind
	}
}

// NextRun returns the first activation of a cron-kind schedule after now, in
// epoch milliseconds.
func NextRun(s Schedule, now time.Time) (int64, error) {
	spec := s.Expr
	if s.TZ != "" {
		spec = "CRON_TZ=" + s.TZ + " " + spec
	}
	sched, err := parser.Parse(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return sched.Next(now).UnixMilli(), nil
}

// Service syncs the job snapshot written by the scheduler.
type Service struct {
	snapshotPath string
	store        work.Upserter
	now          func() time.Time
	log          zerolog.Logger
}

// NewService creates a scheduler sync service over the snapshot at snapshotPath.
func NewService(snapshotPath string, store work.Upserter, log zerolog.Logger) *Service {
	return &Service{
		snapshotPath: snapshotPath,
		store:        store,
		now:          time.Now,
		log:          log.With().Str("unit", StateKey).Logger(),
	}
}

// Sync pushes every job of the snapshot when the file changed.
func (s *Service) Sync(ctx context.Context, state *signature.Store) work.Outcome {
	sig := signature.StatOne(s.snapshotPath)
	if !sig.AnyStat() {
		return work.Skipped("no cron snapshot at %s", s.snapshotPath)
	}
	if !state.Changed(StateKey, sig) {
		return work.Unchanged()
	}

	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		state.Rollback(StateKey)
		return work.Failed(fmt.Errorf("failed to read cron snapshot: %w", err))
	}
	var jobs []Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return work.Failed(fmt.Errorf("failed to parse cron snapshot: %w", err))
	}

	var out work.Outcome
	for _, job := range jobs {
		if job.ID == "" {
			s.log.Warn().Msg("Skipping job without id")
			continue
		}
		out.Record(s.store.Upsert(ctx, upsertPath, s.status(job)))
	}
	s.log.Info().Int("jobs", out.Synced).Msg("Cron jobs synced")
	return out
}

func (s *Service) status(job Job) domain.CronJobStatus {
	st := domain.CronJobStatus{
		JobID:             job.ID,
		Name:              "unnamed",
		Schedule:          Describe(job.Schedule),
		Enabled:           true,
		LastStatus:        job.State.LastStatus,
		LastRunAt:         job.State.LastRunAtMs,
		LastDurationMs:    job.State.LastDurationMs,
		ConsecutiveErrors: job.State.ConsecutiveErrors,
		NextRunAt:         job.State.NextRunAtMs,
	}
	if job.Name != nil {
		st.Name = *job.Name
	}
	if job.Enabled != nil {
		st.Enabled = *job.Enabled
	}
	if job.State.LastError != nil {
		st.LastError = domain.String(*job.State.LastError)
	}

	if st.NextRunAt == nil && job.Schedule.Kind == "cron" && job.Schedule.Expr != "" {
		next, err := NextRun(job.Schedule, s.now())
		if err != nil {
			s.log.Warn().Err(err).Str("job", job.ID).Msg("Cannot compute next run")
		} else {
			st.NextRunAt = &next
		}
	}
	return st
}
