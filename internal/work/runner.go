package work

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/utils"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Result is the outcome of one unit in a run.
type Result struct {
	UnitID   string
	Outcome  Outcome
	Duration time.Duration
}

// Report summarises a whole run.
type Report struct {
	RunID     string
	Results   []Result
	// Unknown lists filter entries that matched no unit.
	Unknown   []string
	// Saved is true when the signature store was written.
	Saved     bool
	SaveErr   error
	// Cancelled is true when ctx ended during the run; the store is then not saved.
	Cancelled bool
}

// Synced returns the total number of records accepted across all units.
func (r Report) Synced() int {
	n := 0
	for _, res := range r.Results {
		n += res.Outcome.Synced
	}
	return n
}

// Runner executes units sequentially against one signature store.
type Runner struct {
	registry *Registry
	store    *signature.Store
	out      io.Writer
	log      zerolog.Logger
}

// NewRunner creates a runner. Per-unit summaries are written to out.
func NewRunner(registry *Registry, store *signature.Store, out io.Writer, log zerolog.Logger) *Runner {
	return &Runner{
		registry: registry,
		store:    store,
		out:      out,
		log:      log,
	}
}

// Run executes the selected units one after another, then saves the signature
// store once if any unit changed it. A failing or panicking unit is reported and
// the run moves on. A cancelled run never saves, leaving the store as it was
// before the run.
func (r *Runner) Run(ctx context.Context, only []string) Report {
	report := Report{RunID: uuid.NewString()}
	log := r.log.With().Str("run_id", report.RunID).Logger()

	units, unknown := r.registry.Select(only)
	report.Unknown = unknown
	for _, id := range unknown {
		log.Warn().Str("unit", id).Msg("Unknown domain in filter, ignoring")
	}

	fmt.Fprintln(r.out, color.CyanString("mcsync %s", report.RunID))
	if len(only) > 0 {
		fmt.Fprintf(r.out, "  only: %s\n", strings.Join(only, ", "))
	}

	log.Info().Int("units", len(units)).Msg("Sync run started")
	done := utils.OperationTimer("sync run", log)

	for _, u := range units {
		if ctx.Err() != nil {
			log.Warn().Msg("Run cancelled, remaining units not started")
			break
		}
		res := r.runUnit(ctx, u, log)
		report.Results = append(report.Results, res)
		r.printResult(res)
	}

	elapsed := done()

	if ctx.Err() != nil {
		report.Cancelled = true
		log.Warn().Err(ctx.Err()).Msg("Run interrupted, signature store not saved")
		fmt.Fprintln(r.out, color.RedString("✗ interrupted: signature store not saved"))
	} else {
		report.Saved, report.SaveErr = r.store.Save()
		if report.SaveErr != nil {
			log.Error().Err(report.SaveErr).Str("path", r.store.Path()).Msg("Failed to save signature store")
			fmt.Fprintln(r.out, color.RedString("✗ signature store not saved: %v", report.SaveErr))
		}
	}

	log.Info().
		Int("synced", report.Synced()).
		Bool("store_saved", report.Saved).
		Msg("Sync run complete")
	fmt.Fprintln(r.out, color.GreenString("done: %d records synced in %s", report.Synced(), elapsed.Round(time.Millisecond)))
	return report
}

func (r *Runner) runUnit(ctx context.Context, u *Unit, log zerolog.Logger) (res Result) {
	log = log.With().Str("unit", u.ID).Logger()
	res.UnitID = u.ID
	start := time.Now()

	defer func() {
		res.Duration = time.Since(start)
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Unit panicked")
			res.Outcome = Failed(fmt.Errorf("panic: %v", rec))
		}
	}()

	log.Debug().Msg("Unit started")
	res.Outcome = u.Execute(ctx, r.store)

	evt := log.Info()
	if res.Outcome.Status == StatusFailed {
		evt = log.Error().Err(res.Outcome.Err)
	}
	evt.Str("status", res.Outcome.Status.String()).
		Int("synced", res.Outcome.Synced).
		Int("failed", res.Outcome.Failed).
		Str("detail", res.Outcome.Detail).
		Msg("Unit finished")
	return res
}

func (r *Runner) printResult(res Result) {
	o := res.Outcome
	var line string
	switch o.Status {
	case StatusSynced:
		line = color.GreenString("✓ %-10s synced %d", res.UnitID, o.Synced)
		if o.Failed > 0 {
			line += color.RedString(" (%d failed)", o.Failed)
		}
	case StatusUnchanged:
		line = color.YellowString("↩ %-10s unchanged", res.UnitID)
	case StatusSkipped:
		line = color.YellowString("↩ %-10s skipped", res.UnitID)
	default:
		line = color.RedString("✗ %-10s failed: %v", res.UnitID, o.Err)
	}
	if o.Detail != "" {
		line += " - " + o.Detail
	}
	fmt.Fprintln(r.out, line)
}
