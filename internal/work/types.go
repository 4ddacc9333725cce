package work

import (
	"context"
	"fmt"

	"github.com/aristath/mcsync/internal/clients/convex"
	"github.com/aristath/mcsync/internal/domain"
	"github.com/aristath/mcsync/internal/signature"
)

// Status is the overall verdict of one unit run.
type Status int

const (
	// StatusSynced means the unit fetched its source and pushed records.
	StatusSynced Status = iota
	// StatusUnchanged means the change gate found nothing new.
	StatusUnchanged
	// StatusSkipped means the source was unavailable.
	StatusSkipped
	// StatusFailed means the unit returned an error or panicked.
	StatusFailed
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusUnchanged:
		return "unchanged"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is what a unit reports back to the runner.
type Outcome struct {
	Status Status
	// Synced counts records the remote store accepted.
	Synced int
	// Failed counts records that could not be parsed or were not accepted.
	Failed int
	// Detail is a short human-readable note (skip reason, extra counts).
	Detail string
	// Err is set for StatusFailed.
	Err error
}

// Unchanged reports a unit whose change gate held.
func Unchanged() Outcome {
	return Outcome{Status: StatusUnchanged}
}

// Skipped reports an unavailable source.
func Skipped(format string, args ...any) Outcome {
	return Outcome{Status: StatusSkipped, Detail: fmt.Sprintf(format, args...)}
}

// Failed reports a unit-level failure.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// Record tallies one upsert result.
func (o *Outcome) Record(r convex.Result) bool {
	if r.OK() {
		o.Synced++
		return true
	}
	o.Failed++
	return false
}

// Upserter pushes normalized records to the remote store.
type Upserter interface {
	Upsert(ctx context.Context, path string, rec domain.Record) convex.Result
}

// Unit is one domain sync step.
type Unit struct {
	// ID is the domain name used by the --only filter (e.g., "health", "trade_log").
	ID string

	// Description is shown by --list.
	Description string

	// Execute runs the unit. It applies its own change gate against store and
	// must not save the store; the runner does that once after every unit ran.
	Execute func(ctx context.Context, store *signature.Store) Outcome
}
