// Package work implements the sync orchestrator.
//
// # Units
//
// Each data domain contributes one Unit. Units run strictly in registration
// order, one at a time:
//
//	health, tes, ziolo, trading, meal_log, meal_plan, cron, trade_log, weekly, reports
//
// A unit owns its change gate: it computes a signature for its source (file stat,
// content hash or git revisions) and asks the signature store whether it changed
// before doing any expensive read, parse or network work. Gates that need a
// remote round-trip (the health bridge's last-sync token) are checked right after
// that cheap probe.
//
// # Failure isolation
//
// A unit reports an Outcome rather than propagating errors. The runner recovers
// panics at the unit boundary, so one broken domain never aborts the others.
//
// # Persistence
//
// The signature store is saved exactly once, after the last unit, and only when
// a unit changed it. An interrupted run leaves the store as it was before the run.
package work
