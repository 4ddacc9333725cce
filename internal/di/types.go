/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every client and service of a sync run. It is created by
 * Wire() and handed to the command layer, which only ever talks to the Runner.
 */
package di

import (
	"github.com/aristath/mcsync/internal/clients/bridge"
	"github.com/aristath/mcsync/internal/clients/convex"
	"github.com/aristath/mcsync/internal/config"
	"github.com/aristath/mcsync/internal/gitrepo"
	"github.com/aristath/mcsync/internal/reliability"
	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
)

// Container holds all dependencies of one process.
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	// Signature store shared by every unit
	Store *signature.Store

	// Clients
	Convex *convex.Client
	Bridge *bridge.Client
	Repo   *gitrepo.Git

	// Mirror is nil when no archive bucket is configured
	Mirror *reliability.ArchiveMirror

	// Work
	Registry *work.Registry
	Runner   *work.Runner
}
