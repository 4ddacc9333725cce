package di

import (
	"context"

	"github.com/aristath/mcsync/internal/clients/bridge"
	"github.com/aristath/mcsync/internal/clients/convex"
	"github.com/aristath/mcsync/internal/config"
	"github.com/aristath/mcsync/internal/gitrepo"
	"github.com/aristath/mcsync/internal/reliability"
	"github.com/aristath/mcsync/internal/signature"
	"github.com/rs/zerolog"
)

// InitializeClients loads the signature store and creates every external client.
// A mirror that cannot be configured is logged and left nil; reports still drain.
func InitializeClients(ctx context.Context, cfg *config.Config, log zerolog.Logger) *Container {
	container := &Container{
		Config: cfg,
		Log:    log,
	}

	container.Store = signature.Load(cfg.StatePath, log)
	container.Convex = convex.NewClient(cfg.ConvexURL, cfg.MutationTimeout, log)
	container.Bridge = bridge.NewClient(cfg.BridgeURL, cfg.BridgeToken, cfg.BridgeTimeout, log)
	container.Repo = gitrepo.New(cfg.TradingRepoDir, cfg.GitTimeout, log)

	if cfg.Archive.Enabled() {
		mirror, err := reliability.NewArchiveMirror(ctx, cfg.Archive, log)
		if err != nil {
			log.Warn().Err(err).Str("bucket", cfg.Archive.Bucket).Msg("Archive mirror disabled")
		} else {
			container.Mirror = mirror
		}
	}

	log.Debug().
		Str("convex_url", cfg.ConvexURL).
		Str("bridge_url", cfg.BridgeURL).
		Str("state_path", cfg.StatePath).
		Bool("archive_mirror", container.Mirror != nil).
		Msg("Clients initialized")
	return container
}
