// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"
	"io"

	"github.com/aristath/mcsync/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Load the signature store and create clients
// 2. Build domain services and register them as units
func Wire(ctx context.Context, cfg *config.Config, out io.Writer, log zerolog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Step 1: Initialize clients
	container := InitializeClients(ctx, cfg, log)

	// Step 2: Register units
	RegisterUnits(container, out)

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
