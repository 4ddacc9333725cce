package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// slowOperation is the duration above which a timed operation is logged at Warn.
const slowOperation = 2 * time.Minute

// OperationTimer starts timing operation. The returned func logs and returns the
// elapsed time.
//
// Usage:
//
//	done := utils.OperationTimer("sync run", log)
//	...
//	elapsed := done()
func OperationTimer(operation string, log zerolog.Logger) func() time.Duration {
	start := time.Now()

	return func() time.Duration {
		duration := time.Since(start)

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		if duration > slowOperation {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
		}
		return duration
	}
}
