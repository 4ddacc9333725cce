package di

import (
	"io"
	"path/filepath"

	"github.com/aristath/mcsync/internal/modules/cron"
	"github.com/aristath/mcsync/internal/modules/habits"
	"github.com/aristath/mcsync/internal/modules/health"
	"github.com/aristath/mcsync/internal/modules/meals"
	"github.com/aristath/mcsync/internal/modules/reports"
	"github.com/aristath/mcsync/internal/modules/tes"
	"github.com/aristath/mcsync/internal/modules/trading"
	"github.com/aristath/mcsync/internal/work"
)

// RegisterUnits builds every domain service and registers it as a unit, in run
// order, then creates the runner over the registry.
func RegisterUnits(container *Container, out io.Writer) {
	cfg := container.Config
	log := container.Log
	remote := container.Convex
	dataDir := cfg.DataDir()

	var mirror reports.Archiver
	if container.Mirror != nil {
		mirror = container.Mirror
	}

	healthSvc := health.NewService(container.Bridge, remote, log)
	tesSvc := tes.NewService(dataDir, remote, log)
	habitsSvc := habits.NewService(dataDir, remote, log)
	tradingSvc := trading.NewService(container.Repo, remote, log)
	mealLogSvc := meals.NewLogService(dataDir, cfg.MealLogDays, remote, log)
	mealPlanSvc := meals.NewPlanService(cfg.MealPlanVault(), cfg.NotionMealHubID, container.Bridge, remote, log)
	cronSvc := cron.NewService(cfg.CronSnapshotPath, remote, log)
	tradeLogSvc := trading.NewTradeLogService(cfg.TradingRepoDir, remote, log)
	weeklySvc := reports.NewWeeklyService(cfg.WeeklyReportsDir, remote, log)
	queueSvc := reports.NewQueueService(filepath.Join(dataDir, "reports"), remote, mirror, log)

	registry := work.NewRegistry()
	registry.Register(&work.Unit{ID: health.StateKey, Description: "Daily health metrics from the bridge", Execute: healthSvc.Sync})
	registry.Register(&work.Unit{ID: tes.StateKey, Description: "Character progression and habit events", Execute: tesSvc.Sync})
	registry.Register(&work.Unit{ID: habits.StateKey, Description: "Habit tracker and streaks", Execute: habitsSvc.Sync})
	registry.Register(&work.Unit{ID: trading.StateKey, Description: "Strategy snapshots from the trading repository", Execute: tradingSvc.Sync})
	registry.Register(&work.Unit{ID: meals.LogStateKey, Description: "Logged meals from the local database", Execute: mealLogSvc.Sync})
	registry.Register(&work.Unit{ID: meals.PlanStateKey, Description: "Weekly meal plan from the vault or Notion", Execute: mealPlanSvc.Sync})
	registry.Register(&work.Unit{ID: cron.StateKey, Description: "Scheduler job snapshot", Execute: cronSvc.Sync})
	registry.Register(&work.Unit{ID: trading.TradeLogStateKey, Description: "Filled trades per report date", Execute: tradeLogSvc.Sync})
	registry.Register(&work.Unit{ID: reports.WeeklyUnitID, Description: "Latest weekly report per domain", Execute: weeklySvc.Sync})
	registry.Register(&work.Unit{ID: reports.QueueUnitID, Description: "Pending structured reports", Execute: queueSvc.Sync})

	container.Registry = registry
	container.Runner = work.NewRunner(registry, container.Store, out, log)

	log.Debug().Int("units", registry.Count()).Msg("Units registered")
}
