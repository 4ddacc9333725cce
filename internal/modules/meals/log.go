package meals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aristath/mcsync/internal/database"
	"github.com/aristath/mcsync/internal/domain"
	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
)

const (
	// LogStateKey is the signature store key of the meal log domain.
	LogStateKey = "meal_log"

	upsertLogPath = "meals:syncMealLog"
)

const mealsTable = "meals"

var errNoMealsTable = errors.New("meals table not found")

const selectMealsSQL = `
	SELECT date, meal_type, name, kcal, protein, carbs, fat, sat_fat, fiber
	FROM meals
	WHERE date >= ?
	ORDER BY date, meal_type
`

// LogService syncs the recent days of the local meal tracker database.
type LogService struct {
	dbPath string
	days   int
	store  work.Upserter
	now    func() time.Time
	log    zerolog.Logger
}

// NewLogService creates a meal log sync service over dataDir/meals.db covering
// the last days days.
func NewLogService(dataDir string, days int, store work.Upserter, log zerolog.Logger) *LogService {
	return &LogService{
		dbPath: filepath.Join(dataDir, "meals.db"),
		days:   days,
		store:  store,
		now:    time.Now,
		log:    log.With().Str("unit", LogStateKey).Logger(),
	}
}

// Sync pushes one record per logged date when the database file changed.
func (s *LogService) Sync(ctx context.Context, state *signature.Store) work.Outcome {
	sig := signature.StatOne(s.dbPath)
	if !sig.AnyStat() {
		return work.Skipped("meals.db not found")
	}
	if !state.Changed(LogStateKey, sig) {
		return work.Unchanged()
	}

	days, skipped, err := s.load(ctx)
	if errors.Is(err, errNoMealsTable) {
		state.Rollback(LogStateKey)
		return work.Skipped("meals table not found")
	}
	if err != nil {
		state.Rollback(LogStateKey)
		return work.Failed(err)
	}

	var out work.Outcome
	out.Failed = skipped
	meals := 0
	for _, day := range days {
		if out.Record(s.store.Upsert(ctx, upsertLogPath, day)) {
			meals += len(day.Meals)
		}
	}
	s.log.Info().Int("meals", meals).Int("days", len(days)).Msg("Meal log synced")
	return out
}

// load reads meals dated on or after the cutoff, grouped by date in date order.
// Rows missing a date, meal type or name are logged and counted in skipped.
func (s *LogService) load(ctx context.Context) (days []domain.MealLogDay, skipped int, err error) {
	db, err := database.New(database.Config{
		Path:    s.dbPath,
		Profile: database.ProfileReadOnly,
		Name:    "meals",
	})
	if err != nil {
		return nil, 0, err
	}
	defer db.Close()

	exists, err := db.TableExists(ctx, mealsTable)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, errNoMealsTable
	}

	cutoff := s.now().AddDate(0, 0, -s.days).Format("2006-01-02")
	rows, err := db.QueryContext(ctx, selectMealsSQL, cutoff)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			date, mealType, name      sql.NullString
			kcal, protein, carbs, fat sql.NullFloat64
			satFat, fiber             sql.NullFloat64
		)
		if err := rows.Scan(&date, &mealType, &name, &kcal, &protein, &carbs, &fat, &satFat, &fiber); err != nil {
			return nil, 0, fmt.Errorf("failed to scan meal: %w", err)
		}
		if !date.Valid || !mealType.Valid || !name.Valid {
			s.log.Warn().
				Str("date", date.String).
				Str("meal_type", mealType.String).
				Msg("Skipping meal row with missing fields")
			skipped++
			continue
		}

		meal := domain.LoggedMeal{
			MealType: mealType.String,
			Name:     name.String,
			Kcal:     kcal.Float64,
			Protein:  protein.Float64,
			Carbs:    carbs.Float64,
			Fat:      fat.Float64,
		}
		if satFat.Valid {
			meal.SatFat = domain.Float(satFat.Float64)
		}
		if fiber.Valid {
			meal.Fiber = domain.Float(fiber.Float64)
		}

		if n := len(days); n == 0 || days[n-1].Date != date.String {
			days = append(days, domain.MealLogDay{Date: date.String})
		}
		days[len(days)-1].Meals = append(days[len(days)-1].Meals, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate meals: %w", err)
	}
	return days, skipped, nil
}
