// Package testing provides testing utilities and helpers for the mcsync project.
package testing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aristath/mcsync/internal/database"
)

// MealsSchema is the layout of the meal tracker's local database.
const MealsSchema = `CREATE TABLE meals (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	date      TEXT NOT NULL,
	meal_type TEXT,
	name      TEXT,
	kcal      REAL,
	protein   REAL,
	carbs     REAL,
	fat       REAL,
	sat_fat   REAL,
	fiber     REAL
)`

// MealRow is one row inserted by NewMealsDB. Nil pointers are stored as NULL.
type MealRow struct {
	Date     string
	MealType string
	Name     *string
	Kcal     *float64
	Protein  *float64
	Carbs    *float64
	Fat      *float64
	SatFat   *float64
	Fiber    *float64
}

// NewMealsDB creates a meals database at dir/meals.db holding rows and returns
// its path. The connection is closed before returning so the code under test
// opens the file itself.
func NewMealsDB(t *testing.T, dir string, rows ...MealRow) string {
	t.Helper()

	path := filepath.Join(dir, "meals.db")
	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileStandard,
		Name:    "meals",
	})
	if err != nil {
		t.Fatalf("Failed to create test database meals: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, MealsSchema); err != nil {
		t.Fatalf("Failed to create meals schema: %v", err)
	}

	for _, r := range rows {
		_, err := db.ExecContext(ctx,
			`INSERT INTO meals (date, meal_type, name, kcal, protein, carbs, fat, sat_fat, fiber)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Date, r.MealType, r.Name, r.Kcal, r.Protein, r.Carbs, r.Fat, r.SatFat, r.Fiber)
		if err != nil {
			t.Fatalf("Failed to insert meal row: %v", err)
		}
	}

	return path
}
