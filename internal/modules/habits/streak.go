// Package habits syncs the supplement-course tracker (a CSV log of course
// start and end timestamps) as a streak summary.
package habits

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aristath/mcsync/internal/domain"
)

const (
	// MonthlyGoal is the target number of use days per calendar month.
	MonthlyGoal = 8
	// YearlyGoal is the target number of use days per calendar year.
	YearlyGoal = 96

	startColumn = 2
	endColumn   = 3
	minColumns  = 4
)

// ErrNoRows is returned when the tracker has no usable row.
var ErrNoRows = errors.New("tracker has no rows")

// ParseRows reads the tracker, skipping the header and rows with fewer than four columns.
func ParseRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	header := true
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tracker: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) >= minColumns {
			rows = append(rows, rec)
		}
	}
	return rows, nil
}

// Summarize derives the streak summary at now. The current streak is the number
// of whole days since the last row's start when that course is still open (no end
// timestamp), and 0 once it has ended or its start cannot be parsed.
func Summarize(rows [][]string, now time.Time) (domain.HabitStreak, error) {
	if len(rows) == 0 {
		return domain.HabitStreak{}, ErrNoRows
	}

	last := rows[len(rows)-1]
	streak := 0
	if strings.TrimSpace(last[endColumn]) == "" {
		if start, err := time.Parse("2006-01-02", datePart(last[startColumn])); err == nil {
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			if days := int(today.Sub(start).Hours() / 24); days > 0 {
				streak = days
			}
		}
	}

	month := now.Format("2006-01")
	year := now.Format("2006")
	summary := domain.HabitStreak{
		CurrentStreak: streak,
		MonthlyGoal:   MonthlyGoal,
		YearlyGoal:    YearlyGoal,
	}
	for _, row := range rows {
		use := datePart(row[startColumn])
		if use == "" {
			continue
		}
		if strings.HasPrefix(use, month) {
			summary.MonthlyUseDays++
		}
		if strings.HasPrefix(use, year) {
			summary.YearlyUseDays++
		}
		summary.LastUseDate = use
	}
	if summary.LastUseDate == "" {
		summary.LastUseDate = now.Format("2006-01-02")
	}
	return summary, nil
}

// datePart returns the date portion of a "YYYY-MM-DD[ HH:MM]" timestamp.
func datePart(ts string) string {
	ts = strings.TrimSpace(ts)
	if i := strings.IndexByte(ts, ' '); i >= 0 {
		return ts[:i]
	}
	return ts
}
