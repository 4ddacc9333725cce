package health

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/aristath/mcsync/internal/domain"
	"gonum.org/v1/gonum/floats/scalar"
)

type sleepReading struct {
	hours *float64
	score *float64
}

// Join assembles one snapshot per calendar date found in any stream of w, in
// ascending date order. A date missing from a stream leaves that stream's fields
// absent; no date requires every stream to be present.
func Join(w Window) []domain.HealthSnapshot {
	daily := make(map[string]DailySummary)
	for _, d := range w.Daily {
		if d.CalendarDate != "" {
			daily[d.CalendarDate] = d
		}
	}

	sleep := make(map[string]sleepReading)
	for _, s := range w.Sleep {
		dto := s.DailySleepDTO
		if dto.CalendarDate != "" {
			sleep[dto.CalendarDate] = sleepReading{
				hours: sleepHours(dto.SleepTimeSeconds),
				score: dto.SleepScores.Overall.Value,
			}
		}
	}

	hrv := make(map[string]*float64)
	for _, h := range w.HRV {
		if h.HRVSummary.CalendarDate != "" {
			hrv[h.HRVSummary.CalendarDate] = h.HRVSummary.LastNightAvg
		}
	}

	readiness := make(map[string]*float64)
	for _, r := range w.TrainingReadiness {
		if r.CalendarDate != "" {
			readiness[r.CalendarDate] = r.Score
		}
	}

	seen := make(map[string]bool)
	for d := range daily {
		seen[d] = true
	}
	for d := range sleep {
		seen[d] = true
	}
	for d := range hrv {
		seen[d] = true
	}
	for d := range readiness {
		seen[d] = true
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	snapshots := make([]domain.HealthSnapshot, 0, len(dates))
	for _, date := range dates {
		snap := domain.HealthSnapshot{Date: date}
		if d, ok := daily[date]; ok {
			applyDaily(&snap, d)
		}
		if s, ok := sleep[date]; ok {
			snap.SleepHours = s.hours
			snap.SleepScore = s.score
		}
		snap.HRV = hrv[date]
		snap.TrainingReadiness = readiness[date]
		snapshots = append(snapshots, snap)
	}
	return snapshots
}

// LiveSnapshot builds the "today" snapshot straight from the live payload. When
// the payload carries no date, now's local calendar date is used.
func LiveSnapshot(t Today, now time.Time) domain.HealthSnapshot {
	date := t.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}

	snap := domain.HealthSnapshot{Date: date}
	applyDaily(&snap, t.Daily)

	dto := t.Sleep.DailySleepDTO
	snap.SleepHours = sleepHours(dto.SleepTimeSeconds)
	snap.SleepScore = dto.SleepScores.Overall.Value
	snap.HRV = t.HRV.HRVSummary.LastNightAvg

	// Only a single readiness object counts for the live view.
	if raw := bytes.TrimSpace(t.TrainingReadiness); len(raw) > 0 && raw[0] == '{' {
		var r ReadinessEntry
		if err := json.Unmarshal(raw, &r); err == nil {
			snap.TrainingReadiness = r.Score
		}
	}
	return snap
}

func applyDaily(snap *domain.HealthSnapshot, d DailySummary) {
	snap.Stress = d.AverageStressLevel
	snap.BodyBattery = d.BodyBatteryHighestValue
	if snap.BodyBattery == nil {
		snap.BodyBattery = d.BodyBatteryMostRecentValue
	}
	snap.BodyBatteryHigh = d.BodyBatteryHighestValue
	snap.BodyBatteryLow = d.BodyBatteryLowestValue
	snap.RestingHR = d.RestingHeartRate
	snap.Steps = d.TotalSteps
	snap.ActiveCalories = d.ActiveKilocalories
}

// sleepHours converts seconds to hours with one decimal. No recorded sleep is
// no reading.
func sleepHours(seconds *float64) *float64 {
	if seconds == nil || *seconds <= 0 {
		return nil
	}
	return domain.Float(scalar.Round(*seconds/3600, 1))
}
