// Package health syncs daily health metrics from the API bridge's Garmin endpoints.
package health

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DailySummary is one entry of the bridge's "daily" stream.
type DailySummary struct {
	CalendarDate               string   `json:"calendarDate"`
	AverageStressLevel         *float64 `json:"averageStressLevel"`
	BodyBatteryHighestValue    *float64 `json:"bodyBatteryHighestValue"`
	BodyBatteryLowestValue     *float64 `json:"bodyBatteryLowestValue"`
	BodyBatteryMostRecentValue *float64 `json:"bodyBatteryMostRecentValue"`
	RestingHeartRate           *float64 `json:"restingHeartRate"`
	TotalSteps                 *float64 `json:"totalSteps"`
	ActiveKilocalories         *float64 `json:"activeKilocalories"`
}

// SleepEntry is one entry of the "sleep" stream.
type SleepEntry struct {
	DailySleepDTO struct {
		CalendarDate     string   `json:"calendarDate"`
		SleepTimeSeconds *float64 `json:"sleepTimeSeconds"`
		SleepScores      struct {
			Overall struct {
				Value *float64 `json:"value"`
			} `json:"overall"`
		} `json:"sleepScores"`
	} `json:"dailySleepDTO"`
}

// HRVEntry is one entry of the "hrv" stream.
type HRVEntry struct {
	HRVSummary struct {
		CalendarDate string   `json:"calendarDate"`
		LastNightAvg *float64 `json:"lastNightAvg"`
	} `json:"hrvSummary"`
}

// ReadinessEntry is one training-readiness reading.
type ReadinessEntry struct {
	CalendarDate string   `json:"calendarDate"`
	Score        *float64 `json:"score"`
}

// Readiness holds training-readiness readings. The bridge sends either a single
// object or a list; both decode into the same slice.
type Readiness []ReadinessEntry

// UnmarshalJSON accepts an object, a list or null.
func (r *Readiness) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	switch data[0] {
	case '[':
		var list []ReadinessEntry
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("failed to decode training readiness list: %w", err)
		}
		*r = list
	case '{':
		var one ReadinessEntry
		if err := json.Unmarshal(data, &one); err != nil {
			return fmt.Errorf("failed to decode training readiness: %w", err)
		}
		*r = Readiness{one}
	default:
		*r = nil
	}
	return nil
}

// Window is the multi-stream payload of /garmin/data?days=N. The streams are
// keyed by calendar date but do not necessarily cover the same dates.
type Window struct {
	Daily             []DailySummary `json:"daily"`
	Sleep             []SleepEntry   `json:"sleep"`
	HRV               []HRVEntry     `json:"hrv"`
	TrainingReadiness Readiness      `json:"training_readiness"`
}

// Today is the live payload of /garmin/today.
type Today struct {
	Date              string          `json:"date"`
	LastSync          json.RawMessage `json:"last_sync"`
	Daily             DailySummary    `json:"daily"`
	Sleep             SleepEntry      `json:"sleep"`
	HRV               HRVEntry        `json:"hrv"`
	TrainingReadiness json.RawMessage `json:"training_readiness"`
}

// SyncToken returns the bridge's last-sync marker as an opaque string, or "" when absent.
func (t *Today) SyncToken() string {
	raw := bytes.TrimSpace(t.LastSync)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
