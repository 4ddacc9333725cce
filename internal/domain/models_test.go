package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideFromWeight(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		want   Side
	}{
		{name: "negative is short", weight: -0.25, want: SideShort},
		{name: "positive is long", weight: 0.4, want: SideLong},
		{name: "zero is flat", weight: 0, want: SideFlat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SideFromWeight(tt.weight))
		})
	}
}

func TestNaturalKeys(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{name: "health day", rec: HealthSnapshot{Date: "2026-02-10"}, want: "2026-02-10"},
		{name: "character", rec: CharacterProgression{}, want: "character"},
		{name: "strategy", rec: StrategyPerformance{StrategyID: "carver_trend_v1"}, want: "carver_trend_v1"},
		{name: "meal plan", rec: MealPlan{WeekLabel: "Week of Feb 9"}, want: "Week of Feb 9"},
		{name: "meal log day", rec: MealLogDay{Date: "2026-02-10"}, want: "2026-02-10"},
		{name: "cron job", rec: CronJobStatus{JobID: "morning"}, want: "morning"},
		{name: "structured report", rec: StructuredReport{ReportID: "coach-daily-2026-02-10"}, want: "coach-daily-2026-02-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.NaturalKey())
		})
	}
}

func TestString(t *testing.T) {
	assert.Nil(t, String(""))
	require.NotNil(t, String("x"))
	assert.Equal(t, "x", *String("x"))
}

func TestOptionalFieldsOmitted(t *testing.T) {
	data, err := json.Marshal(HealthSnapshot{Date: "2026-02-10"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, map[string]any{"date": "2026-02-10"}, fields, "absent metrics are not sent")
}
