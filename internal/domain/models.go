// Package domain provides the normalized records pushed to the remote store.
//
// Optional values are pointers (or nil slices) tagged `omitempty`: an absent
// reading is left out of the encoded record entirely, while a reading of zero is
// encoded as 0. Partial updates therefore never overwrite stored fields with null.
package domain

import "encoding/json"

// Record is anything that can be upserted. NaturalKey returns the stable key the
// remote store replaces by; an empty key means the record must not be sent.
type Record interface {
	NaturalKey() string
}

// HealthSnapshot is one calendar day of health metrics.
type HealthSnapshot struct {
	Date              string   `json:"date"`
	HRV               *float64 `json:"hrv,omitempty"`
	SleepScore        *float64 `json:"sleepScore,omitempty"`
	SleepHours        *float64 `json:"sleepHours,omitempty"`
	Stress            *float64 `json:"stress,omitempty"`
	BodyBattery       *float64 `json:"bodyBattery,omitempty"`
	BodyBatteryHigh   *float64 `json:"bodyBatteryHigh,omitempty"`
	BodyBatteryLow    *float64 `json:"bodyBatteryLow,omitempty"`
	RestingHR         *float64 `json:"restingHR,omitempty"`
	Steps             *float64 `json:"steps,omitempty"`
	ActiveCalories    *float64 `json:"activeCalories,omitempty"`
	TrainingReadiness *float64 `json:"trainingReadiness,omitempty"`
}

func (h HealthSnapshot) NaturalKey() string { return h.Date }

// CharacterProgression is the single overwritten row of habit-game counters.
type CharacterProgression struct {
	Level       int             `json:"level"`
	XP          int             `json:"xp"`
	TotalXP     int             `json:"totalXp"`
	Streaks     json.RawMessage `json:"streaks"`
	Badges      []string        `json:"badges"`
	Domains     json.RawMessage `json:"domains"`
	ClassName   string          `json:"className,omitempty"`
	TotalEvents int             `json:"totalEvents"`
}

func (CharacterProgression) NaturalKey() string { return "character" }

// HabitStreak summarises the habit tracker log.
type HabitStreak struct {
	CurrentStreak  int    `json:"currentStreak"`
	LastUseDate    string `json:"lastUseDate"`
	MonthlyUseDays int    `json:"monthlyUseDays"`
	MonthlyGoal    int    `json:"monthlyGoal"`
	YearlyUseDays  int    `json:"yearlyUseDays"`
	YearlyGoal     int    `json:"yearlyGoal"`
}

func (HabitStreak) NaturalKey() string { return "ziolo" }

// Mode distinguishes real-money from simulated strategies.
type Mode string

const (
	ModeLive  Mode = "live"
	ModePaper Mode = "paper"
)

// Side of a position, derived from the sign of its actual weight.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
	SideFlat  Side = "flat"
)

// SideFromWeight returns short for negative, long for positive and flat for zero weight.
func SideFromWeight(w float64) Side {
	switch {
	case w < 0:
		return SideShort
	case w > 0:
		return SideLong
	default:
		return SideFlat
	}
}

// EquityPoint is one date → value sample of an equity curve.
type EquityPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// PositionWeight is one row of a position reconciliation table.
type PositionWeight struct {
	Symbol        string  `json:"symbol"`
	TargetWt      float64 `json:"targetWt"`
	ActualWt      float64 `json:"actualWt"`
	Drift         float64 `json:"drift"`
	Notional      float64 `json:"notional"`
	UnrealizedPnL float64 `json:"unrealizedPnl"`
	Side          Side    `json:"side"`
}

// StrategyPerformance is the point-in-time state of one strategy. It is always
// sent whole and replaces the stored record.
type StrategyPerformance struct {
	StrategyID        string           `json:"strategyId"`
	Name              string           `json:"name"`
	Mode              Mode             `json:"mode"`
	Exchange          string           `json:"exchange"`
	Equity            *float64         `json:"equity,omitempty"`
	PnL               *float64         `json:"pnl,omitempty"`
	PnLPct            *float64         `json:"pnlPct,omitempty"`
	Return1D          *float64         `json:"return1d,omitempty"`
	Return7D          *float64         `json:"return7d,omitempty"`
	Return30D         *float64         `json:"return30d,omitempty"`
	ReturnITD         *float64         `json:"returnItd,omitempty"`
	Sharpe            *float64         `json:"sharpe,omitempty"`
	MaxDrawdown       *float64         `json:"maxDrawdown,omitempty"`
	WinRate           *float64         `json:"winRate,omitempty"`
	Positions         *float64         `json:"positions,omitempty"`
	NetExposure       *string          `json:"netExposure,omitempty"`
	EquityCurve       []EquityPoint    `json:"equityCurve,omitempty"`
	PositionBreakdown []PositionWeight `json:"positionBreakdown,omitempty"`
	ReportDate        string           `json:"reportDate"`
}

func (s StrategyPerformance) NaturalKey() string { return s.StrategyID }

// TradeFill is one executed order.
type TradeFill struct {
	StrategyID string  `json:"strategyId"`
	Date       string  `json:"date"`
	Timestamp  string  `json:"timestamp"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Notional   float64 `json:"notional"`
	Fee        float64 `json:"fee"`
	Status     string  `json:"status"`
}

func (f TradeFill) NaturalKey() string {
	if f.StrategyID == "" || f.Date == "" {
		return ""
	}
	return f.StrategyID + "/" + f.Date + "/" + f.Timestamp + "/" + f.Symbol
}

// PlannedMeal is one meal slot of a meal-plan day.
type PlannedMeal struct {
	Name    string `json:"name"`
	Items   string `json:"items"`
	Kcal    int    `json:"kcal"`
	Protein int    `json:"protein"`
	Carbs   int    `json:"carbs"`
	Fat     int    `json:"fat"`
}

// PlanDay is one day of a weekly meal plan.
type PlanDay struct {
	Day          string        `json:"day"`
	IsFish       bool          `json:"isFish"`
	Meals        []PlannedMeal `json:"meals"`
	TotalKcal    int           `json:"totalKcal"`
	TotalProtein int           `json:"totalProtein"`
	TotalCarbs   int           `json:"totalCarbs"`
	TotalFat     int           `json:"totalFat"`
	SatFat       *int          `json:"satFat,omitempty"`
	Note         *string       `json:"note,omitempty"`
}

// MealPlan is a parsed weekly meal plan.
type MealPlan struct {
	WeekLabel string    `json:"weekLabel"`
	Days      []PlanDay `json:"days"`
	Summary   *string   `json:"summary,omitempty"`
}

func (p MealPlan) NaturalKey() string { return p.WeekLabel }

// LoggedMeal is a meal recorded in the local meal database.
type LoggedMeal struct {
	MealType string   `json:"mealType"`
	Name     string   `json:"name"`
	Kcal     float64  `json:"kcal"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	SatFat   *float64 `json:"satFat,omitempty"`
	Fiber    *float64 `json:"fiber,omitempty"`
}

// MealLogDay is all logged meals of one date; the remote replaces the day whole.
type MealLogDay struct {
	Date  string       `json:"date"`
	Meals []LoggedMeal `json:"meals"`
}

func (d MealLogDay) NaturalKey() string { return d.Date }

// CronJobStatus is the last known state of a scheduled job.
type CronJobStatus struct {
	JobID             string  `json:"jobId"`
	Name              string  `json:"name"`
	Schedule          string  `json:"schedule"`
	Enabled           bool    `json:"enabled"`
	LastStatus        *string `json:"lastStatus,omitempty"`
	LastRunAt         *int64  `json:"lastRunAt,omitempty"`
	LastDurationMs    *int64  `json:"lastDurationMs,omitempty"`
	LastError         *string `json:"lastError,omitempty"`
	ConsecutiveErrors *int    `json:"consecutiveErrors,omitempty"`
	NextRunAt         *int64  `json:"nextRunAt,omitempty"`
}

func (c CronJobStatus) NaturalKey() string { return c.JobID }

// WeeklyReport is the latest markdown report of one reporting domain.
type WeeklyReport struct {
	Domain     string  `json:"domain"`
	ReportDate string  `json:"reportDate"`
	Title      string  `json:"title"`
	Summary    *string `json:"summary,omitempty"`
	SourcePath string  `json:"sourcePath,omitempty"`
	Content    string  `json:"content"`
}

func (w WeeklyReport) NaturalKey() string {
	if w.Domain == "" || w.ReportDate == "" {
		return ""
	}
	return w.Domain + "/" + w.ReportDate
}

// StructuredReport is an agent-authored report drained from the pending queue.
type StructuredReport struct {
	ReportID        string          `json:"reportId"`
	Agent           string          `json:"agent"`
	ReportType      string          `json:"reportType"`
	Date            string          `json:"date"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	Content         string          `json:"content"`
	ContentOverflow *string         `json:"contentOverflow,omitempty"`
	Metrics         json.RawMessage `json:"metrics,omitempty"`
	DeliveredTo     []string        `json:"deliveredTo"`
}

func (r StructuredReport) NaturalKey() string { return r.ReportID }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v, or nil when v is empty.
func String(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
