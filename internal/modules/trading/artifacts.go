package trading

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/aristath/mcsync/internal/domain"
)

// Period is one reporting window of a performance artifact.
type Period struct {
	PnLUSDC *float64 `json:"pnl_usdc"`
	PnLPct  *float64 `json:"pnl_pct"`
	TWRPct  *float64 `json:"twr_pct"`
}

// Artifact is a machine-generated daily performance file.
type Artifact struct {
	ReportDate string `json:"report_date"`
	Payload    struct {
		PortfolioValue *float64          `json:"portfolio_value"`
		Periods        map[string]Period `json:"periods"`
		Risk           struct {
			Portfolio struct {
				SharpeRatio *float64 `json:"sharpe_ratio"`
				MaxDrawdown *float64 `json:"max_drawdown"`
			} `json:"portfolio"`
		} `json:"risk"`
		AssetAllocation struct {
			Holdings    []json.RawMessage `json:"holdings"`
			InvestedPct *float64          `json:"invested_pct"`
		} `json:"asset_allocation"`
	} `json:"payload"`
}

// ParseArtifact decodes one artifact file.
func ParseArtifact(data []byte) (Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("failed to parse artifact: %w", err)
	}
	return a, nil
}

// EquityCurveBuilder reduces many dated artifacts to one value per calendar date.
// Feed artifacts in processing order; a later artifact for a date replaces an
// earlier one.
type EquityCurveBuilder struct {
	byDate map[string]float64
}

// NewEquityCurveBuilder returns an empty builder.
func NewEquityCurveBuilder() *EquityCurveBuilder {
	return &EquityCurveBuilder{byDate: make(map[string]float64)}
}

// Add records a's portfolio value. It reports false when a lacks a date or value.
func (b *EquityCurveBuilder) Add(a Artifact) bool {
	if a.ReportDate == "" || a.Payload.PortfolioValue == nil {
		return false
	}
	b.byDate[a.ReportDate] = *a.Payload.PortfolioValue
	return true
}

// Curve returns the reduced curve in ascending date order.
func (b *EquityCurveBuilder) Curve() []domain.EquityPoint {
	dates := make([]string, 0, len(b.byDate))
	for d := range b.byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	curve := make([]domain.EquityPoint, 0, len(dates))
	for _, d := range dates {
		curve = append(curve, domain.EquityPoint{Date: d, Value: b.byDate[d]})
	}
	return curve
}

// ArtifactMetrics fills the current-state metrics of rec from the latest artifact.
// The "CTD" period is the current window: it supplies pnl, pnl% and the
// inception return.
func ArtifactMetrics(rec *domain.StrategyPerformance, a Artifact) {
	p := a.Payload
	rec.ReportDate = a.ReportDate
	rec.Equity = p.PortfolioValue

	ctd := p.Periods["CTD"]
	rec.PnL = ctd.PnLUSDC
	rec.PnLPct = ctd.PnLPct
	rec.ReturnITD = ctd.TWRPct
	rec.Return1D = p.Periods["1D"].TWRPct
	rec.Return7D = p.Periods["7D"].TWRPct
	rec.Return30D = p.Periods["30D"].TWRPct

	rec.Sharpe = p.Risk.Portfolio.SharpeRatio
	if dd := p.Risk.Portfolio.MaxDrawdown; dd != nil {
		rec.MaxDrawdown = domain.Float(math.Abs(*dd))
	}

	rec.Positions = domain.Float(float64(len(p.AssetAllocation.Holdings)))
	if inv := p.AssetAllocation.InvestedPct; inv != nil {
		rec.NetExposure = domain.String(strconv.FormatFloat(*inv, 'f', -1, 64) + "%")
	}
}
