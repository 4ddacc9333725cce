package trading

import (
	"encoding/json"
	"fmt"
	"math"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/aristath/mcsync/internal/domain"
	"github.com/aristath/mcsync/internal/utils"
)

const (
	paperIDPrefix   = "paper_"
	paperFilePrefix = "performance_"
	paperReportMD   = "_paper.md"
	paperExchange   = "Paper"

	// paperCapital is the notional starting capital of every paper strategy.
	paperCapital = 10000.0

	comparisonHeading = "## Strategy Comparison"
)

var reComparisonRow = regexp.MustCompile(`\|\s*(\w+)\s*\|\s*\$?([\d,.]+)\s*\|`)

// PaperPerformance is one paper strategy's performance file.
type PaperPerformance struct {
	EquityUSDC        *float64 `json:"equity_usdc"`
	CumulativePnLUSDC *float64 `json:"cumulative_pnl_usdc"`
	Periods           map[string]struct {
		ReturnPct *float64 `json:"return_pct"`
	} `json:"periods"`
	RiskMetrics struct {
		Sharpe      *float64 `json:"sharpe"`
		MaxDrawdown *float64 `json:"max_drawdown"`
		WinRate     *float64 `json:"win_rate"`
	} `json:"risk_metrics"`
	EquityCurve []struct {
		Date   string  `json:"date"`
		Equity float64 `json:"equity"`
	} `json:"equity_curve"`
}

// LatestPaperFiles picks the performance files of the most recent date directory
// (reports/<date>/performance_<id>.json) and returns them with that date.
func LatestPaperFiles(paths []string) (string, []string) {
	var candidates []string
	for _, p := range paths {
		if strings.HasSuffix(p, ".json") && strings.Contains(p, paperFilePrefix) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Strings(candidates)

	parts := strings.Split(candidates[len(candidates)-1], "/")
	if len(parts) < 3 {
		return "", nil
	}
	date := parts[1]

	var latest []string
	for _, p := range candidates {
		if strings.Contains(p, "/"+date+"/") {
			latest = append(latest, p)
		}
	}
	return date, latest
}

// PaperStrategyID derives the strategy id from a performance file name.
func PaperStrategyID(file string) string {
	name := path.Base(file)
	name = strings.TrimPrefix(name, paperFilePrefix)
	return strings.TrimSuffix(name, ".json")
}

func paperRecord(id, reportDate string) domain.StrategyPerformance {
	return domain.StrategyPerformance{
		StrategyID: paperIDPrefix + id,
		Name:       utils.TitleFromID(id),
		Mode:       domain.ModePaper,
		Exchange:   paperExchange,
		ReportDate: reportDate,
	}
}

// ParsePaperPerformance converts one performance file to a record. Drawdown and
// win rate arrive as fractions and are reported as percentages.
func ParsePaperPerformance(id, reportDate string, data []byte) (domain.StrategyPerformance, error) {
	var p PaperPerformance
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.StrategyPerformance{}, fmt.Errorf("failed to parse paper performance %s: %w", id, err)
	}

	rec := paperRecord(id, reportDate)
	rec.Equity = p.EquityUSDC
	rec.PnL = p.CumulativePnLUSDC
	if p.CumulativePnLUSDC != nil {
		rec.PnLPct = domain.Float(*p.CumulativePnLUSDC / paperCapital * 100)
	}
	rec.Return1D = p.Periods["1D"].ReturnPct
	rec.Return7D = p.Periods["7D"].ReturnPct
	rec.Return30D = p.Periods["30D"].ReturnPct
	rec.ReturnITD = p.Periods["ITD"].ReturnPct

	risk := p.RiskMetrics
	rec.Sharpe = risk.Sharpe
	if risk.MaxDrawdown != nil {
		rec.MaxDrawdown = domain.Float(math.Abs(*risk.MaxDrawdown) * 100)
	}
	if risk.WinRate != nil {
		rec.WinRate = domain.Float(*risk.WinRate * 100)
	}

	if len(p.EquityCurve) > 1 {
		for _, pt := range p.EquityCurve {
			rec.EquityCurve = append(rec.EquityCurve, domain.EquityPoint{Date: pt.Date, Value: pt.Equity})
		}
	}
	return rec, nil
}

// LatestPaperReport returns the most recent "<date>_paper.md" path, or "".
func LatestPaperReport(paths []string) string {
	var reports []string
	for _, p := range paths {
		if strings.HasSuffix(p, paperReportMD) {
			reports = append(reports, p)
		}
	}
	if len(reports) == 0 {
		return ""
	}
	sort.Strings(reports)
	return reports[len(reports)-1]
}

// ParseComparisonTable reads the strategy comparison section of a paper report.
// Only the strategy id and equity are available in this format.
func ParseComparisonTable(file, md string) []domain.StrategyPerformance {
	idx := strings.Index(md, comparisonHeading)
	if idx < 0 {
		return nil
	}
	section := md[idx+len(comparisonHeading):]
	if end := strings.Index(section, "##"); end >= 0 {
		section = section[:end]
	}

	reportDate := strings.TrimSuffix(path.Base(file), paperReportMD)
	var records []domain.StrategyPerformance
	for _, m := range reComparisonRow.FindAllStringSubmatch(section, -1) {
		equity := parseNumber(m[2])
		if equity == nil {
			continue
		}
		rec := paperRecord(m[1], reportDate)
		rec.Equity = equity
		records = append(records, rec)
	}
	return records
}
