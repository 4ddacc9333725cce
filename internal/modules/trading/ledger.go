// Package trading extracts strategy performance and trade fills from the trading
// report repository.
package trading

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/aristath/mcsync/internal/domain"
)

// Labeled rows of the live ledger report: "| <label> | <value> |".
var (
	reEquity      = labeled(`Portfolio \(post\)`)
	reNetExposure = labeled(`Net exposure`)
	rePositions   = labeled(`Positions`)
	reReturn1D    = labeled(`1 Day`)
	reReturn7D    = labeled(`7 Day`)
	reReturn30D   = labeled(`30 Day`)
	reReturnITD   = labeled(`Inception`)
	reSharpe      = labeled(`Sharpe(?: Ratio)?`)
	reMaxDrawdown = labeled(`Max Drawdown`)
	reWinRate     = labeled(`Win Rate`)

	rePnL = regexp.MustCompile(`PnL\s*\|\s*([-+]?\$?[-+]?[\d,.]+)\s*\(([-+\d.]+)%\)`)

	reEquityRow    = regexp.MustCompile(`^\s+(\d{4}-\d{2}-\d{2})\s+\|+\s+\$?([\d,.]+)`)
	reSeparatorRow = regexp.MustCompile(`^\|[\s:|-]+\|`)
	rePositionRow  = regexp.MustCompile(
		`^\|\s*([A-Z0-9]+)\s*\|\s*([-+\d.]+)%\s*\|\s*([-+\d.]+)%\s*\|\s*([-+\d.]+)%\s*\|\s*([-+]?\$?[-+]?[\d,.]+)\s*\|\s*([-+]?\$?[-+]?[\d,.]+)\s*\|`)
)

// labeled matches a metric row and captures the raw value cell.
func labeled(label string) *regexp.Regexp {
	return regexp.MustCompile(label + `[ \t]*\|[ \t]*([^|\n]*)`)
}

// noValue is the cell content reports use for "no reading".
const noValue = "—"

// cleanCell strips currency symbols, thousands separators, signs of positivity
// and percent signs. It returns "" for an empty or em-dash cell.
func cleanCell(raw string) string {
	v := strings.TrimSpace(raw)
	v = strings.NewReplacer(",", "", "$", "", "+", "", "%", "").Replace(v)
	v = strings.TrimSpace(v)
	if v == noValue || strings.HasPrefix(v, noValue) {
		return ""
	}
	return v
}

// parseNumber parses a cleaned cell. Anything not numeric is absent.
func parseNumber(raw string) *float64 {
	v := cleanCell(raw)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func extractNumber(re *regexp.Regexp, md string) *float64 {
	m := re.FindStringSubmatch(md)
	if m == nil {
		return nil
	}
	return parseNumber(m[1])
}

// ParseLedger extracts a live strategy record from a markdown ledger report.
// Metrics that are missing or shown as an em-dash are left absent.
func ParseLedger(md string) domain.StrategyPerformance {
	rec := domain.StrategyPerformance{
		Equity:    extractNumber(reEquity, md),
		Positions: extractNumber(rePositions, md),
		Return1D:  extractNumber(reReturn1D, md),
		Return7D:  extractNumber(reReturn7D, md),
		Return30D: extractNumber(reReturn30D, md),
		ReturnITD: extractNumber(reReturnITD, md),
		Sharpe:    extractNumber(reSharpe, md),
		WinRate:   extractNumber(reWinRate, md),
	}

	if m := rePnL.FindStringSubmatch(md); m != nil {
		rec.PnL = parseNumber(m[1])
		rec.PnLPct = parseNumber(m[2])
	}

	if dd := extractNumber(reMaxDrawdown, md); dd != nil {
		rec.MaxDrawdown = domain.Float(math.Abs(*dd))
	}

	if m := reNetExposure.FindStringSubmatch(md); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" && !strings.HasPrefix(v, noValue) {
			rec.NetExposure = &v
		}
	}

	rec.EquityCurve = parseEquityCurve(md)
	rec.PositionBreakdown = parsePositions(md)
	return rec
}

// parseEquityCurve reads bar-chart rows such as "  2026-01-02 |||||| $10,234.50".
func parseEquityCurve(md string) []domain.EquityPoint {
	var curve []domain.EquityPoint
	for _, line := range strings.Split(md, "\n") {
		m := reEquityRow.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if v := parseNumber(m[2]); v != nil {
			curve = append(curve, domain.EquityPoint{Date: m[1], Value: *v})
		}
	}
	return curve
}

// parsePositions consumes the position reconciliation table: it starts after the
// section or header row, skips separator rows, and stops at the next heading or
// the first non-table line.
func parsePositions(md string) []domain.PositionWeight {
	var positions []domain.PositionWeight
	inTable := false
	for _, line := range strings.Split(md, "\n") {
		if strings.Contains(line, "Position Reconciliation") ||
			(strings.Contains(line, "Symbol") && strings.Contains(line, "Target Wt")) {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		if reSeparatorRow.MatchString(line) {
			continue
		}
		if strings.HasPrefix(line, "#") || (strings.TrimSpace(line) != "" && !strings.HasPrefix(line, "|")) {
			break
		}

		m := rePositionRow.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fields := make([]*float64, 5)
		ok := true
		for i := range fields {
			if fields[i] = parseNumber(m[i+2]); fields[i] == nil {
				ok = false
			}
		}
		if !ok {
			continue
		}
		actual := *fields[1]
		positions = append(positions, domain.PositionWeight{
			Symbol:        m[1],
			TargetWt:      *fields[0],
			ActualWt:      actual,
			Drift:         *fields[2],
			Notional:      *fields[3],
			UnrealizedPnL: *fields[4],
			Side:          domain.SideFromWeight(actual),
		})
	}
	return positions
}
