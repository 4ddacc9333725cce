package trading

import (
	"encoding/json"
	"fmt"

	"github.com/aristath/mcsync/internal/domain"
	"github.com/shopspring/decimal"
)

// StatusFilled is the only order status synced as a trade fill.
const StatusFilled = "FILLED"

// tradeHistory is one trade_history.json file: a file-level timestamp and the
// orders placed that day.
type tradeHistory struct {
	Timestamp string         `json:"timestamp"`
	Trades    []historyEntry `json:"trades"`
}

// historyEntry is one order of a trade history. Numeric fields arrive as either
// JSON numbers or strings; decimal.Decimal accepts both.
type historyEntry struct {
	Symbol        string          `json:"symbol"`
	Action        string          `json:"action"`
	Quantity      decimal.Decimal `json:"quantity"`
	ExecutedPrice decimal.Decimal `json:"executed_price"`
	Fee           decimal.Decimal `json:"fee"`
	Status        string          `json:"status"`
}

// ParseTradeHistory converts a trade history document of date into fills. Orders
// that were not filled are dropped. Every fill carries the file timestamp, or
// midnight UTC of date when the file has none.
func ParseTradeHistory(strategyID, date string, data []byte) ([]domain.TradeFill, error) {
	var history tradeHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse trade history %s: %w", date, err)
	}
	timestamp := history.Timestamp
	if timestamp == "" {
		timestamp = date + "T00:00:00Z"
	}

	fills := make([]domain.TradeFill, 0, len(history.Trades))
	for _, e := range history.Trades {
		if e.Status != StatusFilled {
			continue
		}
		fills = append(fills, newFill(strategyID, date, timestamp, e))
	}
	return fills, nil
}

func newFill(strategyID, date, timestamp string, e historyEntry) domain.TradeFill {
	f := domain.TradeFill{
		StrategyID: strategyID,
		Date:       date,
		Timestamp:  timestamp,
		Symbol:     e.Symbol,
		Side:       e.Action,
		Quantity:   e.Quantity.InexactFloat64(),
		Price:      e.ExecutedPrice.InexactFloat64(),
		Notional:   e.Quantity.Mul(e.ExecutedPrice).Round(2).InexactFloat64(),
		Fee:        e.Fee.InexactFloat64(),
		Status:     e.Status,
	}
	if f.Symbol == "" {
		f.Symbol = "?"
	}
	if f.Side == "" {
		f.Side = "?"
	}
	return f
}
