package trading

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
)

const (
	// TradeLogStateKey is the signature store key of the trade fill domain.
	TradeLogStateKey = "trade_log"

	upsertTradePath  = "trading:upsertTrade"
	tradeHistoryFile = "trade_history.json"
)

// TradeLogService syncs executed fills from the daily trade histories in the
// report repository's working copy.
type TradeLogService struct {
	reportsDir string
	store      work.Upserter
	log        zerolog.Logger
}

// NewTradeLogService creates a trade fill sync service for the repository at repoDir.
func NewTradeLogService(repoDir string, store work.Upserter, log zerolog.Logger) *TradeLogService {
	return &TradeLogService{
		reportsDir: filepath.Join(repoDir, "reports"),
		store:      store,
		log:        log.With().Str("unit", TradeLogStateKey).Logger(),
	}
}

// histories maps each report date to its trade history path.
func (s *TradeLogService) histories() (map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.reportsDir, "*", tradeHistoryFile))
	if err != nil {
		return nil, err
	}
	files := make(map[string]string, len(matches))
	for _, m := range matches {
		files[filepath.Base(filepath.Dir(m))] = m
	}
	return files, nil
}

// Sync pushes every filled order when any trade history file changed.
func (s *TradeLogService) Sync(ctx context.Context, state *signature.Store) work.Outcome {
	files, err := s.histories()
	if err != nil {
		return work.Failed(err)
	}
	if len(files) == 0 {
		return work.Skipped("no trade history files")
	}
	if !state.Changed(TradeLogStateKey, signature.Stat(files)) {
		return work.Unchanged()
	}

	dates := make([]string, 0, len(files))
	for d := range files {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var out work.Outcome
	for _, date := range dates {
		data, err := os.ReadFile(files[date])
		if err != nil {
			s.log.Warn().Err(err).Str("date", date).Msg("Trade history unreadable")
			out.Failed++
			continue
		}
		fills, err := ParseTradeHistory(LedgerStrategyID, date, data)
		if err != nil {
			s.log.Warn().Err(err).Str("date", date).Msg("Trade history malformed")
			out.Failed++
			continue
		}
		for _, f := range fills {
			out.Record(s.store.Upsert(ctx, upsertTradePath, f))
		}
	}
	s.log.Info().Int("fills", out.Synced).Int("days", len(dates)).Msg("Trade log synced")
	return out
}
