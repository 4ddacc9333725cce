package trading

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aristath/mcsync/internal/domain"
	"github.com/aristath/mcsync/internal/gitrepo"
	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
)

const (
	// StateKey is the signature store key of the strategy performance domain.
	StateKey = "trading"

	upsertStrategyPath = "trading:upsertStrategy"

	refMain    = "origin/main"
	refBinance = "origin/quantlab-binance"
	refPaper   = "origin/paper"

	reportsDir   = "reports/"
	artifactsDir = "performance/artifacts/"
	artifactTail = "artifact.json"
)

// Strategy identities of the two live strategies.
const (
	LedgerStrategyID   = "carver_trend_v1"
	ArtifactStrategyID = "binance_crypto_trend"
)

// errNoData marks a source that has nothing to report at its revision.
var errNoData = errors.New("no data")

// source extracts strategy records from one revision of the report repository.
type source struct {
	name    string
	extract func(ctx context.Context) ([]domain.StrategyPerformance, error)
}

// Service syncs strategy performance from three branches of the report repository.
type Service struct {
	repo  gitrepo.Reader
	store work.Upserter
	log   zerolog.Logger
}

// NewService creates a strategy performance sync service.
func NewService(repo gitrepo.Reader, store work.Upserter, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		store: store,
		log:   log.With().Str("unit", StateKey).Logger(),
	}
}

// Sync gates on the revisions of the three report branches, then extracts and
// pushes every source independently.
func (s *Service) Sync(ctx context.Context, state *signature.Store) work.Outcome {
	refs := map[string]string{"main": refMain, "binance": refBinance, "paper": refPaper}
	tokens := make(map[string]string, len(refs))
	for name, ref := range refs {
		rev, err := s.repo.Revision(ctx, ref)
		if err != nil {
			s.log.Debug().Err(err).Str("ref", ref).Msg("Ref not resolvable")
			continue
		}
		tokens[name] = rev
	}
	sig := signature.Versions(tokens)
	if !sig.AnyVersion() {
		return work.Skipped("no report branch resolvable")
	}
	if !state.Changed(StateKey, sig) {
		return work.Unchanged()
	}

	sources := []source{
		{name: "ledger", extract: s.ledger},
		{name: "artifacts", extract: s.artifacts},
		{name: "paper", extract: s.paper},
	}

	var out work.Outcome
	fetched, broken := 0, 0
	for _, src := range sources {
		records, err := src.extract(ctx)
		if errors.Is(err, errNoData) {
			s.log.Info().Str("source", src.name).Msg("No strategy data")
			continue
		}
		if err != nil {
			s.log.Warn().Err(err).Str("source", src.name).Msg("Strategy source failed")
			out.Failed++
			broken++
			continue
		}
		fetched++
		for _, rec := range records {
			if out.Record(s.store.Upsert(ctx, upsertStrategyPath, rec)) {
				s.log.Info().
					Str("strategy", rec.StrategyID).
					Interface("equity", rec.Equity).
					Str("report_date", rec.ReportDate).
					Msg("Strategy synced")
			}
		}
	}

	// Nothing fetched and a source failed: retry the same revisions next run.
	if fetched == 0 && broken > 0 {
		state.Rollback(StateKey)
		out.Status = work.StatusFailed
		out.Err = fmt.Errorf("all strategy sources failed")
	}
	return out
}

// ledger reads the latest top-level markdown report on the main branch.
func (s *Service) ledger(ctx context.Context) ([]domain.StrategyPerformance, error) {
	paths, err := s.repo.ListTree(ctx, refMain, reportsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger reports: %w", err)
	}

	var reports []string
	for _, p := range paths {
		if path.Dir(p) == strings.TrimSuffix(reportsDir, "/") &&
			strings.HasSuffix(p, ".md") && !strings.HasSuffix(p, paperReportMD) {
			reports = append(reports, p)
		}
	}
	if len(reports) == 0 {
		return nil, errNoData
	}
	sort.Strings(reports)
	latest := reports[len(reports)-1]

	md, err := s.repo.ReadFile(ctx, refMain, latest)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", latest, err)
	}

	rec := ParseLedger(string(md))
	rec.StrategyID = LedgerStrategyID
	rec.Name = "Carver Trend v1"
	rec.Mode = domain.ModeLive
	rec.Exchange = "Hyperliquid"
	rec.ReportDate = strings.TrimSuffix(path.Base(latest), ".md")
	return []domain.StrategyPerformance{rec}, nil
}

// artifacts reduces the daily artifacts of the binance branch into one record.
func (s *Service) artifacts(ctx context.Context) ([]domain.StrategyPerformance, error) {
	paths, err := s.repo.ListTree(ctx, refBinance, artifactsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	var files []string
	for _, p := range paths {
		if strings.HasSuffix(p, artifactTail) {
			files = append(files, p)
		}
	}
	sort.Strings(files)

	curve := NewEquityCurveBuilder()
	var latest *Artifact
	for _, f := range files {
		data, err := s.repo.ReadFile(ctx, refBinance, f)
		if err != nil {
			s.log.Warn().Err(err).Str("file", f).Msg("Skipping unreadable artifact")
			continue
		}
		a, err := ParseArtifact(data)
		if err != nil {
			s.log.Warn().Err(err).Str("file", f).Msg("Skipping malformed artifact")
			continue
		}
		if !curve.Add(a) {
			s.log.Debug().Str("file", f).Msg("Artifact has no date or portfolio value")
			continue
		}
		latest = &a
	}
	if latest == nil {
		return nil, errNoData
	}

	rec := domain.StrategyPerformance{
		StrategyID: ArtifactStrategyID,
		Name:       "CryptoTrend + Momentum",
		Mode:       domain.ModeLive,
		Exchange:   "Binance",
	}
	ArtifactMetrics(&rec, *latest)
	if points := curve.Curve(); len(points) > 1 {
		rec.EquityCurve = points
	}
	return []domain.StrategyPerformance{rec}, nil
}

// paper reads the latest per-strategy performance files of the paper branch and
// falls back to the comparison table of the latest paper report.
func (s *Service) paper(ctx context.Context) ([]domain.StrategyPerformance, error) {
	paths, err := s.repo.ListTree(ctx, refPaper, reportsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list paper reports: %w", err)
	}

	date, files := LatestPaperFiles(paths)
	var records []domain.StrategyPerformance
	for _, f := range files {
		data, err := s.repo.ReadFile(ctx, refPaper, f)
		if err != nil {
			s.log.Warn().Err(err).Str("file", f).Msg("Skipping unreadable paper performance")
			continue
		}
		rec, err := ParsePaperPerformance(PaperStrategyID(f), date, data)
		if err != nil {
			s.log.Warn().Err(err).Str("file", f).Msg("Skipping malformed paper performance")
			continue
		}
		records = append(records, rec)
	}
	if len(records) > 0 {
		return records, nil
	}

	report := LatestPaperReport(paths)
	if report == "" {
		return nil, errNoData
	}
	md, err := s.repo.ReadFile(ctx, refPaper, report)
	if err != nil {
		return nil, fmt.Errorf("failed to read paper report %s: %w", report, err)
	}
	records = ParseComparisonTable(report, string(md))
	if len(records) == 0 {
		return nil, errNoData
	}
	s.log.Info().Str("report", report).Int("strategies", len(records)).Msg("Using paper comparison table")
	return records, nil
}
