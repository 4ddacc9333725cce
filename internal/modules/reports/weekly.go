// Package reports syncs agent reports: the latest weekly markdown report per
// domain and the queue of structured JSON reports.
package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aristath/mcsync/internal/domain"
	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/utils"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
)

const (
	// WeeklyUnitID is the unit name of the weekly report domain.
	WeeklyUnitID = "weekly"

	upsertWeeklyPath = "weekly:upsertWeeklyReport"

	maxWeeklySummary = 200
	maxWeeklyContent = 4000
	truncatedMarker  = "\n\n[TRUNCATED]"
)

// WeeklyDomains are the report subdirectories, in sync order.
var WeeklyDomains = []string{"coach", "chef", "marco", "qq"}

// WeeklyStateKey is the signature store key of one weekly report domain.
func WeeklyStateKey(domain string) string {
	return "weekly_reports_" + domain
}

// BuildWeeklyReport turns one markdown report into a record. The report date is
// the last dash-separated segment of the file name.
func BuildWeeklyReport(reportDomain, path, content string) domain.WeeklyReport {
	title := strings.TrimSuffix(filepath.Base(path), ".md")
	parts := strings.Split(title, "-")

	rep := domain.WeeklyReport{
		Domain:     reportDomain,
		ReportDate: parts[len(parts)-1],
		Title:      title,
		SourcePath: path,
		Content:    content,
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if head, rest := utils.SplitAt(line, maxWeeklySummary); rest != "" {
			line = head + "…"
		}
		rep.Summary = domain.String(line)
		break
	}

	if head, rest := utils.SplitAt(content, maxWeeklyContent); rest != "" {
		rep.Content = head + truncatedMarker
	}
	return rep
}

// WeeklyService syncs the newest report of every weekly domain.
type WeeklyService struct {
	dir   string
	store work.Upserter
	log   zerolog.Logger
}

// NewWeeklyService creates a weekly report sync service over dir/<domain>/*.md.
func NewWeeklyService(dir string, store work.Upserter, log zerolog.Logger) *WeeklyService {
	return &WeeklyService{
		dir:   dir,
		store: store,
		log:   log.With().Str("unit", WeeklyUnitID).Logger(),
	}
}

func (s *WeeklyService) latest(reportDomain string) (string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, reportDomain, "*.md"))
	if err != nil || len(files) == 0 {
		return "", err
	}
	sort.Strings(files)
	return files[len(files)-1], nil
}

// Sync gates every domain on the stat pair of its latest report.
func (s *WeeklyService) Sync(ctx context.Context, state *signature.Store) work.Outcome {
	var out work.Outcome
	found, changed := 0, 0

	for _, d := range WeeklyDomains {
		path, err := s.latest(d)
		if err != nil {
			s.log.Warn().Err(err).Str("domain", d).Msg("Cannot list weekly reports")
			continue
		}
		if path == "" {
			continue
		}
		found++

		key := WeeklyStateKey(d)
		if !state.Changed(key, signature.StatOne(path)) {
			s.log.Debug().Str("domain", d).Msg("Weekly report unchanged")
			continue
		}
		changed++

		content, err := os.ReadFile(path)
		if err != nil {
			state.Rollback(key)
			s.log.Warn().Err(err).Str("domain", d).Msg("Weekly report unreadable")
			out.Failed++
			continue
		}

		rep := BuildWeeklyReport(d, path, string(content))
		if out.Record(s.store.Upsert(ctx, upsertWeeklyPath, rep)) {
			s.log.Info().Str("domain", d).Str("report_date", rep.ReportDate).Msg("Weekly report synced")
		}
	}

	switch {
	case found == 0:
		return work.Skipped("no weekly reports under %s", s.dir)
	case changed == 0:
		return work.Unchanged()
	}
	if out.Synced < changed {
		out.Detail = fmt.Sprintf("%d of %d changed domains synced", out.Synced, changed)
	}
	return out
}
