package reports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aristath/mcsync/internal/clients/convex"
	"github.com/aristath/mcsync/internal/domain"
	"github.com/aristath/mcsync/internal/utils"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
)

const (
	legacyWeeklyQuery = "weekly:getWeeklyReports"
	weeklyReportType  = "weekly-report"
	weeklyDelivery    = "mission-control"
)

// Querier runs read-only remote queries.
type Querier interface {
	Query(ctx context.Context, path string, args any) convex.Result
}

// Remote is a store that can both query and upsert.
type Remote interface {
	Querier
	work.Upserter
}

// legacyWeekly is one row of the legacy weekly report table.
type legacyWeekly struct {
	Domain     string  `json:"domain"`
	ReportDate string  `json:"reportDate"`
	Title      *string `json:"title"`
	Summary    string  `json:"summary"`
	Content    string  `json:"content"`
}

// MigrationResult counts a weekly report migration.
type MigrationResult struct {
	Found    int
	Migrated int
	Failed   int
}

// convertLegacyWeekly maps a legacy weekly row onto a structured report.
func convertLegacyWeekly(row legacyWeekly) domain.StructuredReport {
	agent := row.Domain
	rep := domain.StructuredReport{
		ReportID:    agent + "-" + weeklyReportType + "-" + row.ReportDate,
		Agent:       agent,
		ReportType:  weeklyReportType,
		Date:        row.ReportDate,
		Title:       fmt.Sprintf("%s weekly %s", agent, row.ReportDate),
		Summary:     utils.Truncate(row.Summary, maxReportSummary),
		Content:     row.Content,
		DeliveredTo: []string{weeklyDelivery},
	}
	if row.Title != nil {
		rep.Title = *row.Title
	}
	if rep.Summary == "" {
		rep.Summary = "Weekly report"
	}
	if rep.Content == "" {
		rep.Content = "No content available"
	}
	return rep
}

// MigrateWeekly copies every legacy weekly report into the structured report table.
func MigrateWeekly(ctx context.Context, remote Remote, log zerolog.Logger) (MigrationResult, error) {
	var res MigrationResult

	r := remote.Query(ctx, legacyWeeklyQuery, map[string]any{})
	if !r.OK() {
		if r.Err != nil {
			return res, fmt.Errorf("failed to query legacy weekly reports: %w", r.Err)
		}
		return res, fmt.Errorf("failed to query legacy weekly reports: %s", r.ErrorMessage)
	}

	var rows []legacyWeekly
	if len(r.Value) > 0 {
		if err := json.Unmarshal(r.Value, &rows); err != nil {
			return res, fmt.Errorf("failed to decode legacy weekly reports: %w", err)
		}
	}
	res.Found = len(rows)
	log.Info().Int("found", res.Found).Msg("Migrating weekly reports")

	for _, row := range rows {
		rep := convertLegacyWeekly(row)
		result := remote.Upsert(ctx, upsertReportPath, rep)
		if result.OK() {
			res.Migrated++
		} else {
			res.Failed++
		}
		log.Info().Str("report_id", rep.ReportID).Bool("ok", result.OK()).Msg("Weekly report migrated")
	}
	return res, nil
}
