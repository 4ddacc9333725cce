package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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
	// QueueUnitID is the unit name of the structured report queue.
	QueueUnitID = "reports"

	upsertReportPath = "reports:upsertReport"
	archiveDirName   = "archive"

	maxReportSummary = 500
	maxReportContent = 4000
)

// ErrMissingFields is returned for a pending report without every required key.
var ErrMissingFields = errors.New("report is missing required fields")

var requiredFields = []string{"agent", "reportType", "date", "title", "summary", "content"}

// Archiver mirrors an archived report file elsewhere.
type Archiver interface {
	MirrorFile(ctx context.Context, path string) error
}

type pendingReport struct {
	ReportID    string          `json:"reportId"`
	Agent       string          `json:"agent"`
	ReportType  string          `json:"reportType"`
	Date        string          `json:"date"`
	Title       string          `json:"title"`
	Summary     string          `json:"summary"`
	Content     string          `json:"content"`
	DeliveredTo []string        `json:"deliveredTo"`
	Metrics     json.RawMessage `json:"metrics"`
}

// ParsePending validates and normalizes one pending report document. Content
// beyond the cap is carried in ContentOverflow, itself capped at the same size.
func ParsePending(data []byte) (domain.StructuredReport, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return domain.StructuredReport{}, fmt.Errorf("failed to parse report: %w", err)
	}
	var missing []string
	for _, k := range requiredFields {
		if _, ok := keys[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return domain.StructuredReport{}, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	var p pendingReport
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.StructuredReport{}, fmt.Errorf("failed to parse report: %w", err)
	}

	rep := domain.StructuredReport{
		ReportID:    p.ReportID,
		Agent:       p.Agent,
		ReportType:  p.ReportType,
		Date:        p.Date,
		Title:       p.Title,
		Summary:     utils.Truncate(p.Summary, maxReportSummary),
		DeliveredTo: p.DeliveredTo,
	}
	if rep.ReportID == "" {
		rep.ReportID = p.Agent + "-" + p.ReportType + "-" + p.Date
	}
	if rep.DeliveredTo == nil {
		rep.DeliveredTo = []string{}
	}

	content, overflow := utils.SplitAt(p.Content, maxReportContent)
	rep.Content = content
	rep.ContentOverflow = domain.String(utils.Truncate(overflow, maxReportContent))

	if hasMetrics(p.Metrics) {
		rep.Metrics = p.Metrics
	}
	return rep, nil
}

// hasMetrics reports whether raw holds a non-empty value.
func hasMetrics(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]", `""`, "0", "false":
		return false
	}
	return true
}

// QueueService drains the pending report directory. Each file is consumed once:
// after the remote store accepts it, it moves to the archive subdirectory.
type QueueService struct {
	dir    string
	store  work.Upserter
	mirror Archiver
	log    zerolog.Logger
}

// NewQueueService creates a queue drain over dir. mirror may be nil.
func NewQueueService(dir string, store work.Upserter, mirror Archiver, log zerolog.Logger) *QueueService {
	return &QueueService{
		dir:    dir,
		store:  store,
		mirror: mirror,
		log:    log.With().Str("unit", QueueUnitID).Logger(),
	}
}

// Sync upserts and archives every pending report. The queue itself is the change
// gate: an empty queue means nothing changed.
func (s *QueueService) Sync(ctx context.Context, _ *signature.Store) work.Outcome {
	if info, err := os.Stat(s.dir); err != nil || !info.IsDir() {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return work.Failed(fmt.Errorf("failed to create report queue: %w", err))
		}
		return work.Skipped("no reports directory")
	}

	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return work.Failed(err)
	}
	if len(files) == 0 {
		return work.Unchanged()
	}
	sort.Strings(files)

	archiveDir := filepath.Join(s.dir, archiveDirName)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return work.Failed(fmt.Errorf("failed to create archive: %w", err))
	}

	var out work.Outcome
	for _, path := range files {
		name := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn().Err(err).Str("file", name).Msg("Pending report unreadable")
			out.Failed++
			continue
		}
		rep, err := ParsePending(data)
		if err != nil {
			s.log.Warn().Err(err).Str("file", name).Msg("Pending report invalid")
			out.Failed++
			continue
		}

		if !out.Record(s.store.Upsert(ctx, upsertReportPath, rep)) {
			continue
		}

		archived := archivePath(archiveDir, name)
		if err := os.Rename(path, archived); err != nil {
			s.log.Error().Err(err).Str("file", name).Msg("Failed to archive report")
			continue
		}
		s.log.Info().Str("report_id", rep.ReportID).Msg("Report synced")

		if s.mirror != nil {
			if err := s.mirror.MirrorFile(ctx, archived); err != nil {
				s.log.Warn().Err(err).Str("file", name).Msg("Failed to mirror archived report")
			}
		}
	}
	out.Detail = fmt.Sprintf("%d pending", len(files))
	return out
}

// archivePath returns a path under dir for name that does not exist yet. A name
// already archived gets a numeric suffix, so archived files are never replaced.
func archivePath(dir, name string) string {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
	}
}
