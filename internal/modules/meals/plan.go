package meals

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aristath/mcsync/internal/clients/bridge"
	"github.com/aristath/mcsync/internal/domain"
	"github.com/aristath/mcsync/internal/signature"
	"github.com/aristath/mcsync/internal/work"
	"github.com/rs/zerolog"
)

const (
	// PlanStateKey is the signature store key of the meal plan domain.
	PlanStateKey = "meal_plan"

	upsertPlanPath = "meals:upsertMealPlan"
	plansSubdir    = "notebook/areas/diet/weekly-plans"
	planPrefix     = "Week of "
)

var (
	// ErrNoPlan is returned when no weekly plan document can be found.
	ErrNoPlan = errors.New("no weekly plan found")

	errUnchanged = errors.New("plan unchanged")
)

// Fetcher reads JSON documents from the API bridge.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, out any) error
}

// planDocument is a weekly plan flattened to markdown-like lines.
type planDocument struct {
	WeekLabel string
	Lines     []string
}

// PlanService syncs the current weekly meal plan from the notes vault, or from
// the Notion hub page when no vault is configured.
type PlanService struct {
	vaultPath string
	hubID     string
	bridge    Fetcher
	store     work.Upserter
	log       zerolog.Logger
}

// NewPlanService creates a meal plan sync service. vaultPath and hubID may be empty.
func NewPlanService(vaultPath, hubID string, bridge Fetcher, store work.Upserter, log zerolog.Logger) *PlanService {
	return &PlanService{
		vaultPath: vaultPath,
		hubID:     hubID,
		bridge:    bridge,
		store:     store,
		log:       log.With().Str("unit", PlanStateKey).Logger(),
	}
}

func (s *PlanService) vaultConfigured() bool {
	if s.vaultPath == "" {
		return false
	}
	info, err := os.Stat(s.vaultPath)
	return err == nil && info.IsDir()
}

// Sync parses the latest plan and pushes it as one record.
func (s *PlanService) Sync(ctx context.Context, state *signature.Store) work.Outcome {
	var doc planDocument
	var err error
	switch {
	case s.vaultConfigured():
		doc, err = s.vaultDocument(state)
	case s.hubID != "":
		doc, err = s.notionDocument(ctx, state)
	default:
		return work.Skipped("no meal plan source configured")
	}

	switch {
	case errors.Is(err, errUnchanged):
		return work.Unchanged()
	case errors.Is(err, ErrNoPlan), errors.Is(err, bridge.ErrUnavailable):
		return work.Skipped("%v", err)
	case err != nil:
		return work.Failed(err)
	}

	days, summary := ParsePlan(doc.Lines)
	if len(days) == 0 {
		return work.Skipped("no days parsed from %q", doc.WeekLabel)
	}

	plan := domain.MealPlan{
		WeekLabel: doc.WeekLabel,
		Days:      days,
		Summary:   domain.String(strings.Join(summary, "\n")),
	}

	var out work.Outcome
	if out.Record(s.store.Upsert(ctx, upsertPlanPath, plan)) {
		meals := 0
		for _, d := range days {
			meals += len(d.Meals)
		}
		s.log.Info().Str("week", plan.WeekLabel).Int("days", len(days)).Int("meals", meals).Msg("Meal plan synced")
	}
	return out
}

// vaultDocument reads the latest "Week of ….md" file, gated by its stat pair.
func (s *PlanService) vaultDocument(state *signature.Store) (planDocument, error) {
	dir := filepath.Join(s.vaultPath, plansSubdir)
	files, err := filepath.Glob(filepath.Join(dir, planPrefix+"*.md"))
	if err != nil {
		return planDocument{}, err
	}
	if len(files) == 0 {
		return planDocument{}, fmt.Errorf("%w in %s", ErrNoPlan, dir)
	}
	sort.Strings(files)
	latest := files[len(files)-1]

	if !state.Changed(PlanStateKey, signature.StatOne(latest)) {
		return planDocument{}, errUnchanged
	}

	lines, err := readLines(latest)
	if err != nil {
		state.Rollback(PlanStateKey)
		return planDocument{}, err
	}
	return planDocument{
		WeekLabel: strings.TrimSuffix(filepath.Base(latest), ".md"),
		Lines:     lines,
	}, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return lines, nil
}

// notionDocument fetches the latest weekly plan page under the hub. The content
// only exists remotely, so the gate is a hash of the flattened document.
func (s *PlanService) notionDocument(ctx context.Context, state *signature.Store) (planDocument, error) {
	var hub notionChildren
	if err := s.bridge.GetJSON(ctx, notionChildrenPath(s.hubID), &hub); err != nil {
		return planDocument{}, err
	}

	var pageID, label string
	for _, b := range hub.Results {
		if b.Type != "child_page" || b.ChildPage == nil {
			continue
		}
		title := b.ChildPage.Title
		if strings.Contains(title, "Week of") && !strings.Contains(title, "Workout") {
			pageID, label = b.ID, title
		}
	}
	if pageID == "" {
		return planDocument{}, fmt.Errorf("%w under hub %s", ErrNoPlan, s.hubID)
	}

	var page notionChildren
	if err := s.bridge.GetJSON(ctx, notionChildrenPath(pageID), &page); err != nil {
		return planDocument{}, err
	}
	doc := planDocument{WeekLabel: label, Lines: flattenBlocks(page.Results)}

	sig, err := signature.HashOf(doc)
	if err != nil {
		return planDocument{}, err
	}
	if !state.Changed(PlanStateKey, sig) {
		return planDocument{}, errUnchanged
	}
	return doc, nil
}
