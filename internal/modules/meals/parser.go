// Package meals syncs the weekly meal plan and the local meal log.
package meals

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aristath/mcsync/internal/domain"
)

const (
	fishMarker    = "🐟"
	warningMarker = "⚠️"
	nameSeparator = "—"
	extraMealName = "Extra"
)

var (
	reDayHeading = regexp.MustCompile(`^## ((?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)\s+\d+\s+\w+.*?)$`)
	reFishSuffix = regexp.MustCompile(`\s*🐟.*`)
	reDailyTotal = regexp.MustCompile(`✅\s*Daily Total:\s*([\d,]+)\s*kcal\s*\|\s*C:\s*(\d+)g\s*\|\s*P:\s*(\d+)g\s*\|\s*F:\s*(\d+)g`)
	reSatFat     = regexp.MustCompile(`Sat fat:\s*(\d+)g`)
	reMealSlot   = regexp.MustCompile(`^(?:Breakfast|Lunch|Dinner|Snack|Evening|Flat White|Post-workout)(?:\s*—\s*(.+))?`)
	reMacros     = regexp.MustCompile(`(\d+)\s*kcal\s*\|\s*(?:C:\s*)?(\d+)g\s*\|\s*(?:P:\s*)?(\d+)g\s*\|\s*(?:F:\s*)?(\d+)g`)
)

type parseState int

const (
	outsideDay parseState = iota
	insideDay
	insideSummary
)

// planParser is the line state machine. pending is scratch state and never part
// of an emitted day.
type planParser struct {
	state   parseState
	days    []domain.PlanDay
	day     *domain.PlanDay
	pending *domain.PlannedMeal
	summary []string
}

// ParsePlan parses the lines of a weekly plan document into days and the raw
// summary lines. Lines that match nothing are ignored.
func ParsePlan(lines []string) ([]domain.PlanDay, []string) {
	p := &planParser{}
	for _, line := range lines {
		p.feed(line)
	}
	p.closeDay()
	return p.days, p.summary
}

func (p *planParser) feed(line string) {
	if m := reDayHeading.FindStringSubmatch(line); m != nil {
		p.closeDay()
		title := strings.TrimSpace(m[1])
		p.day = &domain.PlanDay{
			Day:    reFishSuffix.ReplaceAllString(title, ""),
			IsFish: strings.Contains(title, fishMarker),
			Meals:  []domain.PlannedMeal{},
		}
		p.state = insideDay
		return
	}

	if strings.HasPrefix(line, "## 📊") || strings.HasPrefix(line, "## Weekly") {
		p.closeDay()
		p.state = insideSummary
		return
	}

	switch p.state {
	case insideSummary:
		p.summary = append(p.summary, line)
	case insideDay:
		p.dayLine(line)
	}
}

func (p *planParser) dayLine(line string) {
	text := strings.TrimPrefix(strings.TrimSpace(line), "- ")

	if m := reDailyTotal.FindStringSubmatch(text); m != nil {
		p.day.TotalKcal = atoi(strings.ReplaceAll(m[1], ",", ""))
		p.day.TotalCarbs = atoi(m[2])
		p.day.TotalProtein = atoi(m[3])
		p.day.TotalFat = atoi(m[4])
		if s := reSatFat.FindStringSubmatch(text); s != nil {
			v := atoi(s[1])
			p.day.SatFat = &v
		}
		return
	}

	if strings.HasPrefix(text, warningMarker) {
		p.day.Note = domain.String(strings.TrimSpace(strings.ReplaceAll(text, warningMarker, "")))
		return
	}

	if m := reMealSlot.FindStringSubmatch(text); m != nil {
		p.pending = &domain.PlannedMeal{
			Name:  mealName(text, text),
			Items: strings.TrimSpace(m[1]),
		}
		return
	}

	if m := reMacros.FindStringSubmatch(text); m != nil {
		meal := domain.PlannedMeal{Name: mealName(text, extraMealName)}
		if p.pending != nil {
			meal = *p.pending
			p.pending = nil
		}
		meal.Kcal = atoi(m[1])
		meal.Carbs = atoi(m[2])
		meal.Protein = atoi(m[3])
		meal.Fat = atoi(m[4])
		p.day.Meals = append(p.day.Meals, meal)
		return
	}

	if p.pending != nil && text != "" && !strings.HasPrefix(text, "##") {
		p.pending.Items = text
	}
}

// closeDay emits the open day, dropping any meal still waiting for macros.
func (p *planParser) closeDay() {
	if p.day != nil {
		p.days = append(p.days, *p.day)
	}
	p.day = nil
	p.pending = nil
}

// mealName returns the text before the name separator, or fallback when the line
// has none.
func mealName(line, fallback string) string {
	if i := strings.Index(line, nameSeparator); i >= 0 {
		return strings.TrimSpace(line[:i])
	}
	return strings.TrimSpace(fallback)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
