package meals

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoDayPlan = `# Week of 9 Feb

## Monday 9 Feb 🐟 salmon day
Breakfast — Overnight oats
Oats, skyr, blueberries
420 kcal | C: 55g | P: 30g | F: 9g
✅ Daily Total: 2,150 kcal | C: 220g | P: 160g | F: 70g | Sat fat: 18g
⚠️ Swapped lunch for leftovers

## Tuesday 10 Feb
Lunch — Chicken bowl
610 kcal | 60g | 45g | 18g
✅ Daily Total: 2,050 kcal | C: 210g | P: 150g | F: 65g

## 📊 Weekly Summary
Average 2,100 kcal
Fish twice
`

func TestParsePlan_TwoDays(t *testing.T) {
	days, summary := ParsePlan(strings.Split(twoDayPlan, "\n"))
	require.Len(t, days, 2)

	mon := days[0]
	assert.Equal(t, "Monday 9 Feb", mon.Day)
	assert.True(t, mon.IsFish)
	assert.Equal(t, 2150, mon.TotalKcal)
	assert.Equal(t, 220, mon.TotalCarbs)
	assert.Equal(t, 160, mon.TotalProtein)
	assert.Equal(t, 70, mon.TotalFat)
	require.NotNil(t, mon.SatFat)
	assert.Equal(t, 18, *mon.SatFat)
	require.NotNil(t, mon.Note)
	assert.Equal(t, "Swapped lunch for leftovers", *mon.Note)
	require.Len(t, mon.Meals, 1)
	assert.Equal(t, "Breakfast", mon.Meals[0].Name)
	assert.Equal(t, "Oats, skyr, blueberries", mon.Meals[0].Items)
	assert.Equal(t, 420, mon.Meals[0].Kcal)
	assert.Equal(t, 30, mon.Meals[0].Protein)

	tue := days[1]
	assert.Equal(t, "Tuesday 10 Feb", tue.Day)
	assert.False(t, tue.IsFish)
	assert.Equal(t, 2050, tue.TotalKcal)
	require.Len(t, tue.Meals, 1)
	assert.Equal(t, "Chicken bowl", tue.Meals[0].Items)
	assert.Equal(t, 60, tue.Meals[0].Carbs)
	assert.Equal(t, 18, tue.Meals[0].Fat)

	assert.Equal(t, []string{"Average 2,100 kcal", "Fish twice", ""}, summary)
}

func TestParsePlan_AbsentNoteKeysOmitted(t *testing.T) {
	days, _ := ParsePlan(strings.Split(twoDayPlan, "\n"))
	raw, err := json.Marshal(days[1])
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(raw, &obj))
	assert.NotContains(t, obj, "note")
	assert.NotContains(t, obj, "satFat")
	assert.NotContains(t, obj, "pending")
}

func TestParsePlan_ExtraMeal(t *testing.T) {
	lines := []string{
		"## Wednesday 11 Feb",
		"Protein shake — 200 kcal | C: 5g | P: 40g | F: 2g",
		"150 kcal | 20g | 5g | 6g",
	}
	days, _ := ParsePlan(lines)
	require.Len(t, days, 1)
	require.Len(t, days[0].Meals, 2)
	assert.Equal(t, "Protein shake", days[0].Meals[0].Name)
	assert.Equal(t, 200, days[0].Meals[0].Kcal)
	assert.Equal(t, "Extra", days[0].Meals[1].Name)
	assert.Equal(t, 150, days[0].Meals[1].Kcal)
}

func TestParsePlan_BulletedLines(t *testing.T) {
	lines := []string{
		"## Thursday 12 Feb",
		"- Dinner — Cod and potatoes",
		"- 540 kcal | C: 50g | P: 42g | F: 14g",
	}
	days, _ := ParsePlan(lines)
	require.Len(t, days, 1)
	require.Len(t, days[0].Meals, 1)
	assert.Equal(t, "Dinner", days[0].Meals[0].Name)
	assert.Equal(t, "Cod and potatoes", days[0].Meals[0].Items)
}

func TestParsePlan_PendingMealWithoutMacrosDropped(t *testing.T) {
	lines := []string{
		"## Friday 13 Feb",
		"Snack — Apple",
		"## Saturday 14 Feb",
		"300 kcal | 30g | 10g | 12g",
	}
	days, _ := ParsePlan(lines)
	require.Len(t, days, 2)
	assert.Empty(t, days[0].Meals)
	require.Len(t, days[1].Meals, 1)
	assert.Equal(t, "Extra", days[1].Meals[0].Name)
}

func TestParsePlan_IgnoresLinesOutsideDays(t *testing.T) {
	days, summary := ParsePlan([]string{"random", "420 kcal | 1g | 2g | 3g", "## Notes"})
	assert.Empty(t, days)
	assert.Empty(t, summary)
}

func TestFlattenBlocks(t *testing.T) {
	var page notionChildren
	require.NoError(t, json.Unmarshal([]byte(`{"results": [
		{"type": "heading_2", "heading_2": {"rich_text": [{"plain_text": "Monday "}, {"plain_text": "9 Feb"}]}},
		{"type": "paragraph", "paragraph": {"rich_text": [{"plain_text": "Breakfast — Eggs\n310 kcal | 5g | 25g | 20g"}]}},
		{"type": "bulleted_list_item", "bulleted_list_item": {"rich_text": [{"plain_text": "toast"}]}},
		{"type": "divider", "divider": {}}
	]}`), &page))

	assert.Equal(t, []string{
		"## Monday 9 Feb",
		"Breakfast — Eggs",
		"310 kcal | 5g | 25g | 20g",
		"- toast",
	}, flattenBlocks(page.Results))
}
