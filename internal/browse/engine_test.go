package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/problem-browser/internal/models"
)

func sample() []models.Problem {
	return []models.Problem{
		{ContestID: 1, Index: "B", Name: "b1", Division: models.Div2, StartTime: 100},
		{ContestID: 2, Index: "B", Name: "b2", Division: models.Div2, StartTime: 300},
		{ContestID: 3, Index: "B", Name: "b3", Division: models.Div3, StartTime: 200},
		{ContestID: 2, Index: "C", Name: "c2", Division: models.Div2, StartTime: 300},
		{ContestID: 4, Index: "B", Name: "b4", Division: models.Div2, StartTime: 200},
		{ContestID: 5, Index: "A", Name: "a5", Division: models.Div1And2, StartTime: 500},
	}
}

func names(problems []models.Problem) []string {
	out := make([]string, len(problems))
	for i, p := range problems {
		out[i] = p.Name
	}
	return out
}

func TestApply_DefaultFilters(t *testing.T) {
	got := Apply(sample(), DefaultFilters())
	assert.Equal(t, []string{"b2", "b4", "b1"}, names(got))
}

func TestApply_Oldest(t *testing.T) {
	f, err := WithSortOrder(DefaultFilters(), models.SortOldest)
	require.NoError(t, err)

	got := Apply(sample(), f)
	assert.Equal(t, []string{"b1", "b4", "b2"}, names(got))
}

func TestApply_NewestIsReverseOfOldestWithoutTies(t *testing.T) {
	f := models.FilterState{
		Divisions: []models.Division{models.Div2, models.Div3, models.Div1And2},
		Indices:   []string{"A", "B"},
		SortOrder: models.SortNewest,
	}
	s := sample()
	problems := []models.Problem{s[0], s[1], s[2], s[5]}

	newest := Apply(problems, f)
	f.SortOrder = models.SortOldest
	oldest := Apply(problems, f)

	require.Len(t, oldest, len(newest))
	for i := range newest {
		assert.Equal(t, newest[i], oldest[len(oldest)-1-i])
	}
}

func TestApply_StableOnTies(t *testing.T) {
	f := models.FilterState{
		Divisions: []models.Division{models.Div2, models.Div3},
		Indices:   []string{"B", "C"},
		SortOrder: models.SortNewest,
	}
	got := Apply(sample(), f)
	assert.Equal(t, []string{"b2", "c2", "b3", "b4", "b1"}, names(got))

	f.SortOrder = models.SortOldest
	got = Apply(sample(), f)
	assert.Equal(t, []string{"b1", "b3", "b4", "b2", "c2"}, names(got))
}

func TestApply_Idempotent(t *testing.T) {
	f := DefaultFilters()
	first := Apply(sample(), f)
	second := Apply(sample(), f)
	assert.Equal(t, first, second)
	assert.Equal(t, first, Apply(first, f))
}

func TestApply_EmptySelectionYieldsNothing(t *testing.T) {
	f := ToggleDivision(DefaultFilters(), models.Div2)
	assert.Empty(t, f.Divisions)
	assert.Empty(t, Apply(sample(), f))

	f = ToggleIndex(DefaultFilters(), "B")
	assert.Empty(t, Apply(sample(), f))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := sample()
	_ = Apply(in, DefaultFilters())
	assert.Equal(t, sample(), in)
}

func TestToggle(t *testing.T) {
	f := DefaultFilters()

	added := ToggleDivision(f, models.Div3)
	assert.Equal(t, []models.Division{models.Div2, models.Div3}, added.Divisions)
	assert.Equal(t, []models.Division{models.Div2}, f.Divisions, "input must be unchanged")

	removed := ToggleDivision(added, models.Div2)
	assert.Equal(t, []models.Division{models.Div3}, removed.Divisions)

	idx := ToggleIndex(ToggleIndex(f, "C"), "B")
	assert.Equal(t, []string{"C"}, idx.Indices)
}

func TestWithSortOrder_Invalid(t *testing.T) {
	f, err := WithSortOrder(DefaultFilters(), "sideways")
	assert.ErrorIs(t, err, ErrInvalidSortOrder)
	assert.Equal(t, models.SortNewest, f.SortOrder)
}

type lookupFunc func(int, string) models.Progress

func (f lookupFunc) Get(contestID int, index string) models.Progress { return f(contestID, index) }

func TestAnnotate(t *testing.T) {
	problems := Apply(sample(), DefaultFilters())
	lookup := lookupFunc(func(contestID int, index string) models.Progress {
		if contestID == 2 {
			return models.Progress{Done: true, Notes: "ok", UpdatedAt: 1}
		}
		return models.Progress{}
	})

	entries, done := Annotate(problems, lookup)
	require.Len(t, entries, 3)
	assert.Equal(t, 1, done)
	assert.True(t, entries[0].Progress.Done)
	assert.Equal(t, "b2", entries[0].Name)
	assert.False(t, entries[1].Progress.Done)
}

func TestEndToEndScenario(t *testing.T) {
	joined := []models.Problem{
		{ContestID: 1, Index: "B", Name: "X", Division: models.Div2, StartTime: 1000},
		{ContestID: 1, Index: "C", Name: "Y", Division: models.Div2, StartTime: 1000},
	}
	got := Apply(joined, DefaultFilters())
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ContestID)
	assert.Equal(t, "B", got[0].Index)
	assert.Equal(t, "X", got[0].Name)
}
