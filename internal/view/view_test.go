package view

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
)

func country(name string, area float64, borders int) domain.Country {
	c := domain.Country{Name: name, Capital: name + " City", Borders: []string{}}
	if area >= 0 {
		c.Area = domain.Some(area)
	}
	for i := 0; i < borders; i++ {
		c.Borders = append(c.Borders, fmt.Sprintf("B%02d", i))
	}
	return c
}

func names(records []domain.Country) []string {
	out := make([]string, 0, len(records))
	for _, c := range records {
		out = append(out, c.Name)
	}
	return out
}

func TestTopByArea_SortsDescendingAndTruncates(t *testing.T) {
	var records []domain.Country
	for i := 1; i <= 15; i++ {
		records = append(records, country(fmt.Sprintf("C%02d", i), float64(i*1000), 0))
	}

	out := TopByArea(records, 10)

	require.Len(t, out, 10)
	assert.Equal(t, "C15", out[0].Name)
	assert.Equal(t, "C06", out[9].Name)
	for i := 1; i < len(out); i++ {
		assert.Greater(t, out[i-1].Area.Value, out[i].Area.Value)
	}
}

func TestTopByArea_ExcludesUnknownAndZeroArea(t *testing.T) {
	records := []domain.Country{
		country("NoArea", -1, 0),
		country("Zero", 0, 0),
		country("Small", 10, 0),
	}

	out := TopByArea(records, 10)

	assert.Equal(t, []string{"Small"}, names(out))
}

func TestTopByArea_StableOnTies(t *testing.T) {
	records := []domain.Country{
		country("First", 50, 0),
		country("Big", 100, 0),
		country("Second", 50, 0),
		country("Third", 50, 0),
	}

	out := TopByArea(records, 10)

	assert.Equal(t, []string{"Big", "First", "Second", "Third"}, names(out))
}

func TestTopByArea_FewerThanN(t *testing.T) {
	out := TopByArea([]domain.Country{country("A", 1, 0)}, 10)
	assert.Len(t, out, 1)

	assert.Empty(t, TopByArea(nil, 10))
}

func TestTopByArea_DoesNotMutateInput(t *testing.T) {
	records := []domain.Country{country("A", 1, 0), country("B", 2, 0)}

	TopByArea(records, 10)

	assert.Equal(t, []string{"A", "B"}, names(records))
}

func TestFilterByBorderCount_Strict(t *testing.T) {
	records := []domain.Country{
		country("Three", 1, 3),
		country("Four", 1, 4),
		country("None", 1, 0),
		country("Nine", 1, 9),
	}

	out := FilterByBorderCount(records, 3)

	assert.Equal(t, []string{"Four", "Nine"}, names(out))
	for _, c := range out {
		assert.Greater(t, len(c.Borders), 3)
	}
}

func TestFilterByBorderCount_NoMatchesIsEmpty(t *testing.T) {
	out := FilterByBorderCount([]domain.Country{country("Island", 1, 0)}, 3)

	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestAggregatePopulation_SumsKeptRecords(t *testing.T) {
	records := []domain.Country{
		{Name: "A", Population: domain.Some(int64(10)), Borders: []string{}},
		{Name: "Unknown", Borders: []string{}},
		{Name: "B", Population: domain.Some(int64(20)), Borders: []string{}},
		{Name: "C", Population: domain.Some(int64(30)), Borders: []string{}},
	}

	rs := AggregatePopulation(records, "central europe")

	assert.Equal(t, []string{"A", "B", "C"}, names(rs.Records))
	require.NotNil(t, rs.Aggregate)
	assert.Equal(t, "Total population of central europe", rs.Aggregate.Label)
	assert.Equal(t, int64(60), rs.Aggregate.Value)

	var sum int64
	for _, c := range rs.Records {
		sum += c.Population.Value
	}
	assert.Equal(t, sum, rs.Aggregate.Value)
}

func TestAggregatePopulation_EmptyInput(t *testing.T) {
	rs := AggregatePopulation(nil, "nowhere")

	assert.Empty(t, rs.Records)
	require.NotNil(t, rs.Aggregate)
	assert.Equal(t, int64(0), rs.Aggregate.Value)
}

func TestApply(t *testing.T) {
	records := []domain.Country{
		{Name: "A", Area: domain.Some(5.0), Population: domain.Some(int64(1)), Borders: []string{"X", "Y", "Z", "W"}},
		{Name: "B", Area: domain.Some(9.0), Borders: []string{}},
	}

	testCases := []struct {
		kind      Kind
		wantNames []string
		wantAgg   bool
	}{
		{Biggest, []string{"B", "A"}, false},
		{Borders, []string{"A"}, false},
		{Population, []string{"A"}, true},
		{All, []string{"A", "B"}, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.kind), func(t *testing.T) {
			rs, err := Apply(tc.kind, records, Options{Label: "x"})
			require.NoError(t, err)
			assert.Equal(t, tc.wantNames, names(rs.Records))
			assert.Equal(t, tc.wantAgg, rs.Aggregate != nil)
		})
	}
}

func TestApply_MinBorders(t *testing.T) {
	records := []domain.Country{
		{Name: "A", Borders: []string{"X", "Y", "Z", "W"}},
		{Name: "B", Borders: []string{}},
		{Name: "C", Borders: []string{"X"}},
	}

	rs, err := Apply(Borders, records, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, names(rs.Records))

	rs, err = Apply(Borders, records, Options{MinBorders: domain.Some(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, names(rs.Records))
}

func TestApply_UnknownKind(t *testing.T) {
	_, err := Apply(Kind("median"), nil, Options{})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("borders")
	require.NoError(t, err)
	assert.Equal(t, Borders, k)

	_, err = ParseKind("largest")
	assert.Error(t, err)
}
