package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
)

func sampleSet() domain.ResultSet {
	return domain.ResultSet{
		Records: []domain.Country{
			{Name: "Poland", Capital: "Warsaw", Region: "Europe", SubRegion: "Central Europe",
				Population: domain.Some(int64(37950802)), Area: domain.Some(312679.0),
				Borders: []string{"BLR", "CZE", "DEU", "LTU", "RUS", "SVK", "UKR"}},
			{Name: "Liechtenstein", Capital: "Vaduz", Region: "Europe", SubRegion: "Central Europe",
				Population: domain.Some(int64(38137)), Area: domain.Some(160.5),
				Borders: []string{"AUT", "CHE"}},
		},
	}
}

func readCSV(t *testing.T, body []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		in   string
		want Format
	}{
		{"", JSON},
		{"json", JSON},
		{"CSV", CSV},
		{" csv ", CSV},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			f, err := ParseFormat(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f)
		})
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRender_JSONIndentedWithFourSpaces(t *testing.T) {
	p, err := Render(sampleSet(), JSON, Options{})

	require.NoError(t, err)
	assert.Equal(t, ContentTypeJSON, p.ContentType)
	assert.True(t, strings.HasPrefix(string(p.Body), "[\n    {\n        \"Country name\": \"Poland\","))
}

func TestRender_JSONRoundTrip(t *testing.T) {
	rs := sampleSet()
	rs.Records = append(rs.Records, domain.Country{Name: "Unknown", Capital: "?", Borders: []string{}})
	rs.Aggregate = domain.NewPopulationAggregate("central europe", 37988939)

	p, err := Render(rs, JSON, Options{})
	require.NoError(t, err)

	var back domain.ResultSet
	require.NoError(t, json.Unmarshal(p.Body, &back))
	assert.Equal(t, rs, back)
}

func TestRender_JSONEmpty(t *testing.T) {
	p, err := Render(domain.ResultSet{}, JSON, Options{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(p.Body))

	_, err = Render(domain.ResultSet{}, JSON, Options{RequireNonEmpty: true})
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestRender_CSVHeaderAndRows(t *testing.T) {
	p, err := Render(sampleSet(), CSV, Options{})
	require.NoError(t, err)
	assert.Equal(t, ContentTypeCSV, p.ContentType)

	rows := readCSV(t, p.Body)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Country name", "Capital", "Region", "Sub Region", "Population", "Area", "Borders"}, rows[0])
	assert.Equal(t, []string{"Poland", "Warsaw", "Europe", "Central Europe", "37950802", "312679", "BLR;CZE;DEU;LTU;RUS;SVK;UKR"}, rows[1])
	assert.Equal(t, "160.5", rows[2][5])
	assert.True(t, strings.HasPrefix(string(p.Body), "Country name,Capital,Region,Sub Region,Population,Area,Borders\n"))
}

func TestRender_CSVAggregateRowHasTwoCells(t *testing.T) {
	rs := sampleSet()
	rs.Aggregate = domain.NewPopulationAggregate("central europe", 37988939)

	p, err := Render(rs, CSV, Options{})
	require.NoError(t, err)

	rows := readCSV(t, p.Body)
	require.Len(t, rows, 4)
	last := rows[len(rows)-1]
	require.Len(t, last, len(domain.Fields()))

	nonEmpty := 0
	for _, cell := range last {
		if cell != "" {
			nonEmpty++
		}
	}
	assert.Equal(t, 2, nonEmpty)
	assert.Equal(t, "Total population of central europe", last[0])
	assert.Equal(t, "37988939", last[4])
}

func TestRender_CSVAbsentOptionalsAreEmpty(t *testing.T) {
	rs := domain.ResultSet{Records: []domain.Country{{Name: "X", Capital: "Y", Borders: []string{}}}}

	p, err := Render(rs, CSV, Options{})
	require.NoError(t, err)

	rows := readCSV(t, p.Body)
	assert.Equal(t, []string{"X", "Y", "", "", "", "", ""}, rows[1])
}

func TestRender_CSVEmptyFails(t *testing.T) {
	_, err := Render(domain.ResultSet{Records: []domain.Country{}}, CSV, Options{})
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestRender_JSONAndCSVCarrySameRecords(t *testing.T) {
	rs := sampleSet()

	jp, err := Render(rs, JSON, Options{})
	require.NoError(t, err)
	cp, err := Render(rs, CSV, Options{})
	require.NoError(t, err)

	var fromJSON []map[string]any
	require.NoError(t, json.Unmarshal(jp.Body, &fromJSON))
	rows := readCSV(t, cp.Body)[1:]

	require.Len(t, rows, len(fromJSON))
	for i := range rows {
		assert.Equal(t, fromJSON[i]["Country name"], rows[i][0])
		assert.Equal(t, fromJSON[i]["Capital"], rows[i][1])
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(sampleSet(), Format("xml"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
