// Package render serializes result sets for HTTP responses.
package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
)

// Content types of the rendered payloads.
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"

	jsonIndent = "    "
	// BorderSeparator joins border codes inside the CSV Borders cell.
	BorderSeparator = ";"
)

var (
	// ErrEmptyResult is returned when there is nothing to render.
	ErrEmptyResult = errors.New("result is empty")
	// ErrUnsupportedFormat is returned by ParseFormat for unknown names.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Format selects the output encoding.
type Format string

// Supported formats.
const (
	JSON Format = "json"
	CSV  Format = "csv"
)

// ParseFormat accepts "json", "csv" and the empty string, which means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(JSON):
		return JSON, nil
	case string(CSV):
		return CSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Payload is a rendered body with its content type.
type Payload struct {
	Body        []byte
	ContentType string
}

// Options control rendering.
type Options struct {
	// RequireNonEmpty makes JSON rendering of an empty set fail instead of
	// producing []. CSV always requires at least one row.
	RequireNonEmpty bool
}

// Render encodes rs in the requested format.
func Render(rs domain.ResultSet, format Format, opts Options) (Payload, error) {
	switch format {
	case JSON:
		if opts.RequireNonEmpty && rs.Len() == 0 {
			return Payload{}, ErrEmptyResult
		}
		body, err := RenderJSON(rs)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Body: body, ContentType: ContentTypeJSON}, nil
	case CSV:
		body, err := RenderCSV(rs)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Body: body, ContentType: ContentTypeCSV}, nil
	}
	return Payload{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// RenderJSON encodes rs as an array indented by four spaces.
func RenderJSON(rs domain.ResultSet) ([]byte, error) {
	if rs.Records == nil {
		rs.Records = []domain.Country{}
	}
	body, err := json.MarshalIndent(rs, "", jsonIndent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return body, nil
}

// RenderCSV writes a header of the record fields followed by one row per
// record. An aggregate becomes a final row with only the name and
// population cells filled.
func RenderCSV(rs domain.ResultSet) ([]byte, error) {
	if rs.Len() == 0 {
		return nil, ErrEmptyResult
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(domain.Fields()); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, c := range rs.Records {
		if err := w.Write(recordRow(c)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	if rs.Aggregate != nil {
		if err := w.Write(aggregateRow(*rs.Aggregate)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func recordRow(c domain.Country) []string {
	row := []string{c.Name, c.Capital, c.Region, c.SubRegion, "", "", strings.Join(c.Borders, BorderSeparator)}
	if pop, ok := c.Population.Get(); ok {
		row[4] = strconv.FormatInt(pop, 10)
	}
	if area, ok := c.Area.Get(); ok {
		row[5] = strconv.FormatFloat(area, 'f', -1, 64)
	}
	return row
}

func aggregateRow(a domain.Aggregate) []string {
	row := make([]string, len(domain.Fields()))
	row[0] = a.Label
	row[4] = strconv.FormatInt(a.Value, 10)
	return row
}
