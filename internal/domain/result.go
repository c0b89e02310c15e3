package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AggregateLabelPrefix starts the label of every population aggregate row.
const AggregateLabelPrefix = "Total population of "

// Aggregate is the synthetic trailing row produced by a population view.
// It encodes as a single-key object {"<Label>": Value}.
type Aggregate struct {
	Label string
	Value int64
}

// NewPopulationAggregate labels total with the partition key it was computed for.
func NewPopulationAggregate(key string, total int64) *Aggregate {
	return &Aggregate{Label: AggregateLabelPrefix + key, Value: total}
}

// MarshalJSON encodes the aggregate as a single-key object.
func (a Aggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int64{a.Label: a.Value})
}

// UnmarshalJSON accepts exactly one key.
func (a *Aggregate) UnmarshalJSON(data []byte) error {
	var m map[string]int64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("aggregate row must have exactly one key, got %d", len(m))
	}
	for k, v := range m {
		a.Label, a.Value = k, v
	}
	return nil
}

// ResultSet is the output of a view: records in order, optionally followed
// by exactly one aggregate row.
type ResultSet struct {
	Records   []Country
	Aggregate *Aggregate
}

// Len counts every row including the aggregate.
func (rs ResultSet) Len() int {
	n := len(rs.Records)
	if rs.Aggregate != nil {
		n++
	}
	return n
}

// MarshalJSON encodes the set as one array with the aggregate last.
func (rs ResultSet) MarshalJSON() ([]byte, error) {
	rows := make([]any, 0, rs.Len())
	for _, c := range rs.Records {
		rows = append(rows, c)
	}
	if rs.Aggregate != nil {
		rows = append(rows, *rs.Aggregate)
	}
	return json.Marshal(rows)
}

// UnmarshalJSON treats a trailing single-key object carrying the aggregate
// label prefix as the aggregate.
func (rs *ResultSet) UnmarshalJSON(data []byte) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}

	out := ResultSet{Records: make([]Country, 0, len(rows))}
	for i, row := range rows {
		if i == len(rows)-1 && isAggregateRow(row) {
			var agg Aggregate
			if err := json.Unmarshal(row, &agg); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			out.Aggregate = &agg
			break
		}
		var c Country
		if err := json.Unmarshal(row, &c); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if c.Borders == nil {
			c.Borders = []string{}
		}
		out.Records = append(out.Records, c)
	}
	*rs = out
	return nil
}

func isAggregateRow(row json.RawMessage) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(row, &m); err != nil || len(m) != 1 {
		return false
	}
	for k := range m {
		return strings.HasPrefix(k, AggregateLabelPrefix)
	}
	return false
}
