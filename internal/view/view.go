// Package view holds the transformations applied to a partition's records
// before they are rendered.
package view

import (
	"fmt"
	"sort"

	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
)

// Defaults applied when Options leave a field unset.
const (
	DefaultTopN       = 10
	DefaultMinBorders = 3
)

// Kind names one of the views a route can select.
type Kind string

// Views served by the API.
const (
	Biggest    Kind = "biggest"
	Borders    Kind = "borders"
	Population Kind = "population"
	All        Kind = "all"
)

// ParseKind maps a name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Biggest, Borders, Population, All:
		return k, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Options parametrize the views. A non-positive TopN and an unset
// MinBorders take the defaults; MinBorders may be zero.
type Options struct {
	TopN       int
	MinBorders domain.Optional[int]
	// Label is the partition key written into the population aggregate.
	Label string
}

func (o Options) withDefaults() Options {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if !o.MinBorders.Valid {
		o.MinBorders = domain.Some(DefaultMinBorders)
	}
	return o
}

// Apply runs the view selected by kind.
func Apply(kind Kind, records []domain.Country, opts Options) (domain.ResultSet, error) {
	opts = opts.withDefaults()
	switch kind {
	case Biggest:
		return domain.ResultSet{Records: TopByArea(records, opts.TopN)}, nil
	case Borders:
		return domain.ResultSet{Records: FilterByBorderCount(records, opts.MinBorders.Value)}, nil
	case Population:
		return AggregatePopulation(records, opts.Label), nil
	case All:
		return domain.ResultSet{Records: append([]domain.Country{}, records...)}, nil
	}
	return domain.ResultSet{}, fmt.Errorf("unknown view %q", kind)
}

// TopByArea returns up to n records with the largest known area, largest
// first. Records without a positive area are left out; equal areas keep
// their input order.
func TopByArea(records []domain.Country, n int) []domain.Country {
	out := make([]domain.Country, 0, len(records))
	for _, c := range records {
		if area, ok := c.Area.Get(); ok && area > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Area.Value > out[j].Area.Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// FilterByBorderCount keeps records with more than min borders.
func FilterByBorderCount(records []domain.Country, min int) []domain.Country {
	out := make([]domain.Country, 0)
	for _, c := range records {
		if len(c.Borders) > min {
			out = append(out, c)
		}
	}
	return out
}

// AggregatePopulation keeps the records with a known population and
// appends their total, labeled with key.
func AggregatePopulation(records []domain.Country, key string) domain.ResultSet {
	kept := make([]domain.Country, 0, len(records))
	var total int64
	for _, c := range records {
		pop, ok := c.Population.Get()
		if !ok {
			continue
		}
		kept = append(kept, c)
		total += pop
	}
	return domain.ResultSet{
		Records:   kept,
		Aggregate: domain.NewPopulationAggregate(key, total),
	}
}
