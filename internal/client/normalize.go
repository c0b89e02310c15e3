package client

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
)

// ErrMalformedRecord is returned when a document lacks a field every record needs.
var ErrMalformedRecord = errors.New("malformed country record")

// Normalize converts one upstream document to the flat output record.
func Normalize(raw RawCountry) (domain.Country, error) {
	name := raw.doc.Get("name.common")
	if name.Type != gjson.String || name.Str == "" {
		return domain.Country{}, fmt.Errorf("%w: missing name.common", ErrMalformedRecord)
	}

	capital := raw.doc.Get("capital.0")
	if capital.Type != gjson.String {
		return domain.Country{}, fmt.Errorf("%w: %s has no capital", ErrMalformedRecord, name.Str)
	}

	c := domain.Country{
		Name:      name.Str,
		Capital:   capital.Str,
		Region:    raw.doc.Get("region").String(),
		SubRegion: raw.doc.Get("subregion").String(),
		Borders:   []string{},
	}

	if pop := raw.doc.Get("population"); pop.Type == gjson.Number {
		if pop.Num < 0 {
			return domain.Country{}, fmt.Errorf("%w: %s has negative population", ErrMalformedRecord, name.Str)
		}
		c.Population = domain.Some(pop.Int())
	}
	if area := raw.doc.Get("area"); area.Type == gjson.Number {
		c.Area = domain.Some(area.Float())
	}
	if borders := raw.doc.Get("borders"); borders.IsArray() {
		borders.ForEach(func(_, code gjson.Result) bool {
			c.Borders = append(c.Borders, code.String())
			return true
		})
	}

	return c, nil
}

// NormalizeAll normalizes every document. Records that fail are passed to
// skip when it is non-nil and dropped; with a nil skip the first failure
// aborts.
func NormalizeAll(raws []RawCountry, skip func(RawCountry, error)) ([]domain.Country, error) {
	out := make([]domain.Country, 0, len(raws))
	for _, raw := range raws {
		c, err := Normalize(raw)
		if err != nil {
			if skip == nil {
				return nil, err
			}
			skip(raw, err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
