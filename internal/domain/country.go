package domain

// Country is the flat record served to the user. Field order is the
// column order of every JSON object and CSV row.
type Country struct {
	Name       string            `json:"Country name"`
	Capital    string            `json:"Capital"`
	Region     string            `json:"Region"`
	SubRegion  string            `json:"Sub Region"`
	Population Optional[int64]   `json:"Population"`
	Area       Optional[float64] `json:"Area"`
	Borders    []string          `json:"Borders"`
}

// Field names in output order.
const (
	FieldName       = "Country name"
	FieldCapital    = "Capital"
	FieldRegion     = "Region"
	FieldSubRegion  = "Sub Region"
	FieldPopulation = "Population"
	FieldArea       = "Area"
	FieldBorders    = "Borders"
)

// Fields returns the record field names in their fixed order.
func Fields() []string {
	return []string{
		FieldName,
		FieldCapital,
		FieldRegion,
		FieldSubRegion,
		FieldPopulation,
		FieldArea,
		FieldBorders,
	}
}

// PartitionKind selects which upstream collection a key belongs to.
type PartitionKind string

// Partition kinds served by the upstream.
const (
	Region    PartitionKind = "region"
	SubRegion PartitionKind = "subregion"
)

// Valid reports whether k is a known partition kind.
func (k PartitionKind) Valid() bool {
	return k == Region || k == SubRegion
}
