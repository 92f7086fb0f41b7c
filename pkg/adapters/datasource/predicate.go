package datasource

// Operator is a comparison supported by every store adapter.
type Operator string

const (
	// OpContains is a case-insensitive substring match (ILIKE '%v%').
	OpContains Operator = "contains"
	OpEq       Operator = "eq"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
)

// Condition compares one named column with a value.
type Condition struct {
	Column string
	Op     Operator
	Value  any
}

// Predicate is a row filter: (AnyOf[0] OR AnyOf[1] ...) AND AllOf[0] AND AllOf[1] ...
// An empty AnyOf imposes no constraint.
type Predicate struct {
	AnyOf []Condition
	AllOf []Condition
}

// IsEmpty reports whether the predicate matches every row.
func (p Predicate) IsEmpty() bool {
	return len(p.AnyOf) == 0 && len(p.AllOf) == 0
}

// MatchAll is the predicate used for probes and unfiltered reads.
var MatchAll = Predicate{}
