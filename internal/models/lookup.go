package models

import "fmt"

// Outcome classifies a lookup by natural key.
type Outcome int

const (
	NotFound Outcome = iota
	Found
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case NotFound:
		return "not_found"
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Lookup is the result of finding a record by a key that should be unique.
//
// Record is only set when Outcome is [Found]. Count is the number of matching rows.
type Lookup[T Model] struct {
	Outcome Outcome
	Record  T
	Count   int
}

// NewLookup classifies a slice of matches.
func NewLookup[T Model](matches []T) Lookup[T] {
	switch len(matches) {
	case 0:
		return Lookup[T]{Outcome: NotFound}
	case 1:
		return Lookup[T]{Outcome: Found, Record: matches[0], Count: 1}
	default:
		return Lookup[T]{Outcome: Ambiguous, Count: len(matches)}
	}
}
