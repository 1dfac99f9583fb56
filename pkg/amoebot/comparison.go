package amoebot

import "fmt"

// Comparison is the outcome of comparing two binary numbers.
type Comparison uint8

const (
	Equal Comparison = iota
	Less
	Greater
)

var comparisonNames = map[Comparison]string{
	Equal:   "EQUAL",
	Less:    "LESS",
	Greater: "GREATER",
}

func (c Comparison) String() string {
	if name, ok := comparisonNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Comparison(%d)", c)
}

// NextComparison folds in one more bit pair of a least significant bit
// first comparison of a against b.
func NextComparison(prev Comparison, a, b bool) Comparison {
	switch {
	case a == b:
		return prev
	case a:
		return Greater
	default:
		return Less
	}
}

// Invert swaps Less and Greater.
func (c Comparison) Invert() Comparison {
	switch c {
	case Less:
		return Greater
	case Greater:
		return Less
	}
	return c
}
