// Package combiner produces the Cartesian product of independent binding
// sets — one set per comma-separated pattern in a MATCH clause — into
// unified binding tuples.
package combiner

import "github.com/orneryd/graphrules/pkg/binding"

// Combine returns the Cartesian product of sets, merging each combination
// into one unified *binding.Context. If any set is empty, the result is
// empty: zero matches overall, not one match with missing bindings. No
// deduplication is performed — identical tuples from repeated patterns
// survive. Output order is lexicographic over the source sets' iteration
// order.
func Combine(sets [][]*binding.Context) []*binding.Context {
	if len(sets) == 0 {
		return []*binding.Context{binding.New()}
	}
	for _, s := range sets {
		if len(s) == 0 {
			return nil
		}
	}

	combined := []*binding.Context{binding.New()}
	for _, set := range sets {
		next := make([]*binding.Context, 0, len(combined)*len(set))
		for _, prefix := range combined {
			for _, ctx := range set {
				merged := prefix.Clone()
				merged.Merge(ctx)
				next = append(next, merged)
			}
		}
		combined = next
	}
	return combined
}
