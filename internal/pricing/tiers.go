package pricing

import (
	"fmt"
	"sort"
)

// Bracket is an inclusive integer range with an optional open upper bound.
// Catalog tier models implement it.
type Bracket interface {
	RangeFrom() int
	RangeTo() *int
	Active() bool
}

// TierKind names the tier table a resolution ran against, so a miss can be
// reported precisely.
type TierKind string

const (
	TierKindCostScale          TierKind = "cost_scale"
	TierKindComponentIncrement TierKind = "component_increment"
)

// TierNotFoundError reports that no active bracket covers the input value.
type TierNotFoundError struct {
	Kind  TierKind
	Input int
}

func (e *TierNotFoundError) Error() string {
	return fmt.Sprintf("no active %s tier covers quantity %d", e.Kind, e.Input)
}

// ResolveTier returns the active bracket containing input. Brackets are
// considered in ascending RangeFrom order and the first match wins, which
// keeps resolution deterministic when operator data contains overlapping
// ranges. A nil RangeTo means the bracket is unbounded above.
func ResolveTier[T Bracket](kind TierKind, tiers []T, input int) (T, error) {
	ordered := make([]T, len(tiers))
	copy(ordered, tiers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RangeFrom() < ordered[j].RangeFrom()
	})

	for _, tier := range ordered {
		if !tier.Active() {
			continue
		}
		if input < tier.RangeFrom() {
			continue
		}
		if to := tier.RangeTo(); to != nil && input > *to {
			continue
		}
		return tier, nil
	}

	var zero T
	return zero, &TierNotFoundError{Kind: kind, Input: input}
}
