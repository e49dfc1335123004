package sampler

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
)

// weightedTable picks indices with probability proportional to their weight.
// cum[i] is the sum of weights[0..i].
type weightedTable struct {
	cum   []float64
	total float64
}

func newWeightedTable(weights []float64) (*weightedTable, error) {
	t := &weightedTable{cum: make([]float64, len(weights))}
	for i, w := range weights {
		if w < 0 {
			return nil, &domain.ConfigurationError{Problems: []string{fmt.Sprintf("weight[%d] is negative", i)}}
		}
		t.total += w
		t.cum[i] = t.total
	}
	if t.total <= 0 {
		return nil, &domain.ConfigurationError{Problems: []string{"all weights are zero"}}
	}
	return t, nil
}

// pick maps u in [0,1) to an index. Zero-weight entries share their
// cumulative value with the previous entry and are never the first value
// strictly greater than the target, so they are never returned.
func (t *weightedTable) pick(u float64) int {
	target := u * t.total
	i := sort.Search(len(t.cum), func(i int) bool { return t.cum[i] > target })
	if i < len(t.cum) {
		return i
	}
	// u*total rounded up to total: fall back to the last weighted entry.
	i = len(t.cum) - 1
	for i > 0 && t.cum[i] == t.cum[i-1] {
		i--
	}
	return i
}
