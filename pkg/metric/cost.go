// Package metric provides a NaN-free floating-point cost type shared by
// the OSPF resolver (link weights, ECMP tolerance) and the BGP decision
// process (IGP-cost tie-break), admitting a total ordering the way
// ordered_float::NotNan does in the implementation this simulator is
// modeled on.
package metric

import (
	"fmt"
	"math"
)

// Cost is a NaN-free float64. Constructing one from a NaN value panics —
// the simulator never legitimately produces a NaN cost, so failing fast
// at the boundary is preferable to propagating one silently.
type Cost float64

// Inf represents an unreachable destination.
const Inf Cost = Cost(math.MaxFloat64)

// Zero is the additive identity for path-cost accumulation.
const Zero Cost = 0

// New validates v and returns it as a Cost, panicking on NaN.
func New(v float64) Cost {
	if math.IsNaN(v) {
		panic("metric: NaN cost")
	}
	return Cost(v)
}

// MaxWeight is the threshold above which a configured link weight is
// treated as "link down" rather than as a large but finite cost.
const MaxWeight = 1e9

// MinEpsilon bounds the tolerance used when comparing two costs for
// equal-cost multipath membership.
const MinEpsilon = 1e-9

// Add returns a + b, saturating at Inf.
func (a Cost) Add(b Cost) Cost {
	if a >= Inf || b >= Inf {
		return Inf
	}
	return a + b
}

// Less reports whether a is strictly less than b.
func (a Cost) Less(b Cost) bool { return a < b }

// EqualWithin reports whether a and b differ by no more than MinEpsilon.
func (a Cost) EqualWithin(b Cost) bool {
	d := float64(a - b)
	if d < 0 {
		d = -d
	}
	return d <= MinEpsilon
}

// Finite reports whether the cost represents a reachable destination.
func (a Cost) Finite() bool { return a < Inf }

func (a Cost) String() string {
	if !a.Finite() {
		return "inf"
	}
	return fmt.Sprintf("%g", float64(a))
}
