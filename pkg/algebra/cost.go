package algebra

import "github.com/bgpsim/bgpsim/pkg/metric"

// CostAlgebra is the Algebra[metric.Cost] a distance-vector or
// path-vector plug-in uses when the attribute being minimized is a
// simple additive link cost, the same Cost type the OSPF resolver uses
// for IGP distances.
type CostAlgebra struct{}

func (CostAlgebra) Identity() metric.Cost { return metric.Zero }

func (CostAlgebra) Bullet() metric.Cost { return metric.Inf }

func (CostAlgebra) IsBullet(v metric.Cost) bool { return !v.Finite() }

func (CostAlgebra) Combine(edge, received metric.Cost) metric.Cost { return edge.Add(received) }

func (CostAlgebra) Less(a, b metric.Cost) bool { return a.Less(b) }
