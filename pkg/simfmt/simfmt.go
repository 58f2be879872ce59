// Package simfmt renders simulator values - routes, RIB entries, events,
// configuration, route-maps, and forwarding state - as the human-readable
// strings a shell or log line needs, with router ids resolved to their
// scenario names wherever a Resolver is supplied.
package simfmt

import (
	"fmt"

	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/metric"
)

// Resolver maps a router id to the name it should be printed as. A nil
// Resolver, or one that returns "", falls back to id.String() ("r3").
type Resolver func(id ids.RouterID) string

func (r Resolver) Name(id ids.RouterID) string {
	if r != nil {
		if n := r(id); n != "" {
			return n
		}
	}
	return id.String()
}

func formatUint32(v uint32) string { return fmt.Sprintf("%d", v) }

func formatCost(c metric.Cost) string {
	if !c.Finite() {
		return "inf"
	}
	return fmt.Sprintf("%.2f", float64(c))
}
