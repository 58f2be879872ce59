package simfmt

import (
	"fmt"
	"strings"

	"github.com/bgpsim/bgpsim/pkg/config"
)

// ConfigExpr formats one configuration expression, resolving every
// router id it names through res.
func ConfigExpr(res Resolver, e config.Expr) string {
	k := e.Key
	switch k.Kind {
	case config.LinkWeight:
		return fmt.Sprintf("IGP Link Weight: %s -> %s: %s", res.Name(k.Src), res.Name(k.Dst), formatCost(e.Value.Weight))
	case config.Session:
		kind := "eBGP"
		if e.Value.Session.Kind == config.SessionIBgp {
			kind = "iBGP"
		}
		s := fmt.Sprintf("BGP Session: %s -- %s: type: %s", res.Name(k.Src), res.Name(k.Dst), kind)
		if e.Value.Session.Client != 0 {
			s += fmt.Sprintf(", client: %s", res.Name(e.Value.Session.Client))
		}
		return s
	case config.RouteMapEntry:
		return fmt.Sprintf("BGP Route Map on %s towards %s [%s]: %s", res.Name(k.Router), res.Name(k.Neighbor), k.Direction, RouteMapEntry(res, e.Value.RouteMapEntry))
	case config.StaticRoute:
		target := res.Name(e.Value.StaticRoute.Target)
		if e.Value.StaticRoute.Kind == config.Indirect {
			target += " (indirect)"
		}
		return fmt.Sprintf("Static Route: %s: Prefix %s via %s", res.Name(k.Router), k.Prefix, target)
	case config.LoadBalancing:
		return fmt.Sprintf("Load Balancing: %s: %v", res.Name(k.Router), e.Value.LoadBalancing)
	default:
		return fmt.Sprintf("unknown config expr %v", k.Kind)
	}
}

// ConfigModifier formats one atomic configuration edit.
func ConfigModifier(res Resolver, m config.Modifier) string {
	switch m.Kind {
	case config.ModInsert:
		return "INSERT " + ConfigExpr(res, m.To)
	case config.ModRemove:
		return "REMOVE " + ConfigExpr(res, m.From)
	default:
		return "MODIFY " + ConfigExpr(res, m.To)
	}
}

// Config formats every expression currently stored in c, one per line.
func Config(res Resolver, c *config.Config) string {
	var b strings.Builder
	b.WriteString("Config {\n")
	for _, e := range c.Exprs() {
		fmt.Fprintf(&b, "    %s\n", ConfigExpr(res, e))
	}
	b.WriteString("}")
	return b.String()
}

// ConfigPatch formats every modifier in p, in application order.
func ConfigPatch(res Resolver, p *config.Patch) string {
	var b strings.Builder
	b.WriteString("ConfigPatch {\n")
	for _, m := range p.Modifiers {
		fmt.Fprintf(&b, "    %s\n", ConfigModifier(res, m))
	}
	b.WriteString("}")
	return b.String()
}
