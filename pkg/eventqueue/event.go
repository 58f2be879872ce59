// Package eventqueue holds the dispatch queue the kernel drains to reach
// quiescence: a tagged Event union and a pluggable ordering Discipline,
// defaulting to FIFO, grounded on the same VecDeque-of-events shape the
// simulator's reference implementation uses.
package eventqueue

import (
	"fmt"

	"github.com/bgpsim/bgpsim/pkg/bgp"
	"github.com/bgpsim/bgpsim/pkg/config"
	"github.com/bgpsim/bgpsim/pkg/ids"
)

// Kind tags which Event variant is populated.
type Kind uint8

const (
	KindBgp Kind = iota
	KindConfig
	KindAdvertise
	KindWithdraw
	KindLinkDown
	KindLinkUp
	KindCustom
)

// Event is a value object dispatched by the kernel. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind     Kind
	Src      ids.RouterID
	Dst      ids.RouterID
	BgpEvent bgp.Event
	Modifier config.Modifier
	Route    *bgp.Route
	Prefix   ids.Prefix
	Custom   *CustomMessage
}

// CustomMessage carries a type-erased attribute update from a custom
// routing protocol plugged in alongside BGP. Protocol identifies which
// plug-in instance owns the payload; Payload holds that plug-in's own
// concrete event type and is recovered with a type assertion on receipt.
type CustomMessage struct {
	Protocol string
	Payload  any
}

// Custom builds a Custom(src, dst, protocol, payload) event, the hook
// custom routing protocols use to share the kernel's dispatch queue
// without the queue itself knowing their attribute types.
func Custom(src, dst ids.RouterID, protocol string, payload any) Event {
	return Event{Kind: KindCustom, Src: src, Dst: dst, Custom: &CustomMessage{Protocol: protocol, Payload: payload}}
}

// BgpMessage builds a Bgp(src, dst, event) event.
func BgpMessage(src, dst ids.RouterID, e bgp.Event) Event {
	return Event{Kind: KindBgp, Src: src, Dst: dst, BgpEvent: e}
}

// ConfigApplied builds a Config(modifier) event, used to notify devices
// a configuration change already landed so they can react (e.g. an OSPF
// table update triggering IGP-cost re-evaluation).
func ConfigApplied(m config.Modifier) Event {
	return Event{Kind: KindConfig, Modifier: m}
}

// Advertise builds an Advertise(src, route) event.
func Advertise(src ids.RouterID, r *bgp.Route) Event {
	return Event{Kind: KindAdvertise, Src: src, Route: r}
}

// Withdraw builds a Withdraw(src, prefix) event.
func Withdraw(src ids.RouterID, p ids.Prefix) Event {
	return Event{Kind: KindWithdraw, Src: src, Prefix: p}
}

// LinkDown builds a LinkDown(a, b) event.
func LinkDown(a, b ids.RouterID) Event {
	return Event{Kind: KindLinkDown, Src: a, Dst: b}
}

// LinkUp builds a LinkUp(a, b) event.
func LinkUp(a, b ids.RouterID) Event {
	return Event{Kind: KindLinkUp, Src: a, Dst: b}
}

func (e Event) String() string {
	switch e.Kind {
	case KindBgp:
		return fmt.Sprintf("Bgp(%s -> %s, %s)", e.Src, e.Dst, e.BgpEvent)
	case KindConfig:
		return fmt.Sprintf("Config(%v)", e.Modifier.Kind)
	case KindAdvertise:
		return fmt.Sprintf("Advertise(%s, %s)", e.Src, e.Route)
	case KindWithdraw:
		return fmt.Sprintf("Withdraw(%s, %s)", e.Src, e.Prefix)
	case KindLinkDown:
		return fmt.Sprintf("LinkDown(%s, %s)", e.Src, e.Dst)
	case KindLinkUp:
		return fmt.Sprintf("LinkUp(%s, %s)", e.Src, e.Dst)
	case KindCustom:
		return fmt.Sprintf("Custom(%s -> %s, %s)", e.Src, e.Dst, e.Custom.Protocol)
	default:
		return "Event(unknown)"
	}
}
