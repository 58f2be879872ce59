package simfmt

import (
	"fmt"

	"github.com/bgpsim/bgpsim/pkg/bgp"
	"github.com/bgpsim/bgpsim/pkg/eventqueue"
)

// BgpEvent formats a single BGP update/withdraw message.
func BgpEvent(res Resolver, e bgp.Event) string {
	if e.Withdraw != nil {
		return fmt.Sprintf("Withdraw prefix %s", *e.Withdraw)
	}
	return fmt.Sprintf("Update [%s]", Route(res, e.Update))
}

// Event formats one dispatch-queue event with router ids resolved to
// their scenario names.
func Event(res Resolver, e eventqueue.Event) string {
	switch e.Kind {
	case eventqueue.KindBgp:
		return fmt.Sprintf("BGP Event: %s -> %s: %s", res.Name(e.Src), res.Name(e.Dst), BgpEvent(res, e.BgpEvent))
	case eventqueue.KindConfig:
		return fmt.Sprintf("Config Event: %s", ConfigModifier(res, e.Modifier))
	case eventqueue.KindAdvertise:
		return fmt.Sprintf("Advertise: %s injects %s", res.Name(e.Src), Route(res, e.Route))
	case eventqueue.KindWithdraw:
		return fmt.Sprintf("Withdraw: %s retracts %s", res.Name(e.Src), e.Prefix)
	case eventqueue.KindLinkDown:
		return fmt.Sprintf("Link Down: %s -- %s", res.Name(e.Src), res.Name(e.Dst))
	case eventqueue.KindLinkUp:
		return fmt.Sprintf("Link Up: %s -- %s", res.Name(e.Src), res.Name(e.Dst))
	case eventqueue.KindCustom:
		return fmt.Sprintf("Custom Event: %s -> %s [%s]", res.Name(e.Src), res.Name(e.Dst), e.Custom.Protocol)
	default:
		return "Event(unknown)"
	}
}
