// Package trace records the dispatch-queue events a kernel processes as
// it runs a scenario to completion, so a run can be replayed, diffed, or
// queried after the fact instead of only watched live.
package trace

import (
	"fmt"
	"time"

	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/simfmt"
)

// Event is one recorded simulator event.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Router    string        `json:"router"`
	Neighbor  string        `json:"neighbor,omitempty"`
	Kind      string        `json:"kind"`
	Prefix    string        `json:"prefix,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Filter selects a subset of recorded events.
type Filter struct {
	Router      string
	Neighbor    string
	Kind        string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

var kindNames = map[eventqueue.Kind]string{
	eventqueue.KindBgp:       "bgp",
	eventqueue.KindConfig:    "config",
	eventqueue.KindAdvertise: "advertise",
	eventqueue.KindWithdraw:  "withdraw",
	eventqueue.KindLinkDown:  "link_down",
	eventqueue.KindLinkUp:    "link_up",
	eventqueue.KindCustom:    "custom",
}

// NewEvent creates a trace event for router performing an event of the
// given kind.
func NewEvent(router, kind string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		Router:    router,
		Kind:      kind,
	}
}

// FromDispatch builds a trace event from one event the kernel dispatched,
// resolving router ids to names through res and rendering Detail with
// simfmt.Event.
func FromDispatch(res simfmt.Resolver, e eventqueue.Event) *Event {
	ev := NewEvent(res.Name(e.Src), kindNames[e.Kind])
	switch e.Kind {
	case eventqueue.KindBgp, eventqueue.KindLinkDown, eventqueue.KindLinkUp, eventqueue.KindCustom:
		ev.Neighbor = res.Name(e.Dst)
	}
	if e.Kind == eventqueue.KindAdvertise || e.Kind == eventqueue.KindWithdraw {
		ev.Prefix = e.Prefix.String()
	}
	ev.Detail = simfmt.Event(res, e)
	ev.Success = true
	return ev
}

// WithNeighbor sets the adjacent router the event concerns.
func (e *Event) WithNeighbor(neighbor string) *Event {
	e.Neighbor = neighbor
	return e
}

// WithPrefix sets the prefix the event concerns.
func (e *Event) WithPrefix(prefix string) *Event {
	e.Prefix = prefix
	return e
}

// WithDetail sets the rendered detail line.
func (e *Event) WithDetail(detail string) *Event {
	e.Detail = detail
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets how long processing the event took.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
