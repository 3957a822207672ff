package ecs

import (
	"github.com/phanxgames/ember"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ParticleEventType is the Donburi event type for ember system events.
var ParticleEventType = events.NewEventType[ember.Event]()

type donburiSink struct {
	world  donburi.World
	filter func(ember.EventType) bool
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Events are
// published to ParticleEventType and can be consumed with events.Subscribe
// and ProcessEvents. When types is non-empty only those event types are
// forwarded.
func NewDonburiSink(world donburi.World, types ...ember.EventType) ember.EventSink {
	s := &donburiSink{world: world}
	if len(types) > 0 {
		var mask uint32
		for _, t := range types {
			mask |= 1 << t
		}
		s.filter = func(t ember.EventType) bool { return mask&(1<<t) != 0 }
	}
	return s
}

func (s *donburiSink) HandleEvent(event ember.Event) {
	if s.filter != nil && !s.filter(event.Type) {
		return
	}
	ParticleEventType.Publish(s.world, event)
}
