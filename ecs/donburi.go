package ecs

import (
	"github.com/phanxgames/trellis"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// GraphEventType is the Donburi event type for trellis graph events.
// Subscribe to this in your ECS systems to mirror the scene graph structure.
var GraphEventType = events.NewEventType[trellis.GraphEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Graph events are published to GraphEventType and can be consumed with
// events.Subscribe and ProcessEvents. Publishing only queues the event, so
// subscribers run outside the Hub lock.
func NewDonburiSink(world donburi.World) trellis.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) Emit(event trellis.GraphEvent) {
	GraphEventType.Publish(s.world, event)
}
