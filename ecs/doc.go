// Package ecs provides ECS adapters for trellis graph events.
//
// The primary adapter is [NewDonburiSink], which bridges trellis graph events
// (spawned, child added, child removed, reclaimed) into a [Donburi] world as
// typed events. Subscribe to [GraphEventType] in your ECS systems to receive
// them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	hub := trellis.NewHub(trellis.WithEventSink(sink))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
