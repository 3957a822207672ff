// Package ecs provides ECS adapters for ember's event hook.
//
// The primary adapter is [NewDonburiSink], which forwards ember events
// (trail start and end, bursts, resets) into a [Donburi] world as typed
// events. Subscribe to [ParticleEventType] in your ECS systems to receive
// them, for example to play a sound where a firework shell bursts.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	sys.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
