package ecs

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/ember"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)
	if sink == nil {
		t.Fatal("NewDonburiSink returned nil")
	}
}

func TestDonburiSink_HandleEvent(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var received []ember.Event
	ParticleEventType.Subscribe(world, func(w donburi.World, e ember.Event) {
		received = append(received, e)
	})

	sink.HandleEvent(ember.Event{
		Type:     ember.EventBurst,
		Time:     250,
		Particle: 1,
		Emitter:  2,
		Position: mgl32.Vec3{1, 2, 3},
		Amount:   40,
	})
	sink.HandleEvent(ember.Event{Type: ember.EventReset, Particle: ember.NoParticle, Emitter: -1})

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("received %d events before ProcessEvents", len(received))
	}
	ParticleEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	e0 := received[0]
	if e0.Type != ember.EventBurst || e0.Amount != 40 || e0.Time != 250 {
		t.Errorf("event 0: %+v", e0)
	}
	if e0.Position != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("event 0 position = %v", e0.Position)
	}
	if received[1].Type != ember.EventReset {
		t.Errorf("event 1 type = %v, want reset", received[1].Type)
	}
}

func TestDonburiSink_ImplementsEventSink(t *testing.T) {
	world := donburi.NewWorld()
	var sink ember.EventSink = NewDonburiSink(world)
	_ = sink // compile-time interface check
}

func TestDonburiSink_Filter(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world, ember.EventTrailEnd)

	var got []ember.EventType
	ParticleEventType.Subscribe(world, func(w donburi.World, e ember.Event) {
		got = append(got, e.Type)
	})

	sink.HandleEvent(ember.Event{Type: ember.EventTrailStart})
	sink.HandleEvent(ember.Event{Type: ember.EventTrailEnd})
	sink.HandleEvent(ember.Event{Type: ember.EventBurst})
	ParticleEventType.ProcessEvents(world)

	if len(got) != 1 || got[0] != ember.EventTrailEnd {
		t.Errorf("got %v, want [trail-end]", got)
	}
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var count1, count2 int
	ParticleEventType.Subscribe(world, func(w donburi.World, e ember.Event) { count1++ })
	ParticleEventType.Subscribe(world, func(w donburi.World, e ember.Event) { count2++ })

	sink.HandleEvent(ember.Event{Type: ember.EventBurst})
	ParticleEventType.ProcessEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("count1=%d count2=%d, want 1 and 1", count1, count2)
	}
}

// newShellSystem builds a system where one shell lives 100ms and a trail
// emitter bursts 5 sparks where it dies.
func newShellSystem() *ember.System {
	sys := ember.NewSystem(ember.DefaultConfig())
	sys.SetSeed(1)
	sys.SetUseRandomSeed(false)

	shell := sys.AddParticle(ember.NewSpriteParticle("shell", 4))
	sparks := sys.AddParticle(ember.NewSpriteParticle("sparks", 32))

	launcher := ember.NewEmitter("launcher", shell)
	launcher.LifeSpan = 100
	launcher.AddEmitBurst(ember.EmitBurst{Amount: 1})
	sys.AddEmitter(launcher)

	pop := ember.NewTrailEmitter("pop", sparks, shell)
	end := ember.NewDynamicBurst(0, 5)
	end.Trigger = ember.TriggerTrailEnd
	pop.DynamicBursts = append(pop.DynamicBursts, end)
	sys.AddEmitter(pop)
	return sys
}

func TestDonburiSink_SystemTrailEvents(t *testing.T) {
	world := donburi.NewWorld()
	sys := newShellSystem()
	sys.SetEventSink(NewDonburiSink(world, ember.EventTrailStart, ember.EventTrailEnd))

	var got []ember.Event
	ParticleEventType.Subscribe(world, func(w donburi.World, e ember.Event) {
		got = append(got, e)
	})

	sys.SetRunning(true)
	for i := 0; i < 10; i++ {
		sys.Tick(16)
	}
	ParticleEventType.ProcessEvents(world)

	if len(got) != 2 {
		t.Fatalf("expected 2 trail events, got %d: %+v", len(got), got)
	}
	if got[0].Type != ember.EventTrailStart {
		t.Errorf("event 0 type = %v, want trail-start", got[0].Type)
	}
	end := got[1]
	if end.Type != ember.EventTrailEnd {
		t.Fatalf("event 1 type = %v, want trail-end", end.Type)
	}
	if end.Amount != 5 {
		t.Errorf("trail-end amount = %d, want 5", end.Amount)
	}
	if end.Time != 112 {
		t.Errorf("trail-end time = %d, want 112", end.Time)
	}
	if sys.ParticleByName("sparks").Alive() != 5 {
		t.Errorf("sparks alive = %d, want 5", sys.ParticleByName("sparks").Alive())
	}
}

func TestEventTypeIsShared(t *testing.T) {
	// A second event type for the same payload must not see our events.
	world := donburi.NewWorld()
	other := events.NewEventType[ember.Event]()
	sink := NewDonburiSink(world)

	var ours, theirs int
	ParticleEventType.Subscribe(world, func(w donburi.World, e ember.Event) { ours++ })
	other.Subscribe(world, func(w donburi.World, e ember.Event) { theirs++ })

	sink.HandleEvent(ember.Event{Type: ember.EventBurst})
	ParticleEventType.ProcessEvents(world)
	other.ProcessEvents(world)

	if ours != 1 || theirs != 0 {
		t.Errorf("ours=%d theirs=%d, want 1 and 0", ours, theirs)
	}
}
