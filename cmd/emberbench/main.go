// emberbench runs an effect headless and reports timing and a buffer hash.
//
// Profiling:
//
//	go build ./cmd/emberbench
//	./emberbench -effect fountain.yaml -profile cpu
//	go tool pprof -http=":8000" ./emberbench cpu.pprof
package main

import (
	"flag"
	"fmt"
	"hash/fnv"
	"os"
	"time"

	"github.com/phanxgames/ember"
	"github.com/pkg/profile"
)

var (
	effectPath   = flag.String("effect", "", "YAML effect file (built-in fountain when empty)")
	timelinePath = flag.String("timeline", "", "JSON timeline script run instead of -frames")
	frames       = flag.Int("frames", 600, "Frames to simulate")
	dt           = flag.Int("dt", 16, "Milliseconds per frame")
	seed         = flag.Uint("seed", 1, "Fixed random seed")
	profileMode  = flag.String("profile", "", "Profile: cpu|mem|allocs")
	logEvery     = flag.Int("log", 0, "Print stats every N updates")
)

const builtinEffect = `
seed: 1
particles:
  - name: sparks
    kind: sprite
    max: 4000
    color: "#ffb347"
    colorVariation: [0.1, 0.1, 0.1, 0]
  - name: trails
    kind: line
    max: 400
    line: {segments: 8, alphaFade: 1, lengthDeltaMin: 0.2}
emitters:
  - name: fountain
    particle: sparks
    rate: 1500
    lifeSpan: 2000
    lifeSpanVariation: 500
    velocity: {type: vector, direction: [0, 12, 0], variation: [4, 3, 4]}
    shape: {type: sphere, extents: [0.5, 0.5, 0.5], fill: true}
  - name: streaks
    particle: trails
    rate: 150
    lifeSpan: 1500
    velocity: {type: vector, direction: [0, 10, 0], variation: [6, 2, 6]}
affectors:
  - name: gravity
    type: gravity
    magnitude: 9.8
    direction: [0, -1, 0]
  - name: drift
    type: wander
    globalAmount: [0.5, 0, 0.5]
    globalPace: [0.3, 0, 0.2]
`

func main() {
	flag.Parse()

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "allocs":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "":
	default:
		fmt.Fprintf(os.Stderr, "unknown profile mode %q\n", *profileMode)
		os.Exit(2)
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := ember.ConfigFromEnv()
	var sys *ember.System
	var err error
	if *effectPath != "" {
		sys, err = ember.LoadEffect(*effectPath, cfg, nil)
	} else {
		sys, err = ember.ParseEffect([]byte(builtinEffect), cfg, nil)
	}
	if err != nil {
		return err
	}
	sys.SetSeed(uint32(*seed))
	sys.SetUseRandomSeed(false)
	sys.SetLogging(*logEvery)

	h := fnv.New64a()
	sys.SetSink(ember.SinkFunc(func(_ *ember.Particle, buf *ember.Buffer) {
		h.Write(buf.Bytes())
	}))

	start := time.Now()
	if *timelinePath != "" {
		tl, err := ember.LoadTimelineFile(*timelinePath)
		if err != nil {
			return err
		}
		if err := tl.Run(sys); err != nil {
			return err
		}
		for _, snap := range tl.Snapshots() {
			fmt.Printf("snapshot %-12s t=%6dms alive=%v\n", snap.Label, snap.Time, snap.Alive)
		}
	} else {
		sys.SetRunning(true)
		for i := 0; i < *frames; i++ {
			sys.Tick(*dt)
		}
	}
	elapsed := time.Since(start)

	st := sys.Stats()
	fmt.Printf("updates:  %d\n", st.Updates)
	fmt.Printf("sim time: %dms\n", sys.Time())
	fmt.Printf("alive:    %d / %d\n", st.ParticlesUsed, st.ParticlesMax)
	fmt.Printf("wall:     %v (avg update %v)\n", elapsed, st.AverageUpdate())
	fmt.Printf("hash:     %016x\n", h.Sum64())
	return nil
}
