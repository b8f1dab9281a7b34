package ember

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"
)

// defaultStepMS is the frame length used by steps that do not name one.
const defaultStepMS = 1000.0 / 60

// testStep represents a single action in a test script.
type testStep struct {
	Action string     `json:"action"`
	System string     `json:"system,omitempty"`
	From   mgl32.Vec3 `json:"from"`
	To     mgl32.Vec3 `json:"to"`
	Axis   mgl32.Vec3 `json:"axis"`
	MS     float64    `json:"ms,omitempty"`
	Count  int        `json:"count,omitempty"`
	Radius float32    `json:"radius,omitempty"`
	Speed  float32    `json:"speed,omitempty"`
	Frames int        `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

var knownActions = map[string]bool{
	"emit": true, "burst": true, "tick": true, "move": true,
	"deleteWhenEmpty": true, "wait": true,
}

// TestRunner plays a scripted sequence of emissions and ticks, one step per
// frame, so effects can be reproduced exactly with a seeded scene PRNG.
// Attach to a Scene via SetTestRunner.
//
// Actions:
//
//	emit            EmitParticles on system from From to To over MS
//	burst           EmitBurst of Count particles at To, normal Axis
//	tick            Scene.Tick(MS) Frames times
//	move            SetPosition(To)
//	deleteWhenEmpty DeleteWhenEmpty on system
//	wait            do nothing for Frames frames
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
	misses    int
}

// LoadTestScript parses a JSON test script and returns a TestRunner ready
// to be attached to a Scene via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("ember: failed to parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("ember: failed to parse test script: no steps")
	}
	for i, st := range script.Steps {
		if !knownActions[st.Action] {
			return nil, fmt.Errorf("ember: failed to parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a TestRunner to the scene. The runner's step method
// is called from Scene.Update before the scene ticks.
func (s *Scene) SetTestRunner(runner *TestRunner) {
	s.testRunner = runner
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// Misses returns how many steps named a system that could not be found.
func (r *TestRunner) Misses() int {
	return r.misses
}

// RunHeadless steps the script and ticks the scene by frameMS per frame
// until the script is done or maxFrames have passed. Returns the number of
// frames run.
func (r *TestRunner) RunHeadless(s *Scene, frameMS float64, maxFrames int) int {
	n := 0
	for !r.done && n < maxFrames {
		r.step(s)
		s.Tick(frameMS)
		n++
	}
	return n
}

// step advances the test runner by one frame. Called from Scene.Update.
func (r *TestRunner) step(s *Scene) {
	if r.done {
		return
	}
	// Count down wait frames.
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	ms := st.MS
	if ms <= 0 {
		ms = defaultStepMS
	}

	switch st.Action {
	case "emit":
		if ps := r.system(s, st); ps != nil {
			ps.EmitParticles(st.From, st.To, axisOrUp(st.Axis), mgl32.Vec3{}, ms)
		}
	case "burst":
		if ps := r.system(s, st); ps != nil {
			ps.EmitBurst(st.To, axisOrUp(st.Axis), st.Radius, axisOrUp(st.Axis).Mul(st.Speed), st.Count)
		}
	case "move":
		if ps := r.system(s, st); ps != nil {
			ps.SetPosition(st.To)
		}
	case "deleteWhenEmpty":
		if ps := r.system(s, st); ps != nil {
			ps.DeleteWhenEmpty()
		}
	case "tick":
		for i := 0; i < max(st.Frames, 1); i++ {
			s.Tick(ms)
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	// Check if we've reached the end after executing.
	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

func (r *TestRunner) system(s *Scene, st testStep) *ParticleSystem {
	obj, ok := s.Resolve(st.System)
	ps, isSystem := obj.(*ParticleSystem)
	if !ok || !isSystem {
		log.Printf("ember: test script step %d: particle system %q not found", r.cursor-1, st.System)
		r.misses++
		return nil
	}
	return ps
}

func axisOrUp(a mgl32.Vec3) mgl32.Vec3 {
	if a.Len() == 0 {
		return unitZ
	}
	return a
}
