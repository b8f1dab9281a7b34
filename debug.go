package ember

import (
	"fmt"
	"os"
	"time"
)

// debugStats holds per-frame timing and particle metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	tickTime   time.Duration
	prepTime   time.Duration
	sortTime   time.Duration
	submitTime time.Duration
	systems    int
	particles  int
	instances  int
	vertices   int
	drawCalls  int
	culled     int
}

// debugLog prints timing and draw stats to stderr.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[ember] tick: %v | systems: %d | particles: %d\n",
		stats.tickTime, stats.systems, stats.particles)
	_, _ = fmt.Fprintf(os.Stderr,
		"[ember] prep: %v | sort: %v | submit: %v | instances: %d | vertices: %d | draw calls: %d | culled quads: %d\n",
		stats.prepTime, stats.sortTime, stats.submitTime, stats.instances, stats.vertices, stats.drawCalls, stats.culled)
}

// debugSystemReport prints the lifetime counters of one system to stderr.
// Called when a system dies in debug mode.
func debugSystemReport(ps *ParticleSystem) {
	st := ps.Stats()
	_, _ = fmt.Fprintf(os.Stderr,
		"[ember] system %q dead: emitted: %d | dropped: %d | advanced: %.1fms | simulated: %.1fms | pending: %.1fms | discarded: %.1fms | skipped ticks: %d\n",
		ps.Name, st.Emitted, st.Dropped, st.AdvancedMS, st.SimulatedMS, st.PendingMS, st.DiscardedMS, st.SkippedTicks)
}
