package ember

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDefaultSystemConfigIsValid(t *testing.T) {
	buf := captureLog(t)
	c := DefaultSystemConfig()
	if n := c.Validate(); n != 0 {
		t.Errorf("Validate = %d, want 0 (log: %s)", n, buf.String())
	}
	if c.GravityCoefficient != 0 {
		t.Errorf("GravityCoefficient = %v, want 0", c.GravityCoefficient)
	}
	if c.Gravity != (mgl32.Vec3{0, 0, -9.81}) {
		t.Errorf("Gravity = %v", c.Gravity)
	}
}

func TestSystemConfigValidateClamps(t *testing.T) {
	captureLog(t)
	c := DefaultSystemConfig()
	c.ParticlesPerSecond = 5000
	c.LifetimeMS = 0
	c.DragCoefficient = -1
	c.SimulationLODMaxSkip = -2
	c.MaxParticles = -5

	if n := c.Validate(); n != 5 {
		t.Errorf("Validate = %d, want 5", n)
	}
	if c.ParticlesPerSecond != 1000 {
		t.Errorf("ParticlesPerSecond = %v, want 1000", c.ParticlesPerSecond)
	}
	if c.LifetimeMS != 1 {
		t.Errorf("LifetimeMS = %v, want 1", c.LifetimeMS)
	}
	if c.DragCoefficient != 0 || c.SimulationLODMaxSkip != 0 || c.MaxParticles != 0 {
		t.Errorf("drag/skip/max = %v/%v/%v, want zeros", c.DragCoefficient, c.SimulationLODMaxSkip, c.MaxParticles)
	}
}

func TestSystemConfigValidateNaN(t *testing.T) {
	captureLog(t)
	c := DefaultSystemConfig()
	c.LifetimeMS = math.NaN()
	c.Validate()
	if c.LifetimeMS != 1 {
		t.Errorf("LifetimeMS = %v, want 1", c.LifetimeMS)
	}
}

func TestVarianceStaysBelowBase(t *testing.T) {
	captureLog(t)
	c := DefaultSystemConfig()
	c.LifetimeMS = 500
	c.LifetimeVarianceMS = 800
	c.ParticlesPerSecondVariance = -3
	if n := c.Validate(); n != 2 {
		t.Errorf("Validate = %d, want 2", n)
	}
	if c.LifetimeVarianceMS >= c.LifetimeMS || c.LifetimeVarianceMS < 499 {
		t.Errorf("LifetimeVarianceMS = %v, want just below 500", c.LifetimeVarianceMS)
	}
	if c.ParticlesPerSecondVariance != 0 {
		t.Errorf("ParticlesPerSecondVariance = %v, want 0", c.ParticlesPerSecondVariance)
	}
}

func TestVariance32ZeroBase(t *testing.T) {
	captureLog(t)
	ec := &SphereEmitterConfig{VelocityVariance: 2}
	if n := ec.Validate(); n != 1 {
		t.Errorf("Validate = %d, want 1", n)
	}
	if ec.VelocityVariance != 0 {
		t.Errorf("VelocityVariance = %v, want 0", ec.VelocityVariance)
	}
}

func TestSimulationLODEndBelowBegin(t *testing.T) {
	captureLog(t)
	c := DefaultSystemConfig()
	c.SimulationLODBegin = 50
	c.SimulationLODEnd = 20
	c.Validate()
	if c.SimulationLODEnd != 50 {
		t.Errorf("SimulationLODEnd = %v, want 50", c.SimulationLODEnd)
	}
	if c.LODEnabled() {
		t.Error("equal begin and end should disable LOD")
	}
}

func TestPoolCapacity(t *testing.T) {
	tests := []struct {
		name          string
		pps, ppsVar   float64
		life, lifeVar float64
		max           int
		want          int
	}{
		{"plain", 100, 0, 1000, 0, 0, 108},
		{"variance", 100, 50, 1000, 500, 0, 233},
		{"clamped rate", 5000, 0, 10, 0, 0, 18},
		{"explicit max", 100, 0, 1000, 0, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &SystemConfig{
				ParticlesPerSecond:         tt.pps,
				ParticlesPerSecondVariance: tt.ppsVar,
				LifetimeMS:                 tt.life,
				LifetimeVarianceMS:         tt.lifeVar,
				MaxParticles:               tt.max,
			}
			if got := c.PoolCapacity(); got != tt.want {
				t.Errorf("PoolCapacity = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSphereEmitterConfigValidate(t *testing.T) {
	captureLog(t)
	ec := &SphereEmitterConfig{ThetaMin: 120, ThetaMax: 200, PhiVariance: 400}
	if n := ec.Validate(); n != 2 {
		t.Errorf("Validate = %d, want 2", n)
	}
	if ec.ThetaMax != 180 || ec.ThetaMin != 120 || ec.PhiVariance != 360 {
		t.Errorf("theta/phi = %v-%v/%v", ec.ThetaMin, ec.ThetaMax, ec.PhiVariance)
	}

	ec = &SphereEmitterConfig{ThetaMin: 60, ThetaMax: 30}
	ec.Validate()
	if ec.ThetaMin != 30 {
		t.Errorf("ThetaMin = %v, want 30", ec.ThetaMin)
	}
}

func TestBillboardConfigKeyNormalization(t *testing.T) {
	captureLog(t)
	c := &BillboardRendererConfig{
		Keys: []Keyframe{
			{Time: 0.2, Size: 1},
			{Time: 0.1, Size: -1},
			{Time: 1.5, Size: 2, Ease: "bogus"},
			{Time: 1, Size: 1},
			{Time: 1, Size: 1},
		},
	}
	c.Validate()

	if len(c.Keys) != MaxKeyframes {
		t.Fatalf("len(Keys) = %d, want %d", len(c.Keys), MaxKeyframes)
	}
	if c.Keys[0].Time != 0 {
		t.Errorf("Keys[0].Time = %v, want 0", c.Keys[0].Time)
	}
	if c.Keys[1].Time != 0.1 || c.Keys[1].Size != 0 {
		t.Errorf("Keys[1] = %+v, want time 0.1 size 0", c.Keys[1])
	}
	if c.Keys[2].Time != 1 || c.Keys[2].Ease != "" {
		t.Errorf("Keys[2] = %+v, want time 1 linear", c.Keys[2])
	}
	for i := 1; i < len(c.Keys); i++ {
		if c.Keys[i].Time < c.Keys[i-1].Time {
			t.Errorf("key times not ascending: %v", c.Keys)
		}
	}
	if c.TexCoords != DefaultTexCoords {
		t.Errorf("TexCoords = %v, want defaults", c.TexCoords)
	}
}

func TestBillboardConfigEmptyKeys(t *testing.T) {
	captureLog(t)
	c := &BillboardRendererConfig{}
	if n := c.Validate(); n != 1 {
		t.Errorf("Validate = %d, want 1", n)
	}
	if len(c.Keys) != 1 || c.Keys[0].Size != 1 || c.Keys[0].Color != ColorWhite {
		t.Errorf("Keys = %v, want one white unit key", c.Keys)
	}
}

func TestBillboardConfigOrientWinsOverAlign(t *testing.T) {
	captureLog(t)
	c := DefaultBillboardRendererConfig()
	c.OrientParticles = true
	c.AlignParticles = true
	c.AlignDirection = mgl32.Vec3{0, 0, 3}
	if n := c.Validate(); n != 1 {
		t.Errorf("Validate = %d, want 1", n)
	}
	if c.AlignParticles {
		t.Error("AlignParticles should be cleared")
	}
	if c.AlignDirection != unitZ {
		t.Errorf("AlignDirection = %v, want normalized +Z", c.AlignDirection)
	}
}

func TestBillboardConfigZeroAlignDirection(t *testing.T) {
	captureLog(t)
	c := DefaultBillboardRendererConfig()
	c.AlignParticles = true
	c.AlignDirection = mgl32.Vec3{}
	if n := c.Validate(); n != 1 {
		t.Errorf("Validate = %d, want 1", n)
	}
	if c.AlignDirection != unitZ {
		t.Errorf("AlignDirection = %v, want +Z", c.AlignDirection)
	}
}

func TestBillboardConfigAnimation(t *testing.T) {
	captureLog(t)
	c := DefaultBillboardRendererConfig()
	c.AnimateTexture = true
	c.AnimTexTiling = [2]int{2, 0}
	c.FramesPerSec = 500
	c.AnimTexFrames = "0-1 7"

	// tiling y, framesPerSec and frame 7 are all out of range
	if n := c.Validate(); n != 3 {
		t.Errorf("Validate = %d, want 3", n)
	}
	if c.AnimTexTiling != [2]int{2, 1} || c.FramesPerSec != 200 {
		t.Errorf("tiling/fps = %v/%v", c.AnimTexTiling, c.FramesPerSec)
	}
	if !framesEqual(c.frames, []int{0, 1}) {
		t.Errorf("frames = %v, want [0 1]", c.frames)
	}
}

func TestBehaviorConfigValidate(t *testing.T) {
	captureLog(t)
	a := &AttractionConfig{Radius: -1}
	if a.Validate() != 1 || a.Radius != 0 {
		t.Errorf("Attraction radius = %v", a.Radius)
	}
	s := &SpeedLimitConfig{MaxSpeed: -1}
	if s.Validate() != 1 || s.MaxSpeed != 0 {
		t.Errorf("SpeedLimit max = %v", s.MaxSpeed)
	}
}

func TestMeshEmitterConfigValidate(t *testing.T) {
	buf := captureLog(t)
	c := &MeshEmitterConfig{Name: "m", EjectionOffset: 1, EjectionOffsetVariance: 1}
	if n := c.Validate(); n != 1 {
		t.Errorf("Validate = %d, want 1", n)
	}
	if c.EjectionOffsetVariance >= 1 {
		t.Errorf("EjectionOffsetVariance = %v, want below 1", c.EjectionOffsetVariance)
	}
	if buf.Len() == 0 {
		t.Error("missing mesh reference should be logged")
	}
}
