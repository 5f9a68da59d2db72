package visualization

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func distance(a, b Body) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestStep_IsPure(t *testing.T) {
	bodies := []Body{{X: 0, Y: 0, TargetX: 100}, {X: 0, Y: 0, TargetX: 100}}
	before := append([]Body(nil), bodies...)

	first := Step(bodies, 1, ForcesFrom(DefaultConfig()))
	second := Step(bodies, 1, ForcesFrom(DefaultConfig()))

	assert.Equal(t, before, bodies, "input must not change")
	assert.Equal(t, first, second, "steps must be deterministic")
}

func TestStep_PullsTowardsTarget(t *testing.T) {
	forces := Forces{XStrength: 0.75, YStrength: 0.1}
	next := Step([]Body{{TargetX: 100, TargetY: 10}}, 1, forces)

	// v = dx * strength * alpha, decayed by 0.6 before integration.
	assert.InDelta(t, 45, next[0].X, 1e-9)
	assert.InDelta(t, 0.6, next[0].Y, 1e-9)
}

func TestStep_SeparatesCoincidentBodies(t *testing.T) {
	forces := Forces{CollideRadius: 5.5, CollideStrength: 1.25}
	bodies := []Body{{}, {}}

	for range 50 {
		bodies = Step(bodies, 1, forces)
	}
	assert.GreaterOrEqual(t, distance(bodies[0], bodies[1]), 11.0)
}

func TestStep_IgnoresDistantBodies(t *testing.T) {
	forces := Forces{CollideRadius: 5.5, CollideStrength: 1.25}
	bodies := []Body{{X: 0}, {X: 100}}
	next := Step(bodies, 1, forces)
	assert.Equal(t, bodies, next)
}

func TestSimulation_Settle(t *testing.T) {
	sim := NewSimulation([]Body{{TargetX: 50}}, ForcesFrom(DefaultConfig()), 5)
	assert.True(t, sim.Hot())

	frame := sim.Settle(0)
	assert.True(t, frame.Settled)
	assert.False(t, sim.Hot())
	assert.InDelta(t, 300, frame.Tick, 1.5)
	assert.InDelta(t, 50, frame.Bodies[0].X, 0.5)
}

func TestSimulation_SettleRespectsBudget(t *testing.T) {
	sim := NewSimulation([]Body{{TargetX: 50}}, ForcesFrom(DefaultConfig()), 5)
	frame := sim.Settle(10)
	assert.Equal(t, 10, frame.Tick)
	assert.False(t, frame.Settled)
	assert.InDelta(t, math.Pow(1-AlphaDecay, 10), frame.Alpha, 1e-12)
}

func TestSimulation_StartPublishesUntilSettled(t *testing.T) {
	sim := NewSimulation([]Body{{TargetX: 50}, {TargetX: 50}}, ForcesFrom(DefaultConfig()), 5)
	frames := sim.Subscribe()
	sim.Start(context.Background(), time.Millisecond)

	var last Frame
	count := 0
	for frame := range frames {
		last = frame
		count++
	}
	assert.Positive(t, count)
	assert.True(t, last.Settled)
	require.Len(t, last.Bodies, 2)

	select {
	case <-sim.Done():
	case <-time.After(time.Second):
		t.Fatal("simulation did not finish")
	}
}

func TestSimulation_Stop(t *testing.T) {
	sim := NewSimulation([]Body{{TargetX: 50}}, ForcesFrom(DefaultConfig()), 5)
	frames := sim.Subscribe()
	sim.Start(context.Background(), time.Hour)
	sim.Stop()

	frame, ok := <-frames
	require.True(t, ok, "the final frame is delivered")
	assert.Zero(t, frame.Tick)
	_, ok = <-frames
	assert.False(t, ok, "channel is closed after stop")

	// Late subscribers get the final frame.
	late, ok := <-sim.Subscribe()
	assert.True(t, ok)
	assert.Zero(t, late.Tick)

	// Restarting a finished simulation does nothing.
	sim.Start(context.Background(), time.Millisecond)
	sim.Stop()
}

func TestSimulation_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sim := NewSimulation([]Body{{TargetX: 50}}, ForcesFrom(DefaultConfig()), 0)
	sim.Start(ctx, time.Hour)
	cancel()

	select {
	case <-sim.Done():
	case <-time.After(time.Second):
		t.Fatal("cancelled simulation did not finish")
	}
}

func TestSimulation_StopWithoutStart(t *testing.T) {
	sim := NewSimulation(nil, Forces{}, 0)
	sim.Stop()
	assert.True(t, sim.Hot())
}

func TestPublish_LatestFrameWins(t *testing.T) {
	ch := make(chan Frame, 1)
	publish(ch, Frame{Tick: 1})
	publish(ch, Frame{Tick: 2})
	assert.Equal(t, 2, (<-ch).Tick)
}
