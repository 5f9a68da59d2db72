package visualization

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultFrameInterval paces Start at roughly sixty frames per second.
const DefaultFrameInterval = time.Second / 60

// Frame is a snapshot of the simulation published to subscribers.
type Frame struct {
	Tick    int     `json:"tick"`
	Alpha   float64 `json:"alpha"`
	Bodies  []Body  `json:"bodies"`
	Settled bool    `json:"settled"`
}

// Simulation owns a set of bodies and advances them with Step on an
// alpha schedule that cools from AlphaStart to AlphaMin.
type Simulation struct {
	forces      Forces
	fastForward int

	mu          sync.Mutex
	bodies      []Body
	alpha       float64
	ticks       int
	running     bool
	subscribers []chan Frame
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewSimulation takes ownership of a copy of bodies. fastForward extra
// ticks are computed before each published frame.
func NewSimulation(bodies []Body, forces Forces, fastForward int) *Simulation {
	if fastForward < 0 {
		fastForward = 0
	}
	done := make(chan struct{})
	return &Simulation{
		forces:      forces,
		fastForward: fastForward,
		bodies:      slices.Clone(bodies),
		alpha:       AlphaStart,
		done:        done,
	}
}

// Alpha returns the current alpha.
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Hot reports whether the simulation has not cooled down yet.
func (s *Simulation) Hot() bool {
	return s.Alpha() >= AlphaMin
}

// Tick cools alpha and advances the bodies by one step. It reports
// whether the simulation is still hot afterwards.
func (s *Simulation) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick()
}

func (s *Simulation) tick() bool {
	s.alpha += (0 - s.alpha) * AlphaDecay
	s.bodies = Step(s.bodies, s.alpha, s.forces)
	s.ticks++
	return s.alpha >= AlphaMin
}

// Frame returns a snapshot of the current state.
func (s *Simulation) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame()
}

func (s *Simulation) frame() Frame {
	return Frame{
		Tick:    s.ticks,
		Alpha:   s.alpha,
		Bodies:  slices.Clone(s.bodies),
		Settled: s.alpha < AlphaMin,
	}
}

// Settle ticks until the simulation cools down or maxTicks ticks have
// run; maxTicks <= 0 means no limit.
func (s *Simulation) Settle(maxTicks int) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	for n := 0; s.alpha >= AlphaMin && (maxTicks <= 0 || n < maxTicks); n++ {
		s.tick()
	}
	return s.frame()
}

// Subscribe returns a channel receiving frames while Start runs. The
// channel holds only the latest frame: a slow reader skips frames. It is
// closed when the loop ends.
func (s *Simulation) Subscribe() <-chan Frame {
	ch := make(chan Frame, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		ch <- s.frame()
		close(ch)
	default:
		s.subscribers = append(s.subscribers, ch)
	}
	return ch
}

// Start runs the tick loop in a goroutine: every interval it advances
// 1+fastForward ticks and publishes a frame. The loop ends when the
// simulation cools down, Stop is called or ctx is done. Start is a no-op
// on a simulation that is running or has finished.
func (s *Simulation) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return
	default:
	}
	if s.running {
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx, interval)
}

func (s *Simulation) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer s.finish()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		hot := true
		for range 1 + s.fastForward {
			if hot = s.tick(); !hot {
				break
			}
		}
		frame := s.frame()
		subscribers := slices.Clone(s.subscribers)
		s.mu.Unlock()

		for _, ch := range subscribers {
			publish(ch, frame)
		}
		if !hot {
			return
		}
	}
}

func (s *Simulation) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if s.cancel != nil {
		s.cancel()
	}
	frame := s.frame()
	for _, ch := range s.subscribers {
		publish(ch, frame)
		close(ch)
	}
	s.subscribers = nil
	close(s.done)
}

// Stop ends the loop and waits for it to exit. It is safe to call on a
// simulation that was never started.
func (s *Simulation) Stop() {
	s.mu.Lock()
	cancel, running := s.cancel, s.running
	s.mu.Unlock()
	if !running {
		return
	}
	cancel()
	<-s.done
}

// Done is closed once a started loop has ended.
func (s *Simulation) Done() <-chan struct{} {
	return s.done
}

// publish replaces any unread frame in ch with f. The loop is the only
// sender, so the second send cannot block.
func publish(ch chan Frame, f Frame) {
	select {
	case ch <- f:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- f:
	default:
	}
}
