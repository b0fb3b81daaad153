package force

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultInterval is the delay between ticks when driven by a [Scheduler].
const DefaultInterval = 16 * time.Millisecond

// ErrStopped is reported by [Scheduler.Err] after an explicit [Scheduler.Stop].
var ErrStopped = errors.New("simulation stopped")

// Frame is a snapshot of the simulation after one tick.
type Frame struct {
	Tick      int     `json:"tick"`
	Alpha     float64 `json:"alpha"`
	Energy    float64 `json:"energy"`
	Positions []Node  `json:"-"`
	Done      bool    `json:"done"`
}

// Scheduler steps a simulation on its own goroutine.
//
// The simulation must not be touched by other goroutines while the scheduler
// runs. Frames are copies and are safe to keep. Sends block until the frame
// is received or the scheduler is cancelled, so a slow consumer slows the
// simulation down rather than losing frames.
type Scheduler struct {
	sim      *Simulation
	interval time.Duration
	buffer   int

	frames chan Frame
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	start  sync.Once

	mu  sync.Mutex
	err error
}

// SchedulerOption configures a [Scheduler].
type SchedulerOption func(*Scheduler)

// WithInterval sets the delay between ticks. Zero runs ticks back to back.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.interval = d }
}

// WithBuffer sets the frame channel capacity.
func WithBuffer(n int) SchedulerOption {
	return func(s *Scheduler) { s.buffer = n }
}

// NewScheduler returns a scheduler for sim. Call [Scheduler.Start] to run it.
func NewScheduler(sim *Simulation, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		sim:      sim,
		interval: DefaultInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.buffer < 0 {
		s.buffer = 0
	}
	s.frames = make(chan Frame, s.buffer)
	return s
}

// Start launches the scheduler loop and returns the frame channel. The
// channel is closed once the simulation cools, ctx is cancelled or Stop is
// called. Calling Start more than once returns the same channel.
func (s *Scheduler) Start(ctx context.Context) <-chan Frame {
	s.start.Do(func() { go s.loop(ctx) })
	return s.frames
}

// Simulation returns the scheduled simulation. Read it only after Done is
// closed.
func (s *Scheduler) Simulation() *Simulation { return s.sim }

// Frames returns the frame channel.
func (s *Scheduler) Frames() <-chan Frame { return s.frames }

// Stop cancels the scheduler. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// Done is closed when the scheduler loop exits.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Err returns why the loop exited: nil after convergence, the context error
// after cancellation, or [ErrStopped].
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Scheduler) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	defer close(s.frames)

	var tick <-chan time.Time
	if s.interval > 0 {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				s.setErr(ctx.Err())
				return
			case <-s.stop:
				s.setErr(ErrStopped)
				return
			case <-tick:
			}
		} else if err := s.cancelled(ctx); err != nil {
			s.setErr(err)
			return
		}

		hot := s.sim.Step()
		frame := Frame{
			Tick:      s.sim.Ticks(),
			Alpha:     s.sim.Alpha,
			Energy:    s.sim.KineticEnergy(),
			Positions: s.sim.Positions(),
			Done:      !hot,
		}

		select {
		case s.frames <- frame:
		case <-ctx.Done():
			s.setErr(ctx.Err())
			return
		case <-s.stop:
			s.setErr(ErrStopped)
			return
		}

		if !hot {
			return
		}
	}
}

func (s *Scheduler) cancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stop:
		return ErrStopped
	default:
		return nil
	}
}
