// Package surface manages render surfaces: the per-call handles a chart is
// drawn onto.
//
// A [Surface] is acquired for a named target (an output file, an HTTP
// client, a terminal), may own one in-flight force simulation, and is
// released when the caller is done with it. Releasing a surface cancels its
// simulation. [Manager.Acquire] releases the previous surface of the same
// target before handing out a new one, so re-rendering a target never leaves
// an old simulation running against it.
package surface

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/bubblechart/pkg/force"
	"github.com/matzehuels/bubblechart/pkg/observability"
)

// Surface is a render target handle.
type Surface struct {
	ID      string    `json:"id"`
	Target  string    `json:"target"`
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	Created time.Time `json:"created"`

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sched    *force.Scheduler
	released bool
}

// New returns a surface that is not tracked by any manager.
func New(target string, width, height float64) *Surface {
	ctx, cancel := context.WithCancel(context.Background())
	return &Surface{
		ID:      uuid.NewString(),
		Target:  target,
		Width:   width,
		Height:  height,
		Created: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Context is cancelled when the surface is released.
func (s *Surface) Context() context.Context { return s.ctx }

// Attach gives the surface ownership of sched and starts it with the
// surface's context. A previously attached scheduler is stopped. Attaching
// to a released surface stops sched immediately.
func (s *Surface) Attach(sched *force.Scheduler) <-chan force.Frame {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		sched.Stop()
		return sched.Start(s.ctx)
	}
	prev := s.sched
	s.sched = sched
	s.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}

	hooks := observability.Simulation()
	hooks.OnSimulationStart(s.ctx, s.ID, len(sched.Simulation().Nodes()))
	start := time.Now()
	frames := sched.Start(s.ctx)
	go func() {
		<-sched.Done()
		hooks.OnSimulationComplete(context.Background(), s.ID, sched.Simulation().Ticks(), time.Since(start), sched.Err())
	}()
	return frames
}

// Scheduler returns the attached scheduler, or nil.
func (s *Surface) Scheduler() *force.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched
}

// Release cancels the attached simulation and the surface context.
// It is safe to call more than once.
func (s *Surface) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	sched := s.sched
	s.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	s.cancel()
}

// Released reports whether Release has been called.
func (s *Surface) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
