package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/bubblechart/pkg/errors"
	"github.com/matzehuels/bubblechart/pkg/force"
	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/observability"
	"github.com/matzehuels/bubblechart/pkg/pipeline"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
	"github.com/matzehuels/bubblechart/pkg/surface"
)

// BubblePosition is one bubble in a streamed frame.
type BubblePosition struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	R  float64 `json:"r"`
}

// FrameEvent is the payload of an SSE "frame" event.
type FrameEvent struct {
	Tick    int              `json:"tick"`
	Alpha   float64          `json:"alpha"`
	Energy  float64          `json:"energy"`
	Done    bool             `json:"done"`
	Bubbles []BubblePosition `json:"bubbles"`
}

// DoneEvent is the payload of the final SSE "done" event. Converged is false
// when the simulation was cancelled; Layout then holds the last state.
type DoneEvent struct {
	ID        string        `json:"id"`
	Ticks     int           `json:"ticks"`
	Converged bool          `json:"converged"`
	Error     string        `json:"error,omitempty"`
	Layout    layout.Layout `json:"layout"`
}

// SimulationInfo describes a simulation in API responses.
type SimulationInfo struct {
	ID      string    `json:"id"`
	Target  string    `json:"target"`
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	Nodes   int       `json:"nodes"`
	Created time.Time `json:"created"`
	Done    bool      `json:"done"`
	Events  string    `json:"events"`
}

// simulation fans the frames of one scheduler out to SSE subscribers.
// Subscribers that fall behind lose frames; the final event is never dropped.
type simulation struct {
	surface *surface.Surface
	model   *layout.ForceModel
	nodes   int
	buffer  int

	mu    sync.Mutex
	subs  map[chan []byte]struct{}
	last  []byte
	final  []byte
	done   chan struct{}
	expiry *time.Timer
}

func newSimulation(sf *surface.Surface, model *layout.ForceModel, nodes, buffer int) *simulation {
	return &simulation{
		surface: sf,
		model:   model,
		nodes:   nodes,
		buffer:  buffer,
		subs:    make(map[chan []byte]struct{}),
		done:    make(chan struct{}),
	}
}

func (sim *simulation) info() SimulationInfo {
	sf := sim.surface
	return SimulationInfo{
		ID:      sf.ID,
		Target:  sf.Target,
		Width:   sf.Width,
		Height:  sf.Height,
		Nodes:   sim.nodes,
		Created: sf.Created,
		Done:    sim.finished(),
		Events:  "/simulations/" + sf.ID + "/events",
	}
}

func (sim *simulation) finished() bool {
	select {
	case <-sim.done:
		return true
	default:
		return false
	}
}

// run consumes frames until the scheduler exits. The model is only read
// from this goroutine once the scheduler is done.
func (sim *simulation) run(frames <-chan force.Frame, sched *force.Scheduler, logger *log.Logger) {
	for f := range frames {
		data, err := json.Marshal(sim.frameEvent(f))
		if err != nil {
			continue
		}
		sim.broadcast(data)
	}

	<-sched.Done()
	err := sched.Err()
	if err == nil && !sim.model.Settle() {
		logger.Warn("relaxation left overlaps, spread layout", "id", sim.surface.ID, "nodes", sim.nodes)
	}
	ev := DoneEvent{
		ID:        sim.surface.ID,
		Ticks:     sched.Simulation().Ticks(),
		Converged: err == nil,
		Layout:    sim.model.Layout(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	data, _ := json.Marshal(ev)
	sim.finish(data)
}

func (sim *simulation) frameEvent(f force.Frame) FrameEvent {
	bubbles := sim.model.Bubbles(f.Positions)
	ev := FrameEvent{
		Tick:    f.Tick,
		Alpha:   f.Alpha,
		Energy:  f.Energy,
		Done:    f.Done,
		Bubbles: make([]BubblePosition, len(bubbles)),
	}
	for i, b := range bubbles {
		ev.Bubbles[i] = BubblePosition{ID: b.ID, X: b.X, Y: b.Y, R: b.R}
	}
	return ev
}

func (sim *simulation) broadcast(data []byte) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.last = data
	for ch := range sim.subs {
		select {
		case ch <- data:
		default:
			observability.Simulation().OnFrameDropped(context.Background(), sim.surface.ID)
		}
	}
}

func (sim *simulation) finish(final []byte) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.final = final
	for ch := range sim.subs {
		close(ch)
	}
	sim.subs = nil
	close(sim.done)
}

// subscribe registers a subscriber and returns the latest frame at the time
// of registration. A nil channel means the simulation has already finished.
func (sim *simulation) subscribe() (ch chan []byte, last []byte, cancel func()) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	if sim.subs == nil {
		return nil, sim.last, func() {}
	}
	ch = make(chan []byte, sim.buffer)
	sim.subs[ch] = struct{}{}
	return ch, sim.last, func() {
		sim.mu.Lock()
		defer sim.mu.Unlock()
		if _, ok := sim.subs[ch]; ok {
			delete(sim.subs, ch)
			close(ch)
		}
	}
}

// expireAfter schedules fn once d has passed. Only the first call counts.
func (sim *simulation) expireAfter(d time.Duration, fn func()) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	if sim.expiry == nil {
		sim.expiry = time.AfterFunc(d, fn)
	}
}

func (sim *simulation) stopExpiry() {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	if sim.expiry != nil {
		sim.expiry.Stop()
	}
}

func (sim *simulation) finalEvent() []byte {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.final
}

// =============================================================================
// Handlers
// =============================================================================

// handleStartSimulation acquires a surface for the target query parameter
// (default: a fresh one per request), attaches a force simulation over the
// request intents and returns its id.
func (s *Server) handleStartSimulation(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.VizType = pipeline.VizTypeBubble
	opts.Policy = string(layout.PolicyForce)
	opts.SetLayoutDefaults()
	if err := opts.ValidateForLayout(); err != nil {
		s.writeError(w, err)
		return
	}

	intents, err := readIntents(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	nodes := len(intent.Filter(intents))
	if nodes == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "no intents with a positive value"))
		return
	}

	target := r.URL.Query().Get("target")
	sf, err := s.surfaces.Acquire(targetOrDefault(target), opts.Width, opts.Height)
	if err != nil {
		s.writeError(w, err)
		return
	}

	model := layout.NewForceModel(intents, opts.Width, opts.Height, opts.LayoutOptions())
	sched := force.NewScheduler(model.Sim, force.WithInterval(s.frameInterval))
	sim := newSimulation(sf, model, nodes, s.frameBuffer)

	s.mu.Lock()
	s.simulations[sf.ID] = sim
	s.mu.Unlock()

	frames := sf.Attach(sched)
	go func() {
		sim.run(frames, sched, s.logger)
		if sf.Released() {
			s.forget(sf.ID, sim)
			return
		}
		sim.expireAfter(s.retention, func() { s.expire(sf.ID, sim) })
	}()

	s.logger.Info("started simulation", "id", sf.ID, "target", sf.Target, "nodes", nodes)
	writeJSON(w, http.StatusCreated, sim.info())
}

func (s *Server) handleSimulationStatus(w http.ResponseWriter, r *http.Request) {
	sim, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sim.info())
}

// handleSimulationEvents streams frames as server-sent events. The stream
// starts with a ping, replays the latest frame, and ends with a "done" event
// carrying the final layout.
func (s *Server) handleSimulationEvents(w http.ResponseWriter, r *http.Request) {
	sim, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch, last, cancel := sim.subscribe()
	defer cancel()

	fmt.Fprint(w, "event: ping\ndata: connected\n\n")
	if last != nil {
		writeEvent(w, "frame", last)
	}
	flusher.Flush()

	if ch == nil {
		writeEvent(w, "done", sim.finalEvent())
		flusher.Flush()
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-ch:
			if !ok {
				if final := sim.finalEvent(); final != nil {
					writeEvent(w, "done", final)
					flusher.Flush()
				}
				return
			}
			writeEvent(w, "frame", data)
			flusher.Flush()
		}
	}
}

// handleStopSimulation releases the simulation's surface, cancelling it.
func (s *Server) handleStopSimulation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sim, err := s.lookup(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.surfaces.Release(id); err != nil && !errors.Is(err, errors.ErrCodeSimulationNotFound) {
		s.writeError(w, err)
		return
	}
	sim.surface.Release()
	sim.stopExpiry()
	s.forget(id, sim)
	s.logger.Info("stopped simulation", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(id string) (*simulation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.simulations[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSimulationNotFound, "simulation %s not found", id)
	}
	return sim, nil
}

// expire drops a finished simulation once its retention has passed.
func (s *Server) expire(id string, sim *simulation) {
	if err := s.surfaces.Release(id); err != nil && !errors.Is(err, errors.ErrCodeSimulationNotFound) {
		s.logger.Warn("release surface", "id", id, "err", err)
	}
	sim.surface.Release()
	s.forget(id, sim)
	s.logger.Debug("expired simulation", "id", id)
}

func (s *Server) forget(id string, sim *simulation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.simulations[id] == sim {
		delete(s.simulations, id)
	}
}

func targetOrDefault(target string) string {
	if target != "" {
		return target
	}
	return "http-" + uuid.NewString()
}

func writeEvent(w http.ResponseWriter, event string, data []byte) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
