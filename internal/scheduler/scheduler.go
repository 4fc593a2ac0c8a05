package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"airtracker/panel/internal/logging"
)

// Event tells the scheduler why something may have changed.
type Event int

const (
	EventIngested Event = iota
	EventFetchComplete
	EventHeartbeat
)

func (e Event) String() string {
	switch e {
	case EventIngested:
		return "ingested"
	case EventFetchComplete:
		return "fetch_complete"
	case EventHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// State is what the render loop is doing right now.
type State int32

const (
	Idle State = iota
	Drawing
)

func (s State) String() string {
	if s == Drawing {
		return "drawing"
	}
	return "idle"
}

// Draw reasons reported in Stats.
const (
	ReasonInitial   = "initial"
	ReasonDirty     = "dirty"
	ReasonHeartbeat = "heartbeat"
)

// DefaultHeartbeat is the longest the screen goes without a repaint.
const DefaultHeartbeat = time.Second

// DrawFunc repaints the whole surface. An error is treated as fatal.
type DrawFunc func(ctx context.Context) error

// Stats summarises the loop's history.
type Stats struct {
	State        string           `json:"state"`
	Draws        map[string]int64 `json:"draws"`
	Events       map[string]int64 `json:"events"`
	LastDraw     time.Time        `json:"last_draw"`
	LastDuration time.Duration    `json:"last_duration_ns"`
}

// Scheduler decides when to redraw: as soon as the dirty flag is set, and otherwise
// once per heartbeat. It runs at most one draw at a time and never interrupts one.
type Scheduler struct {
	dirty     *Dirty
	draw      DrawFunc
	heartbeat time.Duration
	now       func() time.Time

	events chan Event
	state  atomic.Int32

	// OnDraw, if set, is called after every successful draw.
	OnDraw func(reason string, took time.Duration)

	mu           sync.Mutex
	draws        map[string]int64
	eventCounts  map[string]int64
	lastDraw     time.Time
	lastDuration time.Duration
}

func New(dirty *Dirty, heartbeat time.Duration, draw DrawFunc) *Scheduler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Scheduler{
		dirty:       dirty,
		draw:        draw,
		heartbeat:   heartbeat,
		now:         time.Now,
		events:      make(chan Event, 16),
		draws:       make(map[string]int64),
		eventCounts: make(map[string]int64),
	}
}

// Notify queues an event. It never blocks; when the queue is full the event is
// dropped, which loses nothing because the dirty flag carries the state.
func (s *Scheduler) Notify(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

// Run draws once immediately and then until ctx is done. It returns nil on
// cancellation and the draw error otherwise.
func (s *Scheduler) Run(ctx context.Context) error {
	logging.Info("Render scheduler starting", "heartbeat", s.heartbeat.String())

	// Poll faster than the heartbeat so that the gap between frames stays close to it.
	ticker := time.NewTicker(max(s.heartbeat/4, time.Millisecond))
	defer ticker.Stop()

	if err := s.redraw(ctx, ReasonInitial); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info("Render scheduler shutting down")
			return nil
		case e := <-s.events:
			s.countEvent(e)
		case <-s.dirty.Wake():
		case <-ticker.C:
		}

		reason := ""
		switch {
		case s.dirty.IsSet():
			reason = ReasonDirty
		case s.now().Sub(s.lastDrawTime()) >= s.heartbeat:
			reason = ReasonHeartbeat
			s.countEvent(EventHeartbeat)
		default:
			continue
		}
		if err := s.redraw(ctx, reason); err != nil {
			return err
		}
	}
}

// redraw clears the dirty flag before drawing so that a mark arriving mid-draw
// causes another pass.
func (s *Scheduler) redraw(ctx context.Context, reason string) error {
	s.state.Store(int32(Drawing))
	s.dirty.TestAndClear()

	start := s.now()
	err := s.draw(ctx)
	took := s.now().Sub(start)
	s.state.Store(int32(Idle))

	if err != nil {
		logging.Error("Draw failed", "reason", reason, "error", err)
		return fmt.Errorf("draw (%s): %w", reason, err)
	}

	s.mu.Lock()
	s.draws[reason]++
	s.lastDraw = start
	s.lastDuration = took
	s.mu.Unlock()

	if s.OnDraw != nil {
		s.OnDraw(reason, took)
	}
	logging.Debug("Frame drawn", "reason", reason, "took", took.String())
	return nil
}

func (s *Scheduler) countEvent(e Event) {
	s.mu.Lock()
	s.eventCounts[e.String()]++
	s.mu.Unlock()
}

func (s *Scheduler) lastDrawTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDraw
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		State:        s.State().String(),
		Draws:        make(map[string]int64, len(s.draws)),
		Events:       make(map[string]int64, len(s.eventCounts)),
		LastDraw:     s.lastDraw,
		LastDuration: s.lastDuration,
	}
	for k, v := range s.draws {
		st.Draws[k] = v
	}
	for k, v := range s.eventCounts {
		st.Events[k] = v
	}
	return st
}
