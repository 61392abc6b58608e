package sim

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Monitor observes events of a given type after they have been invoked.
type Monitor interface {
	Handle(e Event)
}

// MonitorFunc adapts a plain function to the Monitor interface.
type MonitorFunc func(e Event)

func (f MonitorFunc) Handle(e Event) { f(e) }

// Simulator owns the event pool and drives the discrete-event loop. It is
// the single-threaded home for all protocol-stack state mutation; the only
// field touched from another goroutine is running, via RunWithTimeout.
type Simulator struct {
	Accuracy int64

	ts Time // simulation start
	te *Time // simulation end; nil means continuous

	pool *eventHeap
	tc   Time // current time

	nextEventID uint64
	running     atomic.Bool

	watchers map[EventType][]Monitor
}

// NewSimulator builds a Simulator spanning [startSeconds, endSeconds). The
// end time is always set, whatever its value; continuous mode is only
// available through NewContinuousSimulator.
func NewSimulator(startSeconds, endSeconds float64, accuracy int64) *Simulator {
	if accuracy <= 0 {
		accuracy = DefaultAccuracy
	}
	ts := NewTime(startSeconds, accuracy)
	te := NewTime(endSeconds, accuracy)
	return &Simulator{
		Accuracy: accuracy,
		ts:       ts,
		te:       &te,
		pool:     newEventHeap(),
		tc:       ts,
		watchers: make(map[EventType][]Monitor),
	}
}

// NewContinuousSimulator builds a Simulator with no end time; Run blocks
// until Stop is called (directly or via RunWithTimeout).
func NewContinuousSimulator(startSeconds float64, accuracy int64) *Simulator {
	if accuracy <= 0 {
		accuracy = DefaultAccuracy
	}
	ts := NewTime(startSeconds, accuracy)
	return &Simulator{
		Accuracy: accuracy,
		ts:       ts,
		te:       nil,
		pool:     newEventHeap(),
		tc:       ts,
		watchers: make(map[EventType][]Monitor),
	}
}

// Now returns the current simulated time.
func (s *Simulator) Now() Time { return s.tc }

// NextEventID hands out the next monotonic event ID, used by event
// constructors across the protocol stack to keep tie-breaking deterministic.
func (s *Simulator) NextEventID() uint64 {
	s.nextEventID++
	return s.nextEventID
}

// At builds a Time offset from the simulator's start by the given seconds,
// at the simulator's accuracy.
func (s *Simulator) At(seconds float64) Time {
	return Time{Ticks: int64(seconds * float64(s.Accuracy)), Accuracy: s.Accuracy}
}

// Schedule inserts e into the pool. Events scheduled before the current time
// or after te are silently dropped, returning false.
func (s *Simulator) Schedule(e Event) bool {
	if e.Timestamp().Ticks < s.tc.Ticks {
		return false
	}
	if s.te != nil && e.Timestamp().Ticks > s.te.Ticks {
		return false
	}
	s.pool.Schedule(e)
	return true
}

// Watch registers a monitor to be invoked, synchronously and in registration
// order, after every event of the given type is invoked.
func (s *Simulator) Watch(t EventType, m Monitor) {
	s.watchers[t] = append(s.watchers[t], m)
}

// Run drives the event loop until no events remain (finite mode) or until
// Stop is called (continuous mode).
func (s *Simulator) Run() {
	isContinuous := s.te == nil
	logrus.Infof("%s simulation started", simKind(isContinuous))

	s.running.Store(true)
	started := time.Now()
	total := 0

	for s.running.Load() {
		event := s.pool.PopNext()
		if event == nil {
			if isContinuous {
				time.Sleep(time.Millisecond)
				continue
			}
			s.running.Store(false)
			break
		}
		if event.Timestamp().Ticks < s.tc.Ticks {
			panic("sim: event pool returned an event before the current time")
		}
		s.tc = event.Timestamp()
		if event.IsCanceled() {
			continue
		}
		event.Invoke(s)
		total++
		for _, m := range s.watchers[event.Type()] {
			m.Handle(event)
		}
	}

	elapsed := time.Since(started)
	logrus.Infof("%s simulation finished: %d events in %s, sim time %s", simKind(isContinuous), total, elapsed, s.tc)
}

// Stop ends the run loop cooperatively; any in-flight Invoke completes first.
func (s *Simulator) Stop() {
	s.running.Store(false)
}

// RunWithTimeout runs the simulator and arranges for Stop to be called after
// d of wall-clock time if the run has not already finished. It is meant for
// continuous-mode simulations that would otherwise never terminate on their
// own.
func (s *Simulator) RunWithTimeout(d time.Duration) {
	timer := time.AfterFunc(d, s.Stop)
	defer timer.Stop()
	s.Run()
}

func simKind(continuous bool) string {
	if continuous {
		return "continuous"
	}
	return "finite"
}
