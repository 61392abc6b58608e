package sim

import "fmt"

// DefaultAccuracy is the number of simulated ticks per second when a
// scenario does not override it.
const DefaultAccuracy = 1_000_000

// Time is an integer tick count paired with the accuracy (ticks per second)
// it was produced under. Arithmetic and comparison across two Times are only
// meaningful when their accuracies match.
type Time struct {
	Ticks    int64
	Accuracy int64
}

// NewTime builds a Time from a duration in seconds at the given accuracy.
func NewTime(seconds float64, accuracy int64) Time {
	return Time{Ticks: int64(seconds * float64(accuracy)), Accuracy: accuracy}
}

// Sec returns the time in seconds.
func (t Time) Sec() float64 {
	if t.Accuracy == 0 {
		return 0
	}
	return float64(t.Ticks) / float64(t.Accuracy)
}

func (t Time) mustMatch(o Time) {
	if t.Accuracy != o.Accuracy {
		panic(fmt.Sprintf("sim: comparing times of differing accuracy (%d vs %d)", t.Accuracy, o.Accuracy))
	}
}

// Before reports whether t occurs strictly before o.
func (t Time) Before(o Time) bool {
	t.mustMatch(o)
	return t.Ticks < o.Ticks
}

// After reports whether t occurs strictly after o.
func (t Time) After(o Time) bool {
	t.mustMatch(o)
	return t.Ticks > o.Ticks
}

// Add returns t advanced by seconds.
func (t Time) Add(seconds float64) Time {
	return Time{Ticks: t.Ticks + int64(seconds*float64(t.Accuracy)), Accuracy: t.Accuracy}
}

// Sub returns the elapsed seconds between t and an earlier time o.
func (t Time) Sub(o Time) float64 {
	t.mustMatch(o)
	return float64(t.Ticks-o.Ticks) / float64(t.Accuracy)
}

func (t Time) String() string {
	return fmt.Sprintf("%.9fs", t.Sec())
}
