package nav

import (
	"errors"
	"fmt"
)

// Phase is the controller's lifecycle stage. Loading moves to Ready once and
// never goes back.
type Phase int

const (
	Loading Phase = iota
	Ready
)

func (p Phase) String() string {
	if p == Ready {
		return "ready"
	}
	return "loading"
}

var (
	ErrOutOfRange = errors.New("slide out of range")
	ErrSameSlide  = errors.New("already on slide")
	ErrAtFirst    = errors.New("already at first slide")
	ErrAtLast     = errors.New("already at last slide")
	ErrNoSlides   = errors.New("presentation needs at least one slide")
)

// State is the pure navigation state. Every transition returns a new value
// and leaves the receiver untouched, so callers can test a move before
// committing to its side effects.
type State struct {
	Current int
	Total   int
	Phase   Phase
}

func NewState(total int) (State, error) {
	if total < 1 {
		return State{}, ErrNoSlides
	}
	return State{Current: 1, Total: total, Phase: Loading}, nil
}

func (s State) Valid(n int) bool {
	return n >= 1 && n <= s.Total
}

func (s State) Goto(n int) (State, error) {
	if !s.Valid(n) {
		return s, fmt.Errorf("%w: %d (valid range: 1-%d)", ErrOutOfRange, n, s.Total)
	}
	if n == s.Current {
		return s, fmt.Errorf("%w %d", ErrSameSlide, n)
	}
	s.Current = n
	return s, nil
}

func (s State) Next() (State, error) {
	if s.Current >= s.Total {
		return s, ErrAtLast
	}
	return s.Goto(s.Current + 1)
}

func (s State) Prev() (State, error) {
	if s.Current <= 1 {
		return s, ErrAtFirst
	}
	return s.Goto(s.Current - 1)
}

// Progress is the share of the deck shown so far, in percent.
func (s State) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Current) / float64(s.Total) * 100
}

func (s State) Counter() string {
	return fmt.Sprintf("%d / %d", s.Current, s.Total)
}

func (s State) PrevDisabled() bool { return s.Current == 1 }

func (s State) NextDisabled() bool { return s.Current == s.Total }
