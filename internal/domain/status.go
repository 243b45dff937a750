package domain

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of an uploaded screenshot.
//
// The lifecycle is a small state machine:
//
//	pending ──► analyzing ──► analyzed
//	                │
//	                └───────► error
//
// analyzed and error are terminal for the regular flow. An explicit
// re-analysis (Restart) moves either terminal state back to analyzing.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAnalyzing Status = "analyzing"
	StatusAnalyzed  Status = "analyzed"
	StatusError     Status = "error"
)

// ErrIllegalTransition is returned when a status change is not allowed.
var ErrIllegalTransition = errors.New("illegal status transition")

// transitions lists the moves allowed outside of an explicit re-analysis.
var transitions = map[Status][]Status{
	StatusPending:   {StatusAnalyzing},
	StatusAnalyzing: {StatusAnalyzed, StatusError},
}

// Valid reports whether s is one of the four persisted values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAnalyzing, StatusAnalyzed, StatusError:
		return true
	}
	return false
}

// Terminal reports whether s ends the regular analysis flow.
func (s Status) Terminal() bool {
	return s == StatusAnalyzed || s == StatusError
}

// CanTransition reports whether moving from s to next is a regular move.
func (s Status) CanTransition(next Status) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Transition returns next when the move is legal, or ErrIllegalTransition.
func (s Status) Transition(next Status) (Status, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, next)
	}
	return next, nil
}

// Restart is the re-analysis move. Only terminal states may restart.
func (s Status) Restart() (Status, error) {
	if !s.Terminal() {
		return s, fmt.Errorf("%w: %s -> %s (restart)", ErrIllegalTransition, s, StatusAnalyzing)
	}
	return StatusAnalyzing, nil
}
