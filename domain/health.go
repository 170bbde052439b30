package domain

import (
	"fmt"
	"time"
)

// HealthStatus is the passive health classification of an instance.
type HealthStatus string

const (
	// HealthHealthy instances take part in normal round-robin selection.
	HealthHealthy HealthStatus = "healthy"
	// HealthSuspect instances are skipped while any healthy instance exists and receive probe traffic.
	HealthSuspect HealthStatus = "suspect"
	// HealthUnhealthy instances receive probe traffic only.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Outcome is the result of one forwarded exchange as seen by the health tracker.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "failure"
}

// HealthState is the per-instance health record. Counters are reset to zero on every status transition.
type HealthState struct {
	Status               HealthStatus
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastTransitionAt     time.Time
}

// NewHealthState returns the fresh record assigned to an instance when it enters the snapshot.
func NewHealthState(now time.Time) HealthState {
	return HealthState{Status: HealthHealthy, LastTransitionAt: now}
}

// HealthThresholds controls the state machine.
// FailureThreshold consecutive failures move HEALTHY to SUSPECT; SuccessThreshold consecutive probe successes move UNHEALTHY to SUSPECT.
type HealthThresholds struct {
	FailureThreshold int
	SuccessThreshold int
}

// DefaultHealthThresholds returns failure threshold 3 and success threshold 1.
func DefaultHealthThresholds() HealthThresholds {
	return HealthThresholds{FailureThreshold: 3, SuccessThreshold: 1}
}

// Validate returns an error when a threshold is not positive.
func (t HealthThresholds) Validate() error {
	if t.FailureThreshold < 1 {
		return fmt.Errorf("failure threshold must be positive, got %d", t.FailureThreshold)
	}
	if t.SuccessThreshold < 1 {
		return fmt.Errorf("success threshold must be positive, got %d", t.SuccessThreshold)
	}
	return nil
}

// NextHealthState applies one outcome to s and returns the resulting state.
//
//	HEALTHY   --failure (count reaches FailureThreshold)--> SUSPECT
//	HEALTHY   --success--> HEALTHY (failure count reset)
//	SUSPECT   --success--> HEALTHY
//	SUSPECT   --failure--> UNHEALTHY
//	UNHEALTHY --success (count reaches SuccessThreshold)--> SUSPECT
//
// now is recorded as LastTransitionAt when the status changes.
func NextHealthState(s HealthState, outcome Outcome, th HealthThresholds, now time.Time) HealthState {
	switch s.Status {
	case HealthSuspect:
		if outcome == OutcomeSuccess {
			return moveTo(HealthHealthy, now)
		}
		return moveTo(HealthUnhealthy, now)
	case HealthUnhealthy:
		if outcome == OutcomeFailure {
			s.ConsecutiveFailures++
			s.ConsecutiveSuccesses = 0
			return s
		}
		s.ConsecutiveSuccesses++
		s.ConsecutiveFailures = 0
		if s.ConsecutiveSuccesses >= th.SuccessThreshold {
			return moveTo(HealthSuspect, now)
		}
		return s
	default:
		if outcome == OutcomeSuccess {
			s.ConsecutiveSuccesses++
			s.ConsecutiveFailures = 0
			return s
		}
		s.ConsecutiveFailures++
		s.ConsecutiveSuccesses = 0
		if s.ConsecutiveFailures >= th.FailureThreshold {
			return moveTo(HealthSuspect, now)
		}
		return s
	}
}

func moveTo(status HealthStatus, now time.Time) HealthState {
	return HealthState{Status: status, LastTransitionAt: now}
}
