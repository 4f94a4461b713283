package agent

import (
	"fmt"
	"math"
)

// DecaySchedule anneals an exploration rate multiplicatively toward a
// floor. On each call to Decay, the current value is multiplied by the
// decay rate, and once the value reaches the minimum it stays exactly
// at the minimum. The schedule never increases except through Reset,
// which restores the starting value.
type DecaySchedule struct {
	start float64
	min   float64
	decay float64
	value float64
}

// NewDecaySchedule returns a new DecaySchedule which starts at start,
// multiplies its value by decay on each call to Decay, and never drops
// below min.
func NewDecaySchedule(start, min, decay float64) (*DecaySchedule, error) {
	if min < 0 {
		return nil, fmt.Errorf("newDecaySchedule: minimum value must be "+
			"non-negative \n\twant(>= 0) \n\thave(%v)", min)
	}
	if start < min {
		return nil, fmt.Errorf("newDecaySchedule: starting value cannot be "+
			"below the minimum value \n\twant(>= %v) \n\thave(%v)", min, start)
	}
	if decay <= 0 || decay > 1 {
		return nil, fmt.Errorf("newDecaySchedule: decay rate must be in "+
			"(0, 1] \n\thave(%v)", decay)
	}

	return &DecaySchedule{
		start: start,
		min:   min,
		decay: decay,
		value: start,
	}, nil
}

// Value returns the current value of the schedule
func (d *DecaySchedule) Value() float64 {
	return d.value
}

// Decay anneals the schedule by a single step
func (d *DecaySchedule) Decay() {
	d.value = math.Max(d.min, d.value*d.decay)
}

// Reset restores the schedule to its starting value
func (d *DecaySchedule) Reset() {
	d.value = d.start
}
