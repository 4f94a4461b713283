package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDecayScheduleNonIncreasing ensures the schedule never increases
// and reaches its floor exactly, without overshooting below it.
func TestDecayScheduleNonIncreasing(t *testing.T) {
	schedule, err := NewDecaySchedule(1.0, 0.1, 0.5)
	require.NoError(t, err)

	prev := schedule.Value()
	require.Equal(t, 1.0, prev)

	for i := 0; i < 20; i++ {
		schedule.Decay()
		current := schedule.Value()

		require.LessOrEqual(t, current, prev)
		require.GreaterOrEqual(t, current, 0.1)
		prev = current
	}

	// 1.0 * 0.5^20 is far below the floor, so the schedule must sit
	// exactly at the floor by now
	require.Equal(t, 0.1, schedule.Value())
}

// TestDecayScheduleExactValues ensures the schedule follows the
// multiplicative recurrence above the floor.
func TestDecayScheduleExactValues(t *testing.T) {
	schedule, err := NewDecaySchedule(1.0, 0.01, 0.5)
	require.NoError(t, err)

	schedule.Decay()
	require.Equal(t, 0.5, schedule.Value())

	schedule.Decay()
	require.Equal(t, 0.25, schedule.Value())

	schedule.Decay()
	require.Equal(t, 0.125, schedule.Value())
}

// TestDecayScheduleReset ensures Reset restores the starting value
// after the schedule has decayed.
func TestDecayScheduleReset(t *testing.T) {
	schedule, err := NewDecaySchedule(0.9, 0.05, 0.99)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		schedule.Decay()
	}
	require.Equal(t, 0.05, schedule.Value())

	schedule.Reset()
	require.Equal(t, 0.9, schedule.Value())
}

// TestNewDecayScheduleValidates ensures invalid schedule parameters
// are rejected.
func TestNewDecayScheduleValidates(t *testing.T) {
	_, err := NewDecaySchedule(0.5, 1.0, 0.9)
	require.Error(t, err)

	_, err = NewDecaySchedule(1.0, -0.1, 0.9)
	require.Error(t, err)

	_, err = NewDecaySchedule(1.0, 0.1, 0.0)
	require.Error(t, err)

	_, err = NewDecaySchedule(1.0, 0.1, 1.5)
	require.Error(t, err)
}
