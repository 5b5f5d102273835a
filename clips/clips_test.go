package clips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_ShortVideosAreNotSplit(t *testing.T) {
	for _, d := range []float64{0, 1, 5.5, 9.99, 10} {
		for _, p := range []Policy{Policy6to8, Policy8, Policy10, Policy15} {
			assert.Empty(t, Plan(d, p), "duration %v policy %s", d, p)
		}
	}
}

func TestPlan_FixedEightSeconds(t *testing.T) {
	plan := Plan(37, Policy8)
	require.Len(t, plan, 5)

	cursor := 0.0
	for i, c := range plan {
		assert.Equal(t, i+1, c.Number)
		assert.InDelta(t, cursor, c.Start, 1e-9)
		assert.Less(t, c.Start, 37.0)
		if i < len(plan)-1 {
			assert.InDelta(t, 8.0, c.Duration, 1e-9)
		}
		cursor = c.End()
	}

	last := plan[len(plan)-1]
	assert.GreaterOrEqual(t, last.Duration, MinTail)
	assert.LessOrEqual(t, last.Duration, 8.0)
	assert.InDelta(t, 37.0, last.End(), 1e-9)
}

func TestPlan_DropsShortTail(t *testing.T) {
	// 10 + 10 + 2: the 2-second remainder is dropped.
	plan := Plan(22, Policy10)
	require.Len(t, plan, 2)
	assert.InDelta(t, 20.0, plan[1].End(), 1e-9)

	// A remainder of exactly MinTail is kept.
	plan = Plan(23, Policy10)
	require.Len(t, plan, 3)
	assert.InDelta(t, 3.0, plan[2].Duration, 1e-9)
}

func TestPlan_RandomPolicyLengths(t *testing.T) {
	for i := 0; i < 200; i++ {
		plan := Plan(95.5, Policy6to8)
		require.NotEmpty(t, plan)
		for j, c := range plan {
			assert.Less(t, c.Start, 95.5)
			assert.LessOrEqual(t, c.End(), 95.5)
			if j < len(plan)-1 {
				assert.GreaterOrEqual(t, c.Duration, 6.0)
				assert.Less(t, c.Duration, 8.0)
				assert.InDelta(t, c.End(), plan[j+1].Start, 1e-9)
			} else {
				assert.GreaterOrEqual(t, c.Duration, MinTail)
			}
		}
	}
}

func TestPolicy_Valid(t *testing.T) {
	assert.True(t, Policy6to8.Valid())
	assert.True(t, Policy15.Valid())
	assert.False(t, Policy("12").Valid())
}
