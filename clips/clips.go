// Package clips plans how a video is cut into short segments.
package clips

import (
	"fmt"
	"math/rand/v2"
)

// Policy selects the clip length drawn for every segment.
type Policy string

const (
	Policy6to8 Policy = "6-8"
	Policy8    Policy = "8"
	Policy10   Policy = "10"
	Policy15   Policy = "15"
)

const (
	// MinSplitDuration is the longest video that is never segmented.
	MinSplitDuration = 10.0
	// MinTail is the shortest remainder still emitted as a clip.
	MinTail = 3.0
)

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool {
	switch p {
	case Policy6to8, Policy8, Policy10, Policy15:
		return true
	}
	return false
}

// Length draws one clip length in seconds.
func (p Policy) Length() float64 {
	switch p {
	case Policy8:
		return 8
	case Policy10:
		return 10
	case Policy15:
		return 15
	default:
		return 6 + rand.Float64()*2
	}
}

// Clip is one segment of a source video, in seconds. Number starts at 1.
type Clip struct {
	Start    float64
	Duration float64
	Number   int
}

// End returns the exclusive end offset.
func (c Clip) End() float64 {
	return c.Start + c.Duration
}

func (c Clip) String() string {
	return fmt.Sprintf("clip %d [%.3f, %.3f)", c.Number, c.Start, c.End())
}

// Plan cuts [0, duration) into consecutive clips. Videos of MinSplitDuration
// seconds or less get an empty plan. A remainder shorter than MinTail is
// dropped. Lengths are redrawn on every call.
func Plan(duration float64, policy Policy) []Clip {
	if duration <= MinSplitDuration {
		return nil
	}

	var plan []Clip
	cursor := 0.0
	for duration-cursor >= MinTail {
		end := cursor + policy.Length()
		if end > duration {
			end = duration
		}
		plan = append(plan, Clip{
			Start:    cursor,
			Duration: end - cursor,
			Number:   len(plan) + 1,
		})
		cursor = end
	}
	return plan
}
