package follow

import (
	"math"

	"github.com/1broseidon/quack/internal/platform"
)

// State is the phase of follow mode.
type State int32

const (
	// StateIdle means the widget is at rest.
	StateIdle State = iota
	// StateShrinking means the widget is collapsing into a dot.
	StateShrinking
	// StateFollowing means the dot is chasing the cursor.
	StateFollowing
	// StateExpanding means the dot is growing back to its restored size.
	StateExpanding
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateShrinking:
		return "shrinking"
	case StateFollowing:
		return "following"
	case StateExpanding:
		return "expanding"
	default:
		return "unknown"
	}
}

// Zone classifies the distance between the dot and the cursor.
type Zone int

const (
	// ZoneExit ends follow mode.
	ZoneExit Zone = iota
	// ZoneDead leaves the dot where it is.
	ZoneDead
	// ZonePursuit moves the dot toward the cursor.
	ZonePursuit
)

// String returns the string representation of the zone
func (z Zone) String() string {
	switch z {
	case ZoneExit:
		return "exit"
	case ZoneDead:
		return "dead"
	case ZonePursuit:
		return "pursuit"
	default:
		return "unknown"
	}
}

// Classify maps a center-to-cursor distance to its zone. Both thresholds
// belong to the dead zone.
func Classify(distance float64) Zone {
	switch {
	case distance < ExitDistance:
		return ZoneExit
	case distance <= PursuitDistance:
		return ZoneDead
	default:
		return ZonePursuit
	}
}

// Tick is the outcome of one follow-loop iteration.
type Tick struct {
	Zone     Zone
	Distance float64
	// Next is where the dot should be placed. It equals the current
	// position outside the pursuit zone.
	Next platform.Position
}

// Step computes one tick from the dot's top-left corner and a cursor sample.
// The dot is assumed to be DotSize, so its center is pos + DotSize/2.
func Step(pos, pointer platform.Position) Tick {
	centerX := pos.X + DotSize.Width/2
	centerY := pos.Y + DotSize.Height/2

	dx := pointer.X - centerX
	dy := pointer.Y - centerY
	distance := math.Hypot(float64(dx), float64(dy))

	tick := Tick{Zone: Classify(distance), Distance: distance, Next: pos}
	if tick.Zone == ZonePursuit {
		tick.Next = platform.Position{
			X: pos.X + int(float64(dx)*PursuitGain),
			Y: pos.Y + int(float64(dy)*PursuitGain),
		}
	}
	return tick
}
