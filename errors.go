package nodegraph

import (
	"github.com/pkg/errors"
)

// Authoring-time validation errors. Playback never returns errors; content that would fail here
// is rejected before it can be started.
var (
	// ErrTooFewTimeSteps is returned for a channel with fewer than two time steps.
	ErrTooFewTimeSteps = errors.New("channel needs at least two time steps")
	// ErrTimeStepsNotIncreasing is returned when a channel's time steps are not strictly increasing.
	ErrTimeStepsNotIncreasing = errors.New("channel time steps must be strictly increasing")
	// ErrValueCountMismatch is returned when a channel's value count doesn't match its time steps
	// (one value per step for step and linear, three per step for cubic-spline).
	ErrValueCountMismatch = errors.New("channel value count does not match its time steps")
	// ErrUnknownProperty is returned for a channel animating a property other than translation, rotation, or scale.
	ErrUnknownProperty = errors.New("channel animates an unknown property")
	// ErrUnknownInterpolation is returned for a channel using an interpolation other than step, linear, or cubic-spline.
	ErrUnknownInterpolation = errors.New("channel uses an unknown interpolation")
	// ErrUnknownNode is returned when a channel targets a node index outside of the node graph.
	ErrUnknownNode = errors.New("channel targets a node that does not exist")
)

// mustIndex panics if index is not a valid node index for a graph of the given size.
func mustIndex(index, size int) {
	if index < 0 || index >= size {
		panic(errors.Errorf("nodegraph: node index %d out of range [0, %d)", index, size))
	}
}
