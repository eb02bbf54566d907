package nodegraph

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Channel is the keyframe timeline of one local transform property on one Node. Values are stored flattened:
// translation and scale use XYZ, rotation uses XYZW. Step and linear channels hold one value per time step;
// cubic-spline channels hold three (in-tangent, value, out-tangent), with tangents expressed per unit of time.
type Channel struct {
	Node          int
	Property      Property
	Interpolation Interpolation
	TimeSteps     []float32
	Values        []mgl32.Vec4
}

// Validate checks the Channel's keyframe data for content that can't be played back.
func (channel *Channel) Validate() error {

	switch channel.Property {
	case PropertyTranslation, PropertyRotation, PropertyScale:
	default:
		return errors.Wrapf(ErrUnknownProperty, "channel on node %d: %s", channel.Node, channel.Property)
	}

	switch channel.Interpolation {
	case InterpolationStep, InterpolationLinear, InterpolationCubicSpline:
	default:
		return errors.Wrapf(ErrUnknownInterpolation, "%s channel on node %d: %s", channel.Property, channel.Node, channel.Interpolation)
	}

	if len(channel.TimeSteps) < 2 {
		return errors.Wrapf(ErrTooFewTimeSteps, "%s channel on node %d has %d", channel.Property, channel.Node, len(channel.TimeSteps))
	}

	for i := 1; i < len(channel.TimeSteps); i++ {
		if channel.TimeSteps[i] <= channel.TimeSteps[i-1] {
			return errors.Wrapf(ErrTimeStepsNotIncreasing, "%s channel on node %d: step %d (%v) follows %v",
				channel.Property, channel.Node, i, channel.TimeSteps[i], channel.TimeSteps[i-1])
		}
	}

	if want := len(channel.TimeSteps) * channel.Interpolation.valuesPerStep(); len(channel.Values) != want {
		return errors.Wrapf(ErrValueCountMismatch, "%s %s channel on node %d has %d values, want %d",
			channel.Interpolation, channel.Property, channel.Node, len(channel.Values), want)
	}

	return nil

}

// Segments returns the number of keyframe-to-keyframe segments in the Channel.
func (channel *Channel) Segments() int {
	return len(channel.TimeSteps) - 1
}

// StartTime returns the time of the Channel's first keyframe.
func (channel *Channel) StartTime() float32 {
	return channel.TimeSteps[0]
}

// EndTime returns the time of the Channel's last keyframe.
func (channel *Channel) EndTime() float32 {
	return channel.TimeSteps[len(channel.TimeSteps)-1]
}

// Keyframe returns the value (not a tangent) stored for time step step.
func (channel *Channel) Keyframe(step int) mgl32.Vec4 {
	if channel.Interpolation == InterpolationCubicSpline {
		return channel.Values[step*3+1]
	}
	return channel.Values[step]
}

// SampleSegment samples the Channel at time inside segment, the span between time steps segment and segment+1.
// Times outside of the segment are clamped to it.
func (channel *Channel) SampleSegment(segment int, time float32) mgl32.Vec4 {

	start, end := channel.TimeSteps[segment], channel.TimeSteps[segment+1]
	timeRange := end - start

	t := (time - start) / timeRange
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	var m0, m1 mgl32.Vec4
	if channel.Interpolation == InterpolationCubicSpline {
		m0 = channel.Values[segment*3+2]     // out-tangent of the first keyframe
		m1 = channel.Values[(segment+1)*3+0] // in-tangent of the second keyframe
	}

	return Sample(channel.Property, channel.Interpolation,
		channel.Keyframe(segment), m0, channel.Keyframe(segment+1), m1,
		t, timeRange)

}

// Animation is a named set of Channels that share one clock when played. Channels are grouped by the
// index of the Node they target in the authoring NodeGraph.
type Animation struct {
	Name     string
	channels map[int][]*Channel
	nodes    []int // insertion order, so playback order is stable
}

// NewAnimation returns an empty Animation.
func NewAnimation(name string) *Animation {
	return &Animation{
		Name:     name,
		channels: map[int][]*Channel{},
	}
}

// AddChannel validates and adds a Channel targeting the Node at index node. The slices are copied.
func (animation *Animation) AddChannel(node int, property Property, interpolation Interpolation, timeSteps []float32, values []mgl32.Vec4) (*Channel, error) {

	channel := &Channel{
		Node:          node,
		Property:      property,
		Interpolation: interpolation,
		TimeSteps:     append([]float32(nil), timeSteps...),
		Values:        append([]mgl32.Vec4(nil), values...),
	}

	if node < 0 {
		return nil, errors.Wrapf(ErrUnknownNode, "animation %q: node %d", animation.Name, node)
	}

	if err := channel.Validate(); err != nil {
		return nil, errors.Wrapf(err, "animation %q", animation.Name)
	}

	if _, exists := animation.channels[node]; !exists {
		animation.nodes = append(animation.nodes, node)
	}
	animation.channels[node] = append(animation.channels[node], channel)

	return channel, nil

}

// AddVectorChannel is AddChannel for translation or scale keyframes given as 3D vectors.
func (animation *Animation) AddVectorChannel(node int, property Property, interpolation Interpolation, timeSteps []float32, values []mgl32.Vec3) (*Channel, error) {
	flat := make([]mgl32.Vec4, len(values))
	for i, v := range values {
		flat[i] = v.Vec4(0)
	}
	return animation.AddChannel(node, property, interpolation, timeSteps, flat)
}

// AddRotationChannel is AddChannel for rotation keyframes given as quaternions.
func (animation *Animation) AddRotationChannel(node int, interpolation Interpolation, timeSteps []float32, values []mgl32.Quat) (*Channel, error) {
	flat := make([]mgl32.Vec4, len(values))
	for i, q := range values {
		flat[i] = QuatToXYZW(q)
	}
	return animation.AddChannel(node, PropertyRotation, interpolation, timeSteps, flat)
}

// Nodes returns the indices of the Nodes the Animation targets, in the order they were first added.
func (animation *Animation) Nodes() []int {
	return append([]int(nil), animation.nodes...)
}

// Channels returns the Channels targeting the Node at index node.
func (animation *Animation) Channels(node int) []*Channel {
	return animation.channels[node]
}

// AllChannels returns every Channel of the Animation, grouped by Node in insertion order.
func (animation *Animation) AllChannels() []*Channel {
	out := make([]*Channel, 0, animation.ChannelsCount())
	for _, node := range animation.nodes {
		out = append(out, animation.channels[node]...)
	}
	return out
}

// ChannelsCount returns the total number of Channels across all Nodes.
func (animation *Animation) ChannelsCount() int {
	count := 0
	for _, channels := range animation.channels {
		count += len(channels)
	}
	return count
}

// Duration returns the latest keyframe time across all Channels.
func (animation *Animation) Duration() float32 {
	var duration float32
	for _, channels := range animation.channels {
		for _, channel := range channels {
			duration = max(duration, channel.EndTime())
		}
	}
	return duration
}
