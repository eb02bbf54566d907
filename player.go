package nodegraph

import (
	"fmt"
	"log/slog"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Loops is the number of passes an Animation plays before its playback ends on its own.
type Loops int

// LoopForever plays an Animation until it's stopped explicitly.
const LoopForever Loops = -1

// ChannelCursor tracks one Channel's position within a running Animation.
type ChannelCursor struct {
	Step   int  // Index of the segment [TimeSteps[Step], TimeSteps[Step+1]] currently being sampled
	Paused bool // True once the clock has run off either end of the Channel during this pass
}

// PlaybackState is the live state of one Animation running on a Player. All of its Channels share Time;
// Factor scales how fast Time moves, and its sign sets the direction.
type PlaybackState struct {
	Animation           *Animation
	Time                float32
	Factor              float32
	RemainingLoops      Loops
	ChannelsCount       int
	PausedChannelsCount int
	Cursors             []ChannelCursor // One per Channel, in Animation.AllChannels order

	channels []*Channel
	ramp     *gween.Tween
}

// rewind returns the state to the start of a pass. A pass starts at time 0 when playing forwards and at the
// Animation's last keyframe when playing backwards, with every cursor on its Channel's first segment in the
// direction of travel.
func (state *PlaybackState) rewind() {

	forward := state.Factor >= 0

	state.Time = 0
	if !forward {
		state.Time = state.Animation.Duration()
	}

	for i, channel := range state.channels {
		state.Cursors[i].Paused = false
		if forward {
			state.Cursors[i].Step = 0
		} else {
			state.Cursors[i].Step = channel.Segments() - 1
		}
	}

	state.PausedChannelsCount = 0

}

// CallbackID identifies a callback registered on a Player, for removal.
type CallbackID uint64

type playerCallback struct {
	id CallbackID
	fn func()
}

// PlayerOption configures a Player during construction.
type PlayerOption func(*Player)

// WithNodeOffset makes the Player write to the Node at channel.Node + offset instead of channel.Node. This is
// how an Instance redirects a Template's Animations onto its own copy of the Template's Nodes.
func WithNodeOffset(offset int) PlayerOption {
	return func(p *Player) {
		p.resolve = func(node int) int { return node + offset }
	}
}

// WithNodeResolver sets an arbitrary mapping from the Node indices Channels target to the Node indices written.
func WithNodeResolver(resolve func(node int) int) PlayerOption {
	return func(p *Player) {
		p.resolve = resolve
	}
}

// WithPlayerLogger gives the Player its own logger instead of the package one.
func WithPlayerLogger(logger *slog.Logger) PlayerOption {
	return func(p *Player) {
		p.logger = logger
	}
}

// Player runs any number of a Library's Animations at once against a NodeGraph, each with its own
// PlaybackState, writing sampled values into the local transforms of the targeted Nodes.
type Player struct {
	graph   *NodeGraph
	library *Library
	resolve func(node int) int
	logger  *slog.Logger

	states map[string]*PlaybackState
	order  []string // start order, which is also update order

	loopCallbacks   map[string][]playerCallback
	finishCallbacks map[string][]playerCallback
	nextCallbackID  CallbackID
}

// NewPlayer returns a Player that plays Animations from library onto graph.
func NewPlayer(graph *NodeGraph, library *Library, options ...PlayerOption) *Player {
	p := &Player{
		graph:           graph,
		library:         library,
		resolve:         func(node int) int { return node },
		states:          map[string]*PlaybackState{},
		loopCallbacks:   map[string][]playerCallback{},
		finishCallbacks: map[string][]playerCallback{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *Player) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return Logger()
}

// Start begins playing the named Animation from the start of a pass, replacing its current playback if it's
// already running. loops is the number of passes to play, or LoopForever; factor scales playback speed, and a
// negative factor plays the Animation backwards. Starting an unknown or empty Animation, zero loops, or a zero
// factor panics.
func (p *Player) Start(name string, loops Loops, factor float32) {

	anim := p.library.FindAnimation(name)

	if anim == nil {
		panic(fmt.Sprintf("nodegraph: unknown animation %q", name))
	}
	if loops == 0 || loops < LoopForever {
		panic(fmt.Sprintf("nodegraph: invalid loop count %d for animation %q", loops, name))
	}
	if factor == 0 {
		panic(fmt.Sprintf("nodegraph: zero playback factor for animation %q", name))
	}

	channels := anim.AllChannels()
	if len(channels) == 0 {
		panic(fmt.Sprintf("nodegraph: animation %q has no channels", name))
	}

	state := &PlaybackState{
		Animation:      anim,
		Factor:         factor,
		RemainingLoops: loops,
		ChannelsCount:  len(channels),
		Cursors:        make([]ChannelCursor, len(channels)),
		channels:       channels,
	}
	state.rewind()

	if _, running := p.states[name]; !running {
		p.order = append(p.order, name)
	}
	p.states[name] = state

	p.log().Debug("animation started", "animation", name, "loops", int(loops), "factor", factor)

}

// Stop ends playback of the named Animation immediately, leaving the pose where it is. Stopping an Animation
// that isn't running does nothing.
func (p *Player) Stop(name string) {
	if _, running := p.states[name]; !running {
		return
	}
	p.remove(name)
	p.log().Debug("animation stopped", "animation", name)
}

// StopAll stops every running Animation.
func (p *Player) StopAll() {
	for _, name := range p.Playing() {
		p.Stop(name)
	}
}

func (p *Player) remove(name string) {
	delete(p.states, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// IsPlaying returns true if the named Animation is running.
func (p *Player) IsPlaying(name string) bool {
	_, running := p.states[name]
	return running
}

// Playing returns the names of the running Animations in the order they were started.
func (p *Player) Playing() []string {
	return append([]string(nil), p.order...)
}

// State returns the PlaybackState of the named Animation, or nil if it isn't running.
func (p *Player) State(name string) *PlaybackState {
	return p.states[name]
}

// SetFactor changes the playback factor of a running Animation, cancelling any ramp in progress. A factor of 0
// holds the clock still. It returns false if the Animation isn't running.
func (p *Player) SetFactor(name string, factor float32) bool {
	state, running := p.states[name]
	if !running {
		return false
	}
	state.Factor = factor
	state.ramp = nil
	return true
}

// RampFactor eases the playback factor of a running Animation from its current value to target over duration
// seconds of update time, using easing (ease.Linear if nil). It returns false if the Animation isn't running.
func (p *Player) RampFactor(name string, target, duration float32, easing ease.TweenFunc) bool {
	state, running := p.states[name]
	if !running {
		return false
	}
	if easing == nil {
		easing = ease.Linear
	}
	if duration <= 0 {
		state.Factor = target
		state.ramp = nil
		return true
	}
	state.ramp = gween.New(state.Factor, target, duration, easing)
	return true
}

// OnLoopStart registers fn to be called each time the named Animation wraps around to start a new pass.
func (p *Player) OnLoopStart(name string, fn func()) CallbackID {
	p.nextCallbackID++
	p.loopCallbacks[name] = append(p.loopCallbacks[name], playerCallback{id: p.nextCallbackID, fn: fn})
	return p.nextCallbackID
}

// OnFinish registers fn to be called when the named Animation ends by running out of loops. It isn't called
// for Stop.
func (p *Player) OnFinish(name string, fn func()) CallbackID {
	p.nextCallbackID++
	p.finishCallbacks[name] = append(p.finishCallbacks[name], playerCallback{id: p.nextCallbackID, fn: fn})
	return p.nextCallbackID
}

// RemoveCallback unregisters a callback added with OnLoopStart or OnFinish.
func (p *Player) RemoveCallback(id CallbackID) {
	for _, registry := range []map[string][]playerCallback{p.loopCallbacks, p.finishCallbacks} {
		for name, callbacks := range registry {
			for i, cb := range callbacks {
				if cb.id == id {
					registry[name] = append(callbacks[:i], callbacks[i+1:]...)
					return
				}
			}
		}
	}
}

func runCallbacks(callbacks []playerCallback) {
	// Copied so callbacks can add or remove callbacks while running.
	for _, cb := range append([]playerCallback(nil), callbacks...) {
		cb.fn()
	}
}

// Update advances every running Animation by dt seconds, writing into the local transforms of the Nodes they
// target. World transforms are left dirty; call NodeGraph.Refresh (or read WorldTransform) afterwards.
func (p *Player) Update(dt float32) {
	for _, name := range p.Playing() {
		if state, running := p.states[name]; running {
			p.advance(name, state, dt)
		}
	}
}

func (p *Player) advance(name string, state *PlaybackState, dt float32) {

	if state.ramp != nil {
		factor, finished := state.ramp.Update(dt)
		state.Factor = factor
		if finished {
			state.ramp = nil
		}
	}

	state.Time += dt * state.Factor
	forward := state.Factor >= 0

	for i, channel := range state.channels {

		cursor := &state.Cursors[i]

		if cursor.Paused {
			continue
		}

		target := p.resolve(channel.Node)

		if !seek(channel, cursor, state.Time, forward) {
			cursor.Paused = true
			state.PausedChannelsCount++
			last := 0
			if forward {
				last = len(channel.TimeSteps) - 1
			}
			p.graph.setLocalProperty(target, channel.Property, channel.Keyframe(last))
			continue
		}

		p.graph.setLocalProperty(target, channel.Property, channel.SampleSegment(cursor.Step, state.Time))

	}

	if state.PausedChannelsCount == state.ChannelsCount {
		p.completePass(name, state)
	}

}

// seek moves the cursor one segment boundary at a time until its segment contains time, looking only in the
// direction of travel. It returns false if the cursor would leave the Channel.
func seek(channel *Channel, cursor *ChannelCursor, time float32, forward bool) bool {

	if forward {
		for time > channel.TimeSteps[cursor.Step+1] {
			if cursor.Step+1 >= channel.Segments() {
				return false
			}
			cursor.Step++
		}
	} else {
		for time < channel.TimeSteps[cursor.Step] {
			if cursor.Step == 0 {
				return false
			}
			cursor.Step--
		}
	}

	return true

}

func (p *Player) completePass(name string, state *PlaybackState) {

	if state.RemainingLoops != LoopForever {
		state.RemainingLoops--
		if state.RemainingLoops <= 0 {
			p.remove(name)
			p.log().Debug("animation finished", "animation", name)
			runCallbacks(p.finishCallbacks[name])
			return
		}
	}

	// TODO: carry the overshoot past the end of the pass into the next one instead of restarting at the origin.
	state.rewind()

	p.log().Debug("animation looped", "animation", name, "remaining", int(state.RemainingLoops))
	runCallbacks(p.loopCallbacks[name])

}
