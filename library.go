package nodegraph

import (
	"sort"

	"github.com/pkg/errors"
)

// Library is the collection of Animations authored for a Template, keyed by name.
type Library struct {
	Animations map[string]*Animation
}

// NewLibrary creates a new Library.
func NewLibrary() *Library {
	return &Library{
		Animations: map[string]*Animation{},
	}
}

// AddAnimation creates an empty Animation under name, replacing any existing one, and returns it.
func (lib *Library) AddAnimation(name string) *Animation {
	anim := NewAnimation(name)
	lib.Animations[name] = anim
	return anim
}

// FindAnimation returns the Animation with the provided name, or nil if there isn't one.
func (lib *Library) FindAnimation(name string) *Animation {
	return lib.Animations[name]
}

// Names returns the names of all Animations, sorted.
func (lib *Library) Names() []string {
	names := make([]string, 0, len(lib.Animations))
	for name := range lib.Animations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate re-checks every Channel in the Library and makes sure each one targets a Node that exists in graph.
// Channels are validated as they're added, so this mostly catches Channels edited afterwards or a Library
// paired with the wrong NodeGraph.
func (lib *Library) Validate(graph *NodeGraph) error {

	for _, name := range lib.Names() {

		for _, channel := range lib.Animations[name].AllChannels() {

			if channel.Node < 0 || channel.Node >= graph.Len() {
				return errors.Wrapf(ErrUnknownNode, "animation %q: node %d (graph has %d)", name, channel.Node, graph.Len())
			}

			if err := channel.Validate(); err != nil {
				return errors.Wrapf(err, "animation %q", name)
			}

		}

	}

	return nil

}
