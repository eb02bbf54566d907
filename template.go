package nodegraph

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Template is authored content meant to be stamped out many times: a NodeGraph subtree rooted at Root, the
// Library of Animations targeting it, and the GeometryGroups its Nodes draw. Instances are cloned into the
// same NodeGraph, next to the Template's own Nodes.
type Template struct {
	Name     string
	Graph    *NodeGraph
	Library  *Library
	Root     int
	Geometry []*GeometryGroup
}

// TemplateOption configures a Template during construction.
type TemplateOption func(*templateConfig)

type templateConfig struct {
	graph    *NodeGraph
	library  *Library
	rootName string
}

// WithGraph authors the Template inside an existing NodeGraph rather than a fresh one.
func WithGraph(graph *NodeGraph) TemplateOption {
	return func(c *templateConfig) {
		c.graph = graph
	}
}

// WithLibrary uses an existing Library for the Template's Animations.
func WithLibrary(library *Library) TemplateOption {
	return func(c *templateConfig) {
		c.library = library
	}
}

// WithRootName names the Template's root Node (the Template's name by default).
func WithRootName(name string) TemplateOption {
	return func(c *templateConfig) {
		c.rootName = name
	}
}

// NewTemplate creates a Template with a root Node, an empty Library, and no geometry.
func NewTemplate(name string, options ...TemplateOption) *Template {

	config := &templateConfig{rootName: name}
	for _, opt := range options {
		opt(config)
	}

	if config.graph == nil {
		config.graph = NewNodeGraph()
	}
	if config.library == nil {
		config.library = NewLibrary()
	}

	return &Template{
		Name:    name,
		Graph:   config.graph,
		Library: config.library,
		Root:    config.graph.AddNode(config.rootName),
	}

}

// AddGeometry creates a GeometryGroup owned by the Template.
func (t *Template) AddGeometry(name string, primitives ...Primitive) *GeometryGroup {
	group := NewGeometryGroup(name, primitives...)
	t.Geometry = append(t.Geometry, group)
	return group
}

// AddNode adds a Node under parent and returns its index.
func (t *Template) AddNode(parent int, name string) int {
	index := t.Graph.AddNode(name)
	t.Graph.AddAbsoluteChild(parent, index)
	return index
}

// AddGeometryNode adds a Node under parent that references group and returns its index. The Template's own
// Nodes are never drawn, so this one doesn't occupy an instance slot; each Instance's copy does.
func (t *Template) AddGeometryNode(parent int, name string, group *GeometryGroup) int {
	index := t.AddNode(parent, name)
	t.Graph.AttachGeometry(index, group)
	return index
}

// Validate checks the Template's Library against its NodeGraph.
func (t *Template) Validate() error {
	return t.Library.Validate(t.Graph)
}

// Instance is one live copy of a Template: its own Nodes (and so its own instance slots and local transforms)
// and its own Player.
type Instance struct {
	Template *Template
	Root     int
	Player   *Player

	offset    int
	destroyed bool
}

// Instantiate clones the Template's subtree and returns a new Instance owning the copy.
func (t *Template) Instantiate(options ...PlayerOption) *Instance {

	root := t.Graph.AddInstancedNode(t.Root)
	offset := root - t.Root

	inst := &Instance{
		Template: t,
		Root:     root,
		offset:   offset,
	}

	inst.Player = NewPlayer(t.Graph, t.Library, append([]PlayerOption{WithNodeOffset(offset)}, options...)...)

	return inst

}

// NodeIndex maps the index of a Node in the Template to the index of its copy in this Instance.
func (inst *Instance) NodeIndex(templateIndex int) int {
	return templateIndex + inst.offset
}

// Update advances the Instance's Animations by dt seconds and then refreshes the world transforms of the
// Instance's own subtree, so every write of the frame lands before anything reads the results. Other Nodes
// in the shared NodeGraph are left alone.
func (inst *Instance) Update(dt float32) {
	inst.Player.Update(dt)
	inst.Template.Graph.refreshSubtree(inst.Root)
}

// SetTransform sets the local transform of the Instance's root.
func (inst *Instance) SetTransform(matrix mgl32.Mat4) {
	inst.Template.Graph.SetLocalTransform(inst.Root, matrix)
}

// WorldTransform returns the world transform of the Instance's copy of a Template Node.
func (inst *Instance) WorldTransform(templateIndex int) mgl32.Mat4 {
	return inst.Template.Graph.WorldTransform(inst.NodeIndex(templateIndex))
}

// Destroy stops the Instance's playback and returns its instance slots. Its Nodes stay in the graph, released.
// Destroying an Instance twice does nothing.
func (inst *Instance) Destroy() {
	if inst.destroyed {
		return
	}
	inst.destroyed = true
	inst.Player.StopAll()
	inst.Template.Graph.ReleaseInstances(inst.Root)
}

// Destroyed returns true once Destroy has been called.
func (inst *Instance) Destroyed() bool {
	return inst.destroyed
}
