package nodegraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Node is one entry of a NodeGraph: a local transform, an optional GeometryGroup occupying one of its
// instance slots, and links to its parent and children expressed as offsets relative to its own index.
// Nodes are values inside the graph's arena; read them through NodeGraph.Node and edit them through
// the graph.
type Node struct {
	name  string
	local Transform

	world      mgl32.Mat4
	worldDirty bool

	geometry     *GeometryGroup
	instanceSlot int

	parentOffset int   // 0 for roots; parent index = index + parentOffset
	childOffsets []int // child index = index + offset

	vacant   bool // filler left in the span of an instanced subtree; never linked
	released bool // instance slots have been returned by ReleaseInstances
}

func newNode(name string) Node {
	return Node{
		name:         name,
		local:        NewTransform(),
		world:        mgl32.Ident4(),
		worldDirty:   true,
		instanceSlot: NoInstance,
	}
}

// Name returns the Node's name.
func (node Node) Name() string {
	return node.name
}

// Geometry returns the GeometryGroup the Node draws, or nil.
func (node Node) Geometry() *GeometryGroup {
	return node.geometry
}

// InstanceSlot returns the Node's slot in its GeometryGroup, or NoInstance.
func (node Node) InstanceSlot() int {
	return node.instanceSlot
}

// ParentOffset returns the signed distance from the Node to its parent, or 0 for a root.
func (node Node) ParentOffset() int {
	return node.parentOffset
}

// ChildOffsets returns a copy of the signed distances from the Node to each of its children, in link order.
func (node Node) ChildOffsets() []int {
	return append([]int(nil), node.childOffsets...)
}

// IsRoot returns true if the Node has no parent.
func (node Node) IsRoot() bool {
	return node.parentOffset == 0
}

// Vacant returns true for the filler entries AddInstancedNode leaves inside a cloned index span.
func (node Node) Vacant() bool {
	return node.vacant
}

// Released returns true once ReleaseInstances has been called on the Node's subtree.
func (node Node) Released() bool {
	return node.released
}

// LocalTransform returns the Node's local transform.
func (node Node) LocalTransform() Transform {
	return node.local
}

// NodeGraph is an append-only arena of Nodes. Indices are assigned once and never change, and every
// hierarchy link is stored as a relative offset, so a subtree copied to a new base index keeps its
// structure verbatim.
type NodeGraph struct {
	nodes []Node
}

// NewNodeGraph returns an empty NodeGraph.
func NewNodeGraph() *NodeGraph {
	return &NodeGraph{}
}

// Len returns the number of Nodes in the arena, including vacant ones.
func (graph *NodeGraph) Len() int {
	return len(graph.nodes)
}

// Node returns a copy of the Node at index.
func (graph *NodeGraph) Node(index int) Node {
	mustIndex(index, len(graph.nodes))
	return graph.nodes[index]
}

// AddNode appends a bare root Node and returns its index.
func (graph *NodeGraph) AddNode(name string) int {
	graph.nodes = append(graph.nodes, newNode(name))
	return len(graph.nodes) - 1
}

// SetName renames the Node at index.
func (graph *NodeGraph) SetName(index int, name string) {
	mustIndex(index, len(graph.nodes))
	graph.nodes[index].name = name
}

// SetGeometry attaches group to the Node at index, claiming a new instance slot for it, and returns the slot.
// A Node may only reference one GeometryGroup over its lifetime.
func (graph *NodeGraph) SetGeometry(index int, group *GeometryGroup) int {
	mustIndex(index, len(graph.nodes))
	node := &graph.nodes[index]
	if node.geometry != nil {
		panic(fmt.Sprintf("nodegraph: node %d already references geometry %q", index, node.geometry.Name))
	}
	if group == nil {
		panic(fmt.Sprintf("nodegraph: nil geometry for node %d", index))
	}
	node.geometry = group
	node.instanceSlot = group.AddInstance(InstanceOwner{Graph: graph, Node: index})
	return node.instanceSlot
}

// AttachGeometry makes the Node at index reference group without claiming an instance slot. This is for
// authoring Nodes that are only ever instanced with AddInstancedNode, never drawn themselves; the copies claim
// slots of their own.
func (graph *NodeGraph) AttachGeometry(index int, group *GeometryGroup) {
	mustIndex(index, len(graph.nodes))
	node := &graph.nodes[index]
	if node.geometry != nil {
		panic(fmt.Sprintf("nodegraph: node %d already references geometry %q", index, node.geometry.Name))
	}
	node.geometry = group
}

// AddInstancedNode copies the subtree rooted at source to the end of the arena and returns the index of
// the copy's root. Names and local transforms are copied, GeometryGroups are shared, and every
// geometry-bearing copy claims a fresh instance slot. Each copy lands at cloneRoot + (original - source), so
// all relative offsets in the copy equal those of the original; indices inside that span that don't belong
// to the subtree are filled with vacant Nodes. The copy's root is always a root, even if source isn't.
func (graph *NodeGraph) AddInstancedNode(source int) int {

	mustIndex(source, len(graph.nodes))

	lo, hi := 0, 0
	for _, member := range graph.Subtree(source) {
		lo = min(lo, member-source)
		hi = max(hi, member-source)
	}

	cloneRoot := len(graph.nodes) - lo
	for range hi - lo + 1 {
		vacant := newNode("")
		vacant.vacant = true
		graph.nodes = append(graph.nodes, vacant)
	}

	graph.cloneInto(source, cloneRoot)

	return cloneRoot

}

func (graph *NodeGraph) cloneInto(src, dst int) {

	original := graph.nodes[src]

	clone := newNode(original.name)
	clone.local = original.local
	clone.geometry = original.geometry
	graph.nodes[dst] = clone

	if clone.geometry != nil {
		graph.nodes[dst].instanceSlot = clone.geometry.AddInstance(InstanceOwner{Graph: graph, Node: dst})
	}

	for _, offset := range original.childOffsets {
		graph.cloneInto(src+offset, dst+offset)
		graph.AddAbsoluteChild(dst, dst+offset)
	}

}

// AddAbsoluteChild links child under parent, both given as absolute indices, and marks the child's
// subtree as needing new world transforms. The child must currently be a root, and the link can't form a cycle.
func (graph *NodeGraph) AddAbsoluteChild(parent, child int) {

	mustIndex(parent, len(graph.nodes))
	mustIndex(child, len(graph.nodes))

	if parent == child {
		panic(fmt.Sprintf("nodegraph: node %d can't be its own child", child))
	}
	if !graph.nodes[child].IsRoot() {
		panic(fmt.Sprintf("nodegraph: node %d already has parent %d", child, child+graph.nodes[child].parentOffset))
	}
	for ancestor := parent; ; {
		if ancestor == child {
			panic(fmt.Sprintf("nodegraph: linking %d under %d would create a cycle", child, parent))
		}
		offset := graph.nodes[ancestor].parentOffset
		if offset == 0 {
			break
		}
		ancestor += offset
	}

	graph.nodes[child].parentOffset = parent - child
	graph.nodes[parent].childOffsets = append(graph.nodes[parent].childOffsets, child-parent)
	graph.nodes[child].vacant = false
	graph.markDirty(child)

}

// Parent returns the index of the Node's parent, or false if it's a root.
func (graph *NodeGraph) Parent(index int) (int, bool) {
	mustIndex(index, len(graph.nodes))
	offset := graph.nodes[index].parentOffset
	if offset == 0 {
		return 0, false
	}
	return index + offset, true
}

// IsRoot returns true if the Node at index has no parent.
func (graph *NodeGraph) IsRoot(index int) bool {
	mustIndex(index, len(graph.nodes))
	return graph.nodes[index].IsRoot()
}

// Children returns the absolute indices of the Node's children, in link order.
func (graph *NodeGraph) Children(index int) []int {
	mustIndex(index, len(graph.nodes))
	offsets := graph.nodes[index].childOffsets
	out := make([]int, 0, len(offsets))
	for _, offset := range offsets {
		out = append(out, index+offset)
	}
	return out
}

// Subtree returns root and all of its recursive children, in depth-first pre-order.
func (graph *NodeGraph) Subtree(root int) []int {
	mustIndex(root, len(graph.nodes))
	out := []int{root}
	for i := 0; i < len(out); i++ {
		// Splice children right after their parent to keep pre-order.
		children := graph.Children(out[i])
		if len(children) > 0 {
			rest := append(children, out[i+1:]...)
			out = append(out[:i+1], rest...)
		}
	}
	return out
}

// LocalTransform returns the local transform of the Node at index.
func (graph *NodeGraph) LocalTransform(index int) Transform {
	mustIndex(index, len(graph.nodes))
	return graph.nodes[index].local
}

// SetLocalTransform decomposes matrix into the Node's local translation, rotation, and scale. World
// transforms of a root's subtree are recomputed at once; for any other Node they're left dirty until the
// next Refresh or WorldTransform call, so that many edits in one frame cost one recompute.
func (graph *NodeGraph) SetLocalTransform(index int, matrix mgl32.Mat4) {
	mustIndex(index, len(graph.nodes))
	graph.nodes[index].local = NewTransformFromMatrix(matrix)
	graph.markDirty(index)
	if graph.nodes[index].IsRoot() {
		graph.refreshSubtree(index)
	}
}

// SetLocalTranslation sets the Node's local translation, deferring world recomputation.
func (graph *NodeGraph) SetLocalTranslation(index int, translation mgl32.Vec3) {
	mustIndex(index, len(graph.nodes))
	graph.nodes[index].local.Translation = translation
	graph.touchLocal(index)
}

// SetLocalRotation sets the Node's local rotation, deferring world recomputation.
func (graph *NodeGraph) SetLocalRotation(index int, rotation mgl32.Quat) {
	mustIndex(index, len(graph.nodes))
	graph.nodes[index].local.Rotation = rotation
	graph.touchLocal(index)
}

// SetLocalScale sets the Node's local scale, deferring world recomputation.
func (graph *NodeGraph) SetLocalScale(index int, scale mgl32.Vec3) {
	mustIndex(index, len(graph.nodes))
	graph.nodes[index].local.Scale = scale
	graph.touchLocal(index)
}

// setLocalProperty writes a sampled channel value into the Node's local transform.
func (graph *NodeGraph) setLocalProperty(index int, property Property, value mgl32.Vec4) {
	switch property {
	case PropertyTranslation:
		graph.SetLocalTranslation(index, value.Vec3())
	case PropertyRotation:
		graph.SetLocalRotation(index, QuatFromXYZW(value))
	case PropertyScale:
		graph.SetLocalScale(index, value.Vec3())
	default:
		panic(fmt.Sprintf("nodegraph: unknown property %s", property))
	}
}

func (graph *NodeGraph) touchLocal(index int) {
	graph.nodes[index].local.recompose()
	graph.markDirty(index)
}

// markDirty flags a Node and its subtree for world recomputation. A dirty Node's descendants are always
// dirty as well, so an already-dirty Node ends the walk.
func (graph *NodeGraph) markDirty(index int) {
	node := &graph.nodes[index]
	if node.worldDirty {
		return
	}
	node.worldDirty = true
	for _, offset := range node.childOffsets {
		graph.markDirty(index + offset)
	}
}

// WorldTransform returns the Node's world transform, recomputing it (and any dirty ancestors) first if needed.
func (graph *NodeGraph) WorldTransform(index int) mgl32.Mat4 {
	mustIndex(index, len(graph.nodes))
	return graph.world(index)
}

func (graph *NodeGraph) world(index int) mgl32.Mat4 {

	node := &graph.nodes[index]

	if !node.worldDirty {
		return node.world
	}

	transform := node.local.matrix
	if node.parentOffset != 0 {
		transform = graph.world(index + node.parentOffset).Mul4(transform)
	}

	node.world = transform
	node.worldDirty = false

	return transform

}

// Refresh recomputes every dirty world transform in the graph.
func (graph *NodeGraph) Refresh() {
	for i := range graph.nodes {
		if graph.nodes[i].worldDirty {
			graph.world(i)
		}
	}
}

func (graph *NodeGraph) refreshSubtree(root int) {
	graph.world(root)
	for _, offset := range graph.nodes[root].childOffsets {
		graph.refreshSubtree(root + offset)
	}
}

// ReleaseInstances returns the instance slots held by every Node in root's subtree to their
// GeometryGroups; the groups renumber whichever Nodes they move. The Nodes themselves
// stay in the arena (indices never change) but are flagged as released. Releasing a subtree twice panics.
func (graph *NodeGraph) ReleaseInstances(root int) {

	for _, index := range graph.Subtree(root) {

		node := &graph.nodes[index]

		if node.released {
			panic(fmt.Sprintf("nodegraph: instances of node %d were already released", index))
		}
		node.released = true

		if node.geometry == nil || node.instanceSlot == NoInstance {
			continue
		}

		slot := node.instanceSlot
		node.instanceSlot = NoInstance
		node.geometry.RemoveInstance(slot)

	}

}

// assignSlot records a new instance slot for the Node at index after its GeometryGroup moved it.
func (graph *NodeGraph) assignSlot(index, slot int) {
	mustIndex(index, len(graph.nodes))
	graph.nodes[index].instanceSlot = slot
}

// Find searches root's hierarchy for a Node by a path of names separated by forward slashes, relative to
// root. ".." goes up one level, so Find(cup, "../Plate") finds a sibling of cup named Plate.
func (graph *NodeGraph) Find(root int, path string) (int, bool) {

	mustIndex(root, len(graph.nodes))

	current := root

	for _, part := range strings.Split(path, "/") {

		part = strings.TrimSpace(part)

		if part == "" {
			continue
		}

		if part == ".." {
			parent, ok := graph.Parent(current)
			if !ok {
				return 0, false
			}
			current = parent
			continue
		}

		found := false
		for _, child := range graph.Children(current) {
			if graph.nodes[child].name == part {
				current = child
				found = true
				break
			}
		}

		if !found {
			return 0, false
		}

	}

	return current, true

}

// Path returns the slash-separated names leading from the Node's root to the Node. The root's own name
// is not included, so passing the result to Find on the root returns the Node again.
func (graph *NodeGraph) Path(index int) string {

	mustIndex(index, len(graph.nodes))

	names := []string{}

	for current := index; ; {
		parent, ok := graph.Parent(current)
		if !ok {
			break
		}
		names = append([]string{graph.nodes[current].name}, names...)
		current = parent
	}

	return strings.Join(names, "/")

}

// HierarchyAsString returns a string displaying root and its recursive children along with their world
// positions, which is useful for debugging a node tree. Nodes drawing geometry are marked GEOM, along with
// the group name and instance slot.
func (graph *NodeGraph) HierarchyAsString(root int) string {

	var printNode func(index, level int) string

	printNode = func(index, level int) string {

		node := graph.nodes[index]

		prefix := "NODE"
		if level == 0 {
			prefix = "ROOT"
		} else if node.geometry != nil {
			prefix = "GEOM"
		}

		str := ""

		for i := 0; i < level; i++ {
			str += "    |"
		}

		wp := graph.WorldTransform(index).Col(3)
		floatTruncation := 2
		wpStr := "[" + strconv.FormatFloat(float64(wp[0]), 'f', floatTruncation, 32) + ", " +
			strconv.FormatFloat(float64(wp[1]), 'f', floatTruncation, 32) + ", " +
			strconv.FormatFloat(float64(wp[2]), 'f', floatTruncation, 32) + "]"

		if level > 0 {
			str += "-"
		}
		str += " [" + prefix + "] " + node.name + " : " + wpStr
		if node.geometry != nil {
			str += " (" + node.geometry.Name + " #" + strconv.Itoa(node.instanceSlot) + ")"
		}
		str += "\n"

		for _, child := range graph.Children(index) {
			str += printNode(child, level+1)
		}

		return str
	}

	mustIndex(root, len(graph.nodes))
	return printNode(root, 0)

}
