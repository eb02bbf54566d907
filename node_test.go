package nodegraph

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRig makes root -> (arm -> hand, leg), with an unrelated root authored between arm and hand.
func buildRig(t *testing.T) (graph *NodeGraph, root, arm, stray, hand, leg int) {
	t.Helper()
	graph = NewNodeGraph()
	root = graph.AddNode("Root")
	arm = graph.AddNode("Arm")
	stray = graph.AddNode("Stray")
	hand = graph.AddNode("Hand")
	leg = graph.AddNode("Leg")
	graph.AddAbsoluteChild(root, arm)
	graph.AddAbsoluteChild(arm, hand)
	graph.AddAbsoluteChild(root, leg)
	return
}

func TestNodeLinksAreRelative(t *testing.T) {

	graph, root, arm, _, hand, leg := buildRig(t)

	assert.Equal(t, 0, graph.Node(root).ParentOffset())
	assert.Equal(t, []int{arm - root, leg - root}, graph.Node(root).ChildOffsets())
	assert.Equal(t, arm-hand, graph.Node(hand).ParentOffset())

	parent, ok := graph.Parent(hand)
	assert.True(t, ok)
	assert.Equal(t, arm, parent)

	_, ok = graph.Parent(root)
	assert.False(t, ok)
	assert.True(t, graph.IsRoot(root))

	assert.Equal(t, []int{root, arm, hand, leg}, graph.Subtree(root))

}

func TestAddAbsoluteChildRejectsBadLinks(t *testing.T) {

	graph, root, arm, stray, hand, _ := buildRig(t)

	assert.Panics(t, func() { graph.AddAbsoluteChild(arm, arm) }, "self")
	assert.Panics(t, func() { graph.AddAbsoluteChild(stray, hand) }, "already parented")
	assert.Panics(t, func() { graph.AddAbsoluteChild(hand, root) }, "cycle")
	assert.Panics(t, func() { graph.AddAbsoluteChild(root, graph.Len()) }, "out of range")
	assert.Panics(t, func() { graph.WorldTransform(-1) })

}

func TestWorldTransformsFollowHierarchy(t *testing.T) {

	graph, root, arm, _, hand, _ := buildRig(t)

	graph.SetLocalTransform(root, mgl32.Translate3D(1, 0, 0))
	graph.SetLocalRotation(arm, mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}))
	graph.SetLocalTranslation(hand, mgl32.Vec3{2, 0, 0})

	assert.True(t, graph.nodes[hand].worldDirty)
	graph.Refresh()

	for i := 0; i < graph.Len(); i++ {
		assert.False(t, graph.nodes[i].worldDirty, "node %d", i)
		want := graph.LocalTransform(i).Matrix()
		if parent, ok := graph.Parent(i); ok {
			want = graph.WorldTransform(parent).Mul4(want)
		}
		assert.True(t, MatricesEqual(want, graph.WorldTransform(i)), "node %d", i)
	}

	pos := graph.WorldTransform(hand).Col(3)
	assert.InDelta(t, 1, pos[0], 1e-5)
	assert.InDelta(t, 2, pos[1], 1e-5)

}

func TestRootTransformRefreshesSubtreeImmediately(t *testing.T) {

	graph, root, arm, _, hand, leg := buildRig(t)
	graph.Refresh()

	graph.SetLocalTransform(root, mgl32.Translate3D(0, 3, 0))

	for _, i := range []int{root, arm, hand, leg} {
		assert.False(t, graph.nodes[i].worldDirty, "node %d", i)
	}
	assert.InDelta(t, 3, graph.nodes[hand].world.Col(3)[1], 1e-6)

	// Non-root edits wait for Refresh.
	graph.SetLocalTransform(arm, mgl32.Translate3D(0, 1, 0))
	assert.True(t, graph.nodes[arm].worldDirty)
	assert.True(t, graph.nodes[hand].worldDirty)
	assert.False(t, graph.nodes[leg].worldDirty)

	assert.InDelta(t, 4, graph.WorldTransform(hand).Col(3)[1], 1e-6)

}

func TestAddInstancedNodePreservesOffsets(t *testing.T) {

	graph, root, arm, _, hand, leg := buildRig(t)

	group := NewGeometryGroup("Glove")
	assert.Equal(t, 0, graph.SetGeometry(hand, group))

	graph.SetLocalTranslation(arm, mgl32.Vec3{0, 5, 0})

	before := graph.Len()
	clone := graph.AddInstancedNode(root)
	offset := clone - root

	assert.Equal(t, before, clone)

	for _, i := range []int{root, arm, hand, leg} {
		original, copied := graph.Node(i), graph.Node(i+offset)
		assert.Equal(t, original.Name(), copied.Name())
		assert.Equal(t, original.ChildOffsets(), copied.ChildOffsets())
		assert.Equal(t, original.LocalTransform(), copied.LocalTransform())
		if i != root {
			assert.Equal(t, original.ParentOffset(), copied.ParentOffset())
		}
	}

	assert.True(t, graph.IsRoot(clone))
	assert.True(t, graph.Node(clone+2).Vacant(), "the stray's spot in the copy is filler")

	assert.Same(t, group, graph.Node(hand+offset).Geometry())
	assert.Equal(t, 1, graph.Node(hand+offset).InstanceSlot())
	assert.Equal(t, 2, group.ActiveInstanceCount())

	// Copies are independent.
	graph.SetLocalTranslation(arm+offset, mgl32.Vec3{0, -5, 0})
	assert.Equal(t, mgl32.Vec3{0, 5, 0}, graph.LocalTransform(arm).Translation)

}

func TestAddInstancedNodeOfChildAuthoredFirst(t *testing.T) {

	graph := NewNodeGraph()
	child := graph.AddNode("Child")
	parent := graph.AddNode("Parent")
	graph.AddAbsoluteChild(parent, child)

	clone := graph.AddInstancedNode(parent)

	require.Equal(t, []int{clone, clone - 1}, graph.Subtree(clone))
	assert.Equal(t, "Child", graph.Node(clone-1).Name())
	assert.Equal(t, 1, graph.Node(clone-1).ParentOffset())

}

func TestFindAndPath(t *testing.T) {

	graph, root, arm, _, hand, leg := buildRig(t)

	found, ok := graph.Find(root, "Arm/Hand")
	require.True(t, ok)
	assert.Equal(t, hand, found)

	found, ok = graph.Find(hand, "../../Leg")
	require.True(t, ok)
	assert.Equal(t, leg, found)

	_, ok = graph.Find(root, "Arm/Foot")
	assert.False(t, ok)

	_, ok = graph.Find(root, "..")
	assert.False(t, ok)

	assert.Equal(t, "Arm/Hand", graph.Path(hand))
	assert.Equal(t, "", graph.Path(root))

	found, ok = graph.Find(root, graph.Path(hand))
	require.True(t, ok)
	assert.Equal(t, hand, found)

	graph.SetName(arm, "Wing")
	_, ok = graph.Find(root, "Arm/Hand")
	assert.False(t, ok)

}

func TestHierarchyAsString(t *testing.T) {

	graph, root, _, _, hand, _ := buildRig(t)
	graph.SetGeometry(hand, NewGeometryGroup("Glove"))

	out := graph.HierarchyAsString(root)

	assert.Contains(t, out, "[ROOT] Root")
	assert.Contains(t, out, "[NODE] Arm")
	assert.Contains(t, out, "[GEOM] Hand")
	assert.Contains(t, out, "(Glove #0)")
	assert.NotContains(t, out, "Stray")

}

func TestSetGeometryTwicePanics(t *testing.T) {
	graph := NewNodeGraph()
	node := graph.AddNode("Box")
	graph.SetGeometry(node, NewGeometryGroup("Box"))
	assert.Panics(t, func() { graph.SetGeometry(node, NewGeometryGroup("Other")) })
	assert.Panics(t, func() { graph.SetGeometry(graph.AddNode("Empty"), nil) })
}
