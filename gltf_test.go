package nodegraph

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const robotGLTF = `{
	"asset": {"version": "2.0"},
	"scene": 0,
	"scenes": [{"name": "Robot", "nodes": [0]}],
	"nodes": [
		{"name": "Body", "children": [1], "translation": [1, 0, 0]},
		{"name": "Arm", "mesh": 0, "translation": [0, 2, 0]},
		{"name": "Loose"}
	],
	"animations": [
		{
			"name": "Wave",
			"channels": [
				{"sampler": 0, "target": {"node": 1, "path": "translation"}},
				{"sampler": 0, "target": {"node": 1, "path": "weights"}},
				{"sampler": 0, "target": {"node": 2, "path": "translation"}}
			],
			"samplers": [{"input": 0, "output": 1, "interpolation": "LINEAR"}]
		},
		{
			"name": "Unused",
			"channels": [{"sampler": 0, "target": {"node": 2, "path": "scale"}}],
			"samplers": [{"input": 0, "output": 1, "interpolation": "STEP"}]
		}
	]
}`

func loadRobot(t *testing.T) *gltf.Document {
	t.Helper()

	doc := new(gltf.Document)
	require.NoError(t, gltf.NewDecoder(strings.NewReader(robotGLTF)).Decode(doc))

	// Accessors 0 and 1, as referenced by the samplers above.
	doc.Buffers = append(doc.Buffers, new(gltf.Buffer))
	modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 1})
	modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{0, 2, 0}, {0, 4, 0}})

	return doc
}

func TestNewTemplateFromGLTF(t *testing.T) {

	doc := loadRobot(t)
	group := NewGeometryGroup("ArmMesh")

	tmpl, err := NewTemplateFromGLTF(doc, 0, func(mesh int) *GeometryGroup {
		assert.Equal(t, 0, mesh)
		return group
	})
	require.NoError(t, err)

	assert.Equal(t, "Robot", tmpl.Name)
	assert.Equal(t, 3, tmpl.Graph.Len(), "the loose node isn't part of the scene")

	arm, ok := tmpl.Graph.Find(tmpl.Root, "Body/Arm")
	require.True(t, ok)
	assert.Same(t, group, tmpl.Graph.Node(arm).Geometry())
	assert.Equal(t, []*GeometryGroup{group}, tmpl.Geometry)

	assert.InDelta(t, 2, tmpl.Graph.LocalTransform(arm).Translation[1], 1e-6)
	pos := tmpl.Graph.WorldTransform(arm).Col(3)
	assert.InDelta(t, 1, pos[0], 1e-6)
	assert.InDelta(t, 2, pos[1], 1e-6)

	assert.Equal(t, []string{"Wave"}, tmpl.Library.Names(), "animations without mapped channels are dropped")
	wave := tmpl.Library.FindAnimation("Wave")
	require.Equal(t, 1, wave.ChannelsCount())
	assert.Equal(t, []int{arm}, wave.Nodes())

	inst := tmpl.Instantiate()
	inst.Player.Start("Wave", 1, 1)
	inst.Update(0.5)

	pos = inst.WorldTransform(arm).Col(3)
	assert.InDelta(t, 1, pos[0], 1e-5)
	assert.InDelta(t, 3, pos[1], 1e-5)
	assert.Equal(t, 1, group.ActiveInstanceCount())

}

func TestLoadGLTFAnimationsSkipsUnmappedNodes(t *testing.T) {

	doc := loadRobot(t)
	lib := NewLibrary()

	require.NoError(t, LoadGLTFAnimations(doc, lib, map[int]int{}))
	assert.Empty(t, lib.Names())

	require.NoError(t, LoadGLTFAnimations(doc, lib, map[int]int{2: 7}))
	assert.Equal(t, []string{"Unused", "Wave"}, lib.Names())

	channel := lib.FindAnimation("Unused").Channels(7)[0]
	assert.Equal(t, PropertyScale, channel.Property)
	assert.Equal(t, InterpolationStep, channel.Interpolation)
	assert.Equal(t, []float32{0, 1}, channel.TimeSteps)
	assert.Equal(t, mgl32.Vec4{0, 4, 0, 0}, channel.Keyframe(1))

}

func TestNewTemplateFromGLTFBadScene(t *testing.T) {
	doc := loadRobot(t)
	_, err := NewTemplateFromGLTF(doc, 3, nil)
	assert.Error(t, err)
}

func TestLoadGLTFAnimationsRejectsBadIndices(t *testing.T) {

	nodeMap := map[int]int{1: 1, 2: 2}

	doc := loadRobot(t)
	doc.Animations[0].Channels[0].Sampler = 5
	err := LoadGLTFAnimations(doc, NewLibrary(), nodeMap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampler 5")

	doc = loadRobot(t)
	doc.Animations[0].Samplers[0].Input = 9
	err = LoadGLTFAnimations(doc, NewLibrary(), nodeMap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accessor 9")

	doc = loadRobot(t)
	doc.Animations[0].Samplers[0].Output = 9
	err = LoadGLTFAnimations(doc, NewLibrary(), nodeMap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accessor 9")

	doc = loadRobot(t)
	doc.Animations[0].Channels[0].Target.Node = gltf.Index(42)
	err = LoadGLTFAnimations(doc, NewLibrary(), nodeMap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node 42")

}
