package nodegraph

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var gltfInterpolations = map[gltf.Interpolation]Interpolation{
	gltf.InterpolationLinear:      InterpolationLinear,
	gltf.InterpolationStep:        InterpolationStep,
	gltf.InterpolationCubicSpline: InterpolationCubicSpline,
}

// LoadGLTFAnimations converts every animation in doc into an Animation in lib. nodeMap maps glTF node indices
// to the indices of the Nodes they became; channels targeting a node missing from nodeMap, and morph target
// weight channels, are skipped with a warning. Animations left without any channels aren't added.
func LoadGLTFAnimations(doc *gltf.Document, lib *Library, nodeMap map[int]int) error {

	for animIndex, gltfAnim := range doc.Animations {

		name := gltfAnim.Name
		if name == "" {
			name = fmt.Sprintf("animation%d", animIndex)
		}

		anim := NewAnimation(name)

		for channelIndex, channel := range gltfAnim.Channels {

			if channel.Target.Node == nil {
				Logger().Warn("skipping glTF channel without target", "animation", name, "channel", channelIndex)
				continue
			}

			if target := int(*channel.Target.Node); target < 0 || target >= len(doc.Nodes) {
				return errors.Errorf("animation %q: channel %d targets node %d (document has %d)", name, channelIndex, target, len(doc.Nodes))
			}

			node, ok := nodeMap[int(*channel.Target.Node)]
			if !ok {
				Logger().Warn("skipping glTF channel for unmapped node", "animation", name, "channel", channelIndex, "node", int(*channel.Target.Node))
				continue
			}

			var property Property
			switch channel.Target.Path {
			case gltf.TRSTranslation:
				property = PropertyTranslation
			case gltf.TRSRotation:
				property = PropertyRotation
			case gltf.TRSScale:
				property = PropertyScale
			default:
				Logger().Warn("skipping unsupported glTF channel", "animation", name, "channel", channelIndex, "path", channel.Target.Path)
				continue
			}

			if channel.Sampler < 0 || channel.Sampler >= len(gltfAnim.Samplers) {
				return errors.Errorf("animation %q: channel %d uses sampler %d (animation has %d)", name, channelIndex, channel.Sampler, len(gltfAnim.Samplers))
			}

			sampler := gltfAnim.Samplers[channel.Sampler]

			interpolation, ok := gltfInterpolations[sampler.Interpolation]
			if !ok {
				return errors.Errorf("animation %q: channel %d has unknown interpolation %d", name, channelIndex, sampler.Interpolation)
			}

			timeSteps, values, err := readGLTFSampler(doc, sampler)
			if err != nil {
				return errors.Wrapf(err, "animation %q: channel %d", name, channelIndex)
			}

			if _, err := anim.AddChannel(node, property, interpolation, timeSteps, values); err != nil {
				return errors.Wrapf(err, "glTF channel %d", channelIndex)
			}

		}

		if anim.ChannelsCount() == 0 {
			Logger().Warn("skipping glTF animation without usable channels", "animation", name)
			continue
		}

		lib.Animations[name] = anim

	}

	return nil

}

func readGLTFSampler(doc *gltf.Document, sampler *gltf.AnimationSampler) ([]float32, []mgl32.Vec4, error) {

	for _, accessor := range []int{int(sampler.Input), int(sampler.Output)} {
		if accessor < 0 || accessor >= len(doc.Accessors) {
			return nil, nil, errors.Errorf("accessor %d out of range (document has %d)", accessor, len(doc.Accessors))
		}
	}

	input, err := modeler.ReadAccessor(doc, doc.Accessors[int(sampler.Input)], nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading input accessor")
	}

	timeSteps, ok := input.([]float32)
	if !ok {
		return nil, nil, errors.Errorf("input accessor holds %T, want []float32", input)
	}

	output, err := modeler.ReadAccessor(doc, doc.Accessors[int(sampler.Output)], nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading output accessor")
	}

	var values []mgl32.Vec4

	switch data := output.(type) {
	case [][3]float32:
		values = make([]mgl32.Vec4, len(data))
		for i, v := range data {
			values[i] = mgl32.Vec4{v[0], v[1], v[2], 0}
		}
	case [][4]float32:
		values = make([]mgl32.Vec4, len(data))
		for i, v := range data {
			values[i] = mgl32.Vec4(v)
		}
	default:
		return nil, nil, errors.Errorf("output accessor holds %T, want float32 vectors", output)
	}

	return timeSteps, values, nil

}

// gltfLocalMatrix returns a glTF node's local transform. Nodes carry either a matrix or separate
// translation, rotation, and scale; an identity (or unset) matrix means the TRS fields apply.
func gltfLocalMatrix(node *gltf.Node) mgl32.Mat4 {

	var matrix mgl32.Mat4
	for i, v := range node.Matrix {
		matrix[i] = float32(v)
	}

	if matrix != (mgl32.Mat4{}) && !matrix.ApproxEqual(mgl32.Ident4()) {
		return matrix
	}

	translation := mgl32.Vec3{float32(node.Translation[0]), float32(node.Translation[1]), float32(node.Translation[2])}

	rotation := QuatFromXYZW(mgl32.Vec4{float32(node.Rotation[0]), float32(node.Rotation[1]), float32(node.Rotation[2]), float32(node.Rotation[3])})
	if rotation.Len() == 0 {
		rotation = mgl32.QuatIdent()
	}

	scale := mgl32.Vec3{float32(node.Scale[0]), float32(node.Scale[1]), float32(node.Scale[2])}
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}

	return ComposeMatrix(translation, rotation, scale)

}

// NewTemplateFromGLTF builds a Template from the node hierarchy of one of doc's scenes, then loads doc's
// animations into the Template's Library. The scene's root nodes become children of the Template's root.
// meshes is asked for the GeometryGroup of each glTF mesh a node references; it may return nil for meshes
// that shouldn't be drawn, and may be nil itself to skip geometry entirely.
func NewTemplateFromGLTF(doc *gltf.Document, scene int, meshes func(mesh int) *GeometryGroup) (*Template, error) {

	if scene < 0 || scene >= len(doc.Scenes) {
		return nil, errors.Errorf("glTF scene %d out of range (document has %d)", scene, len(doc.Scenes))
	}

	gltfScene := doc.Scenes[scene]

	name := gltfScene.Name
	if name == "" {
		name = fmt.Sprintf("scene%d", scene)
	}

	t := NewTemplate(name)
	nodeMap := map[int]int{}
	groups := map[*GeometryGroup]bool{}

	var addNode func(gltfIndex, parent int) error

	addNode = func(gltfIndex, parent int) error {

		if gltfIndex < 0 || gltfIndex >= len(doc.Nodes) {
			return errors.Errorf("glTF node %d out of range (document has %d)", gltfIndex, len(doc.Nodes))
		}
		if _, visited := nodeMap[gltfIndex]; visited {
			return errors.Errorf("glTF node %d appears more than once in the hierarchy", gltfIndex)
		}

		gltfNode := doc.Nodes[gltfIndex]

		index := t.AddNode(parent, gltfNode.Name)
		nodeMap[gltfIndex] = index
		t.Graph.SetLocalTransform(index, gltfLocalMatrix(gltfNode))

		if gltfNode.Mesh != nil && meshes != nil {
			if group := meshes(int(*gltfNode.Mesh)); group != nil {
				t.Graph.AttachGeometry(index, group)
				if !groups[group] {
					groups[group] = true
					t.Geometry = append(t.Geometry, group)
				}
			}
		}

		for _, child := range gltfNode.Children {
			if err := addNode(int(child), index); err != nil {
				return err
			}
		}

		return nil

	}

	for _, root := range gltfScene.Nodes {
		if err := addNode(int(root), t.Root); err != nil {
			return nil, err
		}
	}

	if err := LoadGLTFAnimations(doc, t.Library, nodeMap); err != nil {
		return nil, err
	}

	return t, nil

}
