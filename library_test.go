package nodegraph

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary(t *testing.T) {

	lib := NewLibrary()
	lib.AddAnimation("Run")
	walk := lib.AddAnimation("Walk")
	lib.AddAnimation("Idle")

	assert.Equal(t, []string{"Idle", "Run", "Walk"}, lib.Names())
	assert.Same(t, walk, lib.FindAnimation("Walk"))
	assert.Nil(t, lib.FindAnimation("Jump"))

}

func TestLibraryValidate(t *testing.T) {

	graph := NewNodeGraph()
	graph.AddNode("Root")

	lib := NewLibrary()
	_, err := lib.AddAnimation("Spin").AddRotationChannel(0, InterpolationLinear, []float32{0, 1}, []mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent()})
	require.NoError(t, err)
	require.NoError(t, lib.Validate(graph))

	channel, err := lib.AddAnimation("Drift").AddVectorChannel(5, PropertyTranslation, InterpolationLinear, []float32{0, 1}, make([]mgl32.Vec3, 2))
	require.NoError(t, err)
	assert.ErrorIs(t, lib.Validate(graph), ErrUnknownNode)

	channel.Node = 0
	channel.TimeSteps[1] = -1
	assert.ErrorIs(t, lib.Validate(graph), ErrTimeStepsNotIncreasing)

	channel.TimeSteps[1] = 1
	channel.Interpolation = Interpolation(5)
	assert.ErrorIs(t, lib.Validate(graph), ErrUnknownInterpolation)

}
