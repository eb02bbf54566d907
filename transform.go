package nodegraph

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a decomposed local transform with its composed matrix cached alongside.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3

	matrix mgl32.Mat4
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		matrix:   mgl32.Ident4(),
	}
}

// NewTransformFromMatrix decomposes m. The cached matrix keeps m verbatim rather than the recomposed
// value, so a matrix with shear survives until one of its components is edited.
func NewTransformFromMatrix(m mgl32.Mat4) Transform {
	t, r, s := DecomposeMatrix(m)
	return Transform{Translation: t, Rotation: r, Scale: s, matrix: m}
}

// Matrix returns the cached T * R * S matrix.
func (t Transform) Matrix() mgl32.Mat4 {
	return t.matrix
}

func (t *Transform) recompose() {
	t.matrix = ComposeMatrix(t.Translation, t.Rotation, t.Scale)
}
