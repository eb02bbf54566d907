package nodegraph

// Primitive is one drawable part of a GeometryGroup. Surface and Material are opaque handles owned by the
// renderer; nodegraph never inspects them.
type Primitive struct {
	Surface  any
	Material any
}

// GeometryGroup is drawable data shared by any number of Nodes, each occupying one dense instance slot.
// A Template owns its GeometryGroups; Nodes only refer to them.
type GeometryGroup struct {
	Name       string
	Primitives []Primitive
	InstanceAllocator
}

// NewGeometryGroup creates a GeometryGroup with no instances.
func NewGeometryGroup(name string, primitives ...Primitive) *GeometryGroup {
	return &GeometryGroup{
		Name:       name,
		Primitives: append([]Primitive{}, primitives...),
	}
}

// AddPrimitive appends a primitive to the group.
func (group *GeometryGroup) AddPrimitive(surface, material any) {
	group.Primitives = append(group.Primitives, Primitive{Surface: surface, Material: material})
}
