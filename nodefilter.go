package nodegraph

import (
	"regexp"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	nfSortModeNone = iota
	nfSortModeDistance
)

// NodeFilter represents a chain of node filters, executed in sequence to collect the desired Nodes
// out of a hierarchy. Filters are evaluated lazily when a result is requested, and the starting Node
// itself is never part of the result.
type NodeFilter struct {
	Filters        []func(index int) bool // The filters currently active on the NodeFilter.
	Graph          *NodeGraph
	Start          int  // The index of the root of the search.
	MaxDepth       int  // How deep to search below Start; less than zero searches the whole subtree.
	stopOnFiltered bool // If true, the children of a Node that fails the filters aren't searched
	sortMode       int
	reverseSort    bool
	sortTo         mgl32.Vec3
}

// Search returns a NodeFilter over the subtree of the Node at root.
func (graph *NodeGraph) Search(root int) NodeFilter {
	mustIndex(root, len(graph.nodes))
	return NodeFilter{
		Graph:    graph,
		Start:    root,
		MaxDepth: -1,
	}
}

func (nf NodeFilter) passes(index int) bool {
	for _, filter := range nf.Filters {
		if !filter(index) {
			return false
		}
	}
	return true
}

// walk visits the filtered Nodes in depth-first pre-order until visit returns false.
func (nf NodeFilter) walk(index, depth int, visit func(index int) bool) bool {

	if index != nf.Start {
		if nf.passes(index) {
			if !visit(index) {
				return false
			}
		} else if nf.stopOnFiltered {
			return true
		}
	}

	if nf.MaxDepth >= 0 && depth >= nf.MaxDepth {
		return true
	}

	for _, child := range nf.Graph.Children(index) {
		if !nf.walk(child, depth+1, visit) {
			return false
		}
	}

	return true

}

func (nf NodeFilter) execute() []int {

	out := []int{}
	nf.walk(nf.Start, 0, func(index int) bool {
		out = append(out, index)
		return true
	})

	if nf.sortMode == nfSortModeDistance {
		distance := func(index int) float32 {
			return nf.Graph.WorldTransform(index).Col(3).Vec3().Sub(nf.sortTo).LenSqr()
		}
		sort.SliceStable(out, func(i, j int) bool {
			if nf.reverseSort {
				return distance(out[i]) > distance(out[j])
			}
			return distance(out[i]) < distance(out[j])
		})
	}

	return out

}

// withFilter returns a copy of nf with filter appended. The copy never shares its Filters backing array with nf.
func (nf NodeFilter) withFilter(filter func(index int) bool) NodeFilter {
	nf.Filters = append(nf.Filters[:len(nf.Filters):len(nf.Filters)], filter)
	return nf
}

// ByFunc filters the selection by the provided function, which is given each candidate Node's index.
func (nf NodeFilter) ByFunc(filterFunc func(index int) bool) NodeFilter {
	return nf.withFilter(filterFunc)
}

// ByName allows you to filter a given selection of Nodes if their names are wholly equal
// to the provided name string.
func (nf NodeFilter) ByName(name string) NodeFilter {
	return nf.withFilter(func(index int) bool { return nf.Graph.nodes[index].name == name })
}

// ByRegex filters the selection by Node names using the given regex string. An invalid
// regex string matches nothing.
func (nf NodeFilter) ByRegex(regexString string) NodeFilter {
	re, err := regexp.Compile(regexString)
	return nf.withFilter(func(index int) bool {
		return err == nil && re.MatchString(nf.Graph.nodes[index].name)
	})
}

// ByGeometry keeps Nodes that draw group, or any GeometryGroup at all if group is nil.
func (nf NodeFilter) ByGeometry(group *GeometryGroup) NodeFilter {
	return nf.withFilter(func(index int) bool {
		geometry := nf.Graph.nodes[index].geometry
		return geometry != nil && (group == nil || geometry == group)
	})
}

// Live drops Nodes whose instances have been released.
func (nf NodeFilter) Live() NodeFilter {
	return nf.withFilter(func(index int) bool { return !nf.Graph.nodes[index].released })
}

// StopOnFiltered stops the search from descending into the children of Nodes that fail the filters.
func (nf NodeFilter) StopOnFiltered() NodeFilter {
	nf.stopOnFiltered = true
	return nf
}

// SetMaxDepth sets the maximum search depth of the NodeFilter; 1 searches only Start's children.
func (nf NodeFilter) SetMaxDepth(depth int) NodeFilter {
	nf.MaxDepth = depth
	return nf
}

// SortByDistance orders the results by the distance of their world positions to the given point, nearest first.
func (nf NodeFilter) SortByDistance(to mgl32.Vec3) NodeFilter {
	nf.sortMode = nfSortModeDistance
	nf.sortTo = to
	return nf
}

// SortReverse reverses the sort order.
func (nf NodeFilter) SortReverse() NodeFilter {
	nf.reverseSort = true
	return nf
}

// ForEach calls callback on each filtered Node, stopping early if it returns false. It doesn't allocate
// a result slice, and ignores sorting.
func (nf NodeFilter) ForEach(callback func(index int) bool) {
	nf.walk(nf.Start, 0, callback)
}

// First returns the first Node in the NodeFilter, or false if it's empty.
func (nf NodeFilter) First() (int, bool) {
	if nf.sortMode != nfSortModeNone {
		out := nf.execute()
		if len(out) == 0 {
			return 0, false
		}
		return out[0], true
	}
	result, found := 0, false
	nf.ForEach(func(index int) bool {
		result, found = index, true
		return false
	})
	return result, found
}

// Count returns the number of Nodes that fit the filter set.
func (nf NodeFilter) Count() int {
	count := 0
	nf.ForEach(func(int) bool {
		count++
		return true
	})
	return count
}

// IsEmpty returns true if the NodeFilter contains no Nodes.
func (nf NodeFilter) IsEmpty() bool {
	_, found := nf.First()
	return !found
}

// Indices returns the NodeFilter's results as a slice of Node indices.
func (nf NodeFilter) Indices() []int {
	return nf.execute()
}
