// Package tree implements a nested, shape-preserving container of float64
// arrays used to hold model parameters, gradients and optimizer moments.
//
// A Tree is either:
//   - a leaf: a flat row-major []float64 with a Shape (scalars have an empty shape)
//   - a node: named children, kept in sorted name order
//
// Every operation in this package treats trees as values. Maps and
// arithmetic return freshly allocated trees and never modify their inputs.
//
// Example:
//
//	w, _ := tree.NewLeaf([]float64{0.1, 0.2, 0.3, 0.4}, tree.Shape{2, 2})
//	params, _ := tree.NewNode(map[string]*tree.Tree{
//	    "weight": w,
//	    "bias":   tree.Scalar(0),
//	})
//	zeros := tree.ZerosLike(params)
package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Tree is a nested container of numeric leaves.
type Tree struct {
	leaf     bool
	shape    Shape     // Leaf only
	data     []float64 // Leaf only, row-major
	names    []string  // Node only, sorted
	children []*Tree   // Node only, parallel to names
}

// NewLeaf creates a leaf holding a copy of data with the given shape.
//
// Returns an error if the shape is invalid or does not match len(data).
func NewLeaf(data []float64, shape Shape) (*Tree, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, got %d",
			ErrShape, shape, shape.NumElements(), len(data))
	}

	buf := make([]float64, len(data))
	copy(buf, data)
	return &Tree{leaf: true, shape: shape.Clone(), data: buf}, nil
}

// Scalar creates a zero-dimensional leaf.
func Scalar(v float64) *Tree {
	return &Tree{leaf: true, shape: Shape{}, data: []float64{v}}
}

// FromSlice creates a one-dimensional leaf holding a copy of data.
func FromSlice(data []float64) *Tree {
	buf := make([]float64, len(data))
	copy(buf, data)
	return &Tree{leaf: true, shape: Shape{len(data)}, data: buf}
}

// NewNode creates a node from named children.
//
// Children are stored in sorted name order so traversal is deterministic.
// Returns an error if any child is nil.
func NewNode(children map[string]*Tree) (*Tree, error) {
	names := make([]string, 0, len(children))
	for name, child := range children {
		if child == nil {
			return nil, fmt.Errorf("%w: child %q", ErrNilTree, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	kids := make([]*Tree, len(names))
	for i, name := range names {
		kids[i] = children[name]
	}
	return &Tree{names: names, children: kids}, nil
}

// IsLeaf reports whether t is a leaf.
func (t *Tree) IsLeaf() bool {
	return t.leaf
}

// Shape returns a copy of the leaf shape. Nodes return nil.
func (t *Tree) Shape() Shape {
	if !t.leaf {
		return nil
	}
	return t.shape.Clone()
}

// Data returns a copy of the leaf values. Nodes return nil.
func (t *Tree) Data() []float64 {
	if !t.leaf {
		return nil
	}
	out := make([]float64, len(t.data))
	copy(out, t.data)
	return out
}

// Item returns the value of a single-element leaf.
func (t *Tree) Item() (float64, error) {
	if !t.leaf || len(t.data) != 1 {
		return 0, ErrNotScalar
	}
	return t.data[0], nil
}

// Names returns the sorted child names of a node. Leaves return nil.
func (t *Tree) Names() []string {
	if t.leaf {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Child returns the named child, or nil if t is a leaf or has no such child.
func (t *Tree) Child(name string) *Tree {
	if t.leaf {
		return nil
	}
	i := sort.SearchStrings(t.names, name)
	if i < len(t.names) && t.names[i] == name {
		return t.children[i]
	}
	return nil
}

// NumElements returns the number of scalar entries across all leaves.
func (t *Tree) NumElements() int {
	if t.leaf {
		return len(t.data)
	}
	n := 0
	for _, c := range t.children {
		n += c.NumElements()
	}
	return n
}

// NumLeaves returns the number of leaves in t.
func (t *Tree) NumLeaves() int {
	if t.leaf {
		return 1
	}
	n := 0
	for _, c := range t.children {
		n += c.NumLeaves()
	}
	return n
}

// Walk calls fn for every leaf in deterministic order.
//
// Paths join child names with "."; the root leaf has the empty path.
// The leaf passed to fn must not be modified.
func (t *Tree) Walk(fn func(path string, leaf *Tree)) {
	t.walk(nil, fn)
}

func (t *Tree) walk(prefix []string, fn func(path string, leaf *Tree)) {
	if t.leaf {
		fn(strings.Join(prefix, "."), t)
		return
	}
	for i, c := range t.children {
		c.walk(append(prefix, t.names[i]), fn)
	}
}

// Clone returns a deep copy of t.
func (t *Tree) Clone() *Tree {
	if t.leaf {
		buf := make([]float64, len(t.data))
		copy(buf, t.data)
		return &Tree{leaf: true, shape: t.shape.Clone(), data: buf}
	}
	kids := make([]*Tree, len(t.children))
	for i, c := range t.children {
		kids[i] = c.Clone()
	}
	names := make([]string, len(t.names))
	copy(names, t.names)
	return &Tree{names: names, children: kids}
}

// String returns a compact description of the structure of t.
func (t *Tree) String() string {
	if t.leaf {
		return fmt.Sprintf("leaf%v", []int(t.shape))
	}
	parts := make([]string, len(t.children))
	for i, c := range t.children {
		parts[i] = t.names[i] + ":" + c.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// SameStructure reports whether a and b have identical node names and leaf shapes.
func SameStructure(a, b *Tree) bool {
	return CheckStructure(a, b) == nil
}

// CheckStructure returns a descriptive ErrStructureMismatch if a and b differ
// in structure, or ErrNilTree if either is nil.
func CheckStructure(a, b *Tree) error {
	if a == nil || b == nil {
		return ErrNilTree
	}
	return checkStructure("", a, b)
}

func checkStructure(path string, a, b *Tree) error {
	at := pathOrRoot(path)
	switch {
	case a.leaf != b.leaf:
		return fmt.Errorf("%w: at %s: leaf vs node", ErrStructureMismatch, at)
	case a.leaf:
		if !a.shape.Equal(b.shape) {
			return fmt.Errorf("%w: at %s: shape %v vs %v", ErrStructureMismatch, at, a.shape, b.shape)
		}
		return nil
	case len(a.names) != len(b.names):
		return fmt.Errorf("%w: at %s: %d children vs %d", ErrStructureMismatch, at, len(a.names), len(b.names))
	}

	for i, name := range a.names {
		if b.names[i] != name {
			return fmt.Errorf("%w: at %s: child %q vs %q", ErrStructureMismatch, at, name, b.names[i])
		}
		if err := checkStructure(joinPath(path, name), a.children[i], b.children[i]); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func pathOrRoot(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

// Rebuild returns a tree with the structure of like whose leaves are filled
// by leafData(path, shape). The returned slice must hold shape.NumElements()
// values and is copied.
func Rebuild(like *Tree, leafData func(path string, shape Shape) ([]float64, error)) (*Tree, error) {
	if like == nil {
		return nil, ErrNilTree
	}
	return rebuild("", like, leafData)
}

func rebuild(path string, like *Tree, leafData func(path string, shape Shape) ([]float64, error)) (*Tree, error) {
	if like.leaf {
		data, err := leafData(path, like.shape.Clone())
		if err != nil {
			return nil, err
		}
		return NewLeaf(data, like.shape)
	}

	names := make([]string, len(like.names))
	copy(names, like.names)
	kids := make([]*Tree, len(like.children))
	for i, c := range like.children {
		kid, err := rebuild(joinPath(path, like.names[i]), c, leafData)
		if err != nil {
			return nil, err
		}
		kids[i] = kid
	}
	return &Tree{names: names, children: kids}, nil
}
