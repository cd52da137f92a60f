// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tree

import (
	"github.com/born-ml/momo/internal/tree"
)

// Tree is a nested container of numeric leaves.
type Tree = tree.Tree

// Shape represents the dimensions of a leaf array.
type Shape = tree.Shape

// Common errors.
var (
	ErrShape             = tree.ErrShape
	ErrStructureMismatch = tree.ErrStructureMismatch
	ErrNilTree           = tree.ErrNilTree
	ErrNotScalar         = tree.ErrNotScalar
)

// NewLeaf creates a leaf holding a copy of data with the given shape.
func NewLeaf(data []float64, shape Shape) (*Tree, error) {
	return tree.NewLeaf(data, shape)
}

// Scalar creates a zero-dimensional leaf.
func Scalar(v float64) *Tree {
	return tree.Scalar(v)
}

// FromSlice creates a one-dimensional leaf holding a copy of data.
func FromSlice(data []float64) *Tree {
	return tree.FromSlice(data)
}

// NewNode creates a node from named children.
func NewNode(children map[string]*Tree) (*Tree, error) {
	return tree.NewNode(children)
}

// ZerosLike returns a zero tree with the structure of t.
func ZerosLike(t *Tree) *Tree {
	return tree.ZerosLike(t)
}

// Map applies f to every entry of t.
func Map(t *Tree, f func(x float64) float64) *Tree {
	return tree.Map(t, f)
}

// Map2 applies f to matching entries of a and b.
func Map2(a, b *Tree, f func(x, y float64) float64) (*Tree, error) {
	return tree.Map2(a, b, f)
}

// Scale returns alpha * t.
func Scale(t *Tree, alpha float64) *Tree {
	return tree.Scale(t, alpha)
}

// AddScaled returns a + alpha*b.
func AddScaled(a *Tree, alpha float64, b *Tree) (*Tree, error) {
	return tree.AddScaled(a, alpha, b)
}

// Apply returns params + updates.
func Apply(params, updates *Tree) (*Tree, error) {
	return tree.Apply(params, updates)
}

// Vdot returns the inner product of a and b summed over every leaf.
func Vdot(a, b *Tree) (float64, error) {
	return tree.Vdot(a, b)
}

// SameStructure reports whether a and b have identical node names and leaf shapes.
func SameStructure(a, b *Tree) bool {
	return tree.SameStructure(a, b)
}

// CheckStructure returns a descriptive error if a and b differ in structure.
func CheckStructure(a, b *Tree) error {
	return tree.CheckStructure(a, b)
}

// Rebuild returns a tree with the structure of like whose leaves are filled
// by leafData(path, shape).
func Rebuild(like *Tree, leafData func(path string, shape Shape) ([]float64, error)) (*Tree, error) {
	return tree.Rebuild(like, leafData)
}
