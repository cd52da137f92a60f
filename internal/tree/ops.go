package tree

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/momo/internal/parallel"
)

// parallelConfig controls how leaf-level loops are split across goroutines.
var parallelConfig = parallel.DefaultConfig()

// leafKernel fills dst[start:end] from the matching ranges of srcs.
type leafKernel func(dst []float64, srcs [][]float64, start, end int)

// zipLeaves checks that all trees share the structure of trees[0] and builds a
// new tree whose leaves are produced by kernel.
func zipLeaves(kernel leafKernel, trees ...*Tree) (*Tree, error) {
	for _, t := range trees[1:] {
		if err := CheckStructure(trees[0], t); err != nil {
			return nil, err
		}
	}
	return zip(kernel, trees), nil
}

func zip(kernel leafKernel, trees []*Tree) *Tree {
	first := trees[0]
	if first.leaf {
		srcs := make([][]float64, len(trees))
		for i, t := range trees {
			srcs[i] = t.data
		}
		dst := make([]float64, len(first.data))
		parallel.ForRange(len(dst), func(start, end int) {
			kernel(dst, srcs, start, end)
		}, parallelConfig)
		return &Tree{leaf: true, shape: first.shape.Clone(), data: dst}
	}

	names := make([]string, len(first.names))
	copy(names, first.names)
	kids := make([]*Tree, len(first.children))
	column := make([]*Tree, len(trees))
	for i := range first.children {
		for j, t := range trees {
			column[j] = t.children[i]
		}
		kids[i] = zip(kernel, column)
	}
	return &Tree{names: names, children: kids}
}

// ZerosLike returns a tree with the structure of t and every entry set to zero.
func ZerosLike(t *Tree) *Tree {
	if t.leaf {
		return &Tree{leaf: true, shape: t.shape.Clone(), data: make([]float64, len(t.data))}
	}
	names := make([]string, len(t.names))
	copy(names, t.names)
	kids := make([]*Tree, len(t.children))
	for i, c := range t.children {
		kids[i] = ZerosLike(c)
	}
	return &Tree{names: names, children: kids}
}

// Map applies f to every entry of t.
func Map(t *Tree, f func(x float64) float64) *Tree {
	return zip(func(dst []float64, srcs [][]float64, start, end int) {
		x := srcs[0]
		for i := start; i < end; i++ {
			dst[i] = f(x[i])
		}
	}, []*Tree{t})
}

// Map2 applies f to matching entries of a and b.
//
// Returns ErrStructureMismatch if a and b differ in structure.
func Map2(a, b *Tree, f func(x, y float64) float64) (*Tree, error) {
	return zipLeaves(func(dst []float64, srcs [][]float64, start, end int) {
		x, y := srcs[0], srcs[1]
		for i := start; i < end; i++ {
			dst[i] = f(x[i], y[i])
		}
	}, a, b)
}

// Scale returns alpha * t.
func Scale(t *Tree, alpha float64) *Tree {
	return zip(func(dst []float64, srcs [][]float64, start, end int) {
		floats.ScaleTo(dst[start:end], alpha, srcs[0][start:end])
	}, []*Tree{t})
}

// AddScaled returns a + alpha*b.
func AddScaled(a *Tree, alpha float64, b *Tree) (*Tree, error) {
	return zipLeaves(func(dst []float64, srcs [][]float64, start, end int) {
		floats.AddScaledTo(dst[start:end], srcs[0][start:end], alpha, srcs[1][start:end])
	}, a, b)
}

// Apply returns params + updates, the new parameters after an optimizer step.
func Apply(params, updates *Tree) (*Tree, error) {
	return zipLeaves(func(dst []float64, srcs [][]float64, start, end int) {
		floats.AddTo(dst[start:end], srcs[0][start:end], srcs[1][start:end])
	}, params, updates)
}

// Vdot returns the inner product of a and b summed over every leaf.
//
// Leaves are reduced in traversal order and each leaf is reduced in chunk
// order, so the result is reproducible for a given tree.
func Vdot(a, b *Tree) (float64, error) {
	if err := CheckStructure(a, b); err != nil {
		return 0, err
	}
	return vdot(a, b), nil
}

func vdot(a, b *Tree) float64 {
	if a.leaf {
		x, y := a.data, b.data
		return parallel.Sum(len(x), func(start, end int) float64 {
			return floats.Dot(x[start:end], y[start:end])
		}, parallelConfig)
	}
	var total float64
	for i := range a.children {
		total += vdot(a.children[i], b.children[i])
	}
	return total
}
