package tree

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Tree {
	t.Helper()

	w, err := NewLeaf([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	inner, err := NewNode(map[string]*Tree{
		"weight": w,
		"bias":   FromSlice([]float64{0.5, -0.5}),
	})
	require.NoError(t, err)
	root, err := NewNode(map[string]*Tree{
		"layer1": inner,
		"scale":  Scalar(2),
	})
	require.NoError(t, err)
	return root
}

func TestNewLeaf_ShapeMismatch(t *testing.T) {
	_, err := NewLeaf([]float64{1, 2, 3}, Shape{2, 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShape))

	_, err = NewLeaf(nil, Shape{-1})
	assert.ErrorIs(t, err, ErrShape)
}

func TestNewLeaf_CopiesInput(t *testing.T) {
	data := []float64{1, 2}
	leaf, err := NewLeaf(data, Shape{2})
	require.NoError(t, err)

	data[0] = 100
	assert.Equal(t, []float64{1, 2}, leaf.Data())
}

func TestNewNode_NilChild(t *testing.T) {
	_, err := NewNode(map[string]*Tree{"a": nil})
	assert.ErrorIs(t, err, ErrNilTree)
}

func TestTree_Accessors(t *testing.T) {
	root := sampleTree(t)

	assert.False(t, root.IsLeaf())
	assert.Equal(t, []string{"layer1", "scale"}, root.Names())
	assert.Equal(t, 9, root.NumElements())
	assert.Equal(t, 3, root.NumLeaves())
	assert.Nil(t, root.Child("missing"))

	w := root.Child("layer1").Child("weight")
	require.NotNil(t, w)
	assert.Equal(t, Shape{2, 3}, w.Shape())

	v, err := root.Child("scale").Item()
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = w.Item()
	assert.ErrorIs(t, err, ErrNotScalar)
}

func TestTree_WalkOrder(t *testing.T) {
	root := sampleTree(t)

	var paths []string
	root.Walk(func(path string, _ *Tree) {
		paths = append(paths, path)
	})
	assert.Equal(t, []string{"layer1.bias", "layer1.weight", "scale"}, paths)
}

func TestZerosLike(t *testing.T) {
	root := sampleTree(t)
	zeros := ZerosLike(root)

	assert.True(t, SameStructure(root, zeros))
	zeros.Walk(func(_ string, leaf *Tree) {
		for _, v := range leaf.Data() {
			assert.Equal(t, 0.0, v)
		}
	})
}

func TestCheckStructure(t *testing.T) {
	a := sampleTree(t)

	other, err := NewNode(map[string]*Tree{
		"layer1": FromSlice([]float64{1}),
		"scale":  Scalar(1),
	})
	require.NoError(t, err)

	err = CheckStructure(a, other)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructureMismatch)
	assert.Contains(t, err.Error(), "layer1")

	assert.ErrorIs(t, CheckStructure(a, nil), ErrNilTree)
	assert.True(t, SameStructure(a, a.Clone()))
	assert.False(t, SameStructure(FromSlice([]float64{1, 2}), FromSlice([]float64{1})))
}

func TestMap2(t *testing.T) {
	a := FromSlice([]float64{1, 2, 3})
	b := FromSlice([]float64{4, 5, 6})

	sum, err := Map2(a, b, func(x, y float64) float64 { return x + y })
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 9}, sum.Data())

	_, err = Map2(a, FromSlice([]float64{1}), func(x, y float64) float64 { return x })
	assert.ErrorIs(t, err, ErrStructureMismatch)
}

func TestMap_DoesNotMutateInput(t *testing.T) {
	root := sampleTree(t)
	before := root.Clone()

	doubled := Map(root, func(x float64) float64 { return 2 * x })

	assert.Equal(t, before.Child("layer1").Child("weight").Data(), root.Child("layer1").Child("weight").Data())
	assert.Equal(t, []float64{2, 4, 6, 8, 10, 12}, doubled.Child("layer1").Child("weight").Data())
}

func TestVdot(t *testing.T) {
	root := sampleTree(t)

	// 1+4+9+16+25+36 + 0.25+0.25 + 4
	got, err := Vdot(root, root)
	require.NoError(t, err)
	assert.InDelta(t, 95.5, got, 1e-12)

	_, err = Vdot(root, Scalar(1))
	assert.ErrorIs(t, err, ErrStructureMismatch)
}

func TestVdot_LargeLeaf(t *testing.T) {
	n := 100000
	x := make([]float64, n)
	y := make([]float64, n)
	var want float64
	for i := range x {
		x[i] = math.Sin(float64(i))
		y[i] = math.Cos(float64(i))
		want += x[i] * y[i]
	}

	got, err := Vdot(FromSlice(x), FromSlice(y))
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)

	again, err := Vdot(FromSlice(x), FromSlice(y))
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestScaleAddScaledApply(t *testing.T) {
	p := FromSlice([]float64{1, 2})
	u := FromSlice([]float64{0.5, -1})

	assert.Equal(t, []float64{3, 6}, Scale(p, 3).Data())

	as, err := AddScaled(p, 2, u)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 0}, as.Data())

	next, err := Apply(p, u)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 1}, next.Data())
	assert.Equal(t, []float64{1, 2}, p.Data())
}

func TestEmptyNode(t *testing.T) {
	empty, err := NewNode(nil)
	require.NoError(t, err)

	got, err := Vdot(empty, ZerosLike(empty))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
	assert.Equal(t, "{}", empty.String())
}

func TestRebuild(t *testing.T) {
	root := sampleTree(t)

	var seen []string
	filled, err := Rebuild(root, func(path string, shape Shape) ([]float64, error) {
		seen = append(seen, path)
		out := make([]float64, shape.NumElements())
		for i := range out {
			out[i] = 7
		}
		return out, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"layer1.bias", "layer1.weight", "scale"}, seen)
	assert.True(t, SameStructure(root, filled))
	assert.Equal(t, []float64{7, 7}, filled.Child("layer1").Child("bias").Data())

	_, err = Rebuild(root, func(string, Shape) ([]float64, error) {
		return []float64{1}, nil
	})
	assert.ErrorIs(t, err, ErrShape)
}
