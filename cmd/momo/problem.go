package main

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/momo/tree"
)

// leastSquares is the regression objective f(w, b) = 1/(2n) * ||Xw + b - y||².
// Without noise its minimum is exactly zero, so lb = 0 is tight.
type leastSquares struct {
	x *mat.Dense    // n×d design matrix
	y *mat.VecDense // n targets
}

// newLeastSquares samples a random problem with Gaussian features and
// targets y = X w* + b* + noise.
func newLeastSquares(n, d int, noise float64, rng *rand.Rand) *leastSquares {
	xData := make([]float64, n*d)
	for i := range xData {
		xData[i] = rng.NormFloat64()
	}
	x := mat.NewDense(n, d, xData)

	wTrue := make([]float64, d)
	for i := range wTrue {
		wTrue[i] = rng.NormFloat64()
	}
	bTrue := rng.NormFloat64()

	y := mat.NewVecDense(n, nil)
	y.MulVec(x, mat.NewVecDense(d, wTrue))
	for i := 0; i < n; i++ {
		y.SetVec(i, y.AtVec(i)+bTrue+noise*rng.NormFloat64())
	}

	return &leastSquares{x: x, y: y}
}

// initParams returns zero weights and bias.
func (p *leastSquares) initParams() *tree.Tree {
	_, d := p.x.Dims()
	params, _ := tree.NewNode(map[string]*tree.Tree{
		"weight": tree.FromSlice(make([]float64, d)),
		"bias":   tree.Scalar(0),
	})
	return params
}

// lossAndGrad evaluates the objective and its gradient at params.
func (p *leastSquares) lossAndGrad(params *tree.Tree) (float64, *tree.Tree, error) {
	n, d := p.x.Dims()

	weight := params.Child("weight")
	biasLeaf := params.Child("bias")
	if weight == nil || biasLeaf == nil {
		return 0, nil, fmt.Errorf("params must have weight and bias, got %v", params)
	}
	if !weight.Shape().Equal(tree.Shape{d}) {
		return 0, nil, fmt.Errorf("weight shape %v, want [%d]", weight.Shape(), d)
	}
	bias, err := biasLeaf.Item()
	if err != nil {
		return 0, nil, fmt.Errorf("bias: %w", err)
	}

	// r = Xw + b - y
	var r mat.VecDense
	r.MulVec(p.x, mat.NewVecDense(d, weight.Data()))
	r.SubVec(&r, p.y)
	for i := 0; i < n; i++ {
		r.SetVec(i, r.AtVec(i)+bias)
	}

	loss := mat.Dot(&r, &r) / float64(2*n)

	// dL/dw = Xᵀr / n, dL/db = sum(r) / n
	var gw mat.VecDense
	gw.MulVec(p.x.T(), &r)
	gw.ScaleVec(1/float64(n), &gw)
	gb := mat.Sum(&r) / float64(n)

	grads, err := tree.NewNode(map[string]*tree.Tree{
		"weight": tree.FromSlice(gw.RawVector().Data),
		"bias":   tree.Scalar(gb),
	})
	if err != nil {
		return 0, nil, err
	}
	return loss, grads, nil
}
