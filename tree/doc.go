// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tree provides nested, shape-preserving parameter containers.
//
// # Overview
//
// A Tree holds all trainable parameters of a model as one structured value.
// Leaves are row-major float64 arrays with a Shape; nodes hold named children
// in sorted order. Optimizer moments mirror the structure of the parameters.
//
// Operations:
//   - ZerosLike: zero tree with the same structure
//   - Map, Map2: structure-preserving elementwise maps
//   - Scale, AddScaled: linear combinations of trees
//   - Vdot: inner product reduced over every leaf
//   - Apply: params + updates after an optimizer step
//
// # Basic Usage
//
//	w, _ := tree.NewLeaf([]float64{0.1, 0.2, 0.3, 0.4}, tree.Shape{2, 2})
//	params, _ := tree.NewNode(map[string]*tree.Tree{
//	    "weight": w,
//	    "bias":   tree.FromSlice([]float64{0, 0}),
//	})
//
//	norm2, _ := tree.Vdot(params, params)
//	halved := tree.Map(params, func(x float64) float64 { return x / 2 })
package tree
