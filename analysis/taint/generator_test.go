// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taint

import (
	"math/rand"

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
)

// generator produces random taint values over a small universe of kinds, methods, positions and features, so that
// random values often overlap.
type generator struct {
	rnd       *rand.Rand
	idx       *index.Index
	kinds     []index.Kind
	methods   []index.Method
	positions []index.Position
	features  []index.Feature
	fields    []index.Field
	ports     []access.AccessPath
}

func newGenerator(seed int64) *generator {
	idx := index.New()
	return &generator{
		rnd:       rand.New(rand.NewSource(seed)),
		idx:       idx,
		kinds:     []index.Kind{idx.Kind("UserInput"), idx.Kind("Sql"), idx.ArtificialSource()},
		methods:   []index.Method{idx.Method("pkg.A()"), idx.Method("pkg.B(int)")},
		positions: []index.Position{idx.Position("a.go", 10), idx.Position("b.go", 20)},
		features:  []index.Feature{idx.Feature("f1"), idx.Feature("f2"), idx.Feature("f3")},
		fields:    []index.Field{idx.Field("pkg.T.x"), idx.Field("pkg.T.y")},
		ports: []access.AccessPath{
			access.NewAccessPath(access.Argument(0)),
			access.NewAccessPath(access.Argument(1), access.FieldOf("x")),
			access.NewAccessPath(access.Return),
		},
	}
}

func pickSubset[T any](g *generator, xs []T) []T {
	var res []T
	for _, x := range xs {
		if g.rnd.Intn(2) == 0 {
			res = append(res, x)
		}
	}
	return res
}

func (g *generator) featureSet() FeatureSet {
	return lattice.NewSet(pickSubset(g, g.features)...)
}

func (g *generator) mayAlways() FeatureMayAlwaysSet {
	return NewFeatureMayAlwaysSet(g.featureSet(), g.featureSet())
}

func (g *generator) config() TaintConfig {
	c := TaintConfig{
		Kind:             g.kinds[g.rnd.Intn(len(g.kinds))],
		Origins:          lattice.NewSet(pickSubset(g, g.methods)...),
		FieldOrigins:     lattice.NewSet(pickSubset(g, g.fields)...),
		InferredFeatures: g.mayAlways(),
		UserFeatures:     g.featureSet(),
		LocalPositions:   lattice.NewSet(pickSubset(g, g.positions)...),
	}
	if g.rnd.Intn(3) == 0 {
		c.CalleePort = access.NewAccessPath(access.Leaf)
	} else {
		c.Callee = g.methods[g.rnd.Intn(len(g.methods))]
		c.CalleePort = g.ports[g.rnd.Intn(len(g.ports))]
		c.CallPosition = g.positions[g.rnd.Intn(len(g.positions))]
		c.Distance = g.rnd.Intn(4)
		c.LocallyInferredFeatures = g.mayAlways()
		c.ViaTypeOfPorts = lattice.NewSet(pickSubset(g, []access.Root{access.Argument(0), access.Argument(1)})...)
	}
	if c.IsArtificialSource() {
		c.InputPaths = access.NewRootPathTrees(access.Argument(0), access.NewPathTree(access.Path{access.FieldOf("x")}))
	}
	return c
}

func (g *generator) taint(depth int) Taint {
	var t Taint
	for i := g.rnd.Intn(5); i > 0; i-- {
		t.Add(g.config())
	}
	if depth > 0 && g.rnd.Intn(4) == 0 {
		t.WriteEffect(CallChain, g.taint(depth-1))
	}
	return t
}
