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
	"testing"

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
	"github.com/awslabs/ar-go-taint/internal/funcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxDistance = 7

type fixture struct {
	idx        *index.Index
	userInput  index.Kind
	sql        index.Kind
	source     index.Method
	callee     index.Method
	caller     index.Method
	position   index.Position
	otherPos   index.Position
	returnPort access.AccessPath
}

func newFixture() fixture {
	idx := index.New()
	return fixture{
		idx:        idx,
		userInput:  idx.Kind("UserInput"),
		sql:        idx.Kind("Sql"),
		source:     idx.Method("pkg.Source()"),
		callee:     idx.Method("pkg.Callee(string)"),
		caller:     idx.Method("pkg.Caller()"),
		position:   idx.Position("caller.go", 12),
		otherPos:   idx.Position("caller.go", 20),
		returnPort: access.NewAccessPath(access.Return),
	}
}

func (fx fixture) propagation(callee index.Method, position index.Position) Propagation {
	return Propagation{
		Index:        fx.idx,
		Callee:       callee,
		CalleePort:   fx.returnPort,
		CallPosition: position,
		MaxDistance:  maxDistance,
	}
}

func (fx fixture) frameAt(distance int) TaintConfig {
	return TaintConfig{
		Kind:         fx.userInput,
		CalleePort:   fx.returnPort,
		Callee:       fx.source,
		CallPosition: fx.otherPos,
		Distance:     distance,
		Origins:      lattice.NewSet(fx.source),
	}
}

func TestPropagateIncrementsDistance(t *testing.T) {
	fx := newFixture()
	for d := 0; d < maxDistance; d++ {
		frames := NewCalleeFrames(fx.frameAt(d))
		propagated := frames.Propagate(fx.propagation(fx.callee, fx.position))
		require.False(t, propagated.IsBottom(), "distance %d", d)
		assert.Equal(t, fx.callee, propagated.Callee())
		assert.Equal(t, []index.Position{fx.position}, propagated.Positions())

		result := propagated.At(fx.position).Frames()
		require.Len(t, result, 1)
		assert.Equal(t, d+1, result[0].Distance())
		assert.Equal(t, fx.position, result[0].CallPosition())
		assert.Equal(t, fx.callee, result[0].Callee())
		assert.True(t, result[0].CalleePort().Equal(fx.returnPort))
		assert.True(t, result[0].Origins().Contains(fx.source))
	}
}

func TestPropagateCutsOffAtMaximumDistance(t *testing.T) {
	fx := newFixture()
	for _, d := range []int{maxDistance, maxDistance + 1} {
		frames := NewCalleeFrames(fx.frameAt(d))
		assert.True(t, frames.Propagate(fx.propagation(fx.callee, fx.position)).IsBottom(), "distance %d", d)
	}

	// only the frame within the bound survives
	var taint Taint
	taint.Add(fx.frameAt(maxDistance))
	near := fx.frameAt(1)
	near.Kind = fx.sql
	taint.Add(near)
	propagated := taint.Propagate(fx.propagation(fx.callee, fx.position))
	frames := propagated.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, fx.sql, frames[0].Kind())
	assert.Equal(t, 2, frames[0].Distance())
}

func TestPropagateBottom(t *testing.T) {
	fx := newFixture()
	assert.True(t, CalleeFrames{}.Propagate(fx.propagation(fx.callee, fx.position)).IsBottom())
	assert.True(t, Taint{}.Propagate(fx.propagation(fx.callee, fx.position)).IsBottom())
	assert.True(t, TopTaint().Propagate(fx.propagation(fx.callee, fx.position)).IsTop())
}

func TestPropagateJoinsPositions(t *testing.T) {
	fx := newFixture()
	a := fx.frameAt(3)
	b := fx.frameAt(1)
	b.CallPosition = fx.idx.Position("callee.go", 99)
	frames := NewCalleeFrames(a, b)
	require.Len(t, frames.Positions(), 2)

	propagated := frames.Propagate(fx.propagation(fx.callee, fx.position))
	require.Len(t, propagated.Positions(), 1)
	result := propagated.At(fx.position).Frames()
	require.Len(t, result, 1)
	assert.Equal(t, 2, result[0].Distance())
}

func TestPropagateFeatures(t *testing.T) {
	fx := newFixture()
	user := fx.idx.Feature("user")
	local := fx.idx.Feature("local")
	config := fx.frameAt(0)
	config.UserFeatures = lattice.NewSet(user)
	config.LocallyInferredFeatures = MayFeatures(lattice.NewSet(local))
	config.ViaTypeOfPorts = lattice.NewSet(access.Argument(1), access.Argument(5))
	config.ViaValueOfPorts = lattice.NewSet(access.Argument(0))

	p := fx.propagation(fx.callee, fx.position)
	p.RegisterTypes = []string{"int", "string"}
	p.ConstantArguments = []funcutil.Optional[string]{funcutil.Some("SELECT")}
	result := NewTaint(config).Propagate(p).Frames()
	require.Len(t, result, 1)

	f := result[0]
	assert.True(t, f.InferredFeatures().Always().Contains(user))
	assert.True(t, f.InferredFeatures().Always().Contains(fx.idx.Feature("via-type:string")))
	assert.True(t, f.InferredFeatures().Always().Contains(fx.idx.Feature("via-value:SELECT")))
	assert.True(t, f.InferredFeatures().May().Contains(local))
	assert.False(t, f.InferredFeatures().Always().Contains(local))
	assert.True(t, f.UserFeatures().IsEmpty())
	assert.True(t, f.LocallyInferredFeatures().IsEmpty())
	assert.True(t, f.ViaTypeOfPorts().IsEmpty())
	assert.True(t, f.ViaValueOfPorts().IsEmpty())
}

func TestPropagateCanonicalNames(t *testing.T) {
	fx := newFixture()
	config := TaintConfig{
		Kind:       fx.userInput,
		CalleePort: access.NewAccessPath(access.Anchor, access.FieldOf("Argument(0)")),
		CanonicalNames: lattice.NewSet(
			TemplateName("%programmatic_leaf_name%/producer"),
			InstantiatedName("already"),
		),
	}
	assert.True(t, config.Frame().IsCRTEXProducerDeclaration())
	result := NewTaint(config).Propagate(fx.propagation(fx.callee, fx.position)).Frames()
	require.Len(t, result, 1)
	assert.Equal(t, []CanonicalName{InstantiatedName("pkg.Callee(string)/producer")},
		result[0].CanonicalNames().Elements())
}

func TestPropagateArtificialSource(t *testing.T) {
	fx := newFixture()
	paths := access.NewRootPathTrees(access.Argument(0), access.NewPathTree(access.Path{access.FieldOf("x")}))
	config := TaintConfig{
		Kind:       fx.idx.ArtificialSource(),
		CalleePort: access.NewAccessPath(access.Argument(0)),
		InputPaths: paths,
	}
	taint := NewTaint(config)
	assert.True(t, taint.InputPaths().Equals(paths))

	p := fx.propagation(fx.callee, fx.position)
	p.MaxDistance = 0
	propagated := taint.Propagate(p)
	frames := propagated.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, 0, frames[0].Distance())
	assert.True(t, frames[0].IsArtificialSource())
}

func TestAttachPosition(t *testing.T) {
	fx := newFixture()
	user := fx.idx.Feature("user")
	config := TaintConfig{
		Kind:           fx.userInput,
		CalleePort:     access.NewAccessPath(access.Leaf),
		UserFeatures:   lattice.NewSet(user),
		LocalPositions: lattice.NewSet(fx.otherPos),
	}
	attached := NewTaint(config).AttachPosition(fx.position)
	var frames []Frame
	attached.Visit(func(f Frame, local lattice.Set[index.Position]) {
		frames = append(frames, f)
		assert.True(t, local.Contains(fx.otherPos))
	})
	require.Len(t, frames, 1)
	assert.Equal(t, fx.position, frames[0].CallPosition())
	assert.True(t, frames[0].UserFeatures().IsEmpty())
	assert.True(t, frames[0].InferredFeatures().Always().Contains(user))
}

func TestUpdateNonLeafPositions(t *testing.T) {
	fx := newFixture()
	leaf := TaintConfig{Kind: fx.userInput, CalleePort: access.NewAccessPath(access.Leaf)}
	a := fx.frameAt(1)
	b := fx.frameAt(2)
	b.CallPosition = fx.position
	b.Kind = fx.sql
	merged := fx.idx.Position("merged.go", 1)
	taint := NewTaint(leaf, a, b)

	updated := taint.UpdateNonLeafPositions(
		func(callee index.Method, _ access.AccessPath, _ index.Position) index.Position {
			assert.Equal(t, fx.source, callee)
			return merged
		},
		func(positions lattice.Set[index.Position]) lattice.Set[index.Position] { return positions.Add(merged) })

	var sawLeaf bool
	updated.Each(func(c CalleeFrames) {
		if c.Callee() == index.NoMethod {
			sawLeaf = true
			assert.Equal(t, []index.Position{index.NoPosition}, c.Positions())
			return
		}
		assert.Equal(t, []index.Position{merged}, c.Positions())
		assert.Equal(t, 2, c.At(merged).Len())
		assert.True(t, c.LocalPositions().Contains(merged))
	})
	assert.True(t, sawLeaf)
}

func TestCalleeMismatchPanics(t *testing.T) {
	fx := newFixture()
	a := NewCalleeFrames(fx.frameAt(1))
	other := fx.frameAt(1)
	other.Callee = fx.caller
	b := NewCalleeFrames(other)
	assert.Panics(t, func() { a.Join(b) })
	assert.Panics(t, func() { a.Add(other) })
	assert.NotPanics(t, func() { a.Join(CalleeFrames{}) })
}

func TestTopTaint(t *testing.T) {
	top := TopTaint()
	assert.Panics(t, func() { top.Visit(func(Frame, lattice.Set[index.Position]) {}) })
	assert.Panics(t, func() { top.Frames() })
	assert.Panics(t, func() { top.Effects().Visit(func(CallEffect, Taint) {}) })
	assert.True(t, top.ReadEffect(CallChain).IsTop())
	assert.True(t, top.Difference(Taint{}).IsTop())
	assert.True(t, Taint{}.Difference(top).IsBottom())
}

func TestTransformKinds(t *testing.T) {
	fx := newFixture()
	extra := fx.idx.Feature("transformed")
	taint := NewTaint(fx.frameAt(1))
	transformed := taint.TransformKinds(
		func(k index.Kind) []index.Kind { return []index.Kind{fx.sql, k} },
		func(k index.Kind) FeatureMayAlwaysSet {
			if k == fx.sql {
				return AlwaysFeatures(lattice.NewSet(extra))
			}
			return FeatureMayAlwaysSet{}
		})
	assert.True(t, transformed.ContainsKind(fx.sql))
	assert.True(t, transformed.ContainsKind(fx.userInput))
	for _, f := range transformed.Frames() {
		assert.Equal(t, f.Kind() == fx.sql, f.LocallyInferredFeatures().Always().Contains(extra))
	}

	removed := taint.TransformKinds(func(index.Kind) []index.Kind { return nil }, nil)
	assert.True(t, removed.IsBottom())
}

func TestFilterInvalidFrames(t *testing.T) {
	fx := newFixture()
	other := fx.frameAt(1)
	other.Kind = fx.sql
	taint := NewTaint(fx.frameAt(1), other)
	filtered := taint.FilterInvalidFrames(func(_ index.Method, _ access.AccessPath, k index.Kind) bool {
		return k != fx.sql
	})
	assert.False(t, filtered.ContainsKind(fx.sql))
	assert.True(t, filtered.ContainsKind(fx.userInput))
	assert.True(t, filtered.Leq(taint))
}

func TestCallEffectsWriteJoins(t *testing.T) {
	fx := newFixture()
	var effects CallEffectsAbstractDomain
	assert.True(t, effects.Read(CallChain).IsBottom())

	first := NewTaint(fx.frameAt(1))
	second := fx.frameAt(2)
	second.Kind = fx.sql
	effects.Write(CallChain, first)
	effects.Write(CallChain, NewTaint(second))
	read := effects.Read(CallChain)
	assert.True(t, first.Leq(read))
	assert.True(t, read.ContainsKind(fx.sql))

	visited := 0
	effects.Visit(func(e CallEffect, taint Taint) {
		visited++
		assert.Equal(t, CallChain, e)
	})
	assert.Equal(t, 1, visited)

	mapped := effects.Map(func(taint Taint) Taint { return taint.AddLocalPosition(fx.position) })
	assert.True(t, mapped.Read(CallChain).LocalPositions().Contains(fx.position))
	assert.True(t, effects.Read(CallChain).LocalPositions().IsEmpty())
}

func TestTaintJSONRoundTrip(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		g := newGenerator(seed)
		original := g.taint(2)
		parsed, err := TaintFromJSON(g.idx, original.ToJSON(g.idx))
		require.NoError(t, err)
		assert.True(t, original.Equals(parsed), "seed %d:\n%s\n%s", seed, original, parsed)
	}
}

func TestCallEffectsJSONRoundTrip(t *testing.T) {
	fx := newFixture()
	var effects CallEffectsAbstractDomain
	effects.Write(CallChain, NewTaint(fx.frameAt(1)))
	value := effects.ToJSON(fx.idx)
	require.Len(t, value, 1)
	assert.Equal(t, "CallEffect.call-chain", value[0].(map[string]any)["port"])
	parsed, err := CallEffectsFromJSON(fx.idx, value)
	require.NoError(t, err)
	assert.True(t, effects.Equals(parsed))
}

func TestTaintMeetAndNarrow(t *testing.T) {
	fx := newFixture()
	var bottom Taint
	assert.True(t, bottom.Meet(bottom).IsBottom())
	assert.True(t, bottom.Narrow(bottom).IsBottom())

	a := NewTaint(fx.frameAt(1))
	a.WriteEffect(CallChain, NewTaint(fx.frameAt(2)))
	assert.True(t, a.Meet(bottom).IsBottom())
	assert.True(t, bottom.Meet(a).IsBottom())
	assert.True(t, a.Meet(a).Equals(a))
	assert.True(t, a.Narrow(TopTaint()).Equals(a))

	b := NewTaint(fx.frameAt(3))
	met := a.Meet(b)
	assert.True(t, met.Leq(a))
	assert.True(t, met.Leq(b))
	assert.True(t, met.ReadEffect(CallChain).IsBottom())

	var effects CallEffectsAbstractDomain
	assert.True(t, effects.Meet(a.Effects()).IsBottom())
	assert.True(t, a.Effects().Meet(a.Effects()).Equals(a.Effects()))

	var sinks lattice.Partition[access.Root, Taint]
	sinks = sinks.Set(access.Argument(0), a)
	assert.True(t, sinks.Meet(sinks).Equals(sinks))
}

func TestFrameJoinFieldCalleeIsOrderIndependent(t *testing.T) {
	fx := newFixture()
	first, second := fx.idx.Field("pkg.T.a"), fx.idx.Field("pkg.T.b")
	config := TaintConfig{Kind: fx.userInput, CalleePort: access.NewAccessPath(access.Leaf)}
	a, b := config.Frame(), config.Frame()
	a.SetFieldCallee(second)
	b.SetFieldCallee(first)
	assert.Equal(t, first, a.Join(b).FieldCallee())
	assert.Equal(t, first, b.Join(a).FieldCallee())

	unset := config.Frame()
	assert.Equal(t, second, unset.Join(a).FieldCallee())
	assert.Equal(t, second, a.Join(unset).FieldCallee())
}
