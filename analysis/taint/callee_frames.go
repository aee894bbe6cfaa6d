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
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
)

// CalleeFrames maps call positions to the frames of one callee. The callee of leaf frames is NoMethod, and their
// position NoPosition. The zero CalleeFrames is bottom, and the callee of bottom is unconstrained.
type CalleeFrames struct {
	callee index.Method
	frames lattice.Partition[index.Position, CallPositionFrames]
}

// NewCalleeFrames returns the frames built from the configs, which must share their callee.
func NewCalleeFrames(configs ...TaintConfig) CalleeFrames {
	var c CalleeFrames
	for _, config := range configs {
		c.Add(config)
	}
	return c
}

// Callee returns the callee of the frames.
func (c CalleeFrames) Callee() index.Method {
	return c.callee
}

// IsBottom returns true when there are no frames.
func (c CalleeFrames) IsBottom() bool {
	return c.frames.IsBottom()
}

// Positions returns the call positions in increasing handle order.
func (c CalleeFrames) Positions() []index.Position {
	return c.frames.Keys()
}

// At returns the frames at the call position.
func (c CalleeFrames) At(position index.Position) CallPositionFrames {
	frames, _ := c.frames.Get(position)
	return frames
}

// Add joins the frame of config into c.
func (c *CalleeFrames) Add(config TaintConfig) {
	if c.IsBottom() {
		c.callee = config.Callee
	} else if c.callee != config.Callee {
		panic(fmt.Sprintf("adding frame of callee %d to frames of callee %d", config.Callee, c.callee))
	}
	c.frames = c.frames.Update(config.CallPosition, func(old CallPositionFrames) CallPositionFrames {
		old.Add(config)
		return old
	})
}

// checkCallee returns the callee of the combination of c and o, and panics when both have frames of different callees.
func (c CalleeFrames) checkCallee(o CalleeFrames) index.Method {
	switch {
	case c.IsBottom():
		return o.callee
	case o.IsBottom():
		return c.callee
	case c.callee != o.callee:
		panic(fmt.Sprintf("callee frames of different callees %d and %d", c.callee, o.callee))
	}
	return c.callee
}

func newCalleeFrames(callee index.Method, frames lattice.Partition[index.Position, CallPositionFrames]) CalleeFrames {
	if frames.IsBottom() {
		return CalleeFrames{}
	}
	return CalleeFrames{callee: callee, frames: frames}
}

// Leq returns true when c is less or equal to o, position by position.
func (c CalleeFrames) Leq(o CalleeFrames) bool {
	c.checkCallee(o)
	return c.frames.Leq(o.frames)
}

// Equals returns true when c and o have the same frames.
func (c CalleeFrames) Equals(o CalleeFrames) bool {
	c.checkCallee(o)
	return c.frames.Equals(o.frames)
}

// Join returns the position-wise join of c and o.
func (c CalleeFrames) Join(o CalleeFrames) CalleeFrames {
	return newCalleeFrames(c.checkCallee(o), c.frames.Join(o.frames))
}

// Widen returns the position-wise widening of c by o.
func (c CalleeFrames) Widen(o CalleeFrames) CalleeFrames {
	return newCalleeFrames(c.checkCallee(o), c.frames.Widen(o.frames))
}

// Meet returns the position-wise meet of c and o.
func (c CalleeFrames) Meet(o CalleeFrames) CalleeFrames {
	return newCalleeFrames(c.checkCallee(o), c.frames.Meet(o.frames))
}

// Narrow returns the position-wise narrowing of c by o.
func (c CalleeFrames) Narrow(o CalleeFrames) CalleeFrames {
	return newCalleeFrames(c.checkCallee(o), c.frames.Narrow(o.frames))
}

// JoinWith joins o into c.
func (c *CalleeFrames) JoinWith(o CalleeFrames) {
	*c = c.Join(o)
}

// Difference returns the frames of c that are not covered by o.
func (c CalleeFrames) Difference(o CalleeFrames) CalleeFrames {
	callee := c.checkCallee(o)
	return newCalleeFrames(callee, c.frames.Difference(o.frames, func(a, b CallPositionFrames) CallPositionFrames {
		return a.Difference(b)
	}))
}

// Each calls f on the frames of every call position.
func (c CalleeFrames) Each(f func(index.Position, CallPositionFrames)) {
	c.frames.Each(f)
}

func (c CalleeFrames) mapFrames(f func(CallPositionFrames) CallPositionFrames) CalleeFrames {
	return newCalleeFrames(c.callee, c.frames.Map(f))
}

// Map returns the frames transformed by f, which must not change their callee or call position.
func (c CalleeFrames) Map(f func(*Frame)) CalleeFrames {
	return c.mapFrames(func(frames CallPositionFrames) CallPositionFrames { return frames.Map(f) })
}

// SetOriginsIfEmpty sets the origins of the frames that have none.
func (c CalleeFrames) SetOriginsIfEmpty(origins lattice.Set[index.Method]) CalleeFrames {
	return c.mapFrames(func(frames CallPositionFrames) CallPositionFrames { return frames.SetOriginsIfEmpty(origins) })
}

// SetFieldOriginsIfEmptyWithFieldCallee sets the field origins of the frames that have none, and their field callee.
func (c CalleeFrames) SetFieldOriginsIfEmptyWithFieldCallee(field index.Field) CalleeFrames {
	return c.mapFrames(func(frames CallPositionFrames) CallPositionFrames {
		return frames.SetFieldOriginsIfEmptyWithFieldCallee(field)
	})
}

// InferredFeatures returns the join of the inferred features of all the frames.
func (c CalleeFrames) InferredFeatures() FeatureMayAlwaysSet {
	res := BottomFeatures()
	c.frames.Each(func(_ index.Position, frames CallPositionFrames) { res = res.Join(frames.InferredFeatures()) })
	return res
}

// AddInferredFeatures adds the features to the locally inferred features of every frame.
func (c CalleeFrames) AddInferredFeatures(features FeatureMayAlwaysSet) CalleeFrames {
	if features.IsEmpty() {
		return c
	}
	return c.mapFrames(func(frames CallPositionFrames) CallPositionFrames { return frames.AddInferredFeatures(features) })
}

// AddInferredFeaturesToRealSources adds the features to the frames that are not artificial sources.
func (c CalleeFrames) AddInferredFeaturesToRealSources(features FeatureMayAlwaysSet) CalleeFrames {
	return c.mapFrames(func(frames CallPositionFrames) CallPositionFrames {
		return frames.AddInferredFeaturesToRealSources(features)
	})
}

// LocalPositions returns the union of the local positions of all the frames.
func (c CalleeFrames) LocalPositions() lattice.Set[index.Position] {
	var res lattice.Set[index.Position]
	c.frames.Each(func(_ index.Position, frames CallPositionFrames) { res = res.Union(frames.LocalPositions()) })
	return res
}

// AddLocalPosition adds the position to the local positions of every frame.
func (c CalleeFrames) AddLocalPosition(position index.Position) CalleeFrames {
	return c.mapFrames(func(frames CallPositionFrames) CallPositionFrames { return frames.AddLocalPosition(position) })
}

// SetLocalPositions replaces the local positions of every frame.
func (c CalleeFrames) SetLocalPositions(positions lattice.Set[index.Position]) CalleeFrames {
	return c.mapFrames(func(frames CallPositionFrames) CallPositionFrames { return frames.SetLocalPositions(positions) })
}

// AddInferredFeaturesAndLocalPosition adds the features to every frame, and the position to their local positions
// when it is not NoPosition.
func (c CalleeFrames) AddInferredFeaturesAndLocalPosition(features FeatureMayAlwaysSet, position index.Position) CalleeFrames {
	res := c.AddInferredFeatures(features)
	if position != index.NoPosition {
		res = res.AddLocalPosition(position)
	}
	return res
}

// Propagate returns the frames of a caller calling the method whose summary contains c, all at the call position of
// the propagation and attributed to its callee. It returns bottom when every frame is beyond the maximum distance.
func (c CalleeFrames) Propagate(p Propagation) CalleeFrames {
	if c.IsBottom() {
		return CalleeFrames{}
	}
	var res CallPositionFrames
	c.frames.Each(func(_ index.Position, frames CallPositionFrames) {
		res.JoinWith(frames.Propagate(p))
	})
	if res.IsBottom() {
		return CalleeFrames{}
	}
	if res.Position() != p.CallPosition {
		panic(fmt.Sprintf("propagated frames at position %d instead of %d", res.Position(), p.CallPosition))
	}
	return CalleeFrames{
		callee: p.Callee,
		frames: lattice.Partition[index.Position, CallPositionFrames]{}.Set(p.CallPosition, res),
	}
}

// AttachPosition returns the frames moved to the position, with their features collapsed as on propagation.
func (c CalleeFrames) AttachPosition(position index.Position) CalleeFrames {
	var res CallPositionFrames
	c.frames.Each(func(_ index.Position, frames CallPositionFrames) {
		res.JoinWith(frames.AttachPosition(position))
	})
	if res.IsBottom() {
		return CalleeFrames{}
	}
	return CalleeFrames{
		callee: c.callee,
		frames: lattice.Partition[index.Position, CallPositionFrames]{}.Set(position, res),
	}
}

// TransformKinds replaces the kinds of the frames, see [CallPositionFrames.TransformKinds].
func (c CalleeFrames) TransformKinds(
	transform func(index.Kind) []index.Kind,
	addFeatures func(index.Kind) FeatureMayAlwaysSet) CalleeFrames {
	return c.mapFrames(func(frames CallPositionFrames) CallPositionFrames {
		return frames.TransformKinds(transform, addFeatures)
	})
}

// AppendToArtificialSourceInputPaths extends the input paths of the artificial sources by the element.
func (c CalleeFrames) AppendToArtificialSourceInputPaths(e access.PathElement) CalleeFrames {
	return c.mapFrames(func(frames CallPositionFrames) CallPositionFrames {
		return frames.AppendToArtificialSourceInputPaths(e)
	})
}

// UpdateNonLeafPositions remaps the call positions and local positions of non-leaf frames. The new call position of a
// frame is computed from the callee, its callee port and its current position. Frames mapped to the same position are
// joined. Leaf frames are left unchanged.
func (c CalleeFrames) UpdateNonLeafPositions(
	newCallPosition func(index.Method, access.AccessPath, index.Position) index.Position,
	newLocalPositions func(lattice.Set[index.Position]) lattice.Set[index.Position]) CalleeFrames {
	if c.callee == index.NoMethod {
		return c
	}
	var res lattice.Partition[index.Position, CallPositionFrames]
	c.frames.Each(func(_ index.Position, frames CallPositionFrames) {
		moved := frames.MapPositions(func(port access.AccessPath, position index.Position) index.Position {
			return newCallPosition(c.callee, port, position)
		}, newLocalPositions)
		for position, newFrames := range moved {
			res = res.Update(position, func(old CallPositionFrames) CallPositionFrames { return old.Join(newFrames) })
		}
	})
	return newCalleeFrames(c.callee, res)
}

// FilterInvalidFrames removes the frames whose callee, callee port and kind are not valid.
func (c CalleeFrames) FilterInvalidFrames(isValid func(index.Method, access.AccessPath, index.Kind) bool) CalleeFrames {
	return c.mapFrames(func(frames CallPositionFrames) CallPositionFrames { return frames.FilterInvalidFrames(isValid) })
}

// ContainsKind returns true when some frame has the kind.
func (c CalleeFrames) ContainsKind(kind index.Kind) bool {
	return c.frames.Any(func(_ index.Position, frames CallPositionFrames) bool { return frames.ContainsKind(kind) })
}

// InputPaths returns the input paths of the artificial sources of the leaf position.
func (c CalleeFrames) InputPaths() access.RootPathTrees {
	return c.At(index.NoPosition).InputPaths()
}

// ToJSON returns the list of JSON objects of the frames.
func (c CalleeFrames) ToJSON(idx *index.Index) []any {
	var res []any
	c.frames.Each(func(_ index.Position, frames CallPositionFrames) {
		res = append(res, frames.ToJSON(idx)...)
	})
	return res
}

func (c CalleeFrames) String() string {
	var b strings.Builder
	b.WriteString("[")
	c.frames.Each(func(position index.Position, frames CallPositionFrames) {
		fmt.Fprintf(&b, "FramesByPosition(position=%d, frames=%s),", uint64(position), frames)
	})
	b.WriteString("]")
	return b.String()
}
