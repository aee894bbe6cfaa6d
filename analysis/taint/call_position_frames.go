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
	"github.com/awslabs/ar-go-taint/internal/funcutil"
)

// bucket is the frame of one (kind, callee port) group together with what the containers store next to it.
type bucket struct {
	frame          Frame
	localPositions lattice.Set[index.Position]
	inputPaths     access.RootPathTrees
	outputPaths    access.RootPathTrees
}

func bucketOf(c TaintConfig) bucket {
	return bucket{
		frame:          c.Frame(),
		localPositions: c.LocalPositions,
		inputPaths:     c.InputPaths,
		outputPaths:    c.OutputPaths,
	}
}

func bucketKey(f Frame) string {
	return fmt.Sprintf("%016x|%s", uint64(f.kind), f.calleePort.Key())
}

func (b bucket) IsBottom() bool {
	return b.frame.IsBottom()
}

func (b bucket) Leq(o bucket) bool {
	if b.IsBottom() {
		return true
	}
	return b.frame.Leq(o.frame) &&
		b.localPositions.IsSubset(o.localPositions) &&
		b.inputPaths.Leq(o.inputPaths) &&
		b.outputPaths.Leq(o.outputPaths)
}

func (b bucket) Equals(o bucket) bool {
	if b.IsBottom() || o.IsBottom() {
		return b.IsBottom() == o.IsBottom()
	}
	return b.frame.Equals(o.frame) &&
		b.localPositions.Equals(o.localPositions) &&
		b.inputPaths.Equals(o.inputPaths) &&
		b.outputPaths.Equals(o.outputPaths)
}

func (b bucket) Join(o bucket) bucket {
	if b.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return b
	}
	return bucket{
		frame:          b.frame.Join(o.frame),
		localPositions: b.localPositions.Union(o.localPositions),
		inputPaths:     b.inputPaths.Join(o.inputPaths),
		outputPaths:    b.outputPaths.Join(o.outputPaths),
	}
}

func (b bucket) Widen(o bucket) bucket {
	return b.Join(o)
}

func (b bucket) Meet(o bucket) bucket {
	frame := b.frame.Meet(o.frame)
	if frame.IsBottom() {
		return bucket{}
	}
	return bucket{
		frame:          frame,
		localPositions: b.localPositions.Intersect(o.localPositions),
		inputPaths:     b.inputPaths.Meet(o.inputPaths),
		outputPaths:    b.outputPaths.Meet(o.outputPaths),
	}
}

func (b bucket) Narrow(o bucket) bucket {
	return b.Meet(o)
}

// CallPositionFrames is the set of frames of one call position, grouped by kind and callee port: frames with the
// same kind and callee port are joined. The zero CallPositionFrames is bottom.
type CallPositionFrames struct {
	position index.Position
	frames   lattice.Partition[string, bucket]
}

// NewCallPositionFrames returns the frames built from the configs, which must share their call position.
func NewCallPositionFrames(configs ...TaintConfig) CallPositionFrames {
	var c CallPositionFrames
	for _, config := range configs {
		c.Add(config)
	}
	return c
}

// Position returns the call position of the frames.
func (c CallPositionFrames) Position() index.Position {
	return c.position
}

// IsBottom returns true when there are no frames.
func (c CallPositionFrames) IsBottom() bool {
	return c.frames.IsBottom()
}

// Len returns the number of frames.
func (c CallPositionFrames) Len() int {
	return c.frames.Len()
}

// Add joins the frame of config into c.
func (c *CallPositionFrames) Add(config TaintConfig) {
	if c.IsBottom() {
		c.position = config.CallPosition
	} else if c.position != config.CallPosition {
		panic(fmt.Sprintf("adding frame at position %d to frames of position %d", config.CallPosition, c.position))
	}
	c.addBucket(bucketOf(config))
}

func (c *CallPositionFrames) addBucket(b bucket) {
	if b.IsBottom() {
		return
	}
	if c.IsBottom() {
		c.position = b.frame.callPosition
	}
	c.frames = c.frames.Update(bucketKey(b.frame), func(old bucket) bucket { return old.Join(b) })
}

// Leq returns true when every frame of c is less or equal to a frame of o.
func (c CallPositionFrames) Leq(o CallPositionFrames) bool {
	return c.frames.Leq(o.frames)
}

// Equals returns true when c and o have the same frames.
func (c CallPositionFrames) Equals(o CallPositionFrames) bool {
	return c.frames.Equals(o.frames)
}

func (c CallPositionFrames) withFrames(frames lattice.Partition[string, bucket], o CallPositionFrames) CallPositionFrames {
	position := c.position
	if c.IsBottom() {
		position = o.position
	}
	if frames.IsBottom() {
		return CallPositionFrames{}
	}
	return CallPositionFrames{position: position, frames: frames}
}

// Join returns the union of the frames of c and o, joining frames of the same group.
func (c CallPositionFrames) Join(o CallPositionFrames) CallPositionFrames {
	return c.withFrames(c.frames.Join(o.frames), o)
}

// Widen is Join.
func (c CallPositionFrames) Widen(o CallPositionFrames) CallPositionFrames {
	return c.withFrames(c.frames.Widen(o.frames), o)
}

// Meet returns the frames that are in both c and o.
func (c CallPositionFrames) Meet(o CallPositionFrames) CallPositionFrames {
	return c.withFrames(c.frames.Meet(o.frames), o)
}

// Narrow is Meet.
func (c CallPositionFrames) Narrow(o CallPositionFrames) CallPositionFrames {
	return c.withFrames(c.frames.Narrow(o.frames), o)
}

// JoinWith joins o into c.
func (c *CallPositionFrames) JoinWith(o CallPositionFrames) {
	*c = c.Join(o)
}

// Difference returns the frames of c that are not less or equal to the frame of the same group in o.
func (c CallPositionFrames) Difference(o CallPositionFrames) CallPositionFrames {
	frames := c.frames.Difference(o.frames, func(a, b bucket) bucket {
		if a.Leq(b) {
			return bucket{}
		}
		return a
	})
	return c.withFrames(frames, o)
}

// Each calls f on every frame, with the local positions stored next to it.
func (c CallPositionFrames) Each(f func(Frame, lattice.Set[index.Position])) {
	c.frames.Each(func(_ string, b bucket) { f(b.frame, b.localPositions) })
}

// Frames returns the frames in group order.
func (c CallPositionFrames) Frames() []Frame {
	res := make([]Frame, 0, c.Len())
	c.frames.Each(func(_ string, b bucket) { res = append(res, b.frame) })
	return res
}

func (c CallPositionFrames) mapBuckets(f func(bucket) bucket) CallPositionFrames {
	var res CallPositionFrames
	c.frames.Each(func(_ string, b bucket) { res.addBucket(f(b)) })
	return res
}

// Map returns the frames transformed by f. The transformation may change the group of a frame, in which case frames
// of the same new group are joined. Frames mapped to bottom are removed.
func (c CallPositionFrames) Map(f func(*Frame)) CallPositionFrames {
	return c.mapBuckets(func(b bucket) bucket {
		f(&b.frame)
		return b
	})
}

// FilterInvalidFrames removes the frames whose callee, callee port and kind are not valid.
func (c CallPositionFrames) FilterInvalidFrames(isValid func(index.Method, access.AccessPath, index.Kind) bool) CallPositionFrames {
	return c.mapBuckets(func(b bucket) bucket {
		if !isValid(b.frame.callee, b.frame.calleePort, b.frame.kind) {
			return bucket{}
		}
		return b
	})
}

// ContainsKind returns true when some frame has the kind.
func (c CallPositionFrames) ContainsKind(kind index.Kind) bool {
	return c.frames.Any(func(_ string, b bucket) bool { return b.frame.kind == kind })
}

// InputPaths returns the input paths of the artificial sources.
func (c CallPositionFrames) InputPaths() access.RootPathTrees {
	var res access.RootPathTrees
	c.frames.Each(func(_ string, b bucket) {
		if b.frame.IsArtificialSource() {
			res = res.Join(b.inputPaths)
		}
	})
	return res
}

// InferredFeatures returns the join of the inferred features of the frames, bottom if there are none.
func (c CallPositionFrames) InferredFeatures() FeatureMayAlwaysSet {
	res := BottomFeatures()
	c.frames.Each(func(_ string, b bucket) { res = res.Join(b.frame.inferredFeatures) })
	return res
}

// AddInferredFeatures adds the features to the locally inferred features of every frame.
func (c CallPositionFrames) AddInferredFeatures(features FeatureMayAlwaysSet) CallPositionFrames {
	if features.IsEmpty() {
		return c
	}
	return c.Map(func(f *Frame) { f.AddInferredFeatures(features) })
}

// AddInferredFeaturesToRealSources adds the features to the frames that are not artificial sources.
func (c CallPositionFrames) AddInferredFeaturesToRealSources(features FeatureMayAlwaysSet) CallPositionFrames {
	if features.IsEmpty() {
		return c
	}
	return c.Map(func(f *Frame) {
		if !f.IsArtificialSource() {
			f.AddInferredFeatures(features)
		}
	})
}

// LocalPositions returns the union of the local positions of the frames.
func (c CallPositionFrames) LocalPositions() lattice.Set[index.Position] {
	var res lattice.Set[index.Position]
	c.frames.Each(func(_ string, b bucket) { res = res.Union(b.localPositions) })
	return res
}

// AddLocalPosition adds the position to the local positions of every frame.
func (c CallPositionFrames) AddLocalPosition(position index.Position) CallPositionFrames {
	return c.mapBuckets(func(b bucket) bucket {
		b.localPositions = b.localPositions.Add(position)
		return b
	})
}

// SetLocalPositions replaces the local positions of every frame.
func (c CallPositionFrames) SetLocalPositions(positions lattice.Set[index.Position]) CallPositionFrames {
	return c.mapBuckets(func(b bucket) bucket {
		b.localPositions = positions
		return b
	})
}

// SetOriginsIfEmpty sets the origins of the frames that have none.
func (c CallPositionFrames) SetOriginsIfEmpty(origins lattice.Set[index.Method]) CallPositionFrames {
	return c.Map(func(f *Frame) {
		if f.origins.IsEmpty() {
			f.SetOrigins(origins)
		}
	})
}

// SetFieldOriginsIfEmptyWithFieldCallee sets the field origins of the frames that have none to the field, which also
// becomes their field callee.
func (c CallPositionFrames) SetFieldOriginsIfEmptyWithFieldCallee(field index.Field) CallPositionFrames {
	return c.Map(func(f *Frame) {
		if f.fieldOrigins.IsEmpty() {
			f.SetFieldOrigins(lattice.NewSet(field))
		}
		f.SetFieldCallee(field)
	})
}

// AppendToArtificialSourceInputPaths extends the input paths of the artificial sources by the element.
func (c CallPositionFrames) AppendToArtificialSourceInputPaths(e access.PathElement) CallPositionFrames {
	return c.mapBuckets(func(b bucket) bucket {
		if b.frame.IsArtificialSource() {
			b.inputPaths = b.inputPaths.AppendToAll(e)
		}
		return b
	})
}

// TransformKinds replaces the kind of every frame by the kinds returned by transform, adding the features returned
// by addFeatures (which may be nil) for the new kind. Frames mapped to no kind are removed.
func (c CallPositionFrames) TransformKinds(
	transform func(index.Kind) []index.Kind,
	addFeatures func(index.Kind) FeatureMayAlwaysSet) CallPositionFrames {
	var res CallPositionFrames
	c.frames.Each(func(_ string, b bucket) {
		kinds := transform(b.frame.kind)
		if len(kinds) == 1 && kinds[0] == b.frame.kind {
			res.addBucket(b)
			return
		}
		for _, kind := range kinds {
			nb := b
			nb.frame = b.frame.WithKind(kind)
			if addFeatures != nil {
				nb.frame.AddInferredFeatures(addFeatures(kind))
			}
			res.addBucket(nb)
		}
	})
	return res
}

// Propagation describes a call site through which frames of the callee summary are propagated into the caller.
type Propagation struct {
	// Index resolves the names of features and callees.
	Index *index.Index
	// Callee is the method called.
	Callee index.Method
	// CalleePort is the port of the callee the taint flows through, in the caller's frames.
	CalleePort access.AccessPath
	// CallPosition is the position of the call in the caller.
	CallPosition index.Position
	// MaxDistance is the distance after which frames are dropped.
	MaxDistance int
	// RegisterTypes are the types of the arguments at the call site, indexed by parameter position. An empty string
	// is an unknown type.
	RegisterTypes []string
	// ConstantArguments are the constant values of the arguments at the call site, indexed by parameter position.
	ConstantArguments []funcutil.Optional[string]
}

func (p Propagation) viaFeatures(f Frame) FeatureSet {
	var features []index.Feature
	f.viaTypeOfPorts.Each(func(r access.Root) {
		if r.IsArgument() && int(r.ParameterPosition()) < len(p.RegisterTypes) {
			features = append(features, p.Index.ViaTypeOfFeature(p.RegisterTypes[r.ParameterPosition()]))
		}
	})
	f.viaValueOfPorts.Each(func(r access.Root) {
		if r.IsArgument() && int(r.ParameterPosition()) < len(p.ConstantArguments) {
			features = append(features, p.Index.ViaValueOfFeature(p.ConstantArguments[r.ParameterPosition()]))
		}
	})
	return lattice.NewSet(features...)
}

func (p Propagation) canonicalNames(f Frame) lattice.Set[CanonicalName] {
	if f.canonicalNames.IsEmpty() || p.Callee == index.NoMethod {
		return lattice.Set[CanonicalName]{}
	}
	calleeName := p.Index.MethodName(p.Callee)
	var names []CanonicalName
	f.canonicalNames.Each(func(c CanonicalName) {
		if instantiated, ok := c.Instantiate(calleeName); ok {
			names = append(names, instantiated)
		}
	})
	return lattice.NewSet(names...)
}

// Propagate returns the frames of a caller calling the method whose summary contains c. Every resulting frame is
// attributed to the call, one call further from its origin. Frames at the maximum distance are dropped. Features of
// via-type-of and via-value-of ports are resolved with the arguments of the call.
//
// Artificial sources are not real taint: they keep a zero distance and their input paths.
func (c CallPositionFrames) Propagate(p Propagation) CallPositionFrames {
	var res CallPositionFrames
	c.frames.Each(func(_ string, b bucket) {
		f := b.frame
		nf := Frame{
			kind:         f.kind,
			calleePort:   p.CalleePort,
			callee:       p.Callee,
			callPosition: p.CallPosition,
			origins:      f.origins,
			fieldOrigins: f.fieldOrigins,
		}
		if f.IsArtificialSource() {
			nf.inferredFeatures = f.Features()
			res.addBucket(bucket{frame: nf, inputPaths: b.inputPaths, outputPaths: b.outputPaths})
			return
		}
		if f.distance >= p.MaxDistance {
			return
		}
		nf.distance = f.distance + 1
		nf.inferredFeatures = f.Features().AddAlways(p.viaFeatures(f))
		nf.canonicalNames = p.canonicalNames(f)
		res.addBucket(bucket{frame: nf})
	})
	if res.IsBottom() {
		return CallPositionFrames{}
	}
	res.position = p.CallPosition
	return res
}

// AttachPosition returns the frames moved to the call position. All the features of the frames become inferred
// features, as they would on propagation.
func (c CallPositionFrames) AttachPosition(position index.Position) CallPositionFrames {
	var res CallPositionFrames
	c.frames.Each(func(_ string, b bucket) {
		nb := b
		nb.frame.callPosition = position
		nb.frame.inferredFeatures = b.frame.Features()
		nb.frame.locallyInferredFeatures = FeatureMayAlwaysSet{}
		nb.frame.userFeatures = FeatureSet{}
		res.addBucket(nb)
	})
	return res
}

// MapPositions splits the frames by their new call position, computed from their callee port and the current
// position. Local positions are mapped by newLocalPositions.
func (c CallPositionFrames) MapPositions(
	newCallPosition func(access.AccessPath, index.Position) index.Position,
	newLocalPositions func(lattice.Set[index.Position]) lattice.Set[index.Position]) map[index.Position]CallPositionFrames {
	res := map[index.Position]CallPositionFrames{}
	c.frames.Each(func(_ string, b bucket) {
		position := newCallPosition(b.frame.calleePort, c.position)
		nb := b
		nb.frame.callPosition = position
		nb.localPositions = newLocalPositions(b.localPositions)
		frames := res[position]
		frames.addBucket(nb)
		res[position] = frames
	})
	return res
}

// ToJSON returns the list of JSON objects of the frames.
func (c CallPositionFrames) ToJSON(idx *index.Index) []any {
	res := make([]any, 0, c.Len())
	c.frames.Each(func(_ string, b bucket) {
		obj := b.frame.ToJSON(idx, b.localPositions)
		if !b.inputPaths.IsBottom() {
			obj["input_paths"] = pathsToJSON(b.inputPaths)
		}
		if !b.outputPaths.IsBottom() {
			obj["output_paths"] = pathsToJSON(b.outputPaths)
		}
		res = append(res, obj)
	})
	return res
}

func (c CallPositionFrames) String() string {
	frames := c.Frames()
	parts := make([]string, len(frames))
	for i, f := range frames {
		parts[i] = f.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
