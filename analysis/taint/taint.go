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
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
)

// Taint is the taint of a port: frames grouped by callee, and the taint of call effects. The zero Taint is bottom.
// Top is the taint covering every fact; it has no frames and can be neither visited nor serialized.
type Taint struct {
	frames  lattice.Partition[index.Method, CalleeFrames]
	effects CallEffectsAbstractDomain
	top     bool
}

// NewTaint returns the taint containing the frames of the configs.
func NewTaint(configs ...TaintConfig) Taint {
	var t Taint
	for _, config := range configs {
		t.Add(config)
	}
	return t
}

// TopTaint returns the top taint.
func TopTaint() Taint {
	return Taint{top: true}
}

// IsBottom returns true when the taint has no frames and no effects.
func (t Taint) IsBottom() bool {
	return !t.top && t.frames.IsBottom() && t.effects.IsBottom()
}

// IsTop returns true on top.
func (t Taint) IsTop() bool {
	return t.top
}

// Add joins the frame of config into t. Adding to top does nothing.
func (t *Taint) Add(config TaintConfig) {
	if t.top {
		return
	}
	t.frames = t.frames.Update(config.Callee, func(old CalleeFrames) CalleeFrames {
		old.Add(config)
		return old
	})
}

// Effects returns the call effects of the taint.
func (t Taint) Effects() CallEffectsAbstractDomain {
	if t.top {
		return TopCallEffects()
	}
	return t.effects
}

// ReadEffect returns the taint of the call effect.
func (t Taint) ReadEffect(effect CallEffect) Taint {
	return t.Effects().Read(effect)
}

// WriteEffect joins taint into the taint of the call effect.
func (t *Taint) WriteEffect(effect CallEffect, value Taint) {
	if t.top {
		return
	}
	t.effects.Write(effect, value)
}

// Leq returns true when t is less or equal to o, on both frames and effects.
func (t Taint) Leq(o Taint) bool {
	if o.top {
		return true
	}
	if t.top {
		return false
	}
	return t.frames.Leq(o.frames) && t.effects.Leq(o.effects)
}

// Equals returns true when t and o have equal frames and effects.
func (t Taint) Equals(o Taint) bool {
	if t.top || o.top {
		return t.top == o.top
	}
	return t.frames.Equals(o.frames) && t.effects.Equals(o.effects)
}

// Join returns the join of t and o.
func (t Taint) Join(o Taint) Taint {
	if t.top || o.top {
		return TopTaint()
	}
	return Taint{frames: t.frames.Join(o.frames), effects: t.effects.Join(o.effects)}
}

// Widen returns the widening of t by o.
func (t Taint) Widen(o Taint) Taint {
	if t.top || o.top {
		return TopTaint()
	}
	return Taint{frames: t.frames.Widen(o.frames), effects: t.effects.Widen(o.effects)}
}

// Meet returns the meet of t and o.
func (t Taint) Meet(o Taint) Taint {
	if t.top {
		return o
	}
	if o.top {
		return t
	}
	return Taint{frames: t.frames.Meet(o.frames), effects: t.effects.Meet(o.effects)}
}

// Narrow returns the narrowing of t by o.
func (t Taint) Narrow(o Taint) Taint {
	if t.top {
		return o
	}
	if o.top {
		return t
	}
	return Taint{frames: t.frames.Narrow(o.frames), effects: t.effects.Narrow(o.effects)}
}

// Difference returns the facts of t that are not covered by o.
func (t Taint) Difference(o Taint) Taint {
	if o.top {
		return Taint{}
	}
	if t.top {
		return t
	}
	frames := t.frames.Difference(o.frames, func(a, b CalleeFrames) CalleeFrames { return a.Difference(b) })
	return Taint{frames: frames, effects: t.effects.Difference(o.effects)}
}

// JoinWith joins o into t.
func (t *Taint) JoinWith(o Taint) { *t = t.Join(o) }

// WidenWith widens t by o.
func (t *Taint) WidenWith(o Taint) { *t = t.Widen(o) }

// MeetWith meets t with o.
func (t *Taint) MeetWith(o Taint) { *t = t.Meet(o) }

// NarrowWith narrows t by o.
func (t *Taint) NarrowWith(o Taint) { *t = t.Narrow(o) }

// DifferenceWith removes from t the facts covered by o.
func (t *Taint) DifferenceWith(o Taint) { *t = t.Difference(o) }

func (t Taint) checkNotTop(operation string) {
	if t.top {
		panic(fmt.Sprintf("cannot %s top taint", operation))
	}
}

// Each calls f on the frames of every callee, leaves (NoMethod) first. Each panics on top.
func (t Taint) Each(f func(CalleeFrames)) {
	t.checkNotTop("visit")
	t.frames.Each(func(_ index.Method, frames CalleeFrames) { f(frames) })
}

// Visit calls f on every frame, with its local positions. Effects are not visited. Visit panics on top.
func (t Taint) Visit(f func(Frame, lattice.Set[index.Position])) {
	t.Each(func(callee CalleeFrames) {
		callee.Each(func(_ index.Position, frames CallPositionFrames) { frames.Each(f) })
	})
}

// Frames returns every frame of the taint, not including the taint of effects. Frames panics on top.
func (t Taint) Frames() []Frame {
	var res []Frame
	t.Visit(func(f Frame, _ lattice.Set[index.Position]) { res = append(res, f) })
	return res
}

// NumFrames returns the number of frames, including the frames of effects.
func (t Taint) NumFrames() int {
	if t.top {
		return 0
	}
	n := 0
	t.frames.Each(func(_ index.Method, callee CalleeFrames) {
		callee.Each(func(_ index.Position, frames CallPositionFrames) { n += frames.Len() })
	})
	t.effects.Visit(func(_ CallEffect, effect Taint) { n += effect.NumFrames() })
	return n
}

// mapCallees applies f to the frames of every callee, and to the frames of the effects.
func (t Taint) mapCallees(f func(CalleeFrames) CalleeFrames) Taint {
	if t.top {
		return t
	}
	return Taint{
		frames:  t.frames.Map(f),
		effects: t.effects.Map(func(effect Taint) Taint { return effect.mapCallees(f) }),
	}
}

// Map returns the taint where every frame is transformed by f, which must not change its callee or call position.
func (t Taint) Map(f func(*Frame)) Taint {
	return t.mapCallees(func(c CalleeFrames) CalleeFrames { return c.Map(f) })
}

// SetOriginsIfEmpty sets the origins of the frames that have none.
func (t Taint) SetOriginsIfEmpty(origins lattice.Set[index.Method]) Taint {
	return t.mapCallees(func(c CalleeFrames) CalleeFrames { return c.SetOriginsIfEmpty(origins) })
}

// SetFieldOriginsIfEmptyWithFieldCallee sets the field origins of the frames that have none, and their field callee.
func (t Taint) SetFieldOriginsIfEmptyWithFieldCallee(field index.Field) Taint {
	return t.mapCallees(func(c CalleeFrames) CalleeFrames { return c.SetFieldOriginsIfEmptyWithFieldCallee(field) })
}

// AddInferredFeatures adds the features to the locally inferred features of every frame.
func (t Taint) AddInferredFeatures(features FeatureMayAlwaysSet) Taint {
	if features.IsEmpty() {
		return t
	}
	return t.mapCallees(func(c CalleeFrames) CalleeFrames { return c.AddInferredFeatures(features) })
}

// AddInferredFeaturesToRealSources adds the features to the frames that are not artificial sources.
func (t Taint) AddInferredFeaturesToRealSources(features FeatureMayAlwaysSet) Taint {
	if features.IsEmpty() {
		return t
	}
	return t.mapCallees(func(c CalleeFrames) CalleeFrames { return c.AddInferredFeaturesToRealSources(features) })
}

// AddLocalPosition adds the position to the local positions of every frame.
func (t Taint) AddLocalPosition(position index.Position) Taint {
	return t.mapCallees(func(c CalleeFrames) CalleeFrames { return c.AddLocalPosition(position) })
}

// SetLocalPositions replaces the local positions of every frame.
func (t Taint) SetLocalPositions(positions lattice.Set[index.Position]) Taint {
	return t.mapCallees(func(c CalleeFrames) CalleeFrames { return c.SetLocalPositions(positions) })
}

// AddInferredFeaturesAndLocalPosition adds the features to every frame, and the position when it is not NoPosition.
func (t Taint) AddInferredFeaturesAndLocalPosition(features FeatureMayAlwaysSet, position index.Position) Taint {
	return t.mapCallees(func(c CalleeFrames) CalleeFrames {
		return c.AddInferredFeaturesAndLocalPosition(features, position)
	})
}

// TransformKinds replaces the kinds of the frames, see [CallPositionFrames.TransformKinds].
func (t Taint) TransformKinds(
	transform func(index.Kind) []index.Kind,
	addFeatures func(index.Kind) FeatureMayAlwaysSet) Taint {
	return t.mapCallees(func(c CalleeFrames) CalleeFrames { return c.TransformKinds(transform, addFeatures) })
}

// AppendToArtificialSourceInputPaths extends the input paths of the artificial sources by the element.
func (t Taint) AppendToArtificialSourceInputPaths(e access.PathElement) Taint {
	return t.mapCallees(func(c CalleeFrames) CalleeFrames { return c.AppendToArtificialSourceInputPaths(e) })
}

// FilterInvalidFrames removes the frames whose callee, callee port and kind are not valid.
func (t Taint) FilterInvalidFrames(isValid func(index.Method, access.AccessPath, index.Kind) bool) Taint {
	return t.mapCallees(func(c CalleeFrames) CalleeFrames { return c.FilterInvalidFrames(isValid) })
}

// UpdateNonLeafPositions remaps the positions of non-leaf frames, see [CalleeFrames.UpdateNonLeafPositions].
func (t Taint) UpdateNonLeafPositions(
	newCallPosition func(index.Method, access.AccessPath, index.Position) index.Position,
	newLocalPositions func(lattice.Set[index.Position]) lattice.Set[index.Position]) Taint {
	return t.mapCallees(func(c CalleeFrames) CalleeFrames {
		return c.UpdateNonLeafPositions(newCallPosition, newLocalPositions)
	})
}

// Propagate returns the taint of a caller calling the method whose summary is t, see [CalleeFrames.Propagate].
// The taint of the effects is propagated the same way. Propagating top returns top.
func (t Taint) Propagate(p Propagation) Taint {
	if t.top {
		return t
	}
	var res Taint
	t.frames.Each(func(_ index.Method, callee CalleeFrames) {
		propagated := callee.Propagate(p)
		if !propagated.IsBottom() {
			res.frames = res.frames.Update(p.Callee, func(old CalleeFrames) CalleeFrames { return old.Join(propagated) })
		}
	})
	res.effects = t.effects.Map(func(effect Taint) Taint { return effect.Propagate(p) })
	return res
}

// AttachPosition returns the taint moved to the position, see [CalleeFrames.AttachPosition].
func (t Taint) AttachPosition(position index.Position) Taint {
	if t.top {
		return t
	}
	var res Taint
	t.frames.Each(func(callee index.Method, frames CalleeFrames) {
		res.frames = res.frames.Set(callee, frames.AttachPosition(position))
	})
	res.effects = t.effects.Map(func(effect Taint) Taint { return effect.AttachPosition(position) })
	return res
}

// ContainsKind returns true when some frame, possibly of an effect, has the kind.
func (t Taint) ContainsKind(kind index.Kind) bool {
	if t.top {
		return false
	}
	if t.frames.Any(func(_ index.Method, c CalleeFrames) bool { return c.ContainsKind(kind) }) {
		return true
	}
	found := false
	t.effects.Visit(func(_ CallEffect, effect Taint) { found = found || effect.ContainsKind(kind) })
	return found
}

// InputPaths returns the input paths of the artificial sources of the leaf frames.
func (t Taint) InputPaths() access.RootPathTrees {
	leaves, _ := t.frames.Get(index.NoMethod)
	return leaves.InputPaths()
}

// InferredFeatures returns the join of the inferred features of all the frames.
func (t Taint) InferredFeatures() FeatureMayAlwaysSet {
	res := BottomFeatures()
	t.frames.Each(func(_ index.Method, c CalleeFrames) { res = res.Join(c.InferredFeatures()) })
	return res
}

// LocalPositions returns the union of the local positions of all the frames.
func (t Taint) LocalPositions() lattice.Set[index.Position] {
	var res lattice.Set[index.Position]
	t.frames.Each(func(_ index.Method, c CalleeFrames) { res = res.Union(c.LocalPositions()) })
	return res
}

// ToJSON returns the list of the JSON objects of the frames. The taint of each effect is an object
// {"call_effect": ..., "taint": [...]} of the list. ToJSON panics on top.
func (t Taint) ToJSON(idx *index.Index) []any {
	t.checkNotTop("serialize")
	res := []any{}
	t.frames.Each(func(_ index.Method, c CalleeFrames) {
		res = append(res, c.ToJSON(idx)...)
	})
	t.effects.Visit(func(effect CallEffect, effectTaint Taint) {
		res = append(res, map[string]any{"call_effect": effect.ToJSON(), "taint": effectTaint.ToJSON(idx)})
	})
	return res
}

// TaintFromJSON parses a list of frame objects. A null value is bottom.
func TaintFromJSON(idx *index.Index, value any) (Taint, error) {
	if value == nil {
		return Taint{}, nil
	}
	values, ok := value.([]any)
	if !ok {
		return Taint{}, jsonutil.NewError(value, "", "array of frames")
	}
	var t Taint
	for _, v := range values {
		obj, err := jsonutil.Object(v)
		if err != nil {
			return Taint{}, err
		}
		if effectValue, ok := obj["call_effect"]; ok {
			effect, err := CallEffectFromJSON(effectValue)
			if err != nil {
				return Taint{}, err
			}
			effectTaint, err := TaintFromJSON(idx, obj["taint"])
			if err != nil {
				return Taint{}, err
			}
			t.WriteEffect(effect, effectTaint)
			continue
		}
		config, err := TaintConfigFromJSON(idx, obj)
		if err != nil {
			return Taint{}, err
		}
		t.Add(config)
	}
	return t, nil
}

func (t Taint) String() string {
	if t.top {
		return "T"
	}
	var b strings.Builder
	b.WriteString("{")
	t.frames.Each(func(callee index.Method, c CalleeFrames) {
		fmt.Fprintf(&b, "%d: %s, ", uint64(callee), c)
	})
	if !t.effects.IsBottom() {
		b.WriteString("effects: " + t.effects.String())
	}
	b.WriteString("}")
	return b.String()
}
