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
	"strconv"
	"strings"

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
)

// A CanonicalName is a cross-repository identifier of an anchor or producer port. A template name contains the
// placeholder %programmatic_leaf_name%, replaced by the callee name when the frame is propagated.
type CanonicalName string

const (
	templatePrefix      = "T"
	instantiatedPrefix  = "I"
	leafNamePlaceholder = "%programmatic_leaf_name%"
)

// TemplateName returns the canonical name template.
func TemplateName(template string) CanonicalName {
	return CanonicalName(templatePrefix + template)
}

// InstantiatedName returns the instantiated canonical name.
func InstantiatedName(name string) CanonicalName {
	return CanonicalName(instantiatedPrefix + name)
}

// IsTemplate returns true when the name is a template.
func (c CanonicalName) IsTemplate() bool {
	return strings.HasPrefix(string(c), templatePrefix)
}

// Value returns the template or instantiated value of the name.
func (c CanonicalName) Value() string {
	if c == "" {
		return ""
	}
	return string(c)[1:]
}

// Instantiate returns the name where the leaf name placeholder is replaced by calleeName. Instantiated names cannot
// be instantiated again and return false.
func (c CanonicalName) Instantiate(calleeName string) (CanonicalName, bool) {
	if !c.IsTemplate() {
		return "", false
	}
	return InstantiatedName(strings.ReplaceAll(c.Value(), leafNamePlaceholder, calleeName)), true
}

func (c CanonicalName) toJSON() any {
	if c.IsTemplate() {
		return map[string]any{"template": c.Value()}
	}
	return map[string]any{"instantiated": c.Value()}
}

// Frame is a single taint fact: the taint kind flowing through calleePort of callee, called at callPosition.
// The zero Frame is bottom.
//
// Frames are values: the setters below modify a copy held by the caller, never a frame stored in a container.
type Frame struct {
	kind                    index.Kind
	calleePort              access.AccessPath
	callee                  index.Method
	fieldCallee             index.Field
	callPosition            index.Position
	distance                int
	origins                 lattice.Set[index.Method]
	fieldOrigins            lattice.Set[index.Field]
	inferredFeatures        FeatureMayAlwaysSet
	locallyInferredFeatures FeatureMayAlwaysSet
	userFeatures            FeatureSet
	viaTypeOfPorts          lattice.Set[access.Root]
	viaValueOfPorts         lattice.Set[access.Root]
	canonicalNames          lattice.Set[CanonicalName]
}

// LeafFrame returns a leaf frame of the given kind on the Leaf port.
func LeafFrame(kind index.Kind) Frame {
	return Frame{kind: kind, calleePort: access.NewAccessPath(access.Leaf)}
}

// Kind returns the taint kind of the frame.
func (f Frame) Kind() index.Kind { return f.kind }

// CalleePort returns the port of the callee through which the taint flows.
func (f Frame) CalleePort() access.AccessPath { return f.calleePort }

// Callee returns the callee of the frame, NoMethod for leaves.
func (f Frame) Callee() index.Method { return f.callee }

// FieldCallee returns the field the frame flows through, if any.
func (f Frame) FieldCallee() index.Field { return f.fieldCallee }

// CallPosition returns the position of the call, NoPosition for leaves.
func (f Frame) CallPosition() index.Position { return f.callPosition }

// Distance returns the number of calls between the frame and the origin of the taint.
func (f Frame) Distance() int { return f.distance }

// Origins returns the methods where the taint originates.
func (f Frame) Origins() lattice.Set[index.Method] { return f.origins }

// FieldOrigins returns the fields where the taint originates.
func (f Frame) FieldOrigins() lattice.Set[index.Field] { return f.fieldOrigins }

// InferredFeatures returns the features inferred in callees.
func (f Frame) InferredFeatures() FeatureMayAlwaysSet { return f.inferredFeatures }

// LocallyInferredFeatures returns the features inferred in the method holding the frame.
func (f Frame) LocallyInferredFeatures() FeatureMayAlwaysSet { return f.locallyInferredFeatures }

// UserFeatures returns the features declared in models.
func (f Frame) UserFeatures() FeatureSet { return f.userFeatures }

// ViaTypeOfPorts returns the ports whose type is added as a feature on propagation.
func (f Frame) ViaTypeOfPorts() lattice.Set[access.Root] { return f.viaTypeOfPorts }

// ViaValueOfPorts returns the ports whose constant value is added as a feature on propagation.
func (f Frame) ViaValueOfPorts() lattice.Set[access.Root] { return f.viaValueOfPorts }

// CanonicalNames returns the cross-repository names of the frame.
func (f Frame) CanonicalNames() lattice.Set[CanonicalName] { return f.canonicalNames }

// IsBottom returns true on the bottom frame.
func (f Frame) IsBottom() bool { return f.kind == index.NoKind }

// IsLeaf returns true when the frame has no callee.
func (f Frame) IsLeaf() bool { return f.callee == index.NoMethod }

// IsArtificialSource returns true when the frame tracks an argument of the method rather than real taint.
func (f Frame) IsArtificialSource() bool { return f.kind.IsArtificialSource() }

// IsCRTEXProducerDeclaration returns true on leaf frames of anchor ports with canonical names.
func (f Frame) IsCRTEXProducerDeclaration() bool {
	return f.calleePort.Root == access.Anchor && !f.canonicalNames.IsEmpty()
}

// Features returns all the features of the frame: inferred, locally inferred and user features, the latter being
// always features.
func (f Frame) Features() FeatureMayAlwaysSet {
	return f.inferredFeatures.Add(f.locallyInferredFeatures).AddAlways(f.userFeatures)
}

// SetOrigins sets the origins of the frame.
func (f *Frame) SetOrigins(origins lattice.Set[index.Method]) { f.origins = origins }

// SetFieldOrigins sets the field origins of the frame.
func (f *Frame) SetFieldOrigins(origins lattice.Set[index.Field]) { f.fieldOrigins = origins }

// SetFieldCallee sets the field the frame flows through.
func (f *Frame) SetFieldCallee(field index.Field) { f.fieldCallee = field }

// AddInferredFeatures adds features to the locally inferred features.
func (f *Frame) AddInferredFeatures(features FeatureMayAlwaysSet) {
	f.locallyInferredFeatures = f.locallyInferredFeatures.Add(features)
}

// WithKind returns the frame with another kind.
func (f Frame) WithKind(kind index.Kind) Frame {
	f.kind = kind
	return f
}

// sameGroup returns true when f and o can be compared and joined.
func (f Frame) sameGroup(o Frame) bool {
	return f.kind == o.kind && f.callee == o.callee && f.callPosition == o.callPosition &&
		f.calleePort.Equal(o.calleePort)
}

// Leq returns true when f is less or equal to o. Frames of different groups are incomparable.
func (f Frame) Leq(o Frame) bool {
	if f.IsBottom() {
		return true
	}
	if o.IsBottom() {
		return false
	}
	return f.sameGroup(o) &&
		f.distance >= o.distance &&
		f.origins.IsSubset(o.origins) &&
		f.fieldOrigins.IsSubset(o.fieldOrigins) &&
		f.inferredFeatures.Leq(o.inferredFeatures) &&
		f.locallyInferredFeatures.Leq(o.locallyInferredFeatures) &&
		f.userFeatures.IsSubset(o.userFeatures) &&
		f.viaTypeOfPorts.IsSubset(o.viaTypeOfPorts) &&
		f.viaValueOfPorts.IsSubset(o.viaValueOfPorts) &&
		f.canonicalNames.IsSubset(o.canonicalNames)
}

// Equals returns true when f and o are the same fact. The field callee is not compared.
func (f Frame) Equals(o Frame) bool {
	if f.IsBottom() || o.IsBottom() {
		return f.IsBottom() == o.IsBottom()
	}
	return f.sameGroup(o) &&
		f.distance == o.distance &&
		f.origins.Equals(o.origins) &&
		f.fieldOrigins.Equals(o.fieldOrigins) &&
		f.inferredFeatures.Equals(o.inferredFeatures) &&
		f.locallyInferredFeatures.Equals(o.locallyInferredFeatures) &&
		f.userFeatures.Equals(o.userFeatures) &&
		f.viaTypeOfPorts.Equals(o.viaTypeOfPorts) &&
		f.viaValueOfPorts.Equals(o.viaValueOfPorts) &&
		f.canonicalNames.Equals(o.canonicalNames)
}

// Join returns the least frame greater than f and o. Both frames must be in the same group. The field callee of
// the result is the lowest one set on f or o.
func (f Frame) Join(o Frame) Frame {
	if f.IsBottom() {
		return o
	}
	if o.IsBottom() {
		return f
	}
	if !f.sameGroup(o) {
		panic(fmt.Sprintf("cannot join frames of different groups: %s and %s", f, o))
	}
	res := f
	res.distance = min(f.distance, o.distance)
	if res.fieldCallee == index.NoField || (o.fieldCallee != index.NoField && o.fieldCallee < res.fieldCallee) {
		res.fieldCallee = o.fieldCallee
	}
	res.origins = f.origins.Union(o.origins)
	res.fieldOrigins = f.fieldOrigins.Union(o.fieldOrigins)
	res.inferredFeatures = f.inferredFeatures.Join(o.inferredFeatures)
	res.locallyInferredFeatures = f.locallyInferredFeatures.Join(o.locallyInferredFeatures)
	res.userFeatures = f.userFeatures.Union(o.userFeatures)
	res.viaTypeOfPorts = f.viaTypeOfPorts.Union(o.viaTypeOfPorts)
	res.viaValueOfPorts = f.viaValueOfPorts.Union(o.viaValueOfPorts)
	res.canonicalNames = f.canonicalNames.Union(o.canonicalNames)
	return res
}

// Widen is Join: frames have finite height once the distance is bounded.
func (f Frame) Widen(o Frame) Frame {
	return f.Join(o)
}

// Meet returns the greatest frame less than f and o, which is bottom for frames of different groups.
func (f Frame) Meet(o Frame) Frame {
	if f.IsBottom() || o.IsBottom() || !f.sameGroup(o) {
		return Frame{}
	}
	inferred := f.inferredFeatures.Meet(o.inferredFeatures)
	local := f.locallyInferredFeatures.Meet(o.locallyInferredFeatures)
	if inferred.IsBottom() || local.IsBottom() {
		return Frame{}
	}
	res := f
	res.distance = max(f.distance, o.distance)
	res.origins = f.origins.Intersect(o.origins)
	res.fieldOrigins = f.fieldOrigins.Intersect(o.fieldOrigins)
	res.inferredFeatures = inferred
	res.locallyInferredFeatures = local
	res.userFeatures = f.userFeatures.Intersect(o.userFeatures)
	res.viaTypeOfPorts = f.viaTypeOfPorts.Intersect(o.viaTypeOfPorts)
	res.viaValueOfPorts = f.viaValueOfPorts.Intersect(o.viaValueOfPorts)
	res.canonicalNames = f.canonicalNames.Intersect(o.canonicalNames)
	return res
}

// Narrow is Meet.
func (f Frame) Narrow(o Frame) Frame {
	return f.Meet(o)
}

func (f Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frame(kind=%d, callee_port=%s", uint64(f.kind), f.calleePort)
	if f.callee != index.NoMethod {
		fmt.Fprintf(&b, ", callee=%d", uint64(f.callee))
	} else if f.fieldCallee != index.NoField {
		fmt.Fprintf(&b, ", field_callee=%d", uint64(f.fieldCallee))
	}
	if f.callPosition != index.NoPosition {
		fmt.Fprintf(&b, ", call_position=%d", uint64(f.callPosition))
	}
	if f.distance != 0 {
		b.WriteString(", distance=" + strconv.Itoa(f.distance))
	}
	if !f.origins.IsEmpty() {
		fmt.Fprintf(&b, ", origins=%s", f.origins)
	}
	if !f.fieldOrigins.IsEmpty() {
		fmt.Fprintf(&b, ", field_origins=%s", f.fieldOrigins)
	}
	if !f.inferredFeatures.IsEmpty() {
		fmt.Fprintf(&b, ", inferred_features=%s", f.inferredFeatures)
	}
	if !f.locallyInferredFeatures.IsEmpty() {
		fmt.Fprintf(&b, ", locally_inferred_features=%s", f.locallyInferredFeatures)
	}
	if !f.userFeatures.IsEmpty() {
		fmt.Fprintf(&b, ", user_features=%s", f.userFeatures)
	}
	if !f.viaTypeOfPorts.IsEmpty() {
		fmt.Fprintf(&b, ", via_type_of_ports=%s", f.viaTypeOfPorts)
	}
	if !f.viaValueOfPorts.IsEmpty() {
		fmt.Fprintf(&b, ", via_value_of_ports=%s", f.viaValueOfPorts)
	}
	if !f.canonicalNames.IsEmpty() {
		fmt.Fprintf(&b, ", canonical_names=%s", f.canonicalNames)
	}
	b.WriteString(")")
	return b.String()
}
