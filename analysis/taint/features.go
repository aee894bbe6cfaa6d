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
	"sort"

	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
)

// A FeatureSet is a set of features.
type FeatureSet = lattice.Set[index.Feature]

// FeatureMayAlwaysSet tracks the features that may be present on some flow (may) and the features present on every
// flow (always). Always features are also may features.
//
// The zero value is the empty set, which is not bottom.
type FeatureMayAlwaysSet struct {
	may    FeatureSet
	always FeatureSet
	bottom bool
}

// BottomFeatures returns the bottom feature set.
func BottomFeatures() FeatureMayAlwaysSet {
	return FeatureMayAlwaysSet{bottom: true}
}

// NewFeatureMayAlwaysSet returns the set with the given may and always features.
func NewFeatureMayAlwaysSet(may, always FeatureSet) FeatureMayAlwaysSet {
	return FeatureMayAlwaysSet{may: may.Union(always), always: always}
}

// MayFeatures returns the set where all the features are may features.
func MayFeatures(features FeatureSet) FeatureMayAlwaysSet {
	return FeatureMayAlwaysSet{may: features}
}

// AlwaysFeatures returns the set where all the features are always features.
func AlwaysFeatures(features FeatureSet) FeatureMayAlwaysSet {
	return FeatureMayAlwaysSet{may: features, always: features}
}

// IsBottom returns true on the bottom feature set.
func (s FeatureMayAlwaysSet) IsBottom() bool {
	return s.bottom
}

// IsEmpty returns true when the set is not bottom and has no feature.
func (s FeatureMayAlwaysSet) IsEmpty() bool {
	return !s.bottom && s.may.IsEmpty()
}

// May returns the may features, which include the always features.
func (s FeatureMayAlwaysSet) May() FeatureSet {
	return s.may
}

// Always returns the always features.
func (s FeatureMayAlwaysSet) Always() FeatureSet {
	return s.always
}

// MayOnly returns the features that are may features and not always features.
func (s FeatureMayAlwaysSet) MayOnly() FeatureSet {
	return s.may.Difference(s.always)
}

// Leq returns true when s is less or equal to o.
func (s FeatureMayAlwaysSet) Leq(o FeatureMayAlwaysSet) bool {
	if s.bottom {
		return true
	}
	if o.bottom {
		return false
	}
	return s.may.IsSubset(o.may) && o.always.IsSubset(s.always)
}

// Equals returns true when s and o are equal.
func (s FeatureMayAlwaysSet) Equals(o FeatureMayAlwaysSet) bool {
	if s.bottom || o.bottom {
		return s.bottom == o.bottom
	}
	return s.may.Equals(o.may) && s.always.Equals(o.always)
}

// Join returns the features of flows described by s or o: may features are united, always features intersected.
func (s FeatureMayAlwaysSet) Join(o FeatureMayAlwaysSet) FeatureMayAlwaysSet {
	if s.bottom {
		return o
	}
	if o.bottom {
		return s
	}
	return FeatureMayAlwaysSet{may: s.may.Union(o.may), always: s.always.Intersect(o.always)}
}

// Meet returns the greatest lower bound of s and o. It is bottom when an always feature of one is not a may feature
// of the other.
func (s FeatureMayAlwaysSet) Meet(o FeatureMayAlwaysSet) FeatureMayAlwaysSet {
	if s.bottom || o.bottom {
		return BottomFeatures()
	}
	res := FeatureMayAlwaysSet{may: s.may.Intersect(o.may), always: s.always.Union(o.always)}
	if !res.always.IsSubset(res.may) {
		return BottomFeatures()
	}
	return res
}

// Add returns the features of flows that have both the features of s and o.
func (s FeatureMayAlwaysSet) Add(o FeatureMayAlwaysSet) FeatureMayAlwaysSet {
	if s.bottom {
		return o
	}
	if o.bottom {
		return s
	}
	return FeatureMayAlwaysSet{may: s.may.Union(o.may), always: s.always.Union(o.always)}
}

// AddAlways returns s where every feature of features is an always feature.
func (s FeatureMayAlwaysSet) AddAlways(features FeatureSet) FeatureMayAlwaysSet {
	if s.bottom {
		return AlwaysFeatures(features)
	}
	return FeatureMayAlwaysSet{may: s.may.Union(features), always: s.always.Union(features)}
}

// AddMay returns s where every feature of features is at least a may feature.
func (s FeatureMayAlwaysSet) AddMay(features FeatureSet) FeatureMayAlwaysSet {
	if s.bottom {
		return MayFeatures(features)
	}
	return FeatureMayAlwaysSet{may: s.may.Union(features), always: s.always}
}

func (s FeatureMayAlwaysSet) String() string {
	if s.bottom {
		return "_|_"
	}
	return fmt.Sprintf("{may=%s, always=%s}", s.MayOnly(), s.always)
}

func featureNames(idx *index.Index, s FeatureSet) []any {
	names := make([]string, 0, s.Len())
	s.Each(func(f index.Feature) { names = append(names, idx.FeatureName(f)) })
	sort.Strings(names)
	res := make([]any, len(names))
	for i, name := range names {
		res[i] = name
	}
	return res
}

func featuresFromJSON(idx *index.Index, obj map[string]any, field string) (FeatureSet, error) {
	names, err := jsonutil.StringList(obj, field)
	if err != nil {
		return FeatureSet{}, err
	}
	features := make([]index.Feature, len(names))
	for i, name := range names {
		features[i] = idx.Feature(name)
	}
	return lattice.NewSet(features...), nil
}

// toJSON adds the may_features and always_features members of the set to obj.
func (s FeatureMayAlwaysSet) toJSON(idx *index.Index, obj map[string]any) {
	if s.bottom {
		return
	}
	if mayOnly := s.MayOnly(); !mayOnly.IsEmpty() {
		obj["may_features"] = featureNames(idx, mayOnly)
	}
	if !s.always.IsEmpty() {
		obj["always_features"] = featureNames(idx, s.always)
	}
}

func featureMayAlwaysSetFromJSON(idx *index.Index, obj map[string]any) (FeatureMayAlwaysSet, error) {
	may, err := featuresFromJSON(idx, obj, "may_features")
	if err != nil {
		return FeatureMayAlwaysSet{}, err
	}
	always, err := featuresFromJSON(idx, obj, "always_features")
	if err != nil {
		return FeatureMayAlwaysSet{}, err
	}
	return NewFeatureMayAlwaysSet(may, always), nil
}
