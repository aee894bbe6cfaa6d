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

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
)

// TaintConfig is the constructor form of a frame. In addition to the fields of the frame, it carries the input and
// output paths of artificial sources and the local positions, which are stored by the containers next to the frame.
type TaintConfig struct {
	Kind                    index.Kind
	CalleePort              access.AccessPath
	Callee                  index.Method
	FieldCallee             index.Field
	CallPosition            index.Position
	Distance                int
	Origins                 lattice.Set[index.Method]
	FieldOrigins            lattice.Set[index.Field]
	InferredFeatures        FeatureMayAlwaysSet
	LocallyInferredFeatures FeatureMayAlwaysSet
	UserFeatures            FeatureSet
	ViaTypeOfPorts          lattice.Set[access.Root]
	ViaValueOfPorts         lattice.Set[access.Root]
	CanonicalNames          lattice.Set[CanonicalName]
	InputPaths              access.RootPathTrees
	OutputPaths             access.RootPathTrees
	LocalPositions          lattice.Set[index.Position]
}

// IsLeaf returns true when the config has no callee.
func (c TaintConfig) IsLeaf() bool {
	return c.Callee == index.NoMethod
}

// IsArtificialSource returns true when the config is an artificial source.
func (c TaintConfig) IsArtificialSource() bool {
	return c.Kind.IsArtificialSource()
}

// Frame returns the frame described by the config.
// Leaf configs must have a zero distance and no call position.
func (c TaintConfig) Frame() Frame {
	if c.Kind == index.NoKind {
		panic("taint config without kind")
	}
	if c.Distance < 0 {
		panic(fmt.Sprintf("negative distance %d", c.Distance))
	}
	return Frame{
		kind:                    c.Kind,
		calleePort:              c.CalleePort,
		callee:                  c.Callee,
		fieldCallee:             c.FieldCallee,
		callPosition:            c.CallPosition,
		distance:                c.Distance,
		origins:                 c.Origins,
		fieldOrigins:            c.FieldOrigins,
		inferredFeatures:        c.InferredFeatures,
		locallyInferredFeatures: c.LocallyInferredFeatures,
		userFeatures:            c.UserFeatures,
		viaTypeOfPorts:          c.ViaTypeOfPorts,
		viaValueOfPorts:         c.ViaValueOfPorts,
		canonicalNames:          c.CanonicalNames,
	}
}

// ConfigOf returns the config of a frame, with its stored local positions and paths.
func ConfigOf(f Frame, localPositions lattice.Set[index.Position], inputPaths, outputPaths access.RootPathTrees) TaintConfig {
	return TaintConfig{
		Kind:                    f.kind,
		CalleePort:              f.calleePort,
		Callee:                  f.callee,
		FieldCallee:             f.fieldCallee,
		CallPosition:            f.callPosition,
		Distance:                f.distance,
		Origins:                 f.origins,
		FieldOrigins:            f.fieldOrigins,
		InferredFeatures:        f.inferredFeatures,
		LocallyInferredFeatures: f.locallyInferredFeatures,
		UserFeatures:            f.userFeatures,
		ViaTypeOfPorts:          f.viaTypeOfPorts,
		ViaValueOfPorts:         f.viaValueOfPorts,
		CanonicalNames:          f.canonicalNames,
		InputPaths:              inputPaths,
		OutputPaths:             outputPaths,
		LocalPositions:          localPositions,
	}
}

// PositionToJSON returns the JSON object of a position. The path is omitted when empty.
func PositionToJSON(idx *index.Index, p index.Position) map[string]any {
	info := idx.PositionInfo(p)
	obj := map[string]any{"line": info.Line}
	if info.Path != "" {
		obj["path"] = info.Path
	}
	return obj
}

// PositionFromJSON parses a position object.
func PositionFromJSON(idx *index.Index, value any) (index.Position, error) {
	obj, err := jsonutil.Object(value)
	if err != nil {
		return index.NoPosition, err
	}
	path, _, err := jsonutil.OptionalStringField(obj, "path")
	if err != nil {
		return index.NoPosition, err
	}
	line, err := jsonutil.OptionalIntField(obj, "line", -1)
	if err != nil {
		return index.NoPosition, err
	}
	return idx.Position(path, line), nil
}

func rootsToJSON(roots lattice.Set[access.Root]) []any {
	res := make([]any, 0, roots.Len())
	roots.Each(func(r access.Root) { res = append(res, r.String()) })
	return res
}

func rootsFromJSON(obj map[string]any, field string) (lattice.Set[access.Root], error) {
	values, err := jsonutil.NullOrArray(obj, field)
	if err != nil {
		return lattice.Set[access.Root]{}, err
	}
	roots := make([]access.Root, 0, len(values))
	for _, v := range values {
		r, err := access.RootFromJSON(v)
		if err != nil {
			return lattice.Set[access.Root]{}, err
		}
		roots = append(roots, r)
	}
	return lattice.NewSet(roots...), nil
}

func pathsToJSON(paths access.RootPathTrees) []any {
	aps := paths.AccessPaths()
	res := make([]any, len(aps))
	for i, ap := range aps {
		res[i] = ap.ToJSON()
	}
	return res
}

func pathsFromJSON(obj map[string]any, field string) (access.RootPathTrees, error) {
	values, err := jsonutil.NullOrArray(obj, field)
	if err != nil {
		return access.RootPathTrees{}, err
	}
	var res access.RootPathTrees
	for _, v := range values {
		ap, err := access.AccessPathFromJSON(v)
		if err != nil {
			return access.RootPathTrees{}, err
		}
		res = res.Join(access.NewRootPathTrees(ap.Root, access.NewPathTree(ap.Path)))
	}
	return res, nil
}

func sortedNames(names []string) []any {
	sort.Strings(names)
	res := make([]any, len(names))
	for i, name := range names {
		res[i] = name
	}
	return res
}

// ToJSON returns the JSON object of the frame, with the local positions stored next to it.
func (f Frame) ToJSON(idx *index.Index, localPositions lattice.Set[index.Position]) map[string]any {
	if f.IsBottom() {
		panic("cannot serialize bottom frame")
	}
	obj := KindToJSON(idx, f.kind)
	obj["callee_port"] = f.calleePort.ToJSON()
	if f.callee != index.NoMethod {
		obj["callee"] = idx.MethodName(f.callee)
	} else if f.fieldCallee != index.NoField {
		obj["field_callee"] = idx.FieldName(f.fieldCallee)
	}
	if f.callPosition != index.NoPosition {
		obj["call_position"] = PositionToJSON(idx, f.callPosition)
	}
	if f.distance != 0 {
		obj["distance"] = f.distance
	}
	if !f.origins.IsEmpty() {
		names := make([]string, 0, f.origins.Len())
		f.origins.Each(func(m index.Method) { names = append(names, idx.MethodName(m)) })
		obj["origins"] = sortedNames(names)
	}
	if !f.fieldOrigins.IsEmpty() {
		names := make([]string, 0, f.fieldOrigins.Len())
		f.fieldOrigins.Each(func(fd index.Field) { names = append(names, idx.FieldName(fd)) })
		obj["field_origins"] = sortedNames(names)
	}
	if !f.userFeatures.IsEmpty() {
		obj["features"] = featureNames(idx, f.userFeatures)
	}
	f.inferredFeatures.toJSON(idx, obj)
	if !f.locallyInferredFeatures.IsEmpty() && !f.locallyInferredFeatures.IsBottom() {
		local := map[string]any{}
		f.locallyInferredFeatures.toJSON(idx, local)
		obj["local_features"] = local
	}
	if !f.viaTypeOfPorts.IsEmpty() {
		obj["via_type_of"] = rootsToJSON(f.viaTypeOfPorts)
	}
	if !f.viaValueOfPorts.IsEmpty() {
		obj["via_value_of"] = rootsToJSON(f.viaValueOfPorts)
	}
	if !f.canonicalNames.IsEmpty() {
		names := make([]any, 0, f.canonicalNames.Len())
		f.canonicalNames.Each(func(c CanonicalName) { names = append(names, c.toJSON()) })
		obj["canonical_names"] = names
	}
	if !localPositions.IsEmpty() {
		positions := make([]any, 0, localPositions.Len())
		localPositions.Each(func(p index.Position) { positions = append(positions, PositionToJSON(idx, p)) })
		obj["local_positions"] = positions
	}
	return obj
}

// TaintConfigFromJSON parses the JSON object of a frame. The callee port defaults to Leaf.
func TaintConfigFromJSON(idx *index.Index, value any) (TaintConfig, error) {
	obj, err := jsonutil.Object(value)
	if err != nil {
		return TaintConfig{}, err
	}
	var c TaintConfig
	if c.Kind, err = KindFromJSON(idx, obj); err != nil {
		return TaintConfig{}, err
	}

	c.CalleePort = access.NewAccessPath(access.Leaf)
	if port, ok := obj["callee_port"]; ok {
		if c.CalleePort, err = access.AccessPathFromJSON(port); err != nil {
			return TaintConfig{}, err
		}
	}
	if callee, ok, err := jsonutil.OptionalStringField(obj, "callee"); err != nil {
		return TaintConfig{}, err
	} else if ok {
		c.Callee = idx.Method(callee)
	}
	if field, ok, err := jsonutil.OptionalStringField(obj, "field_callee"); err != nil {
		return TaintConfig{}, err
	} else if ok {
		c.FieldCallee = idx.Field(field)
	}
	if position, ok := obj["call_position"]; ok && position != nil {
		if c.CallPosition, err = PositionFromJSON(idx, position); err != nil {
			return TaintConfig{}, err
		}
	}
	if c.Distance, err = jsonutil.OptionalIntField(obj, "distance", 0); err != nil {
		return TaintConfig{}, err
	}
	if c.Distance < 0 {
		return TaintConfig{}, jsonutil.NewError(obj, "distance", "non-negative integer")
	}

	origins, err := jsonutil.StringList(obj, "origins")
	if err != nil {
		return TaintConfig{}, err
	}
	for _, name := range origins {
		c.Origins = c.Origins.Add(idx.Method(name))
	}
	fieldOrigins, err := jsonutil.StringList(obj, "field_origins")
	if err != nil {
		return TaintConfig{}, err
	}
	for _, name := range fieldOrigins {
		c.FieldOrigins = c.FieldOrigins.Add(idx.Field(name))
	}

	if c.UserFeatures, err = featuresFromJSON(idx, obj, "features"); err != nil {
		return TaintConfig{}, err
	}
	if c.InferredFeatures, err = featureMayAlwaysSetFromJSON(idx, obj); err != nil {
		return TaintConfig{}, err
	}
	local, err := jsonutil.NullOrObject(obj, "local_features")
	if err != nil {
		return TaintConfig{}, err
	}
	if local != nil {
		if c.LocallyInferredFeatures, err = featureMayAlwaysSetFromJSON(idx, local); err != nil {
			return TaintConfig{}, err
		}
	}

	if c.ViaTypeOfPorts, err = rootsFromJSON(obj, "via_type_of"); err != nil {
		return TaintConfig{}, err
	}
	if c.ViaValueOfPorts, err = rootsFromJSON(obj, "via_value_of"); err != nil {
		return TaintConfig{}, err
	}

	names, err := jsonutil.NullOrArray(obj, "canonical_names")
	if err != nil {
		return TaintConfig{}, err
	}
	for _, v := range names {
		name, err := canonicalNameFromJSON(v)
		if err != nil {
			return TaintConfig{}, err
		}
		c.CanonicalNames = c.CanonicalNames.Add(name)
	}

	positions, err := jsonutil.NullOrArray(obj, "local_positions")
	if err != nil {
		return TaintConfig{}, err
	}
	for _, v := range positions {
		p, err := PositionFromJSON(idx, v)
		if err != nil {
			return TaintConfig{}, err
		}
		c.LocalPositions = c.LocalPositions.Add(p)
	}

	if c.InputPaths, err = pathsFromJSON(obj, "input_paths"); err != nil {
		return TaintConfig{}, err
	}
	if c.OutputPaths, err = pathsFromJSON(obj, "output_paths"); err != nil {
		return TaintConfig{}, err
	}
	return c, nil
}

func canonicalNameFromJSON(value any) (CanonicalName, error) {
	obj, err := jsonutil.Object(value)
	if err != nil {
		return "", err
	}
	if template, ok, err := jsonutil.OptionalStringField(obj, "template"); err != nil {
		return "", err
	} else if ok {
		return TemplateName(template), nil
	}
	if instantiated, ok, err := jsonutil.OptionalStringField(obj, "instantiated"); err != nil {
		return "", err
	} else if ok {
		return InstantiatedName(instantiated), nil
	}
	return "", jsonutil.NewError(value, "", "either `template` or `instantiated` for canonical name")
}
