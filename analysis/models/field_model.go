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

package models

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
	"github.com/awslabs/ar-go-taint/analysis/taint"
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
)

// FieldModel holds the source and sink taint of a field. This taint is not affected by assignments to the field in
// the analyzed code. Every fact of a field model is a leaf fact: it has a leaf port, no callee, no call position, a
// zero distance, no origins, no via-type-of ports and no canonical names. Once the field is known, the fact also
// has field origins.
//
// Facts violating these constraints are recorded as FieldModelConsistencyError events and kept in the model.
type FieldModel struct {
	idx     *index.Index
	field   index.Field
	sources taint.Taint
	sinks   taint.Taint
}

// NewFieldModel returns the model of the field built from the configs. The field may be NoField for models that are
// not attached to a field yet.
func NewFieldModel(idx *index.Index, field index.Field, sources []taint.TaintConfig, sinks []taint.TaintConfig,
	diag Diagnostics) FieldModel {
	m := FieldModel{idx: idx, field: field}
	for _, config := range sources {
		m.AddSource(config, diag)
	}
	for _, config := range sinks {
		m.AddSink(config, diag)
	}
	return m
}

// Field returns the field of the model, NoField if it has none.
func (m FieldModel) Field() index.Field {
	return m.field
}

// Sources returns the source taint of the field.
func (m FieldModel) Sources() taint.Taint {
	return m.sources
}

// Sinks returns the sink taint of the field.
func (m FieldModel) Sinks() taint.Taint {
	return m.sinks
}

// Empty returns true when the model has neither sources nor sinks.
func (m FieldModel) Empty() bool {
	return m.sources.IsBottom() && m.sinks.IsBottom()
}

// Equals returns true when both models have equal sources and sinks. The field is not compared.
func (m FieldModel) Equals(o FieldModel) bool {
	return m.sources.Equals(o.sources) && m.sinks.Equals(o.sinks)
}

// Leq returns true when the sources and sinks of m are less or equal to the ones of o.
func (m FieldModel) Leq(o FieldModel) bool {
	return m.sources.Leq(o.sources) && m.sinks.Leq(o.sinks)
}

// JoinWith joins the sources and sinks of o into m.
func (m *FieldModel) JoinWith(o FieldModel) {
	if m.idx == nil {
		m.idx = o.idx
	}
	m.sources.JoinWith(o.sources)
	m.sinks.JoinWith(o.sinks)
}

// Instantiate returns a copy of the model attached to the field. Field origins are set on the facts that have none.
func (m FieldModel) Instantiate(field index.Field, diag Diagnostics) FieldModel {
	res := FieldModel{idx: m.idx, field: field}
	res.addSourceTaint(m.sources, diag)
	res.addSinkTaint(m.sinks, diag)
	return res
}

// AddSource adds the source fact of the config to the model.
func (m *FieldModel) AddSource(config taint.TaintConfig, diag Diagnostics) {
	if m.checkConfig(config, "source", diag) {
		m.addSourceTaint(taint.NewTaint(config), diag)
	}
}

// AddSink adds the sink fact of the config to the model.
func (m *FieldModel) AddSink(config taint.TaintConfig, diag Diagnostics) {
	if m.checkConfig(config, "sink", diag) {
		m.addSinkTaint(taint.NewTaint(config), diag)
	}
}

func (m *FieldModel) addSourceTaint(t taint.Taint, diag Diagnostics) {
	if m.field != index.NoField {
		t = t.SetFieldOriginsIfEmptyWithFieldCallee(m.field)
	}
	m.checkTaint(t, "source", diag)
	m.sources.JoinWith(t)
}

func (m *FieldModel) addSinkTaint(t taint.Taint, diag Diagnostics) {
	if m.field != index.NoField {
		t = t.SetFieldOriginsIfEmptyWithFieldCallee(m.field)
	}
	m.checkTaint(t, "sink", diag)
	m.sinks.JoinWith(t)
}

func (m FieldModel) fieldName() string {
	if m.field == index.NoField || m.idx == nil {
		return "<unknown>"
	}
	return m.idx.FieldName(m.field)
}

// checkConfig records the consistency errors of the config. It returns false when the config has no kind, as there
// is no fact to add.
func (m FieldModel) checkConfig(config taint.TaintConfig, kind string, diag Diagnostics) bool {
	if config.Kind == index.NoKind {
		diag.Record(FieldModelConsistencyError,
			fmt.Sprintf("Model for field `%s` must have a kind %s.", m.fieldName(), kind))
		return false
	}
	if config.IsArtificialSource() {
		diag.Record(FieldModelConsistencyError,
			fmt.Sprintf("Model for field `%s` contains an artificial %s.", m.fieldName(), kind))
	}
	if !config.CalleePort.Root.IsLeaf() || !config.IsLeaf() || config.CallPosition != index.NoPosition ||
		config.Distance != 0 || !config.Origins.IsEmpty() || !config.ViaTypeOfPorts.IsEmpty() ||
		!config.CanonicalNames.IsEmpty() {
		diag.Record(FieldModelConsistencyError,
			fmt.Sprintf("Frame in %ss for field `%s` contains an unexpected non-empty or non-bottom value for a field.",
				kind, m.fieldName()))
	}
	return true
}

func (m FieldModel) checkTaint(t taint.Taint, kind string, diag Diagnostics) {
	if m.field == index.NoField {
		return
	}
	t.Visit(func(f taint.Frame, _ lattice.Set[index.Position]) {
		if f.FieldOrigins().IsEmpty() {
			diag.Record(FieldModelConsistencyError,
				fmt.Sprintf("Model for field `%s` contains a %s without field origins.", m.fieldName(), kind))
		}
	})
}

// FieldModelFromJSON parses the model of the field from a JSON object with optional "sources" and "sinks" arrays of
// frames.
func FieldModelFromJSON(field index.Field, value any, idx *index.Index, diag Diagnostics) (FieldModel, error) {
	obj, err := jsonutil.Object(value)
	if err != nil {
		return FieldModel{}, err
	}
	m := FieldModel{idx: idx, field: field}
	sources, err := jsonutil.NullOrArray(obj, "sources")
	if err != nil {
		return FieldModel{}, err
	}
	for _, v := range sources {
		config, err := taint.TaintConfigFromJSON(idx, v)
		if err != nil {
			return FieldModel{}, fmt.Errorf("invalid source of field model: %w", err)
		}
		m.AddSource(config, diag)
	}
	sinks, err := jsonutil.NullOrArray(obj, "sinks")
	if err != nil {
		return FieldModel{}, err
	}
	for _, v := range sinks {
		config, err := taint.TaintConfigFromJSON(idx, v)
		if err != nil {
			return FieldModel{}, fmt.Errorf("invalid sink of field model: %w", err)
		}
		m.AddSink(config, diag)
	}
	return m, nil
}

func framesToJSON(idx *index.Index, t taint.Taint) []any {
	var res []any
	// field models have no local positions
	t.Visit(func(f taint.Frame, _ lattice.Set[index.Position]) {
		res = append(res, f.ToJSON(idx, lattice.Set[index.Position]{}))
	})
	return res
}

// ToJSON returns the JSON object of the model. Empty sources and sinks are omitted.
func (m FieldModel) ToJSON(idx *index.Index) map[string]any {
	obj := map[string]any{}
	if m.field != index.NoField {
		obj["field"] = idx.FieldName(m.field)
	}
	if !m.sources.IsBottom() {
		obj["sources"] = framesToJSON(idx, m.sources)
	}
	if !m.sinks.IsBottom() {
		obj["sinks"] = framesToJSON(idx, m.sinks)
	}
	return obj
}

// ToJSONWithPosition returns the JSON object of the model with the position of the field, which is always unknown.
func (m FieldModel) ToJSONWithPosition(idx *index.Index) map[string]any {
	obj := m.ToJSON(idx)
	obj["position"] = taint.PositionToJSON(idx, idx.UnknownPosition())
	return obj
}

func (m FieldModel) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FieldModel(field=`%s`", m.fieldName())
	if !m.sources.IsBottom() {
		fmt.Fprintf(&b, ", sources=%s", m.sources)
	}
	if !m.sinks.IsBottom() {
		fmt.Fprintf(&b, ", sinks=%s", m.sinks)
	}
	b.WriteString(")")
	return b.String()
}
