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

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
	"github.com/awslabs/ar-go-taint/analysis/taint"
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
)

// MethodModel holds the sinks of a method: the taint reaching a sink when it flows into a parameter of the method, and
// the taint reaching a sink through a call effect of the method (e.g. any call chain reaching the method).
type MethodModel struct {
	method      index.Method
	sinks       lattice.Partition[access.Root, taint.Taint]
	effectSinks taint.CallEffectsAbstractDomain
}

// NewMethodModel returns the empty model of the method.
func NewMethodModel(method index.Method) MethodModel {
	return MethodModel{method: method}
}

// Method returns the method of the model.
func (m MethodModel) Method() index.Method {
	return m.method
}

// IsEmpty returns true when the model has no sinks.
func (m MethodModel) IsEmpty() bool {
	return m.sinks.IsBottom() && m.effectSinks.IsBottom()
}

// Sink returns the sink taint of the port, bottom if there is none.
func (m MethodModel) Sink(port access.Root) taint.Taint {
	t, _ := m.sinks.Get(port)
	return t
}

// EachSink calls f on every port with sink taint, in increasing port order.
func (m MethodModel) EachSink(f func(access.Root, taint.Taint)) {
	m.sinks.Each(f)
}

// EffectSinks returns the sinks of the call effects of the method.
func (m MethodModel) EffectSinks() taint.CallEffectsAbstractDomain {
	return m.effectSinks
}

// AddSink joins the taint into the sinks of the port.
func (m *MethodModel) AddSink(port access.Root, t taint.Taint) {
	if t.IsBottom() {
		return
	}
	m.sinks = m.sinks.Update(port, func(old taint.Taint) taint.Taint { return old.Join(t) })
}

// AddEffectSink joins the taint into the sinks of the call effect.
func (m *MethodModel) AddEffectSink(effect taint.CallEffect, t taint.Taint) {
	m.effectSinks.Write(effect, t)
}

func (m MethodModel) checkMethod(o MethodModel) {
	if m.method != o.method && !m.IsEmpty() && !o.IsEmpty() {
		panic(fmt.Sprintf("combining models of methods %d and %d", m.method, o.method))
	}
}

// Leq returns true when every sink of m is less or equal to the sink of o.
func (m MethodModel) Leq(o MethodModel) bool {
	m.checkMethod(o)
	return m.sinks.Leq(o.sinks) && m.effectSinks.Leq(o.effectSinks)
}

// Equals returns true when both models have equal sinks.
func (m MethodModel) Equals(o MethodModel) bool {
	return m.sinks.Equals(o.sinks) && m.effectSinks.Equals(o.effectSinks)
}

// JoinWith joins the sinks of o into m.
func (m *MethodModel) JoinWith(o MethodModel) {
	m.checkMethod(o)
	if m.IsEmpty() {
		m.method = o.method
	}
	m.sinks = m.sinks.Join(o.sinks)
	m.effectSinks = m.effectSinks.Join(o.effectSinks)
}

// WidenWith widens the sinks of m by the sinks of o.
func (m *MethodModel) WidenWith(o MethodModel) {
	m.checkMethod(o)
	if m.IsEmpty() {
		m.method = o.method
	}
	m.sinks = m.sinks.Widen(o.sinks)
	m.effectSinks = m.effectSinks.Widen(o.effectSinks)
}

// NumFrames returns the number of frames of the sinks.
func (m MethodModel) NumFrames() int {
	n := 0
	m.sinks.Each(func(_ access.Root, t taint.Taint) { n += t.NumFrames() })
	m.effectSinks.Visit(func(_ taint.CallEffect, t taint.Taint) { n += t.NumFrames() })
	return n
}

// ToJSON returns the JSON object of the model:
//
//	{"method": ..., "sinks": [{"port": "Argument(0)", "taint": [...]}], "effect_sinks": [{"port": ..., "taint": [...]}]}
func (m MethodModel) ToJSON(idx *index.Index) map[string]any {
	obj := map[string]any{"method": idx.MethodName(m.method)}
	if !m.sinks.IsBottom() {
		sinks := make([]any, 0, m.sinks.Len())
		m.sinks.Each(func(port access.Root, t taint.Taint) {
			sinks = append(sinks, map[string]any{"port": port.String(), "taint": t.ToJSON(idx)})
		})
		obj["sinks"] = sinks
	}
	if !m.effectSinks.IsBottom() {
		obj["effect_sinks"] = m.effectSinks.ToJSON(idx)
	}
	return obj
}

// MethodModelFromJSON parses the JSON object of a method model.
func MethodModelFromJSON(idx *index.Index, value any) (MethodModel, error) {
	obj, err := jsonutil.Object(value)
	if err != nil {
		return MethodModel{}, err
	}
	name, err := jsonutil.StringField(obj, "method")
	if err != nil {
		return MethodModel{}, err
	}
	m := NewMethodModel(idx.Method(name))
	sinks, err := jsonutil.NullOrArray(obj, "sinks")
	if err != nil {
		return MethodModel{}, err
	}
	for _, v := range sinks {
		sink, err := jsonutil.Object(v)
		if err != nil {
			return MethodModel{}, err
		}
		port, err := access.RootFromJSON(sink["port"])
		if err != nil {
			return MethodModel{}, fmt.Errorf("invalid sink port of %s: %w", name, err)
		}
		if !port.IsArgument() {
			return MethodModel{}, jsonutil.NewError(sink, "port", "argument port for method sink")
		}
		t, err := taint.TaintFromJSON(idx, sink["taint"])
		if err != nil {
			return MethodModel{}, fmt.Errorf("invalid sink of %s: %w", name, err)
		}
		m.AddSink(port, t)
	}
	effects, err := taint.CallEffectsFromJSON(idx, obj["effect_sinks"])
	if err != nil {
		return MethodModel{}, fmt.Errorf("invalid effect sinks of %s: %w", name, err)
	}
	m.effectSinks = effects
	return m, nil
}

func (m MethodModel) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "MethodModel(method=%d", uint64(m.method))
	m.sinks.Each(func(port access.Root, t taint.Taint) {
		fmt.Fprintf(&b, ", %s: %s", port, t)
	})
	if !m.effectSinks.IsBottom() {
		fmt.Fprintf(&b, ", effects=%s", m.effectSinks)
	}
	b.WriteString(")")
	return b.String()
}
