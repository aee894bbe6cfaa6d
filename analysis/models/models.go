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
	"sort"

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/taint"
	"github.com/awslabs/ar-go-taint/internal/funcutil"
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
)

// Call is a call edge of the analyzed program, as stored in model files.
type Call struct {
	Caller   index.Method
	Callee   index.Method
	Position index.Position
	// Arguments maps the parameters of the callee to the parameters of the caller they receive.
	Arguments map[access.Root]access.Root
	// RegisterTypes are the types of the arguments of the call, indexed by parameter position.
	RegisterTypes []string
	// ConstantArguments are the constant values of the arguments of the call, indexed by parameter position.
	ConstantArguments []funcutil.Optional[string]
}

// Propagation returns the propagation of the callee frames through the call. The callee port is left to the caller.
func (c Call) Propagation(idx *index.Index, maxDistance int) taint.Propagation {
	return taint.Propagation{
		Index:             idx,
		Callee:            c.Callee,
		CallPosition:      c.Position,
		MaxDistance:       maxDistance,
		RegisterTypes:     c.RegisterTypes,
		ConstantArguments: c.ConstantArguments,
	}
}

// ToJSON returns the JSON object of the call.
func (c Call) ToJSON(idx *index.Index) map[string]any {
	obj := map[string]any{
		"caller":   idx.MethodName(c.Caller),
		"callee":   idx.MethodName(c.Callee),
		"position": taint.PositionToJSON(idx, c.Position),
	}
	if len(c.Arguments) > 0 {
		args := map[string]any{}
		for _, param := range funcutil.SortedKeys(c.Arguments) {
			args[param.String()] = c.Arguments[param].String()
		}
		obj["arguments"] = args
	}
	if len(c.RegisterTypes) > 0 {
		obj["register_types"] = funcutil.Map(c.RegisterTypes, func(s string) any { return s })
	}
	if len(c.ConstantArguments) > 0 {
		obj["constant_arguments"] = funcutil.Map(c.ConstantArguments, func(v funcutil.Optional[string]) any {
			if v.IsNone() {
				return nil
			}
			return v.Value()
		})
	}
	return obj
}

// CallFromJSON parses the JSON object of a call.
func CallFromJSON(idx *index.Index, value any) (Call, error) {
	obj, err := jsonutil.Object(value)
	if err != nil {
		return Call{}, err
	}
	caller, err := jsonutil.StringField(obj, "caller")
	if err != nil {
		return Call{}, err
	}
	callee, err := jsonutil.StringField(obj, "callee")
	if err != nil {
		return Call{}, err
	}
	c := Call{Caller: idx.Method(caller), Callee: idx.Method(callee), Position: idx.UnknownPosition()}
	if position, ok := obj["position"]; ok && position != nil {
		if c.Position, err = taint.PositionFromJSON(idx, position); err != nil {
			return Call{}, err
		}
	}
	args, err := jsonutil.NullOrObject(obj, "arguments")
	if err != nil {
		return Call{}, err
	}
	if len(args) > 0 {
		c.Arguments = make(map[access.Root]access.Root, len(args))
	}
	for param, arg := range args {
		calleeRoot, err := access.ParseRoot(param)
		if err != nil {
			return Call{}, err
		}
		callerRoot, err := access.RootFromJSON(arg)
		if err != nil {
			return Call{}, err
		}
		if !calleeRoot.IsArgument() || !callerRoot.IsArgument() {
			return Call{}, jsonutil.NewError(obj, "arguments", "map from arguments to arguments")
		}
		c.Arguments[calleeRoot] = callerRoot
	}
	if c.RegisterTypes, err = jsonutil.StringList(obj, "register_types"); err != nil {
		return Call{}, err
	}
	constants, err := jsonutil.NullOrArray(obj, "constant_arguments")
	if err != nil {
		return Call{}, err
	}
	for _, v := range constants {
		if v == nil {
			c.ConstantArguments = append(c.ConstantArguments, funcutil.None[string]())
			continue
		}
		s, err := jsonutil.String(v)
		if err != nil {
			return Call{}, jsonutil.NewError(obj, "constant_arguments", "array of strings or nulls")
		}
		c.ConstantArguments = append(c.ConstantArguments, funcutil.Some(s))
	}
	return c, nil
}

// Models is the content of model files: field models, method models and the call edges between methods.
type Models struct {
	idx     *index.Index
	fields  map[index.Field]FieldModel
	methods map[index.Method]MethodModel
	calls   []Call
}

// NewModels returns an empty set of models whose handles belong to idx.
func NewModels(idx *index.Index) *Models {
	return &Models{
		idx:     idx,
		fields:  map[index.Field]FieldModel{},
		methods: map[index.Method]MethodModel{},
	}
}

// Index returns the index of the handles of the models.
func (m *Models) Index() *index.Index {
	return m.idx
}

// AddField joins the field model into the model of its field.
func (m *Models) AddField(fm FieldModel) {
	old, ok := m.fields[fm.Field()]
	if !ok {
		m.fields[fm.Field()] = fm
		return
	}
	old.JoinWith(fm)
	m.fields[fm.Field()] = old
}

// Field returns the model of the field.
func (m *Models) Field(field index.Field) (FieldModel, bool) {
	fm, ok := m.fields[field]
	return fm, ok
}

// Fields returns the field models, sorted by field name.
func (m *Models) Fields() []FieldModel {
	res := make([]FieldModel, 0, len(m.fields))
	for _, fm := range m.fields {
		res = append(res, fm)
	}
	sort.Slice(res, func(i, j int) bool { return m.idx.FieldName(res[i].Field()) < m.idx.FieldName(res[j].Field()) })
	return res
}

// AddMethod joins the method model into the model of its method.
func (m *Models) AddMethod(mm MethodModel) {
	old, ok := m.methods[mm.Method()]
	if !ok {
		m.methods[mm.Method()] = mm
		return
	}
	old.JoinWith(mm)
	m.methods[mm.Method()] = old
}

// SetMethod replaces the model of the method.
func (m *Models) SetMethod(mm MethodModel) {
	m.methods[mm.Method()] = mm
}

// Method returns the model of the method, empty if there is none.
func (m *Models) Method(method index.Method) MethodModel {
	if mm, ok := m.methods[method]; ok {
		return mm
	}
	return NewMethodModel(method)
}

// Methods returns the non-empty method models, sorted by signature.
func (m *Models) Methods() []MethodModel {
	res := make([]MethodModel, 0, len(m.methods))
	for _, mm := range m.methods {
		if !mm.IsEmpty() {
			res = append(res, mm)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return m.idx.MethodName(res[i].Method()) < m.idx.MethodName(res[j].Method())
	})
	return res
}

// AddCall adds a call edge.
func (m *Models) AddCall(c Call) {
	m.calls = append(m.calls, c)
}

// Calls returns the call edges in the order they have been added.
func (m *Models) Calls() []Call {
	return m.calls
}

// JoinWith joins the models of o into m. Calls are appended.
func (m *Models) JoinWith(o *Models) {
	if m.idx != o.idx {
		panic("joining models of different indexes")
	}
	for _, fm := range o.fields {
		m.AddField(fm)
	}
	for _, mm := range o.methods {
		m.AddMethod(mm)
	}
	m.calls = append(m.calls, o.calls...)
}

// ToJSON returns the JSON document of the models: {"fields": [...], "methods": [...], "calls": [...]}. Fields and
// methods are sorted by name.
func (m *Models) ToJSON() map[string]any {
	doc := map[string]any{}
	if fields := m.Fields(); len(fields) > 0 {
		doc["fields"] = funcutil.Map(fields, func(fm FieldModel) any { return fm.ToJSONWithPosition(m.idx) })
	}
	if methods := m.Methods(); len(methods) > 0 {
		doc["methods"] = funcutil.Map(methods, func(mm MethodModel) any { return mm.ToJSON(m.idx) })
	}
	if len(m.calls) > 0 {
		doc["calls"] = funcutil.Map(m.calls, func(c Call) any { return c.ToJSON(m.idx) })
	}
	return doc
}

// ModelsFromJSON parses a JSON document of models. Consistency errors of field models are recorded in diag.
func ModelsFromJSON(idx *index.Index, value any, diag Diagnostics) (*Models, error) {
	doc, err := jsonutil.Object(value)
	if err != nil {
		return nil, err
	}
	m := NewModels(idx)
	fields, err := jsonutil.NullOrArray(doc, "fields")
	if err != nil {
		return nil, err
	}
	for i, v := range fields {
		obj, err := jsonutil.Object(v)
		if err != nil {
			return nil, err
		}
		name, err := jsonutil.StringField(obj, "field")
		if err != nil {
			return nil, err
		}
		fm, err := FieldModelFromJSON(idx.Field(name), obj, idx, diag)
		if err != nil {
			return nil, fmt.Errorf("field model %d: %w", i, err)
		}
		m.AddField(fm)
	}
	methods, err := jsonutil.NullOrArray(doc, "methods")
	if err != nil {
		return nil, err
	}
	for i, v := range methods {
		mm, err := MethodModelFromJSON(idx, v)
		if err != nil {
			return nil, fmt.Errorf("method model %d: %w", i, err)
		}
		m.AddMethod(mm)
	}
	calls, err := jsonutil.NullOrArray(doc, "calls")
	if err != nil {
		return nil, err
	}
	for i, v := range calls {
		c, err := CallFromJSON(idx, v)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		m.AddCall(c)
	}
	return m, nil
}
