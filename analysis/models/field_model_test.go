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
	"encoding/json"
	"testing"

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
	"github.com/awslabs/ar-go-taint/analysis/taint"
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(kind index.Kind) taint.TaintConfig {
	return taint.TaintConfig{Kind: kind, CalleePort: access.NewAccessPath(access.Leaf)}
}

func TestFieldModelToJSONOmitsEmptySinks(t *testing.T) {
	idx := index.New()
	f := idx.Field("F")
	source := leaf(idx.Kind("UserInput"))
	source.FieldOrigins = lattice.NewSet(f)
	log := NewEventLog(nil)
	m := NewFieldModel(idx, index.NoField, []taint.TaintConfig{source}, nil, log)

	assert.Equal(t, map[string]any{
		"sources": []any{
			map[string]any{"kind": "UserInput", "callee_port": "Leaf", "field_origins": []any{"F"}},
		},
	}, m.ToJSON(idx))
	assert.Empty(t, log.Events())

	withPosition := m.ToJSONWithPosition(idx)
	assert.Equal(t, map[string]any{"line": -1}, withPosition["position"])
	assert.NotContains(t, withPosition, "sinks")
}

func TestFieldModelSetsFieldOrigins(t *testing.T) {
	idx := index.New()
	f := idx.Field("pkg.T.x")
	log := NewEventLog(nil)
	m := NewFieldModel(idx, f, nil, []taint.TaintConfig{leaf(idx.Kind("Sql"))}, log)
	require.Empty(t, log.Events())
	assert.True(t, m.Sources().IsBottom())

	frames := m.Sinks().Frames()
	require.Len(t, frames, 1)
	assert.True(t, frames[0].FieldOrigins().Contains(f))
	assert.Equal(t, f, frames[0].FieldCallee())
	assert.Equal(t, "pkg.T.x", m.ToJSON(idx)["field"])
}

func TestFieldModelConsistencyErrors(t *testing.T) {
	idx := index.New()
	f := idx.Field("pkg.T.x")
	userInput := idx.Kind("UserInput")

	tests := []struct {
		name    string
		config  taint.TaintConfig
		payload string
		added   bool
	}{
		{
			name: "non-leaf port",
			config: taint.TaintConfig{Kind: userInput,
				CalleePort: access.NewAccessPath(access.Argument(0))},
			payload: "Frame in sources for field `pkg.T.x` contains an unexpected non-empty or non-bottom value for a field.",
			added:   true,
		},
		{
			name: "distance",
			config: func() taint.TaintConfig {
				c := leaf(userInput)
				c.Distance = 2
				return c
			}(),
			payload: "Frame in sources for field `pkg.T.x` contains an unexpected non-empty or non-bottom value for a field.",
			added:   true,
		},
		{
			name:    "artificial source",
			config:  leaf(idx.ArtificialSource()),
			payload: "Model for field `pkg.T.x` contains an artificial source.",
			added:   true,
		},
		{
			name:    "no kind",
			config:  taint.TaintConfig{CalleePort: access.NewAccessPath(access.Leaf)},
			payload: "Model for field `pkg.T.x` must have a kind source.",
			added:   false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			log := NewEventLog(nil)
			m := NewFieldModel(idx, f, nil, nil, log)
			m.AddSource(test.config, log)
			require.Equal(t, 1, log.Count(FieldModelConsistencyError))
			assert.Equal(t, test.payload, log.Events()[0].Payload)
			assert.Equal(t, test.added, !m.Sources().IsBottom())
			assert.True(t, m.Sinks().IsBottom())
		})
	}
}

func TestFieldModelJoinAndInstantiate(t *testing.T) {
	idx := index.New()
	a := NewFieldModel(idx, index.NoField, []taint.TaintConfig{leaf(idx.Kind("A"))}, nil, Discard)
	b := NewFieldModel(idx, index.NoField, nil, []taint.TaintConfig{leaf(idx.Kind("B"))}, Discard)

	ab := a
	ab.JoinWith(b)
	ba := b
	ba.JoinWith(a)
	assert.True(t, ab.Equals(ba))
	assert.True(t, a.Leq(ab))
	assert.True(t, b.Leq(ab))
	again := ab
	again.JoinWith(ab)
	assert.True(t, again.Equals(ab))
	assert.False(t, ab.Empty())
	assert.True(t, FieldModel{}.Empty())

	field := idx.Field("pkg.T.y")
	log := NewEventLog(nil)
	instance := ab.Instantiate(field, log)
	assert.Empty(t, log.Events())
	assert.Equal(t, field, instance.Field())
	for _, frame := range append(instance.Sources().Frames(), instance.Sinks().Frames()...) {
		assert.True(t, frame.FieldOrigins().Contains(field))
	}
	assert.True(t, ab.Sources().Frames()[0].FieldOrigins().IsEmpty())
}

func TestFieldModelJSONRoundTrip(t *testing.T) {
	idx := index.New()
	f := idx.Field("pkg.T.x")
	source := leaf(idx.Kind("UserInput"))
	source.UserFeatures = lattice.NewSet(idx.Feature("user"))
	source.InferredFeatures = taint.MayFeatures(lattice.NewSet(idx.Feature("may")))
	sink := leaf(idx.Kind("Sql"))
	sink.ViaValueOfPorts = lattice.NewSet(access.Argument(1))
	m := NewFieldModel(idx, f, []taint.TaintConfig{source}, []taint.TaintConfig{sink}, Discard)

	data, err := json.Marshal(m.ToJSONWithPosition(idx))
	require.NoError(t, err)
	value, err := jsonutil.Parse(data)
	require.NoError(t, err)
	log := NewEventLog(nil)
	parsed, err := FieldModelFromJSON(f, value, idx, log)
	require.NoError(t, err)
	assert.Empty(t, log.Events())
	assert.True(t, m.Equals(parsed), "%s\n%s", m, parsed)
}

func TestFieldModelFromJSONErrors(t *testing.T) {
	idx := index.New()
	for _, doc := range []string{
		`[]`,
		`{"sources": {}}`,
		`{"sinks": [{"callee_port": "Leaf"}]}`,
		`{"sources": [{"kind": "K", "distance": "far"}]}`,
	} {
		value, err := jsonutil.Parse([]byte(doc))
		require.NoError(t, err)
		_, err = FieldModelFromJSON(index.NoField, value, idx, Discard)
		assert.Error(t, err, doc)
	}

	value, err := jsonutil.Parse([]byte(`{"sources": [{"kind": "K", "callee_port": "Return"}]}`))
	require.NoError(t, err)
	log := NewEventLog(nil)
	m, err := FieldModelFromJSON(idx.Field("F"), value, idx, log)
	require.NoError(t, err)
	assert.Equal(t, 1, log.Count(FieldModelConsistencyError))
	assert.True(t, m.Sources().ContainsKind(idx.Kind("K")))
}
