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
	"encoding/json"
	"testing"

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallEffectRoundTrip(t *testing.T) {
	for _, effect := range CallEffects {
		assert.Equal(t, "CallEffect."+effect.String(), effect.ToJSON())
		assert.True(t, effect.AccessPath().Root.IsCallEffect())
		parsed, err := CallEffectFromJSON(effect.ToJSON())
		require.NoError(t, err)
		assert.Equal(t, effect, parsed)

		short, err := CallEffectFromJSON(effect.String())
		require.NoError(t, err)
		assert.Equal(t, effect, short)
	}
	assert.Panics(t, func() { _ = CallEffect(0).String() })
}

func TestCallEffectFromJSONErrors(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{"CallEffect.unknown-type", "one of existing call effect types: `call-chain`"},
		{"unknown-type", "one of existing call effect types: `call-chain`"},
		{"Root.x.y", "call effect root to be: `CallEffect`"},
		{"Argument(0).call-chain", "call effect root to be: `CallEffect`"},
		{"CallEffect.call-chain.x", "call effect to be specified as: `CallEffect.<type>` or `<type>`"},
		{"", "call effect to be specified as: `CallEffect.<type>` or `<type>`"},
	}
	for _, test := range tests {
		_, err := CallEffectFromJSON(test.value)
		require.Error(t, err, "%v", test.value)
		var validation *jsonutil.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, test.expected, validation.Expected, "%v", test.value)
	}

	_, err := CallEffectFromJSON(3)
	assert.Error(t, err)
}

func TestTaintFromJSONDocument(t *testing.T) {
	idx := index.New()
	data := []byte(`[
		{"kind": "UserInput", "callee_port": "Return", "callee": "pkg.Source()",
		 "call_position": {"path": "a.go", "line": 3}, "distance": 2, "features": ["user"],
		 "may_features": ["may"], "always_features": ["always"], "origins": ["pkg.Source()"]},
		{"kind": "Sql"},
		{"call_effect": "CallEffect.call-chain", "taint": [{"kind": "Chain"}]}
	]`)
	value, err := jsonutil.Parse(data)
	require.NoError(t, err)
	taint, err := TaintFromJSON(idx, value)
	require.NoError(t, err)

	assert.True(t, taint.ContainsKind(idx.Kind("UserInput")))
	assert.True(t, taint.ContainsKind(idx.Kind("Chain")))
	assert.Equal(t, 3, taint.NumFrames())

	var source Frame
	for _, f := range taint.Frames() {
		if f.Kind() == idx.Kind("UserInput") {
			source = f
		} else {
			assert.True(t, f.IsLeaf())
			assert.True(t, f.CalleePort().Equal(access.NewAccessPath(access.Leaf)))
		}
	}
	require.False(t, source.IsBottom())
	assert.Equal(t, 2, source.Distance())
	assert.Equal(t, idx.Position("a.go", 3), source.CallPosition())
	assert.True(t, source.UserFeatures().Contains(idx.Feature("user")))
	assert.True(t, source.InferredFeatures().Always().Contains(idx.Feature("always")))
	assert.True(t, source.InferredFeatures().May().Contains(idx.Feature("may")))
	assert.False(t, source.InferredFeatures().Always().Contains(idx.Feature("may")))

	out, err := json.Marshal(taint.ToJSON(idx))
	require.NoError(t, err)
	reparsed, err := jsonutil.Parse(out)
	require.NoError(t, err)
	again, err := TaintFromJSON(idx, reparsed)
	require.NoError(t, err)
	assert.True(t, taint.Equals(again))
}

func TestTaintConfigFromJSONErrors(t *testing.T) {
	idx := index.New()
	for _, doc := range []string{
		`{"callee_port": "Return"}`,
		`{"kind": "K", "distance": -1}`,
		`{"kind": "K", "callee_port": "Nowhere"}`,
		`{"kind": "K", "canonical_names": [{"other": "x"}]}`,
		`{"kind": "K", "origins": "pkg.F()"}`,
	} {
		value, err := jsonutil.Parse([]byte(doc))
		require.NoError(t, err)
		_, err = TaintConfigFromJSON(idx, value)
		assert.Error(t, err, doc)
	}
}
