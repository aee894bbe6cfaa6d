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

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
)

// A CallEffect is a property of a whole call chain, tracked like a port.
type CallEffect uint8

const (
	// CallChain is the effect of calling a method, whatever the data flowing through the call.
	CallChain CallEffect = iota + 1
)

// CallEffects lists every call effect.
var CallEffects = []CallEffect{CallChain}

func callEffectOfString(s string) (CallEffect, bool) {
	switch s {
	case "call-chain":
		return CallChain, true
	}
	return 0, false
}

func (e CallEffect) String() string {
	switch e {
	case CallChain:
		return "call-chain"
	}
	panic(fmt.Sprintf("invalid call effect %d", uint8(e)))
}

// AccessPath returns the port of the effect, CallEffect.<type>.
func (e CallEffect) AccessPath() access.AccessPath {
	switch e {
	case CallChain:
		return access.NewAccessPath(access.CallEffect, access.FieldOf(e.String()))
	}
	panic(fmt.Sprintf("invalid call effect %d", uint8(e)))
}

// Encode returns an integer uniquely identifying the effect.
func (e CallEffect) Encode() uint32 {
	return uint32(e)
}

// ToJSON returns the JSON representation of the effect, the string of its port.
func (e CallEffect) ToJSON() any {
	return e.AccessPath().ToJSON()
}

// CallEffectFromJSON parses an effect written either CallEffect.<type> or <type>.
func CallEffectFromJSON(value any) (CallEffect, error) {
	elements, err := access.SplitPath(value)
	if err != nil {
		return 0, err
	}
	if len(elements) >= 2 && elements[0] != access.CallEffect.String() {
		return 0, jsonutil.NewError(value, "", "call effect root to be: `CallEffect`")
	}
	if len(elements) == 0 || len(elements) > 2 {
		return 0, jsonutil.NewError(value, "", "call effect to be specified as: `CallEffect.<type>` or `<type>`")
	}
	effect, ok := callEffectOfString(elements[len(elements)-1])
	if !ok {
		return 0, jsonutil.NewError(value, "", "one of existing call effect types: `call-chain`")
	}
	return effect, nil
}

// KindToJSON returns the JSON object of a kind, whose members are merged into the objects of frames.
func KindToJSON(idx *index.Index, kind index.Kind) map[string]any {
	return map[string]any{"kind": idx.KindName(kind)}
}

// KindFromJSON reads the kind of a frame object.
func KindFromJSON(idx *index.Index, obj map[string]any) (index.Kind, error) {
	name, err := jsonutil.StringField(obj, "kind")
	if err != nil {
		return index.NoKind, err
	}
	return idx.Kind(name), nil
}
