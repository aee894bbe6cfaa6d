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

// Package access implements the addressing scheme of values in method signatures: a Root (an argument, the return
// value, a leaf, ...) followed by a Path of field and index accesses.
package access

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/awslabs/ar-go-taint/internal/jsonutil"
)

// A Root is the root of an access path. Arguments are encoded by their parameter position, the other roots by the
// largest values of the type.
type Root uint32

const (
	// Return is the root of the returned value.
	Return Root = math.MaxUint32 - iota
	// Leaf is the root of taint that originates or terminates at the method itself.
	Leaf
	// Anchor is the root of cross-repository exchange ports.
	Anchor
	// Producer is the root of cross-repository producer ports.
	Producer
	// CanonicalThis is the receiver in canonical (anchor) ports. It cannot be specified in JSON.
	CanonicalThis
	// CallEffect is the root of call effect ports.
	CallEffect
)

// MaxParameterPosition is the largest parameter position of an Argument root.
const MaxParameterPosition = math.MaxUint32 - 16

// Argument returns the root of the argument at the given parameter position.
func Argument(position uint32) Root {
	if position > MaxParameterPosition {
		panic(fmt.Sprintf("parameter position %d out of range", position))
	}
	return Root(position)
}

// IsArgument returns true when the root is an argument.
func (r Root) IsArgument() bool {
	return r <= MaxParameterPosition
}

// IsLeaf returns true when the root is Leaf.
func (r Root) IsLeaf() bool {
	return r == Leaf
}

// IsCallEffect returns true when the root is CallEffect.
func (r Root) IsCallEffect() bool {
	return r == CallEffect
}

// IsAnchorOrProducer returns true on the roots of cross-repository ports.
func (r Root) IsAnchorOrProducer() bool {
	return r == Anchor || r == Producer
}

// ParameterPosition returns the parameter position of an argument root. It panics on other roots.
func (r Root) ParameterPosition() uint32 {
	if !r.IsArgument() {
		panic(fmt.Sprintf("%s is not an argument", r))
	}
	return uint32(r)
}

func (r Root) String() string {
	switch r {
	case Return:
		return "Return"
	case Leaf:
		return "Leaf"
	case Anchor:
		return "Anchor"
	case Producer:
		return "Producer"
	case CanonicalThis:
		return "Argument(-1)"
	case CallEffect:
		return "CallEffect"
	}
	if r.IsArgument() {
		return fmt.Sprintf("Argument(%d)", uint32(r))
	}
	panic(fmt.Sprintf("invalid root encoding %d", uint32(r)))
}

// ParseRoot parses the string representation of a root.
func ParseRoot(s string) (Root, error) {
	switch s {
	case "Return":
		return Return, nil
	case "Leaf":
		return Leaf, nil
	case "Anchor":
		return Anchor, nil
	case "Producer":
		return Producer, nil
	case "CallEffect":
		return CallEffect, nil
	}
	if strings.HasPrefix(s, "Argument(") && strings.HasSuffix(s, ")") && len(s) >= 11 {
		param := s[len("Argument(") : len(s)-1]
		if param == "" || param[0] == '-' || param[0] == '+' {
			return 0, jsonutil.NewError(s, "",
				fmt.Sprintf("`Argument(<number>)` for access path root, got `%s`", s))
		}
		n, err := strconv.ParseUint(param, 10, 32)
		if err != nil || n > MaxParameterPosition {
			return 0, jsonutil.NewError(s, "",
				fmt.Sprintf("`Argument(<number>)` for access path root, got `%s`", s))
		}
		return Argument(uint32(n)), nil
	}
	return 0, jsonutil.NewError(s, "",
		fmt.Sprintf("valid access path root (`Return`, `Argument(...)`, `Leaf`, `Anchor`, `Producer` or "+
			"`CallEffect`), got `%s`", s))
}

// RootFromJSON parses a root from its JSON representation, a string.
func RootFromJSON(value any) (Root, error) {
	s, err := jsonutil.String(value)
	if err != nil {
		return 0, err
	}
	return ParseRoot(s)
}
