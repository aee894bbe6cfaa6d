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

package formatutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestSanitize(t *testing.T) {
	assert.Equal(t, "pkg.F()", Sanitize("pkg.F()"))
	assert.Equal(t, `a\nb\x1b[1m`, Sanitize("a\nb\x1b[1m"))
	assert.Equal(t, `\"quoted\"`, SanitizeRepr(stringer(`"quoted"`)))
}

func TestColorsDisabled(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, "x1", Red("x", 1))
	assert.Equal(t, "warning", Yellow("warning"))
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "0 methods", Plural(0, "method"))
	assert.Equal(t, "1 method", Plural(1, "method"))
	assert.Equal(t, "3 calls", Plural(3, "call"))
}
