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

package access

import (
	"errors"
	"testing"

	"github.com/awslabs/ar-go-taint/internal/jsonutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootString(t *testing.T) {
	tests := []struct {
		root Root
		want string
	}{
		{Argument(0), "Argument(0)"},
		{Argument(12), "Argument(12)"},
		{Return, "Return"},
		{Leaf, "Leaf"},
		{Anchor, "Anchor"},
		{Producer, "Producer"},
		{CanonicalThis, "Argument(-1)"},
		{CallEffect, "CallEffect"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			assert.Equal(t, test.want, test.root.String())
			if test.root != CanonicalThis {
				parsed, err := RootFromJSON(test.want)
				require.NoError(t, err)
				assert.Equal(t, test.root, parsed)
			}
		})
	}
}

func TestRootFromJSONErrors(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"Argument(-1)", "`Argument(<number>)` for access path root"},
		{"Argument(x)", "`Argument(<number>)` for access path root"},
		{"Argumen(1)", "valid access path root"},
		{"Argument()", "valid access path root"},
		{"return", "valid access path root"},
		{1, "expected string"},
	}
	for _, test := range tests {
		t.Run(jsonutil.Compact(test.value), func(t *testing.T) {
			_, err := RootFromJSON(test.value)
			require.Error(t, err)
			var verr *jsonutil.ValidationError
			assert.True(t, errors.As(err, &verr))
			assert.Contains(t, err.Error(), test.want)
		})
	}
}

func TestRootPredicates(t *testing.T) {
	assert.True(t, Argument(3).IsArgument())
	assert.Equal(t, uint32(3), Argument(3).ParameterPosition())
	assert.False(t, Return.IsArgument())
	assert.False(t, CanonicalThis.IsArgument())
	assert.True(t, Leaf.IsLeaf())
	assert.True(t, CallEffect.IsCallEffect())
	assert.True(t, Anchor.IsAnchorOrProducer())
	assert.True(t, Producer.IsAnchorOrProducer())
	assert.Panics(t, func() { Return.ParameterPosition() })
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		value string
		want  []string
	}{
		{"", nil},
		{"Return", []string{"Return"}},
		{"Argument(0).x.y", []string{"Argument(0)", "x", "y"}},
		{"Leaf.", []string{"Leaf"}},
		{"a..b", []string{"a", "", "b"}},
	}
	for _, test := range tests {
		t.Run(test.value, func(t *testing.T) {
			got, err := SplitPath(test.value)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestAccessPathFromJSON(t *testing.T) {
	ap, err := AccessPathFromJSON("Argument(1).foo.bar")
	require.NoError(t, err)
	assert.Equal(t, NewAccessPath(Argument(1), FieldOf("foo"), FieldOf("bar")), ap)
	assert.Equal(t, "Argument(1).foo.bar", ap.String())
	assert.Equal(t, "Argument(1).foo.bar", ap.ToJSON())

	ap, err = AccessPathFromJSON("Leaf")
	require.NoError(t, err)
	assert.True(t, ap.Equal(NewAccessPath(Leaf)))

	_, err = AccessPathFromJSON("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-empty string for access path")

	_, err = AccessPathFromJSON("Foo.x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid access path root")
}

func TestAccessPathOrder(t *testing.T) {
	x := NewAccessPath(Argument(0), FieldOf("x"))
	xy := NewAccessPath(Argument(0), FieldOf("x"), FieldOf("y"))
	xz := NewAccessPath(Argument(0), FieldOf("x"), IndexOf("z"))
	assert.True(t, xy.Leq(x))
	assert.False(t, x.Leq(xy))
	assert.True(t, xy.Join(xz).Equal(x))
	assert.Equal(t, "Argument(0).x[z]", xz.String())
	assert.Equal(t, "Argument(0).x[*]", NewAccessPath(Argument(0), FieldOf("x"), AnyIndex()).String())
	assert.Panics(t, func() { x.Join(NewAccessPath(Return)) })
}

func TestCanonicalizeForMethod(t *testing.T) {
	tests := []struct {
		port     AccessPath
		isStatic bool
		want     string
	}{
		{NewAccessPath(Argument(0)), false, "Anchor.Argument(-1)"},
		{NewAccessPath(Argument(2), FieldOf("x")), false, "Anchor.Argument(1)"},
		{NewAccessPath(Argument(2)), true, "Anchor.Argument(2)"},
		{NewAccessPath(Return), false, "Anchor.Return"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			assert.Equal(t, test.want, test.port.CanonicalizeForMethod(test.isStatic).String())
		})
	}
}

func p(fields ...string) Path {
	var path Path
	for _, f := range fields {
		path = path.Append(FieldOf(f))
	}
	return path
}

func TestPathTree(t *testing.T) {
	a := NewPathTree(p("x", "y"), p("x"), p("z"))
	assert.Equal(t, `{".x", ".z"}`, a.String())
	assert.True(t, a.Covers(p("x", "w")))
	assert.False(t, a.Covers(p("w")))

	b := NewPathTree(p("x", "y"), p("w"))
	assert.True(t, NewPathTree(p("x", "y")).Leq(a))
	assert.False(t, b.Leq(a))
	assert.True(t, a.Leq(a.Join(b)))
	assert.True(t, b.Leq(a.Join(b)))
	assert.True(t, a.Join(b).Equals(b.Join(a)))
	assert.True(t, a.Meet(b).Equals(NewPathTree(p("x", "y"))))
	assert.True(t, a.Difference(b).Equals(NewPathTree(p("x"), p("z"))))
	assert.True(t, a.Join(PathTree{}).Equals(a))

	root := NewPathTree(Path{})
	assert.False(t, root.IsBottom())
	assert.True(t, a.Leq(root))
	assert.True(t, a.Join(root).Equals(root))
}

func TestPathTreeDepth(t *testing.T) {
	deep := NewPathTree(p("a", "b", "c", "d", "e", "f"))
	paths := deep.Paths()
	require.Len(t, paths, 1)
	assert.Len(t, paths[0], MaxPathTreeDepth)
	assert.Equal(t, ".a.b.c.d", paths[0].String())

	appended := NewPathTree(p("a")).Append(AnyIndex())
	assert.Equal(t, `{".a[*]"}`, appended.String())
}

func TestRootPathTrees(t *testing.T) {
	r := NewRootPathTrees(Argument(0), NewPathTree(p("x")))
	o := NewRootPathTrees(Argument(1), NewPathTree(Path{}))
	j := r.Join(o)
	assert.Equal(t, []Root{Argument(0), Argument(1)}, j.Roots())
	assert.True(t, r.Leq(j))
	assert.True(t, o.Leq(j))
	assert.True(t, j.Meet(r).Equals(r))
	assert.True(t, r.Meet(o).IsBottom())
	assert.Equal(t, []string{"Argument(0).x.f", "Argument(1).f"}, func() []string {
		var res []string
		for _, ap := range j.AppendToAll(FieldOf("f")).AccessPaths() {
			res = append(res, ap.String())
		}
		return res
	}())
}
