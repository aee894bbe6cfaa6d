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
	"sort"
	"strings"
)

// MaxPathTreeDepth bounds the length of the paths stored in a PathTree. Longer paths are truncated, which
// over-approximates them.
const MaxPathTreeDepth = 4

// A PathTree is a set of paths where a path covers all its extensions: the tree {a} contains a.b and a[*].
// The zero PathTree is bottom, and the tree containing the empty path is the largest tree.
type PathTree struct {
	// paths never contains a path and one of its strict extensions, and is sorted by string representation
	paths []Path
}

// NewPathTree returns the tree covering the paths.
func NewPathTree(paths ...Path) PathTree {
	return normalize(paths)
}

func normalize(paths []Path) PathTree {
	if len(paths) == 0 {
		return PathTree{}
	}
	candidates := make([]Path, len(paths))
	for i, p := range paths {
		candidates[i] = p.Truncate(MaxPathTreeDepth)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) < len(candidates[j]) })
	var kept []Path
	for _, p := range candidates {
		covered := false
		for _, q := range kept {
			if q.IsPrefixOf(p) {
				covered = true
				break
			}
		}
		if !covered {
			kept = append(kept, p)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].String() < kept[j].String() })
	return PathTree{paths: kept}
}

// IsBottom returns true when the tree contains no path.
func (t PathTree) IsBottom() bool {
	return len(t.paths) == 0
}

// Paths returns the maximal paths of the tree.
func (t PathTree) Paths() []Path {
	return append([]Path(nil), t.paths...)
}

// Covers returns true when some path of the tree is a prefix of p.
func (t PathTree) Covers(p Path) bool {
	for _, q := range t.paths {
		if q.IsPrefixOf(p) {
			return true
		}
	}
	return false
}

// Leq returns true when every path of t is covered by o.
func (t PathTree) Leq(o PathTree) bool {
	for _, p := range t.paths {
		if !o.Covers(p) {
			return false
		}
	}
	return true
}

// Equals returns true when t and o cover the same paths.
func (t PathTree) Equals(o PathTree) bool {
	if len(t.paths) != len(o.paths) {
		return false
	}
	for i, p := range t.paths {
		if !p.Equal(o.paths[i]) {
			return false
		}
	}
	return true
}

// Join returns the tree covering the paths of t and o.
func (t PathTree) Join(o PathTree) PathTree {
	if o.IsBottom() {
		return t
	}
	if t.IsBottom() {
		return o
	}
	return normalize(append(append([]Path(nil), t.paths...), o.paths...))
}

// Meet returns the tree covering the paths covered by both t and o.
func (t PathTree) Meet(o PathTree) PathTree {
	var paths []Path
	for _, p := range t.paths {
		if o.Covers(p) {
			paths = append(paths, p)
		}
	}
	for _, p := range o.paths {
		if t.Covers(p) {
			paths = append(paths, p)
		}
	}
	return normalize(paths)
}

// Difference returns the paths of t that are not covered by o.
func (t PathTree) Difference(o PathTree) PathTree {
	var paths []Path
	for _, p := range t.paths {
		if !o.Covers(p) {
			paths = append(paths, p)
		}
	}
	return PathTree{paths: paths}
}

// Append returns the tree where every path is extended by e.
func (t PathTree) Append(e PathElement) PathTree {
	paths := make([]Path, len(t.paths))
	for i, p := range t.paths {
		paths[i] = p.Append(e)
	}
	return normalize(paths)
}

func (t PathTree) String() string {
	parts := make([]string, len(t.paths))
	for i, p := range t.paths {
		parts[i] = `"` + p.String() + `"`
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// A RootPathTrees maps roots to path trees. The zero value is bottom.
type RootPathTrees struct {
	trees map[Root]PathTree
}

// NewRootPathTrees returns the mapping binding root to tree.
func NewRootPathTrees(root Root, tree PathTree) RootPathTrees {
	if tree.IsBottom() {
		return RootPathTrees{}
	}
	return RootPathTrees{trees: map[Root]PathTree{root: tree}}
}

// IsBottom returns true when no root is bound.
func (r RootPathTrees) IsBottom() bool {
	return len(r.trees) == 0
}

// Get returns the tree bound to root.
func (r RootPathTrees) Get(root Root) PathTree {
	return r.trees[root]
}

// Roots returns the bound roots in increasing order.
func (r RootPathTrees) Roots() []Root {
	roots := make([]Root, 0, len(r.trees))
	for root := range r.trees {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// Join returns the rootwise join of r and o.
func (r RootPathTrees) Join(o RootPathTrees) RootPathTrees {
	if o.IsBottom() {
		return r
	}
	if r.IsBottom() {
		return o
	}
	res := make(map[Root]PathTree, len(r.trees)+len(o.trees))
	for root, t := range r.trees {
		res[root] = t
	}
	for root, t := range o.trees {
		res[root] = res[root].Join(t)
	}
	return RootPathTrees{trees: res}
}

// Meet returns the rootwise meet of r and o.
func (r RootPathTrees) Meet(o RootPathTrees) RootPathTrees {
	res := map[Root]PathTree{}
	for root, t := range r.trees {
		if m := t.Meet(o.trees[root]); !m.IsBottom() {
			res[root] = m
		}
	}
	if len(res) == 0 {
		return RootPathTrees{}
	}
	return RootPathTrees{trees: res}
}

// Leq returns true when r is rootwise less or equal to o.
func (r RootPathTrees) Leq(o RootPathTrees) bool {
	for root, t := range r.trees {
		if !t.Leq(o.trees[root]) {
			return false
		}
	}
	return true
}

// Equals returns true when r and o bind the same roots to equal trees.
func (r RootPathTrees) Equals(o RootPathTrees) bool {
	if len(r.trees) != len(o.trees) {
		return false
	}
	for root, t := range r.trees {
		if !t.Equals(o.trees[root]) {
			return false
		}
	}
	return true
}

// Each calls f on each binding in increasing root order.
func (r RootPathTrees) Each(f func(Root, PathTree)) {
	for _, root := range r.Roots() {
		f(root, r.trees[root])
	}
}

// AppendToAll returns the mapping where every path is extended by e.
func (r RootPathTrees) AppendToAll(e PathElement) RootPathTrees {
	if r.IsBottom() {
		return r
	}
	res := make(map[Root]PathTree, len(r.trees))
	for root, t := range r.trees {
		res[root] = t.Append(e)
	}
	return RootPathTrees{trees: res}
}

// AccessPaths returns every maximal access path, ordered by root then path.
func (r RootPathTrees) AccessPaths() []AccessPath {
	var res []AccessPath
	r.Each(func(root Root, t PathTree) {
		for _, p := range t.paths {
			res = append(res, AccessPath{Root: root, Path: p})
		}
	})
	return res
}
