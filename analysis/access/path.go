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
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-taint/internal/jsonutil"
)

// ElementKind is the kind of a path element.
type ElementKind uint8

const (
	// FieldElement is a named field access, written ".name".
	FieldElement ElementKind = iota
	// IndexElement is an access at a constant index, written "[name]".
	IndexElement
	// AnyIndexElement is an access at an unknown index, written "[*]".
	AnyIndexElement
)

// A PathElement is one step of a path.
type PathElement struct {
	Kind ElementKind
	Name string
}

// FieldOf returns the element accessing the field name.
func FieldOf(name string) PathElement {
	return PathElement{Kind: FieldElement, Name: name}
}

// IndexOf returns the element accessing the constant index name.
func IndexOf(name string) PathElement {
	return PathElement{Kind: IndexElement, Name: name}
}

// AnyIndex returns the element accessing an unknown index.
func AnyIndex() PathElement {
	return PathElement{Kind: AnyIndexElement}
}

func (e PathElement) String() string {
	switch e.Kind {
	case FieldElement:
		return "." + e.Name
	case IndexElement:
		return "[" + e.Name + "]"
	case AnyIndexElement:
		return "[*]"
	}
	panic(fmt.Sprintf("invalid path element kind %d", e.Kind))
}

// A Path is a sequence of path elements. Paths are treated as immutable: operations return new paths.
type Path []PathElement

// Append returns the path p followed by e.
func (p Path) Append(e PathElement) Path {
	res := make(Path, len(p), len(p)+1)
	copy(res, p)
	return append(res, e)
}

// Extend returns the path p followed by the elements of q.
func (p Path) Extend(q Path) Path {
	if len(q) == 0 {
		return p
	}
	res := make(Path, 0, len(p)+len(q))
	res = append(res, p...)
	return append(res, q...)
}

// IsPrefixOf returns true when p is a (non-strict) prefix of q.
func (p Path) IsPrefixOf(q Path) bool {
	if len(p) > len(q) {
		return false
	}
	for i, e := range p {
		if q[i] != e {
			return false
		}
	}
	return true
}

// Equal returns true when p and q have the same elements.
func (p Path) Equal(q Path) bool {
	return len(p) == len(q) && p.IsPrefixOf(q)
}

// CommonPrefix returns the longest common prefix of p and q.
func (p Path) CommonPrefix(q Path) Path {
	n := 0
	for n < len(p) && n < len(q) && p[n] == q[n] {
		n++
	}
	return p[:n:n]
}

// Truncate returns the prefix of p of length at most n.
func (p Path) Truncate(n int) Path {
	if len(p) <= n {
		return p
	}
	return p[:n:n]
}

func (p Path) String() string {
	var b strings.Builder
	for _, e := range p {
		b.WriteString(e.String())
	}
	return b.String()
}

// An AccessPath locates a value in a method signature.
type AccessPath struct {
	Root Root
	Path Path
}

// NewAccessPath returns the access path root followed by the elements.
func NewAccessPath(root Root, elements ...PathElement) AccessPath {
	if len(elements) == 0 {
		return AccessPath{Root: root}
	}
	return AccessPath{Root: root, Path: append(Path(nil), elements...)}
}

// Equal returns true when a and b denote the same access path.
func (a AccessPath) Equal(b AccessPath) bool {
	return a.Root == b.Root && a.Path.Equal(b.Path)
}

// Leq returns true when a is covered by b: same root and the path of b is a prefix of the path of a.
func (a AccessPath) Leq(b AccessPath) bool {
	return a.Root == b.Root && b.Path.IsPrefixOf(a.Path)
}

// Join returns the least access path covering a and b. The roots must be equal.
func (a AccessPath) Join(b AccessPath) AccessPath {
	if a.Root != b.Root {
		panic(fmt.Sprintf("cannot join access paths with different roots %s and %s", a, b))
	}
	return AccessPath{Root: a.Root, Path: a.Path.CommonPrefix(b.Path)}
}

// Key returns a string uniquely identifying the access path, suitable as a partition key.
func (a AccessPath) Key() string {
	return a.String()
}

func (a AccessPath) String() string {
	return a.Root.String() + a.Path.String()
}

// ToJSON returns the JSON representation of the access path, its string representation.
func (a AccessPath) ToJSON() any {
	return a.String()
}

// CanonicalizeForMethod returns the canonical port of the access path for cross-repository exchange, of the form
// Anchor.<root>. The path is ignored. Receivers of non-static methods become Argument(-1) and the other arguments are
// shifted down by one.
func (a AccessPath) CanonicalizeForMethod(isStatic bool) AccessPath {
	if !a.Root.IsArgument() || isStatic {
		return NewAccessPath(Anchor, FieldOf(a.Root.String()))
	}
	position := a.Root.ParameterPosition()
	root := CanonicalThis
	if position > 0 {
		root = Argument(position - 1)
	}
	return NewAccessPath(Anchor, FieldOf(root.String()))
}

// SplitPath splits the JSON string value on dots. A trailing dot does not produce an empty element.
func SplitPath(value any) ([]string, error) {
	s, err := jsonutil.String(value)
	if err != nil {
		return nil, err
	}
	var elements []string
	for s != "" {
		i := strings.IndexByte(s, '.')
		if i < 0 {
			elements = append(elements, s)
			break
		}
		elements = append(elements, s[:i])
		s = s[i+1:]
	}
	return elements, nil
}

// AccessPathFromJSON parses an access path from a string of the form "<root>.<field>.<field>...".
func AccessPathFromJSON(value any) (AccessPath, error) {
	elements, err := SplitPath(value)
	if err != nil {
		return AccessPath{}, err
	}
	if len(elements) == 0 {
		return AccessPath{}, jsonutil.NewError(value, "", "non-empty string for access path")
	}
	root, err := ParseRoot(elements[0])
	if err != nil {
		return AccessPath{}, err
	}
	path := make(Path, 0, len(elements)-1)
	for _, name := range elements[1:] {
		path = append(path, FieldOf(name))
	}
	if len(path) == 0 {
		path = nil
	}
	return AccessPath{Root: root, Path: path}, nil
}
