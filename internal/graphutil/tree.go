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

package graphutil

import (
	"strings"

	"github.com/awslabs/ar-go-taint/internal/funcutil"
)

// Tree is a labelled tree. Trees are used to print the call chains leading from a method to its sinks.
type Tree[T any] struct {
	Parent   *Tree[T]
	Children []*Tree[T]
	Label    T
}

// NewTree returns a tree with a single root node.
func NewTree[T any](rootLabel T) *Tree[T] {
	return &Tree[T]{Label: rootLabel}
}

// Label returns the label of its argument
func Label[T any](t *Tree[T]) T {
	return t.Label
}

// AddChild adds a child with the label to t, and returns the child.
func (t *Tree[T]) AddChild(label T) *Tree[T] {
	child := &Tree[T]{Parent: t, Label: label}
	t.Children = append(t.Children, child)
	return child
}

// Ancestors returns the chain of the n closest ancestors of t, t included, starting from the farthest. If n < 0, then
// it returns the chain from the root of the tree.
func (t *Tree[T]) Ancestors(n int) []*Tree[T] {
	var ans []*Tree[T]
	for cur, i := t, 0; cur != nil && (i < n || n < 0); cur, i = cur.Parent, i+1 {
		ans = append(ans, cur)
	}
	funcutil.Reverse(ans)
	return ans
}

// Leaves returns the nodes of the tree without children, in depth-first order.
func (t *Tree[T]) Leaves() []*Tree[T] {
	if len(t.Children) == 0 {
		return []*Tree[T]{t}
	}
	var leaves []*Tree[T]
	for _, c := range t.Children {
		leaves = append(leaves, c.Leaves()...)
	}
	return leaves
}

// Size returns the number of nodes of the tree.
func (t *Tree[T]) Size() int {
	n := 1
	for _, c := range t.Children {
		n += c.Size()
	}
	return n
}

// Format prints the tree with one node per line, children indented under their parent.
func (t *Tree[T]) Format(label func(T) string) string {
	var b strings.Builder
	t.format(&b, 0, label)
	return b.String()
}

func (t *Tree[T]) format(b *strings.Builder, depth int, label func(T) string) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(label(t.Label))
	b.WriteString("\n")
	for _, c := range t.Children {
		c.format(b, depth+1, label)
	}
}
