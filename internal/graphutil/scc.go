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

import "github.com/awslabs/ar-go-taint/analysis/index"

// tarjan holds the state of Tarjan's strongly connected components algorithm.
type tarjan[T comparable] struct {
	successors func(T) []T
	stack      []T
	onStack    map[T]bool
	index      map[T]int
	lowlink    map[T]int
	next       int
	sccs       [][]T
}

// StronglyConnectedComponents returns the strongly connected components of the graph given by the nodes and the
// successors function. Components are returned in reverse topological order: a component comes after every
// component it reaches.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) [][]T {
	t := &tarjan[T]{
		successors: successors,
		onStack:    map[T]bool{},
		index:      map[T]int{},
		lowlink:    map[T]int{},
		sccs:       [][]T{},
	}
	for _, v := range nodes {
		if _, ok := t.index[v]; !ok {
			t.visit(v)
		}
	}
	return t.sccs
}

func (t *tarjan[T]) visit(v T) {
	t.index[v] = t.next
	t.lowlink[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true
	for _, w := range t.successors(v) {
		if _, ok := t.index[w]; !ok {
			t.visit(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}
	if t.lowlink[v] != t.index[v] {
		return
	}
	var scc []T
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

// BottomUpComponents returns the strongly connected components of the methods of the graph, callees before callers.
// Methods of a component are in increasing node id order.
func (g *MethodGraph) BottomUpComponents() [][]index.Method {
	sccs := StronglyConnectedComponents(g.Keys, g.Successors)
	res := make([][]index.Method, len(sccs))
	for i, scc := range sccs {
		ids := append([]int64(nil), scc...)
		sortIDs(ids)
		res[i] = make([]index.Method, len(ids))
		for j, id := range ids {
			res[i][j] = g.Methods[id]
		}
	}
	return res
}

// IsRecursive returns true when the methods of the component call each other, or when its only method calls itself.
func (g *MethodGraph) IsRecursive(component []index.Method) bool {
	if len(component) != 1 {
		return len(component) > 1
	}
	id, ok := g.IDs[component[0]]
	return ok && g.Edges[id][id]
}
