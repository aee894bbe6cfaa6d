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
	"sort"

	"github.com/yourbasic/graph"
)

// ElementaryCycles returns all the elementary cycles of the graph, using Johnson's algorithm. Each cycle is the list
// of node ids of the cycle, starting and ending with its least node id. A self loop is the cycle [v, v].
func ElementaryCycles(g *MethodGraph) [][]int64 {
	s := &state{cycles: [][]int64{}}
	start := 0
	for start < len(g.Keys) {
		sub := Subgraph(g, g.Keys[start:])
		// the least node that is on a cycle of the subgraph, and its strongly connected component
		least := int64(-1)
		var leastComponent []int64
		for _, component := range graph.StrongComponents(sub) {
			ids := make([]int64, 0, len(component))
			for _, v := range component {
				if sub.contains(int64(v)) {
					ids = append(ids, int64(v))
				}
			}
			if !isCyclic(sub, ids) {
				continue
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			if least < 0 || ids[0] < least {
				least = ids[0]
				leastComponent = ids
			}
		}
		if least < 0 {
			break
		}
		s.reset()
		s.circuit(least, least, Subgraph(g, leastComponent))
		start = sort.Search(len(g.Keys), func(i int) bool { return g.Keys[i] > least })
	}
	return s.cycles
}

// isCyclic returns true when the strongly connected component has a cycle: it has more than one node, or its node
// calls itself.
func isCyclic(g *MethodGraph, component []int64) bool {
	return len(component) > 1 || (len(component) == 1 && g.Edges[component[0]][component[0]])
}

type state struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *state) reset() {
	s.blocked = map[int64]bool{}
	s.blist = map[int64]map[int64]bool{}
	s.stack = []int64{}
}

func (s *state) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *state) circuit(v int64, start int64, g *MethodGraph) bool {
	found := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for _, w := range g.Successors(v) {
		if w == start {
			cycle := make([]int64, len(s.stack), len(s.stack)+1)
			copy(cycle, s.stack)
			s.cycles = append(s.cycles, append(cycle, w))
			found = true
		} else if !s.blocked[w] {
			if s.circuit(w, start, g) {
				found = true
			}
		}
	}

	if found {
		s.unblock(v)
	} else {
		for _, w := range g.Successors(v) {
			if s.blist[w] == nil {
				s.blist[w] = map[int64]bool{}
			}
			s.blist[w][v] = true
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return found
}
