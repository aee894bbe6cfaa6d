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
	"fmt"
	"math/rand"
	"testing"

	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomCallGraph returns a graph of size methods, each calling up to three random methods.
func randomCallGraph(size int, seed int64) *MethodGraph {
	r := rand.New(rand.NewSource(seed))
	var edges [][2]int
	for i := 0; i < size; i++ {
		for j := 0; j < 3; j++ {
			if r.Float32() < 0.5 {
				edges = append(edges, [2]int{i, r.Intn(size)})
			}
		}
	}
	g, _ := newTestGraph(size, edges)
	return g
}

// calls returns whether callee is reachable from caller in at least one call.
func calls(g *MethodGraph, caller, callee int64) bool {
	visited := map[int64]bool{}
	stack := append([]int64(nil), g.Successors(caller)...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, g.Successors(n)...)
	}
	return visited[callee]
}

// checkBottomUp checks that every method is in exactly one component, that the methods of a component call each
// other, and that no component calls a method of a later component.
func checkBottomUp(g *MethodGraph, components [][]index.Method) error {
	seen := map[int64]bool{}
	for i, component := range components {
		for _, m := range component {
			x := g.IDs[m]
			if seen[x] {
				return fmt.Errorf("method %d in two components", x)
			}
			seen[x] = true
			for _, other := range component {
				if y := g.IDs[other]; x != y && !calls(g, x, y) {
					return fmt.Errorf("%d does not call %d of its component", x, y)
				}
			}
			for _, later := range components[i+1:] {
				for _, other := range later {
					if y := g.IDs[other]; calls(g, x, y) {
						return fmt.Errorf("%d calls %d of a later component", x, y)
					}
				}
			}
		}
	}
	if len(seen) != g.Order() {
		return fmt.Errorf("%d methods in components, graph has %d", len(seen), g.Order())
	}
	return nil
}

func TestBottomUpComponentsSmallGraphs(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		edges     [][2]int
		recursive []bool
	}{
		{"self call", 1, [][2]int{{0, 0}}, []bool{true}},
		{"single", 1, nil, []bool{false}},
		{"chain", 2, [][2]int{{0, 0}, {0, 1}}, []bool{false, true}},
		{"diamond", 4, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 1}}, []bool{false, false, false, false}},
		{"back edge", 4, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 1}, {2, 0}}, []bool{false, false, true}},
		{"two cycles", 4, [][2]int{{0, 3}, {0, 1}, {1, 0}, {2, 1}, {3, 3}}, []bool{true, true, false}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g, _ := newTestGraph(test.size, test.edges)
			components := g.BottomUpComponents()
			require.NoError(t, checkBottomUp(g, components))
			require.Len(t, components, len(test.recursive))
			for i, component := range components {
				assert.Equal(t, test.recursive[i], g.IsRecursive(component), "component %d", i)
			}
		})
	}
}

func TestBottomUpComponentsRandomGraphs(t *testing.T) {
	for _, size := range []int{10, 50, 100} {
		for i := int64(0); i < 5; i++ {
			g := randomCallGraph(size, 68348438+i)
			components := g.BottomUpComponents()
			require.NoError(t, checkBottomUp(g, components), "size %d seed %d", size, i)

			if size > 10 {
				continue
			}
			// every elementary cycle lies within one recursive component
			component := map[int64]int{}
			for c, methods := range components {
				for _, m := range methods {
					component[g.IDs[m]] = c
				}
			}
			for _, cycle := range ElementaryCycles(g) {
				c := component[cycle[0]]
				assert.True(t, g.IsRecursive(components[c]))
				for _, id := range cycle {
					assert.Equal(t, c, component[id])
				}
			}
		}
	}
}
