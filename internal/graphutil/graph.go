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
	"sort"

	"github.com/awslabs/ar-go-taint/analysis/index"
	"gonum.org/v1/gonum/graph"
)

// MethodGraph is a directed graph whose nodes are methods and whose edges go from callers to callees. Nodes have
// the dense ids 0..n-1 in insertion order.
//
// A MethodGraph implements both graph.Directed from gonum and graph.Iterator from yourbasic, so that the algorithms of
// both libraries apply to it.
type MethodGraph struct {
	idx *index.Index

	// Methods maps node ids to methods
	Methods []index.Method

	// IDs maps methods to node ids
	IDs map[index.Method]int64

	// Keys are the node ids of the graph, in increasing order. Subgraphs only have some of the ids.
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge from Methods[x] to Methods[y]
	Edges map[int64]map[int64]bool
}

// NewMethodGraph returns an empty graph. The index is used to print the nodes.
func NewMethodGraph(idx *index.Index) *MethodGraph {
	return &MethodGraph{
		idx:   idx,
		IDs:   map[index.Method]int64{},
		Edges: map[int64]map[int64]bool{},
	}
}

// AddNode adds the method to the graph if it is not already in it, and returns its node id.
func (g *MethodGraph) AddNode(method index.Method) int64 {
	if id, ok := g.IDs[method]; ok {
		return id
	}
	id := int64(len(g.Methods))
	g.Methods = append(g.Methods, method)
	g.IDs[method] = id
	g.Keys = append(g.Keys, id)
	g.Edges[id] = map[int64]bool{}
	return id
}

// AddEdge adds an edge from the caller to the callee, adding the nodes as needed.
func (g *MethodGraph) AddEdge(caller, callee index.Method) {
	from := g.AddNode(caller)
	to := g.AddNode(callee)
	g.Edges[from][to] = true
}

// Successors returns the ids of the callees of the node, in increasing order.
func (g *MethodGraph) Successors(id int64) []int64 {
	succs := make([]int64, 0, len(g.Edges[id]))
	for w := range g.Edges[id] {
		succs = append(succs, w)
	}
	sortIDs(succs)
	return succs
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// Subgraph returns the subgraph induced by the node ids in include. Node ids are unchanged.
func Subgraph(original *MethodGraph, include []int64) *MethodGraph {
	included := make(map[int64]bool, len(include))
	for _, i := range include {
		included[i] = true
	}
	keys := make([]int64, 0, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	for _, i := range original.Keys {
		if !included[i] {
			continue
		}
		keys = append(keys, i)
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if included[e] {
				edges[i][e] = true
			}
		}
	}

	return &MethodGraph{
		idx:     original.idx,
		Methods: original.Methods,
		IDs:     original.IDs,
		Keys:    keys,
		Edges:   edges,
	}
}

func (g *MethodGraph) contains(id int64) bool {
	_, ok := g.Edges[id]
	return ok
}

// Order returns the number of vertices of the yourbasic view of the graph. Vertices of a subgraph that are not
// included have no edges.
func (g *MethodGraph) Order() int {
	return len(g.Methods)
}

// Visit calls the do function for each neighbor w of vertex v, with the cost of the edge. It returns true when do
// aborts the iteration.
func (g *MethodGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for _, w := range g.Successors(int64(v)) {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// Node returns the node with the id, nil if it is not in the graph.
func (g *MethodGraph) Node(id int64) graph.Node {
	if !g.contains(id) {
		return nil
	}
	return g.node(id)
}

func (g *MethodGraph) node(id int64) MethodNode {
	return MethodNode{id: id, Method: g.Methods[id], idx: g.idx}
}

// Nodes returns all the nodes of the graph.
func (g *MethodGraph) Nodes() graph.Nodes {
	return g.nodeSet(g.Keys)
}

// From returns the callees of the node.
func (g *MethodGraph) From(id int64) graph.Nodes {
	return g.nodeSet(g.Successors(id))
}

// To returns the callers of the node.
func (g *MethodGraph) To(id int64) graph.Nodes {
	var ids []int64
	for _, from := range g.Keys {
		if g.Edges[from][id] {
			ids = append(ids, from)
		}
	}
	return g.nodeSet(ids)
}

// HasEdgeBetween returns true when there is an edge between the nodes, in either direction.
func (g *MethodGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.Edges[xid][yid] || g.Edges[yid][xid]
}

// HasEdgeFromTo returns true when there is an edge from the node uid to the node vid.
func (g *MethodGraph) HasEdgeFromTo(uid, vid int64) bool {
	return g.Edges[uid][vid]
}

// Edge returns the edge from uid to vid, nil if there is none.
func (g *MethodGraph) Edge(uid, vid int64) graph.Edge {
	if g.Edges[uid][vid] {
		return MethodEdge{from: g.node(uid), to: g.node(vid)}
	}
	return nil
}

func (g *MethodGraph) nodeSet(ids []int64) *NodeSet {
	return &NodeSet{graph: g, ids: ids, cur: -1}
}

// MethodNode is a node of a MethodGraph.
type MethodNode struct {
	id     int64
	Method index.Method
	idx    *index.Index
}

// ID returns the id of the node in its graph.
func (n MethodNode) ID() int64 {
	return n.id
}

func (n MethodNode) String() string {
	if n.idx == nil {
		return fmt.Sprintf("method#%d", n.id)
	}
	return n.idx.MethodName(n.Method)
}

// NodeSet iterates over nodes of a MethodGraph.
type NodeSet struct {
	graph *MethodGraph

	// ids is the set of node ids in the iterator
	ids []int64

	// cur is the current index of the iterator. The current node is ids[cur]. Before the first call to Next, cur is -1.
	cur int
}

// Next advances the iterator, and returns false when there are no more nodes.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	ns.cur = len(ns.ids)
	return false
}

// Len returns the number of nodes remaining in the iterator.
func (ns *NodeSet) Len() int {
	if ns.cur >= len(ns.ids) {
		return 0
	}
	return len(ns.ids) - ns.cur - 1
}

// Reset moves the iterator back before its first node.
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node returns the current node, nil when the iterator is not on a node.
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return ns.graph.node(ns.ids[ns.cur])
}

// MethodEdge is a call edge of a MethodGraph.
type MethodEdge struct {
	from MethodNode
	to   MethodNode
}

// From returns the caller node.
func (e MethodEdge) From() graph.Node {
	return e.from
}

// To returns the callee node.
func (e MethodEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns the edge from the callee to the caller.
func (e MethodEdge) ReversedEdge() graph.Edge {
	return MethodEdge{from: e.to, to: e.from}
}
