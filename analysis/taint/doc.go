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

/*
Package taint implements the taint abstract domain: the lattice of taint facts and the propagation of facts across
call edges.

A [Frame] is one taint fact: a kind (the taint label) flowing through a port of a callee, at some distance from its
origin, with features and provenance. Frames are built from a [TaintConfig] and grouped in containers:

  - [CallPositionFrames] groups the frames of one call position, bucketed by kind and callee port.
  - [CalleeFrames] maps call positions to [CallPositionFrames], for one callee (or none, for leaf facts).
  - [Taint] maps callees to [CalleeFrames], and carries a [CallEffectsAbstractDomain] for call chain effects.

All the values of the domain are persistent: operations never modify memory reachable from another value, so values
can be shared between goroutines. Methods with a pointer receiver (Add, JoinWith, ...) replace the receiver with a
new value, and must not be called concurrently on the same variable.

The central operation is [Taint.Propagate], which transforms the summary of a callee into facts of a caller at a call
site. Facts that travelled more than a maximum distance are dropped, which bounds the height of the lattice along
recursive call chains.
*/
package taint
