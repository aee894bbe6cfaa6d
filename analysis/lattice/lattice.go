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

// Package lattice contains the persistent containers the taint domain is built from: ordered sets and partitions
// (maps from keys to lattice values ordered pointwise).
package lattice

// Lattice is implemented by the abstract values stored in partitions. Operations return new values and must not
// modify their receiver or argument.
//
// Implementations must satisfy the lattice laws: Leq is a partial order, Join is commutative, associative and
// idempotent, a.Leq(a.Widen(b)) and b.Leq(a.Widen(b)), and a.Meet(b).Leq(a).
type Lattice[V any] interface {
	IsBottom() bool
	Leq(V) bool
	Equals(V) bool
	Join(V) V
	Widen(V) V
	Meet(V) V
	Narrow(V) V
}
