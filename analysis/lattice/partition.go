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

package lattice

import (
	"github.com/benbjohnson/immutable"
	"golang.org/x/exp/constraints"
)

// ordered compares keys with their natural order.
type ordered[K constraints.Ordered] struct{}

func (ordered[K]) Compare(a, b K) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// A Partition maps keys to lattice values, and is ordered pointwise. Keys that are not bound are implicitly mapped to
// bottom, and bottom values are never stored. A Partition can also be top, in which case it has no bindings.
//
// The zero Partition is bottom. The zero value of V must be the bottom of V.
//
// Partitions are persistent: every operation returns a new partition sharing structure with its operands, and
// nothing reachable from an existing partition is ever modified.
type Partition[K constraints.Ordered, V Lattice[V]] struct {
	m   *immutable.SortedMap[K, V]
	top bool
}

// TopPartition returns the top partition.
func TopPartition[K constraints.Ordered, V Lattice[V]]() Partition[K, V] {
	return Partition[K, V]{top: true}
}

func (p Partition[K, V]) bindings() *immutable.SortedMap[K, V] {
	if p.m == nil {
		return immutable.NewSortedMap[K, V](ordered[K]{})
	}
	return p.m
}

// IsBottom returns true when the partition has no bindings and is not top.
func (p Partition[K, V]) IsBottom() bool {
	return !p.top && p.Len() == 0
}

// IsTop returns true when the partition is top.
func (p Partition[K, V]) IsTop() bool {
	return p.top
}

// Len returns the number of bindings.
func (p Partition[K, V]) Len() int {
	if p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Get returns the value bound to k, and false when k is not bound. On top, Get always returns false.
func (p Partition[K, V]) Get(k K) (V, bool) {
	if p.m == nil {
		var zero V
		return zero, false
	}
	return p.m.Get(k)
}

// Set returns the partition where k is bound to v. Binding a key to bottom removes it. Set on top is top.
func (p Partition[K, V]) Set(k K, v V) Partition[K, V] {
	if p.top {
		return p
	}
	if v.IsBottom() {
		if _, ok := p.Get(k); !ok {
			return p
		}
		return Partition[K, V]{m: p.m.Delete(k)}
	}
	return Partition[K, V]{m: p.bindings().Set(k, v)}
}

// Update returns the partition where k is bound to f(v), v being the current value of k (bottom if unbound).
func (p Partition[K, V]) Update(k K, f func(V) V) Partition[K, V] {
	if p.top {
		return p
	}
	v, _ := p.Get(k)
	return p.Set(k, f(v))
}

// Each calls f on each binding in increasing key order. Each does nothing on top.
func (p Partition[K, V]) Each(f func(K, V)) {
	if p.m == nil {
		return
	}
	itr := p.m.Iterator()
	for !itr.Done() {
		k, v, _ := itr.Next()
		f(k, v)
	}
}

// Any returns true when f returns true on some binding.
func (p Partition[K, V]) Any(f func(K, V) bool) bool {
	if p.m == nil {
		return false
	}
	itr := p.m.Iterator()
	for !itr.Done() {
		k, v, _ := itr.Next()
		if f(k, v) {
			return true
		}
	}
	return false
}

// Keys returns the bound keys in increasing order.
func (p Partition[K, V]) Keys() []K {
	keys := make([]K, 0, p.Len())
	p.Each(func(k K, _ V) { keys = append(keys, k) })
	return keys
}

// Map returns the partition where every value v is replaced by f(v). Bindings mapped to bottom are removed.
func (p Partition[K, V]) Map(f func(V) V) Partition[K, V] {
	if p.top || p.m == nil {
		return p
	}
	res := p.m
	p.Each(func(k K, v V) {
		nv := f(v)
		if nv.IsBottom() {
			res = res.Delete(k)
		} else {
			res = res.Set(k, nv)
		}
	})
	return Partition[K, V]{m: res}
}

// Leq returns true when p is less or equal to o, pointwise.
func (p Partition[K, V]) Leq(o Partition[K, V]) bool {
	if o.top {
		return true
	}
	if p.top {
		return false
	}
	if p.Len() > o.Len() {
		// some binding of p is not bound in o, and bound values are never bottom
		return false
	}
	return !p.Any(func(k K, v V) bool {
		ov, ok := o.Get(k)
		return !ok || !v.Leq(ov)
	})
}

// Equals returns true when p and o have the same bindings.
func (p Partition[K, V]) Equals(o Partition[K, V]) bool {
	if p.top || o.top {
		return p.top == o.top
	}
	if p.Len() != o.Len() {
		return false
	}
	return !p.Any(func(k K, v V) bool {
		ov, ok := o.Get(k)
		return !ok || !v.Equals(ov)
	})
}

// combine binds every key of o in p to op(p[k], o[k]), with unbound values of p being bottom.
func (p Partition[K, V]) combine(o Partition[K, V], op func(V, V) V) Partition[K, V] {
	if p.top || o.top {
		return TopPartition[K, V]()
	}
	if o.Len() == 0 {
		return p
	}
	res := p.bindings()
	o.Each(func(k K, ov V) {
		if v, ok := res.Get(k); ok {
			res = res.Set(k, op(v, ov))
		} else {
			var bottom V
			res = res.Set(k, op(bottom, ov))
		}
	})
	return Partition[K, V]{m: res}
}

// Join returns the pointwise join of p and o.
func (p Partition[K, V]) Join(o Partition[K, V]) Partition[K, V] {
	if p.Len() == 0 && !p.top {
		return o
	}
	return p.combine(o, func(a, b V) V { return a.Join(b) })
}

// Widen returns the pointwise widening of p by o.
func (p Partition[K, V]) Widen(o Partition[K, V]) Partition[K, V] {
	return p.combine(o, func(a, b V) V { return a.Widen(b) })
}

// intersect keeps the keys bound in both p and o, bound to op(p[k], o[k]).
func (p Partition[K, V]) intersect(o Partition[K, V], op func(V, V) V) Partition[K, V] {
	if p.top {
		return o
	}
	if o.top {
		return p
	}
	res := p.bindings()
	p.Each(func(k K, v V) {
		ov, ok := o.Get(k)
		if !ok {
			res = res.Delete(k)
			return
		}
		nv := op(v, ov)
		if nv.IsBottom() {
			res = res.Delete(k)
		} else {
			res = res.Set(k, nv)
		}
	})
	return Partition[K, V]{m: res}
}

// Meet returns the pointwise meet of p and o.
func (p Partition[K, V]) Meet(o Partition[K, V]) Partition[K, V] {
	return p.intersect(o, func(a, b V) V { return a.Meet(b) })
}

// Narrow returns the pointwise narrowing of p by o.
func (p Partition[K, V]) Narrow(o Partition[K, V]) Partition[K, V] {
	return p.intersect(o, func(a, b V) V { return a.Narrow(b) })
}

// Difference returns the partition where every binding k of p that is also bound in o is replaced by
// diff(p[k], o[k]). Differences that are bottom are removed. The difference with top is bottom.
func (p Partition[K, V]) Difference(o Partition[K, V], diff func(V, V) V) Partition[K, V] {
	if o.top {
		return Partition[K, V]{}
	}
	if p.top || o.Len() == 0 {
		return p
	}
	res := p.bindings()
	p.Each(func(k K, v V) {
		ov, ok := o.Get(k)
		if !ok {
			return
		}
		nv := diff(v, ov)
		if nv.IsBottom() {
			res = res.Delete(k)
		} else {
			res = res.Set(k, nv)
		}
	})
	return Partition[K, V]{m: res}
}
