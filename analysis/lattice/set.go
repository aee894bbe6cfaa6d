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
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// A Set is an immutable finite set of ordered elements. The zero Set is the empty set.
// Operations never modify their receiver or arguments, so sets can be freely copied and shared.
type Set[T constraints.Ordered] struct {
	// elems is sorted in increasing order, without duplicates, and never modified after construction
	elems []T
}

// NewSet returns the set containing the elements xs.
func NewSet[T constraints.Ordered](xs ...T) Set[T] {
	if len(xs) == 0 {
		return Set[T]{}
	}
	elems := slices.Clone(xs)
	slices.Sort(elems)
	return Set[T]{elems: slices.Compact(elems)}
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int {
	return len(s.elems)
}

// IsEmpty returns true when the set has no elements. The empty set is the bottom of the set lattice.
func (s Set[T]) IsEmpty() bool {
	return len(s.elems) == 0
}

func (s Set[T]) find(x T) (int, bool) {
	i := sort.Search(len(s.elems), func(i int) bool { return s.elems[i] >= x })
	return i, i < len(s.elems) && s.elems[i] == x
}

// Contains returns true when x is in the set.
func (s Set[T]) Contains(x T) bool {
	_, ok := s.find(x)
	return ok
}

// Add returns the set s ∪ {x}.
func (s Set[T]) Add(x T) Set[T] {
	i, ok := s.find(x)
	if ok {
		return s
	}
	elems := make([]T, 0, len(s.elems)+1)
	elems = append(elems, s.elems[:i]...)
	elems = append(elems, x)
	elems = append(elems, s.elems[i:]...)
	return Set[T]{elems: elems}
}

// Remove returns the set s \ {x}.
func (s Set[T]) Remove(x T) Set[T] {
	i, ok := s.find(x)
	if !ok {
		return s
	}
	elems := make([]T, 0, len(s.elems)-1)
	elems = append(elems, s.elems[:i]...)
	elems = append(elems, s.elems[i+1:]...)
	return Set[T]{elems: elems}
}

// Union returns s ∪ o.
func (s Set[T]) Union(o Set[T]) Set[T] {
	if len(o.elems) == 0 {
		return s
	}
	if len(s.elems) == 0 {
		return o
	}
	elems := make([]T, 0, len(s.elems)+len(o.elems))
	i, j := 0, 0
	for i < len(s.elems) && j < len(o.elems) {
		switch {
		case s.elems[i] < o.elems[j]:
			elems = append(elems, s.elems[i])
			i++
		case s.elems[i] > o.elems[j]:
			elems = append(elems, o.elems[j])
			j++
		default:
			elems = append(elems, s.elems[i])
			i++
			j++
		}
	}
	elems = append(elems, s.elems[i:]...)
	elems = append(elems, o.elems[j:]...)
	if len(elems) == len(s.elems) {
		return s
	}
	return Set[T]{elems: elems}
}

// Intersect returns s ∩ o.
func (s Set[T]) Intersect(o Set[T]) Set[T] {
	var elems []T
	i, j := 0, 0
	for i < len(s.elems) && j < len(o.elems) {
		switch {
		case s.elems[i] < o.elems[j]:
			i++
		case s.elems[i] > o.elems[j]:
			j++
		default:
			elems = append(elems, s.elems[i])
			i++
			j++
		}
	}
	if len(elems) == len(s.elems) {
		return s
	}
	return Set[T]{elems: elems}
}

// Difference returns s \ o.
func (s Set[T]) Difference(o Set[T]) Set[T] {
	if len(o.elems) == 0 || len(s.elems) == 0 {
		return s
	}
	var elems []T
	for _, x := range s.elems {
		if !o.Contains(x) {
			elems = append(elems, x)
		}
	}
	if len(elems) == len(s.elems) {
		return s
	}
	return Set[T]{elems: elems}
}

// IsSubset returns true when s ⊆ o.
func (s Set[T]) IsSubset(o Set[T]) bool {
	if len(s.elems) > len(o.elems) {
		return false
	}
	for _, x := range s.elems {
		if !o.Contains(x) {
			return false
		}
	}
	return true
}

// Equals returns true when s and o have the same elements.
func (s Set[T]) Equals(o Set[T]) bool {
	return slices.Equal(s.elems, o.elems)
}

// Elements returns the elements of the set in increasing order. The returned slice is a copy.
func (s Set[T]) Elements() []T {
	return slices.Clone(s.elems)
}

// Each calls f on every element in increasing order.
func (s Set[T]) Each(f func(T)) {
	for _, x := range s.elems {
		f(x)
	}
}

// Map returns the set {f(x) | x ∈ s}.
func Map[T, S constraints.Ordered](s Set[T], f func(T) S) Set[S] {
	elems := make([]S, 0, len(s.elems))
	for _, x := range s.elems {
		elems = append(elems, f(x))
	}
	return NewSet(elems...)
}

func (s Set[T]) String() string {
	parts := make([]string, len(s.elems))
	for i, x := range s.elems {
		parts[i] = fmt.Sprint(x)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
