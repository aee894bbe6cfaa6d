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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOperations(t *testing.T) {
	a := NewSet(3, 1, 2, 3)
	b := NewSet(2, 4)
	assert.Equal(t, []int{1, 2, 3}, a.Elements())
	assert.Equal(t, 3, a.Len())
	assert.True(t, Set[int]{}.IsEmpty())
	assert.True(t, a.Contains(2))
	assert.False(t, a.Contains(4))

	assert.Equal(t, []int{1, 2, 3, 4}, a.Union(b).Elements())
	assert.Equal(t, []int{2}, a.Intersect(b).Elements())
	assert.Equal(t, []int{1, 3}, a.Difference(b).Elements())
	assert.Equal(t, []int{0, 1, 2, 3}, a.Add(0).Elements())
	assert.Equal(t, []int{1, 3}, a.Remove(2).Elements())
	assert.True(t, a.Remove(5).Equals(a))

	assert.True(t, NewSet(1, 3).IsSubset(a))
	assert.False(t, b.IsSubset(a))
	assert.True(t, Set[int]{}.IsSubset(b))
	assert.True(t, a.Union(Set[int]{}).Equals(a))
	assert.True(t, a.Intersect(Set[int]{}).IsEmpty())

	doubled := Map(a, func(x int) int { return x / 2 })
	assert.Equal(t, []int{0, 1}, doubled.Elements())
}

func TestSetOperationsDoNotShareMutations(t *testing.T) {
	a := NewSet(1, 2)
	b := a.Add(3)
	c := a.Add(4)
	assert.Equal(t, []int{1, 2}, a.Elements())
	assert.Equal(t, []int{1, 2, 3}, b.Elements())
	assert.Equal(t, []int{1, 2, 4}, c.Elements())

	elems := a.Elements()
	elems[0] = 10
	assert.True(t, a.Contains(1))

	var visited []int
	b.Each(func(x int) { visited = append(visited, x) })
	assert.Equal(t, []int{1, 2, 3}, visited)
}
