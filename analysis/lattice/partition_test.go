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

// maxInt is the lattice of non-negative integers ordered by <=, with 0 as bottom. Widening jumps to widenedInt.
type maxInt int

const widenedInt maxInt = 1000

func (a maxInt) IsBottom() bool       { return a == 0 }
func (a maxInt) Leq(b maxInt) bool    { return a <= b }
func (a maxInt) Equals(b maxInt) bool { return a == b }
func (a maxInt) Join(b maxInt) maxInt { return max(a, b) }
func (a maxInt) Meet(b maxInt) maxInt { return min(a, b) }
func (a maxInt) Narrow(b maxInt) maxInt {
	return min(a, b)
}
func (a maxInt) Widen(b maxInt) maxInt {
	if b > a {
		return widenedInt
	}
	return a
}

func partition(bindings map[string]maxInt) Partition[string, maxInt] {
	var p Partition[string, maxInt]
	for k, v := range bindings {
		p = p.Set(k, v)
	}
	return p
}

func TestPartitionBindings(t *testing.T) {
	var p Partition[string, maxInt]
	assert.True(t, p.IsBottom())
	p = p.Set("b", 2).Set("a", 1).Set("c", 0)
	assert.Equal(t, []string{"a", "b"}, p.Keys())
	v, ok := p.Get("b")
	assert.True(t, ok)
	assert.Equal(t, maxInt(2), v)
	_, ok = p.Get("c")
	assert.False(t, ok)

	q := p.Update("a", func(v maxInt) maxInt { return v + 5 }).Update("d", func(v maxInt) maxInt { return v + 1 })
	assert.Equal(t, []string{"a", "b", "d"}, q.Keys())
	v, _ = q.Get("a")
	assert.Equal(t, maxInt(6), v)
	// p is unchanged
	v, _ = p.Get("a")
	assert.Equal(t, maxInt(1), v)

	removed := q.Set("a", 0)
	assert.Equal(t, []string{"b", "d"}, removed.Keys())
	assert.Equal(t, 3, q.Len())

	halved := q.Map(func(v maxInt) maxInt { return v / 2 })
	assert.Equal(t, []string{"a", "b"}, halved.Keys())

	assert.True(t, q.Any(func(k string, v maxInt) bool { return v > 5 }))
	assert.False(t, q.Any(func(k string, v maxInt) bool { return v > 6 }))
}

func TestPartitionLattice(t *testing.T) {
	a := partition(map[string]maxInt{"x": 1, "y": 3})
	b := partition(map[string]maxInt{"y": 2, "z": 4})
	top := TopPartition[string, maxInt]()
	var bottom Partition[string, maxInt]

	join := a.Join(b)
	assert.True(t, join.Equals(partition(map[string]maxInt{"x": 1, "y": 3, "z": 4})))
	assert.True(t, a.Leq(join))
	assert.True(t, b.Leq(join))
	assert.False(t, join.Leq(a))
	assert.True(t, bottom.Leq(a))
	assert.True(t, a.Leq(top))
	assert.False(t, top.Leq(a))
	assert.True(t, a.Join(top).IsTop())
	assert.True(t, bottom.Join(a).Equals(a))

	meet := a.Meet(b)
	assert.True(t, meet.Equals(partition(map[string]maxInt{"y": 2})))
	assert.True(t, a.Meet(top).Equals(a))
	assert.True(t, top.Meet(b).Equals(b))
	assert.True(t, a.Narrow(b).Equals(meet))

	widened := a.Widen(b)
	assert.True(t, widened.Equals(partition(map[string]maxInt{"x": 1, "y": 3, "z": widenedInt})))

	diff := func(a, b maxInt) maxInt {
		if a.Leq(b) {
			return 0
		}
		return a
	}
	assert.True(t, a.Difference(b, diff).Equals(a))
	assert.True(t, b.Difference(a, diff).Equals(partition(map[string]maxInt{"z": 4})))
	assert.True(t, a.Difference(top, diff).IsBottom())
	assert.True(t, top.Difference(a, diff).IsTop())
}
