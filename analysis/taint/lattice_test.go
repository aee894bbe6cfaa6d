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

package taint

import (
	"fmt"
	"testing"
)

const numRandomTaints = 300

// TestTaintLatticeLaws checks the lattice laws on random taint values.
func TestTaintLatticeLaws(t *testing.T) {
	for seed := int64(0); seed < numRandomTaints; seed++ {
		g := newGenerator(seed)
		a, b, c := g.taint(2), g.taint(2), g.taint(2)
		bottom, top := Taint{}, TopTaint()

		check := func(name string, ok bool) {
			if !ok {
				t.Fatalf("seed %d: %s does not hold\na = %s\nb = %s\nc = %s", seed, name, a, b, c)
			}
		}

		check("a <= a", a.Leq(a))
		check("bottom <= a", bottom.Leq(a))
		check("a <= top", a.Leq(top))
		check("!(top <= a)", !top.Leq(a))
		check("a join bottom == a", a.Join(bottom).Equals(a))
		check("bottom join a == a", bottom.Join(a).Equals(a))
		check("a meet top == a", a.Meet(top).Equals(a))
		check("a join top == top", a.Join(top).IsTop())

		ab := a.Join(b)
		check("a join b == b join a", ab.Equals(b.Join(a)))
		check("a join a == a", a.Join(a).Equals(a))
		check("(a join b) join c == a join (b join c)", ab.Join(c).Equals(a.Join(b.Join(c))))
		check("a <= a join b", a.Leq(ab))
		check("b <= a join b", b.Leq(ab))
		check("transitivity", !a.Leq(ab) || !ab.Leq(ab.Join(c)) || a.Leq(ab.Join(c)))

		widened := a.Widen(b)
		check("a <= a widen b", a.Leq(widened))
		check("b <= a widen b", b.Leq(widened))

		met := a.Meet(b)
		check("a meet b <= a", met.Leq(a))
		check("a meet b <= b", met.Leq(b))
		check("a meet a == a", a.Meet(a).Equals(a))
		check("a narrow top == a", a.Narrow(top).Equals(a))

		check("a difference b <= a", a.Difference(b).Leq(a))
		check("a difference a == bottom", a.Difference(a).IsBottom())
		check("(a join b) difference a <= b",
			func() bool {
				d := ab.Difference(a)
				return d.Leq(ab) && d.Join(a).Equals(ab)
			}())
	}
}

func TestCallPositionFramesLatticeLaws(t *testing.T) {
	for seed := int64(0); seed < numRandomTaints; seed++ {
		g := newGenerator(seed)
		position := g.positions[0]
		frames := func() CallPositionFrames {
			var res CallPositionFrames
			for i := g.rnd.Intn(4); i > 0; i-- {
				config := g.config()
				if config.IsLeaf() {
					continue
				}
				config.Callee = g.methods[0]
				config.CallPosition = position
				res.Add(config)
			}
			return res
		}
		a, b := frames(), frames()
		name := fmt.Sprintf("seed %d", seed)
		if !a.Leq(a.Join(b)) || !b.Leq(a.Join(b)) {
			t.Fatalf("%s: join is not an upper bound", name)
		}
		if !a.Join(b).Equals(b.Join(a)) {
			t.Fatalf("%s: join is not commutative", name)
		}
		if !a.Meet(b).Leq(a) || !a.Meet(b).Leq(b) {
			t.Fatalf("%s: meet is not a lower bound", name)
		}
		if !a.Difference(b).Leq(a) {
			t.Fatalf("%s: difference adds frames", name)
		}
		if !a.IsBottom() && a.Join(b).Position() != position {
			t.Fatalf("%s: join lost the position", name)
		}
	}
}

func TestFeatureMayAlwaysSetLaws(t *testing.T) {
	for seed := int64(0); seed < numRandomTaints; seed++ {
		g := newGenerator(seed)
		a, b := g.mayAlways(), g.mayAlways()
		if !a.Leq(a.Join(b)) || !b.Leq(a.Join(b)) {
			t.Fatalf("seed %d: join of %s and %s is not an upper bound", seed, a, b)
		}
		if m := a.Meet(b); !m.Leq(a) || !m.Leq(b) {
			t.Fatalf("seed %d: meet of %s and %s is not a lower bound", seed, a, b)
		}
		if !BottomFeatures().Leq(a) || a.Leq(BottomFeatures()) {
			t.Fatalf("seed %d: bottom is not the least element", seed)
		}
		if !a.Join(b).Equals(b.Join(a)) {
			t.Fatalf("seed %d: join is not commutative", seed)
		}
	}
}
