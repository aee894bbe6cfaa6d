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
	"strings"

	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
)

type effectEntry struct {
	effect CallEffect
	taint  Taint
}

// CallEffectsAbstractDomain maps call effects to taint, pointwise. The zero value is bottom.
type CallEffectsAbstractDomain struct {
	// entries is sorted by effect, holds no bottom taint and is never modified after construction
	entries []effectEntry
	top     bool
}

// TopCallEffects returns the top call effects.
func TopCallEffects() CallEffectsAbstractDomain {
	return CallEffectsAbstractDomain{top: true}
}

// IsBottom returns true when no effect has taint.
func (d CallEffectsAbstractDomain) IsBottom() bool {
	return !d.top && len(d.entries) == 0
}

// IsTop returns true on top.
func (d CallEffectsAbstractDomain) IsTop() bool {
	return d.top
}

// Read returns the taint of the effect, bottom if there is none. Reading top returns top.
func (d CallEffectsAbstractDomain) Read(effect CallEffect) Taint {
	if d.top {
		return TopTaint()
	}
	for _, e := range d.entries {
		if e.effect == effect {
			return e.taint
		}
	}
	return Taint{}
}

// build returns the domain where every effect e is bound to f(e).
func build(f func(CallEffect) Taint) CallEffectsAbstractDomain {
	var entries []effectEntry
	for _, effect := range CallEffects {
		if t := f(effect); !t.IsBottom() {
			entries = append(entries, effectEntry{effect: effect, taint: t})
		}
	}
	return CallEffectsAbstractDomain{entries: entries}
}

// Write joins the taint into the taint of the effect. Writing never removes taint.
func (d *CallEffectsAbstractDomain) Write(effect CallEffect, t Taint) {
	if d.top || t.IsBottom() {
		return
	}
	current := *d
	*d = build(func(e CallEffect) Taint {
		if e == effect {
			return current.Read(e).Join(t)
		}
		return current.Read(e)
	})
}

// Visit calls f on every effect and its taint. Visiting top panics, as top has no enumerable representation.
func (d CallEffectsAbstractDomain) Visit(f func(CallEffect, Taint)) {
	if d.top {
		panic("cannot visit top call effects")
	}
	for _, e := range d.entries {
		f(e.effect, e.taint)
	}
}

// Map returns the domain where every taint t is replaced by f(t).
func (d CallEffectsAbstractDomain) Map(f func(Taint) Taint) CallEffectsAbstractDomain {
	if d.top || len(d.entries) == 0 {
		return d
	}
	return build(func(e CallEffect) Taint {
		if t := d.Read(e); !t.IsBottom() {
			return f(t)
		}
		return Taint{}
	})
}

// Leq returns true when d is less or equal to o, pointwise.
func (d CallEffectsAbstractDomain) Leq(o CallEffectsAbstractDomain) bool {
	if o.top {
		return true
	}
	if d.top {
		return false
	}
	for _, e := range d.entries {
		if !e.taint.Leq(o.Read(e.effect)) {
			return false
		}
	}
	return true
}

// Equals returns true when d and o bind the same effects to equal taint.
func (d CallEffectsAbstractDomain) Equals(o CallEffectsAbstractDomain) bool {
	if d.top || o.top {
		return d.top == o.top
	}
	if len(d.entries) != len(o.entries) {
		return false
	}
	for _, e := range d.entries {
		if !e.taint.Equals(o.Read(e.effect)) {
			return false
		}
	}
	return true
}

func (d CallEffectsAbstractDomain) combine(o CallEffectsAbstractDomain, op func(Taint, Taint) Taint) CallEffectsAbstractDomain {
	if d.top || o.top {
		return TopCallEffects()
	}
	if len(o.entries) == 0 {
		return d
	}
	if len(d.entries) == 0 {
		return o
	}
	return build(func(e CallEffect) Taint { return op(d.Read(e), o.Read(e)) })
}

func (d CallEffectsAbstractDomain) intersect(o CallEffectsAbstractDomain, op func(Taint, Taint) Taint) CallEffectsAbstractDomain {
	if d.top {
		return o
	}
	if o.top {
		return d
	}
	if len(d.entries) == 0 || len(o.entries) == 0 {
		return CallEffectsAbstractDomain{}
	}
	var entries []effectEntry
	for _, e := range d.entries {
		other := o.Read(e.effect)
		if other.IsBottom() {
			continue
		}
		if t := op(e.taint, other); !t.IsBottom() {
			entries = append(entries, effectEntry{effect: e.effect, taint: t})
		}
	}
	return CallEffectsAbstractDomain{entries: entries}
}

// Join returns the pointwise join of d and o.
func (d CallEffectsAbstractDomain) Join(o CallEffectsAbstractDomain) CallEffectsAbstractDomain {
	return d.combine(o, Taint.Join)
}

// Widen returns the pointwise widening of d by o.
func (d CallEffectsAbstractDomain) Widen(o CallEffectsAbstractDomain) CallEffectsAbstractDomain {
	return d.combine(o, Taint.Widen)
}

// Meet returns the pointwise meet of d and o.
func (d CallEffectsAbstractDomain) Meet(o CallEffectsAbstractDomain) CallEffectsAbstractDomain {
	return d.intersect(o, Taint.Meet)
}

// Narrow returns the pointwise narrowing of d by o.
func (d CallEffectsAbstractDomain) Narrow(o CallEffectsAbstractDomain) CallEffectsAbstractDomain {
	return d.intersect(o, Taint.Narrow)
}

// Difference returns the pointwise difference of d and o.
func (d CallEffectsAbstractDomain) Difference(o CallEffectsAbstractDomain) CallEffectsAbstractDomain {
	if o.top {
		return CallEffectsAbstractDomain{}
	}
	if d.top || len(o.entries) == 0 {
		return d
	}
	return build(func(e CallEffect) Taint { return d.Read(e).Difference(o.Read(e)) })
}

// ToJSON returns the list of effects with their taint, as objects {"port": ..., "taint": [...]}.
func (d CallEffectsAbstractDomain) ToJSON(idx *index.Index) []any {
	if d.top {
		panic("cannot serialize top call effects")
	}
	res := make([]any, 0, len(d.entries))
	for _, e := range d.entries {
		res = append(res, map[string]any{"port": e.effect.ToJSON(), "taint": e.taint.ToJSON(idx)})
	}
	return res
}

// CallEffectsFromJSON parses a list of effects with their taint.
func CallEffectsFromJSON(idx *index.Index, value any) (CallEffectsAbstractDomain, error) {
	if value == nil {
		return CallEffectsAbstractDomain{}, nil
	}
	values, ok := value.([]any)
	if !ok {
		return CallEffectsAbstractDomain{}, jsonutil.NewError(value, "", "array of call effects")
	}
	var res CallEffectsAbstractDomain
	for _, v := range values {
		obj, err := jsonutil.Object(v)
		if err != nil {
			return CallEffectsAbstractDomain{}, err
		}
		effect, err := CallEffectFromJSON(obj["port"])
		if err != nil {
			return CallEffectsAbstractDomain{}, fmt.Errorf("invalid call effect port: %w", err)
		}
		t, err := TaintFromJSON(idx, obj["taint"])
		if err != nil {
			return CallEffectsAbstractDomain{}, err
		}
		res.Write(effect, t)
	}
	return res, nil
}

func (d CallEffectsAbstractDomain) String() string {
	if d.top {
		return "T"
	}
	var b strings.Builder
	b.WriteString("{")
	for _, e := range d.entries {
		fmt.Fprintf(&b, "CallEffects(%s): %s,", e.effect, e.taint)
	}
	b.WriteString("}")
	return b.String()
}
