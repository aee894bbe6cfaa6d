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

package summaries

import (
	"fmt"

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
	"github.com/awslabs/ar-go-taint/analysis/models"
	"github.com/awslabs/ar-go-taint/analysis/taint"
	"github.com/awslabs/ar-go-taint/internal/graphutil"
)

// Step is a node of a sink trace: the taint entering Port of Method reaches a sink of Kind. Position is the position
// of the call to Method in the method of the parent step.
type Step struct {
	Method   index.Method
	Port     access.AccessPath
	Kind     index.Kind
	Position index.Position
	Distance int
}

// IsLeaf returns true when the step is the sink itself.
func (s Step) IsLeaf() bool {
	return s.Method == index.NoMethod
}

// Explain returns the tree of the call chains from the port of the method to the sinks it reaches, following the
// frames of the models. Chains end at a sink, or at a method already on the chain. The
// CallEffect port explains the call-chain sinks of the method.
func Explain(m *models.Models, method index.Method, port access.Root) *graphutil.Tree[Step] {
	path := access.NewAccessPath(port)
	if port.IsCallEffect() {
		path = taint.CallChain.AccessPath()
	}
	root := graphutil.NewTree(Step{Method: method, Port: path})
	explain(m, root, map[index.Method]bool{method: true})
	return root
}

func explain(m *models.Models, node *graphutil.Tree[Step], onChain map[index.Method]bool) {
	step := node.Label
	var sinks taint.Taint
	if step.Port.Root.IsCallEffect() {
		m.Method(step.Method).EffectSinks().Visit(func(effect taint.CallEffect, t taint.Taint) {
			if effect.AccessPath().Equal(step.Port) {
				sinks = t
			}
		})
	} else {
		sinks = m.Method(step.Method).Sink(step.Port.Root)
	}
	if sinks.IsTop() {
		return
	}
	sinks.Visit(func(f taint.Frame, _ lattice.Set[index.Position]) {
		if step.Kind != index.NoKind && f.Kind() != step.Kind {
			return
		}
		next := Step{
			Method:   f.Callee(),
			Port:     f.CalleePort(),
			Kind:     f.Kind(),
			Position: f.CallPosition(),
			Distance: f.Distance(),
		}
		child := node.AddChild(next)
		if next.IsLeaf() || onChain[next.Method] {
			return
		}
		onChain[next.Method] = true
		explain(m, child, onChain)
		delete(onChain, next.Method)
	})
}

// FormatStep returns a one-line description of the step.
func FormatStep(idx *index.Index, s Step) string {
	if s.IsLeaf() {
		return fmt.Sprintf("sink %s", idx.KindName(s.Kind))
	}
	res := fmt.Sprintf("%s %s", idx.MethodName(s.Method), s.Port)
	if s.Position != index.NoPosition {
		res += " at " + idx.PositionInfo(s.Position).String()
	}
	if s.Kind != index.NoKind {
		res += fmt.Sprintf(" [%s, distance %d]", idx.KindName(s.Kind), s.Distance)
	}
	return res
}
