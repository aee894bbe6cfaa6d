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
	"context"
	"errors"
	"fmt"

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/config"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/lattice"
	"github.com/awslabs/ar-go-taint/analysis/models"
	"github.com/awslabs/ar-go-taint/analysis/taint"
	"github.com/awslabs/ar-go-taint/internal/graphutil"
	yb "github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph/topo"
)

// Statistics summarizes a run of the driver.
type Statistics struct {
	// Methods is the number of methods of the call graph
	Methods int
	// Calls is the number of call edges
	Calls int
	// SelfLoops is the number of methods calling themselves directly
	SelfLoops int
	// RecursiveComponents is the number of strongly connected components with a cycle
	RecursiveComponents int
	// Iterations is the total number of fixpoint iterations over recursive components
	Iterations int
	// CutOff is the number of frames dropped because they reached the maximum distance
	CutOff int
	// Sanitized is the number of frames dropped because their callee is a sanitizer of their kind
	Sanitized int
}

// Driver computes the sink models of the methods of a call graph.
type Driver struct {
	cfg      *config.Config
	logger   *config.LogGroup
	idx      *index.Index
	declared *models.Models
	graph    *graphutil.MethodGraph
	calls    map[index.Method][]models.Call
	current  map[index.Method]models.MethodModel
	stats    Statistics
}

// NewDriver returns a driver propagating the sinks declared in the models over their call edges.
func NewDriver(cfg *config.Config, logger *config.LogGroup, declared *models.Models) *Driver {
	idx := declared.Index()
	d := &Driver{
		cfg:      cfg,
		logger:   logger,
		idx:      idx,
		declared: declared,
		graph:    graphutil.NewMethodGraph(idx),
		calls:    map[index.Method][]models.Call{},
		current:  map[index.Method]models.MethodModel{},
	}
	for _, mm := range declared.Methods() {
		d.graph.AddNode(mm.Method())
	}
	for _, call := range declared.Calls() {
		d.graph.AddEdge(call.Caller, call.Callee)
		d.calls[call.Caller] = append(d.calls[call.Caller], call)
	}
	d.stats.Methods = len(d.graph.Methods)
	d.stats.Calls = len(declared.Calls())
	return d
}

// Graph returns the call graph of the driver.
func (d *Driver) Graph() *graphutil.MethodGraph {
	return d.graph
}

// Statistics returns the statistics of the last run.
func (d *Driver) Statistics() Statistics {
	return d.stats
}

// Model returns the current model of the method: its inferred model after Run, and its declared model before.
func (d *Driver) Model(method index.Method) models.MethodModel {
	if mm, ok := d.current[method]; ok {
		return mm
	}
	return d.declared.Method(method)
}

// Run infers the models of all the methods of the call graph. The result contains the declared field models, the
// inferred method models and the call edges.
func (d *Driver) Run(ctx context.Context) (*models.Models, error) {
	check := yb.Check(d.graph)
	d.stats.SelfLoops = check.Loops
	d.logger.Infof("propagating sinks over %d methods and %d call edges (%d self loops)",
		d.stats.Methods, check.Size, check.Loops)

	// self loops are not cycles for topo.Sort
	if check.Loops == 0 {
		sorted, err := topo.Sort(d.graph)
		if err == nil {
			for i := len(sorted) - 1; i >= 0; i-- {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				method := sorted[i].(graphutil.MethodNode).Method
				d.current[method] = d.infer(method)
			}
			return d.result(), nil
		}
		var unorderable topo.Unorderable
		if !errors.As(err, &unorderable) {
			return nil, fmt.Errorf("failed to sort call graph: %w", err)
		}
		d.logger.Debugf("call graph has %d recursive components", len(unorderable))
	}

	for _, component := range d.graph.BottomUpComponents() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !d.graph.IsRecursive(component) {
			d.current[component[0]] = d.infer(component[0])
			continue
		}
		d.stats.RecursiveComponents++
		if err := d.fixpoint(component); err != nil {
			return nil, err
		}
	}
	return d.result(), nil
}

// fixpoint iterates the inference over the methods of a recursive component until their models are stable.
func (d *Driver) fixpoint(component []index.Method) error {
	for iteration := 1; ; iteration++ {
		if iteration > d.cfg.MaxIterations {
			return fmt.Errorf("models of %d recursive methods including %s are not stable after %d iterations",
				len(component), d.idx.MethodName(component[0]), d.cfg.MaxIterations)
		}
		d.stats.Iterations++
		changed := false
		for _, method := range component {
			old := d.Model(method)
			next := d.infer(method)
			if next.Leq(old) {
				continue
			}
			if iteration > d.cfg.WidenAfter {
				old.WidenWith(next)
			} else {
				old.JoinWith(next)
			}
			d.current[method] = old
			changed = true
		}
		if !changed {
			d.logger.Debugf("models of %d recursive methods including %s are stable after %d iterations",
				len(component), d.idx.MethodName(component[0]), iteration)
			return nil
		}
	}
}

// infer returns the model of the caller: its declared sinks joined with the sinks of its callees propagated over its
// call edges.
func (d *Driver) infer(caller index.Method) models.MethodModel {
	result := d.declared.Method(caller)
	for _, call := range d.calls[caller] {
		callee := d.Model(call.Callee)
		if callee.IsEmpty() {
			continue
		}
		propagation := call.Propagation(d.idx, d.cfg.MaxSourceSinkDistance)
		callee.EachSink(func(port access.Root, sinks taint.Taint) {
			callerPort, ok := call.Arguments[port]
			if !ok {
				return
			}
			p := propagation
			p.CalleePort = access.NewAccessPath(port)
			result.AddSink(callerPort, d.propagate(call, sinks, p))
		})
		callee.EffectSinks().Visit(func(effect taint.CallEffect, sinks taint.Taint) {
			p := propagation
			p.CalleePort = effect.AccessPath()
			result.AddEffectSink(effect, d.propagate(call, sinks, p))
		})
	}
	d.logger.Tracef("model of %s: %s", d.idx.MethodName(caller), result)
	return result
}

// propagate returns the sinks of the callee seen from the caller, without the frames of sanitizers.
func (d *Driver) propagate(call models.Call, sinks taint.Taint, p taint.Propagation) taint.Taint {
	if sinks.IsTop() {
		return sinks
	}
	cut := 0
	sinks.Visit(func(f taint.Frame, _ lattice.Set[index.Position]) {
		if !f.IsArtificialSource() && f.Distance() >= p.MaxDistance {
			cut++
		}
	})
	if cut > 0 {
		d.stats.CutOff += cut
		d.logger.Debugf("%d frames of %s cut off at the call from %s", cut,
			d.idx.MethodName(call.Callee), d.idx.MethodName(call.Caller))
	}
	propagated := sinks.Propagate(p)
	filtered := propagated.FilterInvalidFrames(d.isNotSanitizer)
	d.stats.Sanitized += propagated.NumFrames() - filtered.NumFrames()
	return filtered
}

func (d *Driver) isNotSanitizer(callee index.Method, _ access.AccessPath, kind index.Kind) bool {
	if callee == index.NoMethod {
		return true
	}
	return !d.cfg.IsSanitizer(d.idx.MethodName(callee), d.idx.KindName(kind))
}

func (d *Driver) result() *models.Models {
	res := models.NewModels(d.idx)
	res.JoinWith(d.declared)
	for _, mm := range d.current {
		if !mm.IsEmpty() {
			res.SetMethod(mm)
		}
	}
	return res
}
