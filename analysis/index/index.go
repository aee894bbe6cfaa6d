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

// Package index implements the interning context shared by all the taint domain values of one analysis run.
//
// Kinds, methods, fields, positions and features are interned in an Index and referred to by small integer handles.
// Two handles of the same Index are equal if and only if they denote the same entity, which makes equality and
// ordering of handles plain integer operations. Each Index has a generation number stored in the high bits of its
// handles: resolving a handle with another Index panics.
//
// An Index is safe for concurrent use.
package index

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/awslabs/ar-go-taint/internal/funcutil"
	"github.com/puzpuzpuz/xsync/v4"
)

// A Kind is a taint label, e.g. a source or sink category.
type Kind uint64

// A Method is a method identity.
type Method uint64

// A Field is a field identity.
type Field uint64

// A Position is a source code position.
type Position uint64

// A Feature is a label attached to taint facts to describe properties of the flow.
type Feature uint64

const (
	// NoKind is the null kind.
	NoKind Kind = 0
	// NoMethod is the null method, e.g. the callee of a leaf frame.
	NoMethod Method = 0
	// NoField is the null field.
	NoField Field = 0
	// NoPosition is the null position, e.g. the call position of a leaf frame.
	NoPosition Position = 0
)

const (
	artificialSourceName = "<ArtificialSource>"
	unknownLine          = -1
	generationShift      = 32
	sequenceMask         = 1<<generationShift - 1
)

var generations atomic.Uint32

// IsArtificialSource returns true when k is the artificial source kind of its index, which is always the first
// interned kind.
func (k Kind) IsArtificialSource() bool {
	return k != NoKind && uint64(k)&sequenceMask == 1
}

// PositionInfo is the content of an interned position.
type PositionInfo struct {
	Path string
	Line int
}

// IsUnknown returns true when the position does not point to a known line.
func (p PositionInfo) IsUnknown() bool {
	return p.Line == unknownLine && p.Path == ""
}

func (p PositionInfo) String() string {
	if p.Path == "" {
		return strconv.Itoa(p.Line)
	}
	return p.Path + ":" + strconv.Itoa(p.Line)
}

// table interns values of type T keyed by their string representation.
type table[T any] struct {
	generation uint64
	ids        *xsync.Map[string, uint64]
	mu         sync.RWMutex
	values     []T
}

func newTable[T any](generation uint64) *table[T] {
	return &table[T]{
		generation: generation,
		ids:        xsync.NewMap[string, uint64](),
	}
}

func (t *table[T]) intern(key string, value T) uint64 {
	if id, ok := t.ids.Load(key); ok {
		return id
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids.Load(key); ok {
		return id
	}
	t.values = append(t.values, value)
	id := t.generation<<generationShift | uint64(len(t.values))
	t.ids.Store(key, id)
	return id
}

func (t *table[T]) lookup(key string) (uint64, bool) {
	return t.ids.Load(key)
}

func (t *table[T]) get(id uint64, what string) T {
	if id>>generationShift != t.generation {
		panic(fmt.Sprintf("%s handle %#x does not belong to index generation %d", what, id, t.generation))
	}
	seq := id & sequenceMask
	t.mu.RLock()
	defer t.mu.RUnlock()
	if seq == 0 || seq > uint64(len(t.values)) {
		panic(fmt.Sprintf("invalid %s handle %#x", what, id))
	}
	return t.values[seq-1]
}

func (t *table[T]) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Index is the interning context of an analysis run.
type Index struct {
	generation uint64
	kinds      *table[string]
	methods    *table[string]
	fields     *table[string]
	positions  *table[PositionInfo]
	features   *table[string]

	artificialSource Kind
	unknownPosition  Position
}

// New returns a fresh index with its own generation of handles.
func New() *Index {
	gen := uint64(generations.Add(1))
	idx := &Index{
		generation: gen,
		kinds:      newTable[string](gen),
		methods:    newTable[string](gen),
		fields:     newTable[string](gen),
		positions:  newTable[PositionInfo](gen),
		features:   newTable[string](gen),
	}
	idx.artificialSource = idx.Kind(artificialSourceName)
	idx.unknownPosition = idx.Position("", unknownLine)
	return idx
}

// Kind interns the kind with the given name.
func (idx *Index) Kind(name string) Kind {
	return Kind(idx.kinds.intern(name, name))
}

// KindName returns the name of the kind.
func (idx *Index) KindName(k Kind) string {
	return idx.kinds.get(uint64(k), "kind")
}

// ArtificialSource returns the kind used to track the flow of arguments within a method.
func (idx *Index) ArtificialSource() Kind {
	return idx.artificialSource
}

// Method interns the method with the given signature.
func (idx *Index) Method(signature string) Method {
	return Method(idx.methods.intern(signature, signature))
}

// LookupMethod returns the method with the given signature, and false if it has never been interned.
func (idx *Index) LookupMethod(signature string) (Method, bool) {
	id, ok := idx.methods.lookup(signature)
	return Method(id), ok
}

// MethodName returns the signature of the method.
func (idx *Index) MethodName(m Method) string {
	return idx.methods.get(uint64(m), "method")
}

// Field interns the field with the given name.
func (idx *Index) Field(name string) Field {
	return Field(idx.fields.intern(name, name))
}

// FieldName returns the name of the field.
func (idx *Index) FieldName(f Field) string {
	return idx.fields.get(uint64(f), "field")
}

// Position interns the position at line in the file path.
func (idx *Index) Position(path string, line int) Position {
	info := PositionInfo{Path: path, Line: line}
	return Position(idx.positions.intern(strconv.Quote(path)+":"+strconv.Itoa(line), info))
}

// PositionInfo returns the content of the position.
func (idx *Index) PositionInfo(p Position) PositionInfo {
	return idx.positions.get(uint64(p), "position")
}

// UnknownPosition returns the position used when no position is known, e.g. for field taint.
func (idx *Index) UnknownPosition() Position {
	return idx.unknownPosition
}

// Feature interns the feature with the given name.
func (idx *Index) Feature(name string) Feature {
	return Feature(idx.features.intern(name, name))
}

// FeatureName returns the name of the feature.
func (idx *Index) FeatureName(f Feature) string {
	return idx.features.get(uint64(f), "feature")
}

// ViaTypeOfFeature returns the feature added to facts flowing through a port whose argument has type typ.
// An empty type is unknown.
func (idx *Index) ViaTypeOfFeature(typ string) Feature {
	if typ == "" {
		typ = "unknown"
	}
	return idx.Feature("via-type:" + typ)
}

// ViaValueOfFeature returns the feature added to facts flowing through a port whose argument is the constant value.
func (idx *Index) ViaValueOfFeature(value funcutil.Optional[string]) Feature {
	if !funcutil.IsSome(value) {
		return idx.Feature("via-value:unknown")
	}
	return idx.Feature("via-value:" + value.Value())
}

// Stats is a summary of the number of entities interned in the index.
type Stats struct {
	Kinds     int
	Methods   int
	Fields    int
	Positions int
	Features  int
}

// Stats returns the number of entities interned in the index.
func (idx *Index) Stats() Stats {
	return Stats{
		Kinds:     idx.kinds.size(),
		Methods:   idx.methods.size(),
		Fields:    idx.fields.size(),
		Positions: idx.positions.size(),
		Features:  idx.features.size(),
	}
}
