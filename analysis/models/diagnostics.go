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

package models

import (
	"sync"

	"github.com/awslabs/ar-go-taint/analysis/config"
)

// FieldModelConsistencyError is the event recorded when a field model contains a fact that is not a leaf fact.
const FieldModelConsistencyError = "field_model_consistency_error"

// Diagnostics receives the consistency events detected while building models. Events are never errors: the model
// that triggered them is still built.
type Diagnostics interface {
	Record(event string, payload string)
}

// Event is a recorded diagnostic.
type Event struct {
	Name    string
	Payload string
}

// EventLog is a Diagnostics that logs events as errors and keeps them. It is safe for concurrent use.
type EventLog struct {
	logger *config.LogGroup
	mu     sync.Mutex
	counts map[string]int
	events []Event
}

// NewEventLog returns an empty event log. The logger may be nil, in which case events are only recorded.
func NewEventLog(logger *config.LogGroup) *EventLog {
	return &EventLog{logger: logger, counts: map[string]int{}}
}

// Record records the event.
func (l *EventLog) Record(event string, payload string) {
	l.mu.Lock()
	l.counts[event]++
	l.events = append(l.events, Event{Name: event, Payload: payload})
	l.mu.Unlock()
	if l.logger != nil {
		l.logger.Errorf("%s: %s", event, payload)
	}
}

// Count returns the number of times the event has been recorded.
func (l *EventLog) Count(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[event]
}

// Events returns the recorded events in order.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

type discard struct{}

func (discard) Record(string, string) {}

// Discard is a Diagnostics dropping every event.
var Discard Diagnostics = discard{}
