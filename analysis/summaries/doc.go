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

// Package summaries infers the sink models of methods from the sink models of the methods they call.
//
// The Driver reads the call edges and declared models of a models.Models. Sinks flow backwards over call edges: when
// a caller passes its argument i as argument j of a callee, the sinks of the callee on argument j become sinks of the
// caller on argument i, one call further from the sink. Sinks of the call-chain effect of a callee become sinks of
// the call-chain effect of its callers.
//
// Methods are processed callees first. When the call graph is acyclic, each method is processed once. Recursive
// methods are iterated until their models are stable, joining the successive models and then widening them.
// Frames farther than the maximum source-sink distance are dropped, which bounds the iteration.
package summaries
