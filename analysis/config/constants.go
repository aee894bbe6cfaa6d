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

package config

const (
	// DefaultMaxSourceSinkDistance is the number of calls a fact can be propagated through before it is dropped.
	DefaultMaxSourceSinkDistance = 7
	// DefaultWidenAfter is the number of iterations over a recursive component after which the driver widens.
	DefaultWidenAfter = 3
	// DefaultMaxIterations bounds the iterations over a recursive component
	DefaultMaxIterations = 100
	// DefaultWorkers is the number of model files loaded in parallel
	DefaultWorkers = 4
)
