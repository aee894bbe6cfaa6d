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

/*
Package config provides a simple way to manage the configuration of the taint model tools.

Use [Load](filename, contents) to load a configuration from the contents of a file, and [LoadFile](filename) to read
the file first.

A config file should be in yaml format (json is also valid yaml). The top-level fields can be any of the fields
defined in the Config struct type. For example, a valid config file is as follows:

	options:
	  log-level: 4
	  max-source-sink-distance: 5
	model-files:
	  - models/sources.json
	  - models/sinks.json
	sanitizers:
	  - method: "pkg\\.Escape.*"
	    kind: Sql

# Identifying code elements

The config uses [CodeIdentifier] to identify methods and kinds. The strings are seen as regexes if they
can be compiled to regexes, otherwise they are strings.

# Logging

[LogGroup] gates loggers by the log level of the options, from [ErrLevel] to [TraceLevel].
*/
package config
