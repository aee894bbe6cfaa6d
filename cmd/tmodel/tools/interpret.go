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

package tools

import "regexp"

// Captures errors reading model files (missing file, wrong scheme)
var regexCouldNotRead = regexp.MustCompile("could not read model file")

// Captures errors in the content of model files
var regexValidation = regexp.MustCompile("error validating .*: expected")

// Captures the driver giving up on recursive methods
var regexNotStable = regexp.MustCompile("not stable after \\d+ iterations")

// Captures commands run without model files
var regexNoModels = regexp.MustCompile("no model files to load")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	switch {
	case regexCouldNotRead.MatchString(errMsg):
		return "model files are paths or URLs; paths in the config file are relative to the directory of the config file"
	case regexValidation.MatchString(errMsg):
		return "the model file is not in the expected format; the error names the value and what was expected instead"
	case regexNotStable.MatchString(errMsg):
		return "increase max-iterations or lower max-source-sink-distance in the options of the config file"
	case regexNoModels.MatchString(errMsg):
		return "pass model files as arguments, or list them under model-files in the config file"
	}
	return ""
}
