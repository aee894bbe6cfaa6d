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

import (
	"regexp"

	"github.com/awslabs/ar-go-taint/internal/funcutil"
)

// CodeIdentifier identifies taint of some kinds flowing through some methods. Both strings are regexes if they can be
// compiled as such, and plain strings otherwise. An empty field matches anything.
type CodeIdentifier struct {
	// Method matches the signature of a method, e.g. "pkg.Callee(string)"
	Method string `yaml:"method"`
	// Kind matches the name of a kind
	Kind string `yaml:"kind"`

	// This will not be part of the yaml config
	computedRegexs *codeIdentifierRegex
}

type codeIdentifierRegex struct {
	methodRegex *regexp.Regexp
	kindRegex   *regexp.Regexp
}

// compileRegexes compiles the strings in the code identifier into regexes. It compiles all identifiers into regexes
// or none.
func compileRegexes(cid CodeIdentifier) CodeIdentifier {
	methodRegex, err := regexp.Compile(cid.Method)
	if err != nil {
		return cid
	}
	kindRegex, err := regexp.Compile(cid.Kind)
	if err != nil {
		return cid
	}
	cid.computedRegexs = &codeIdentifierRegex{methodRegex: methodRegex, kindRegex: kindRegex}
	return cid
}

// Matches returns true when the method signature and the kind name match the non-empty fields of cid.
func (cid CodeIdentifier) Matches(method string, kind string) bool {
	if cid.computedRegexs != nil {
		return (cid.Method == "" || cid.computedRegexs.methodRegex.MatchString(method)) &&
			(cid.Kind == "" || cid.computedRegexs.kindRegex.MatchString(kind))
	}
	return (cid.Method == "" || cid.Method == method) && (cid.Kind == "" || cid.Kind == kind)
}

// ExistsCid is true if some code identifier of a matches the method and kind.
func ExistsCid(a []CodeIdentifier, method string, kind string) bool {
	return funcutil.Exists(a, func(cid CodeIdentifier) bool { return cid.Matches(method, kind) })
}
