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

// Package jsonutil contains the validation helpers used when reading models from their JSON interchange format.
//
// Values are manipulated in their generic decoded form: map[string]any for objects, []any for arrays, string,
// json.Number for numbers (see Parse), bool and nil.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// A ValidationError is returned when a JSON value does not have the expected shape. Value is the offending node,
// Field the member of Value that was being read (empty when the error is about Value itself) and Expected a human
// readable description of what was expected.
type ValidationError struct {
	Value    any
	Field    string
	Expected string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("error validating field `%s` of `%s`: expected %s", e.Field, Compact(e.Value), e.Expected)
	}
	return fmt.Sprintf("error validating `%s`: expected %s", Compact(e.Value), e.Expected)
}

// NewError returns a validation error for value.
func NewError(value any, field string, expected string) *ValidationError {
	return &ValidationError{Value: value, Field: field, Expected: expected}
}

// Parse decodes data into its generic form. Numbers are kept as json.Number.
func Parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return v, nil
}

// Compact returns a compact single line representation of the value.
func Compact(value any) string {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}

// Object returns value as an object.
func Object(value any) (map[string]any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, NewError(value, "", "non-null object")
	}
	return obj, nil
}

// String returns value as a string.
func String(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", NewError(value, "", "string")
	}
	return s, nil
}

// StringField returns the string member field of obj.
func StringField(obj map[string]any, field string) (string, error) {
	s, ok := obj[field].(string)
	if !ok {
		return "", NewError(obj, field, "string")
	}
	return s, nil
}

// OptionalStringField returns the string member field of obj, and false if the member is absent or null.
func OptionalStringField(obj map[string]any, field string) (string, bool, error) {
	v, ok := obj[field]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, NewError(obj, field, "string")
	}
	return s, true, nil
}

// Int returns value as an integer.
func Int(value any) (int, error) {
	switch x := value.(type) {
	case json.Number:
		i, err := x.Int64()
		if err != nil || i > math.MaxInt32 || i < math.MinInt32 {
			return 0, NewError(value, "", "integer")
		}
		return int(i), nil
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt32 || x < math.MinInt32 {
			return 0, NewError(value, "", "integer")
		}
		return int(x), nil
	case int:
		return x, nil
	default:
		return 0, NewError(value, "", "integer")
	}
}

// OptionalIntField returns the integer member field of obj, or defaultValue if the member is absent or null.
func OptionalIntField(obj map[string]any, field string, defaultValue int) (int, error) {
	v, ok := obj[field]
	if !ok || v == nil {
		return defaultValue, nil
	}
	i, err := Int(v)
	if err != nil {
		return 0, NewError(obj, field, "integer")
	}
	return i, nil
}

// NullOrArray returns the array member field of obj. A missing or null member is an empty array.
func NullOrArray(obj map[string]any, field string) ([]any, error) {
	v, ok := obj[field]
	if !ok || v == nil {
		return nil, nil
	}
	a, ok := v.([]any)
	if !ok {
		return nil, NewError(obj, field, "array")
	}
	return a, nil
}

// NullOrObject returns the object member field of obj. A missing or null member is nil.
func NullOrObject(obj map[string]any, field string) (map[string]any, error) {
	v, ok := obj[field]
	if !ok || v == nil {
		return nil, nil
	}
	o, ok := v.(map[string]any)
	if !ok {
		return nil, NewError(obj, field, "object")
	}
	return o, nil
}

// StringList returns the array member field of obj as a list of strings. A missing member is an empty list.
func StringList(obj map[string]any, field string) ([]string, error) {
	a, err := NullOrArray(obj, field)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(a))
	for _, x := range a {
		s, ok := x.(string)
		if !ok {
			return nil, NewError(obj, field, "array of strings")
		}
		res = append(res, s)
	}
	return res, nil
}
