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
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return LoadFile(configFile)
}

// Config contains the options of the analysis, the model files to load and the sanitizers.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// ModelFiles lists the model files, as paths relative to the config file or as URLs
	ModelFiles []string `yaml:"model-files"`

	// Output is the path or URL where the merged or inferred models are written
	Output string `yaml:"output"`

	// Sanitizers lists the methods through which some kinds of taint do not flow
	Sanitizers []CodeIdentifier `yaml:"sanitizers"`
}

// Options holds the numeric settings of the analysis.
type Options struct {
	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// MaxSourceSinkDistance is the number of calls after which facts are dropped by propagation.
	MaxSourceSinkDistance int `yaml:"max-source-sink-distance"`

	// WidenAfter is the number of iterations over a recursive component before joins are replaced by widenings
	WidenAfter int `yaml:"widen-after"`

	// MaxIterations bounds the number of iterations over a recursive component. Reaching the bound is an error.
	MaxIterations int `yaml:"max-iterations"`

	// Workers is the number of model files loaded in parallel
	Workers int `yaml:"workers"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns a default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		ModelFiles: []string{},
		Sanitizers: nil,
		Options: Options{
			LogLevel:              int(InfoLevel),
			MaxSourceSinkDistance: DefaultMaxSourceSinkDistance,
			WidenAfter:            DefaultWidenAfter,
			MaxIterations:         DefaultMaxIterations,
			Workers:               DefaultWorkers,
			SilenceWarn:           false,
		},
	}
}

// LoadFile reads a configuration from a file
func LoadFile(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return Load(filename, b)
}

// Load reads a configuration from the contents of the file filename. Options missing or set to a non-positive value
// take their default value.
func Load(filename string, contents []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.LogLevel < int(ErrLevel) || cfg.LogLevel > int(TraceLevel) {
		return nil, fmt.Errorf("log-level should be between %d and %d, got %d", ErrLevel, TraceLevel, cfg.LogLevel)
	}
	if cfg.MaxSourceSinkDistance <= 0 {
		cfg.MaxSourceSinkDistance = DefaultMaxSourceSinkDistance
	}
	if cfg.WidenAfter <= 0 {
		cfg.WidenAfter = DefaultWidenAfter
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	for i, cid := range cfg.Sanitizers {
		cfg.Sanitizers[i] = compileRegexes(cid)
	}
	return cfg, nil
}

// SourceFile returns the name of the file the config has been loaded from, empty for the default config.
func (c Config) SourceFile() string {
	return c.sourceFile
}

// RelPath returns filename path relative to the config source file. URLs and absolute paths are returned unchanged.
func (c Config) RelPath(filename string) string {
	if path.IsAbs(filename) || hasScheme(filename) || c.sourceFile == "" {
		return filename
	}
	return path.Join(path.Dir(c.sourceFile), filename)
}

// ModelURLs returns the model files resolved relative to the config file.
func (c Config) ModelURLs() []string {
	res := make([]string, len(c.ModelFiles))
	for i, f := range c.ModelFiles {
		res[i] = c.RelPath(f)
	}
	return res
}

// IsSanitizer returns true when taint of the kind does not flow through the method.
func (c Config) IsSanitizer(method string, kind string) bool {
	return ExistsCid(c.Sanitizers, method, kind)
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// hasScheme returns true on URLs such as "mem://localhost/models.json".
func hasScheme(filename string) bool {
	i := strings.Index(filename, "://")
	return i > 0 && !strings.ContainsAny(filename[:i], "/.")
}
