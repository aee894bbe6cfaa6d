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

// Package tools contains utility functions shared by the tmodel commands.
package tools

import (
	"fmt"
	"io"

	"github.com/awslabs/ar-go-taint/analysis/config"
)

// CommonFlags are the flags of every tmodel command.
type CommonFlags struct {
	ConfigPath string
	Verbose    bool
}

// LoadConfig loads the config file from configPath. An empty path is the default configuration.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.NewDefault(), nil
	}
	config.SetGlobalConfig(configPath)
	cfg, err := config.LoadGlobal()
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// Setup loads the configuration of the flags, and returns it with the log group writing to w. Verbose mode raises the
// log level of the configuration to debug.
func Setup(flags CommonFlags, w io.Writer) (*config.Config, *config.LogGroup, error) {
	cfg, err := LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if flags.Verbose && cfg.LogLevel < int(config.DebugLevel) {
		cfg.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(w)
	return cfg, logger, nil
}

// ModelURLs returns the model files given on the command line followed by the model files of the configuration.
func ModelURLs(cfg *config.Config, args []string) ([]string, error) {
	urls := append(append([]string{}, args...), cfg.ModelURLs()...)
	if len(urls) == 0 {
		return nil, fmt.Errorf("no model files to load")
	}
	return urls, nil
}
