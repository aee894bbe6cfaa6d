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

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/awslabs/ar-go-taint/analysis/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMaxSourceSinkDistance, cfg.MaxSourceSinkDistance)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to load config file")
}

func TestSetupAndModelURLs(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("options:\n  log-level: 2\nmodel-files:\n  - sinks.json\n"), 0o600))

	cfg, logger, err := Setup(CommonFlags{ConfigPath: configPath, Verbose: true}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, config.DebugLevel, logger.Level())

	urls, err := ModelURLs(cfg, []string{"extra.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"extra.json", filepath.Join(dir, "sinks.json")}, urls)

	_, err = ModelURLs(config.NewDefault(), nil)
	assert.ErrorContains(t, err, "no model files")
}
