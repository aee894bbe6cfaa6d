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
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/awslabs/ar-go-taint/analysis/config"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/internal/jsonutil"
	"github.com/viant/afs"
	"golang.org/x/sync/errgroup"
)

// Store reads and writes model files. Files are designated by URLs (file://, mem://, s3://, ... or plain paths), read
// through afs.
type Store struct {
	fs      afs.Service
	idx     *index.Index
	workers int
	logger  *config.LogGroup
	diag    Diagnostics
}

// NewStore returns a store interning the models in idx. The diagnostics must be safe for concurrent use, as files
// are loaded in parallel.
func NewStore(idx *index.Index, cfg *config.Config, logger *config.LogGroup, diag Diagnostics) *Store {
	workers := cfg.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}
	return &Store{fs: afs.New(), idx: idx, workers: workers, logger: logger, diag: diag}
}

// LoadOne reads the models of one file.
func (s *Store) LoadOne(ctx context.Context, URL string) (*Models, error) {
	content, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("could not read model file %s: %w", URL, err)
	}
	value, err := jsonutil.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("could not parse model file %s: %w", URL, err)
	}
	m, err := ModelsFromJSON(s.idx, value, s.diag)
	if err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", URL, err)
	}
	s.logger.Debugf("loaded %d field models, %d method models and %d calls from %s",
		len(m.fields), len(m.methods), len(m.calls), URL)
	return m, nil
}

// Load reads the files in parallel and joins their models, in the order of the URLs.
func (s *Store) Load(ctx context.Context, URLs ...string) (*Models, error) {
	// each goroutine writes to its own slot, read after Wait
	results := make([]*Models, len(URLs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i, URL := range URLs {
		group.Go(func() error {
			m, err := s.LoadOne(ctx, URL)
			if err != nil {
				return err
			}
			results[i] = m
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	res := NewModels(s.idx)
	for _, m := range results {
		res.JoinWith(m)
	}
	s.logger.Infof("loaded %d model files", len(URLs))
	return res, nil
}

// Write writes the models to the URL as indented JSON and returns their fingerprint.
func (s *Store) Write(ctx context.Context, URL string, m *Models) (uint64, error) {
	doc := m.ToJSON()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("could not serialize models: %w", err)
	}
	if err := s.fs.Upload(ctx, URL, 0o644, bytes.NewReader(data)); err != nil {
		return 0, fmt.Errorf("could not write model file %s: %w", URL, err)
	}
	return Fingerprint(doc)
}
