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

package main

import (
	"context"
	"io"

	"github.com/awslabs/ar-go-taint/analysis/config"
	"github.com/awslabs/ar-go-taint/analysis/index"
	"github.com/awslabs/ar-go-taint/analysis/models"
	"github.com/awslabs/ar-go-taint/cmd/tmodel/tools"
	"github.com/awslabs/ar-go-taint/internal/formatutil"
)

// session holds what every command needs: the configuration, the logger, the index and the store of model files.
type session struct {
	cfg    *config.Config
	logger *config.LogGroup
	idx    *index.Index
	events *models.EventLog
	store  *models.Store
}

func newSession(flags *tools.CommonFlags, stderr io.Writer) (*session, error) {
	cfg, logger, err := tools.Setup(*flags, stderr)
	if err != nil {
		return nil, err
	}
	idx := index.New()
	events := models.NewEventLog(logger)
	return &session{
		cfg:    cfg,
		logger: logger,
		idx:    idx,
		events: events,
		store:  models.NewStore(idx, cfg, logger, events),
	}, nil
}

// load reads the model files of the command line and of the configuration.
func (s *session) load(ctx context.Context, args []string) (*models.Models, error) {
	urls, err := tools.ModelURLs(s.cfg, args)
	if err != nil {
		return nil, err
	}
	m, err := s.store.Load(ctx, urls...)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("loaded %s, %s and %s from %s",
		formatutil.Plural(len(m.Fields()), "field model"),
		formatutil.Plural(len(m.Methods()), "method model"),
		formatutil.Plural(len(m.Calls()), "call"),
		formatutil.Plural(len(urls), "file"))
	return m, nil
}
