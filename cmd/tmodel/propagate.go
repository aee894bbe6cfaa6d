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
	"encoding/json"
	"fmt"

	"github.com/awslabs/ar-go-taint/analysis/models"
	"github.com/awslabs/ar-go-taint/analysis/summaries"
	"github.com/awslabs/ar-go-taint/cmd/tmodel/tools"
	"github.com/awslabs/ar-go-taint/internal/formatutil"
	"github.com/spf13/cobra"
)

func newPropagateCommand(flags *tools.CommonFlags) *cobra.Command {
	output := ""
	cmd := &cobra.Command{
		Use:   "propagate <model file(s)>",
		Short: "Infer the sinks of methods from the sinks of the methods they call",
		Long: `Propagate infers the sinks of the methods from the call edges and the sinks of the model files. The
inferred models are printed on the standard output, or written to the output when one is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res, _, err := s.propagate(cmd.Context(), args)
			if err != nil {
				return err
			}
			if output != "" {
				fingerprint, err := s.store.Write(cmd.Context(), output, res)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (fingerprint %016x)\n", formatutil.Green("wrote"), output, fingerprint)
				return nil
			}
			content, err := json.MarshalIndent(res.ToJSON(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(content))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "path or URL of the inferred model file")
	return cmd
}

// propagate loads the model files and runs the driver on them.
func (s *session) propagate(ctx context.Context, args []string) (*models.Models, *summaries.Driver, error) {
	m, err := s.load(ctx, args)
	if err != nil {
		return nil, nil, err
	}
	driver := summaries.NewDriver(s.cfg, s.logger, m)
	res, err := driver.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	stats := driver.Statistics()
	s.logger.Infof("inferred %s: %s, %s, %s cut off at distance %d, %s",
		formatutil.Plural(len(res.Methods()), "method model"),
		formatutil.Plural(stats.RecursiveComponents, "recursive component"),
		formatutil.Plural(stats.Iterations, "iteration"),
		formatutil.Plural(stats.CutOff, "frame"), s.cfg.MaxSourceSinkDistance,
		formatutil.Plural(stats.Sanitized, "sanitized frame"))
	return res, driver, nil
}
