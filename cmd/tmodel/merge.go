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
	"fmt"

	"github.com/awslabs/ar-go-taint/cmd/tmodel/tools"
	"github.com/awslabs/ar-go-taint/internal/formatutil"
	"github.com/spf13/cobra"
)

func newMergeCommand(flags *tools.CommonFlags) *cobra.Command {
	output := ""
	cmd := &cobra.Command{
		Use:   "merge -o <output> <model file(s)>",
		Short: "Join model files into one model file",
		Long: `Merge joins the models of the model files and writes them to the output, and prints the fingerprint of
the merged models. The output defaults to the output of the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if output == "" && s.cfg.Output != "" {
				output = s.cfg.RelPath(s.cfg.Output)
			}
			if output == "" {
				return fmt.Errorf("no output: use -o or set output in the config file")
			}
			m, err := s.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			fingerprint, err := s.store.Write(cmd.Context(), output, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (fingerprint %016x)\n", formatutil.Green("wrote"), output, fingerprint)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "path or URL of the merged model file")
	return cmd
}
