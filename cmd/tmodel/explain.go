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

	"github.com/awslabs/ar-go-taint/analysis/access"
	"github.com/awslabs/ar-go-taint/analysis/summaries"
	"github.com/awslabs/ar-go-taint/cmd/tmodel/tools"
	"github.com/awslabs/ar-go-taint/internal/formatutil"
	"github.com/spf13/cobra"
)

func newExplainCommand(flags *tools.CommonFlags) *cobra.Command {
	method := ""
	port := "Argument(0)"
	cmd := &cobra.Command{
		Use:   "explain --method <signature> [--port <port>] <model file(s)>",
		Short: "Print the call chains from a method argument to the sinks it reaches",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := access.ParseRoot(port)
			if err != nil {
				return err
			}
			s, err := newSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res, _, err := s.propagate(cmd.Context(), args)
			if err != nil {
				return err
			}
			m, ok := s.idx.LookupMethod(method)
			if !ok {
				return fmt.Errorf("method %s is not in the model files", formatutil.Sanitize(method))
			}
			tree := summaries.Explain(res, m, root)
			if len(tree.Children) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s reaches no sink\n",
					formatutil.Sanitize(method), root)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), tree.Format(func(step summaries.Step) string {
				if step.IsLeaf() {
					return formatutil.Red(summaries.FormatStep(s.idx, step))
				}
				return formatutil.Sanitize(summaries.FormatStep(s.idx, step))
			}))
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "signature of the method")
	cmd.Flags().StringVar(&port, "port", port, "argument of the method, e.g. Argument(1), or CallEffect for call chains")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}
