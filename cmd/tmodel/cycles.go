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
	"strings"

	"github.com/awslabs/ar-go-taint/analysis/summaries"
	"github.com/awslabs/ar-go-taint/cmd/tmodel/tools"
	"github.com/awslabs/ar-go-taint/internal/formatutil"
	"github.com/awslabs/ar-go-taint/internal/graphutil"
	"github.com/spf13/cobra"
)

func newCyclesCommand(flags *tools.CommonFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cycles <model file(s)>",
		Short: "Print the recursive call cycles of the call edges of the model files",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			m, err := s.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			g := summaries.NewDriver(s.cfg, s.logger, m).Graph()
			cycles := graphutil.ElementaryCycles(g)
			for _, cycle := range cycles {
				names := make([]string, len(cycle))
				for i, id := range cycle {
					names[i] = formatutil.Sanitize(s.idx.MethodName(g.Methods[id]))
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, " -> "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatutil.Faint(formatutil.Plural(len(cycles), "cycle")))
			return nil
		},
	}
}
