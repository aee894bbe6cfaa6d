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

func newCheckCommand(flags *tools.CommonFlags) *cobra.Command {
	strict := false
	cmd := &cobra.Command{
		Use:   "check <model file(s)>",
		Short: "Load model files and report the consistency errors of their field models",
		Long: `Check loads the model files and reports the consistency errors of their field models, e.g. field
sources that are not leaves. Invalid model files are errors. With --strict, consistency errors are errors too.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			m, err := s.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range s.events.Events() {
				fmt.Fprintf(out, "%s %s\n", formatutil.Yellow(e.Name), formatutil.Sanitize(e.Payload))
			}
			fmt.Fprintf(out, "%s, %s, %s\n",
				formatutil.Plural(len(m.Fields()), "field model"),
				formatutil.Plural(len(m.Methods()), "method model"),
				formatutil.Plural(len(m.Calls()), "call"))
			if n := len(s.events.Events()); n > 0 && strict {
				return errWithCode(fmt.Errorf("%s", formatutil.Plural(n, "consistency error")), exitFindings)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with a non-zero status when there are consistency errors")
	return cmd
}
