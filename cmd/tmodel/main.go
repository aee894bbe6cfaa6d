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

/*
Tmodel checks, merges and propagates taint model files.

Usage:

	tmodel [command] [flags] <model file(s)>

The commands are:

	check       load model files and report the consistency errors of their field models
	merge       join model files into one model file
	propagate   infer the sinks of methods from the sinks of the methods they call
	explain     print the call chains from a method argument to the sinks it reaches
	cycles      print the recursive call cycles of the call edges of the model files

Model files are paths or URLs (file://, mem://, s3://, ...). The model files listed in the config file are loaded
after the model files of the command line.
*/
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/awslabs/ar-go-taint/cmd/tmodel/tools"
	"github.com/awslabs/ar-go-taint/internal/formatutil"
	"github.com/spf13/cobra"
)

const (
	exitFindings = 1
	exitError    = 2
)

// Set via ldflags during build.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		var cErr codedError
		if errors.As(err, &cErr) {
			if cErr.err != nil {
				errPrint(cErr.err)
			}
			os.Exit(cErr.code)
		}
		errPrint(err)
		os.Exit(exitError)
	}
}

func newRootCommand() *cobra.Command {
	flags := &tools.CommonFlags{}
	root := &cobra.Command{
		Use:           "tmodel",
		Short:         "Check, merge and propagate taint model files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "config file path")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose logging, overrides the log level of the config file")
	root.AddCommand(
		newCheckCommand(flags),
		newMergeCommand(flags),
		newPropagateCommand(flags),
		newExplainCommand(flags),
		newCyclesCommand(flags),
	)
	return root
}

func errPrint(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", formatutil.Red("error:"), err)
	if hint := tools.HintForErrorMessage(err.Error()); hint != "" {
		fmt.Fprintf(os.Stderr, "%s %s\n", formatutil.Yellow("hint:"), hint)
	}
}

func errWithCode(err error, code int) error {
	return codedError{err: err, code: code}
}

// codedError is an error that sets the exit code of the command.
type codedError struct {
	err  error
	code int
}

func (e codedError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e codedError) Unwrap() error {
	return e.err
}
