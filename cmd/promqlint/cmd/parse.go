/*
Copyright 2020 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"

	"sigs.k8s.io/promqlint"
	"sigs.k8s.io/promqlint/errors"
)

type parseOptions struct {
	*Options
	query  string
	output string
}

func newParseCmd(o *Options) *cobra.Command {
	po := &parseOptions{Options: o, output: "pretty"}
	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse and check a single PromQL query",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := o.Complete(c, args); err != nil {
				return err
			}
			po.query = args[0]
			return po.Run()
		},
	}
	cmd.Flags().StringVarP(&po.output, "output", "o", po.output, "output format: pretty, ast or json")
	return cmd
}

// Run checks po.query and writes either the canonical re-print, a dumped
// AST, or a JSON rendering of the AST, depending on po.output. A check
// failure is reported to ErrOut and returned as an error so the process
// exits non-zero; it is never treated as an I/O failure.
func (po *parseOptions) Run() error {
	expr, perr := promqlint.Parse(po.query, promqlint.WithFlags(po.flags))
	if perr != nil {
		fmt.Fprintln(po.ErrOut, formatParseError(po.query, perr))
		return perr
	}

	switch po.output {
	case "pretty":
		fmt.Fprintln(po.Out, promqlint.Pretty(expr))
	case "ast":
		fmt.Fprintf(po.Out, "%#v\n", expr)
	case "json":
		b, err := prettyjson.Marshal(expr)
		if err != nil {
			return fmt.Errorf("render json: %w", err)
		}
		fmt.Fprintln(po.Out, string(b))
	default:
		return fmt.Errorf("unknown output format %q: want pretty, ast or json", po.output)
	}
	return nil
}

// formatParseError renders perr with a caret under the offending span, the
// way a terminal-attached linter would.
func formatParseError(query string, perr *errors.ParseError) string {
	bold := color.New(color.FgRed, color.Bold).SprintFunc()
	msg := fmt.Sprintf("%s: %s", bold(perr.Kind), perr.Message)
	if perr.Span == nil {
		return msg
	}
	start := perr.Span.Start
	if start > len(query) {
		start = len(query)
	}
	caretLine := strings.Repeat(" ", start) + color.RedString("^")
	return fmt.Sprintf("%s\n%s\n%s", query, caretLine, msg)
}
