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

	prompt "github.com/c-bata/go-prompt"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sigs.k8s.io/promqlint"
	"sigs.k8s.io/promqlint/functions"
)

const replPrefix = "promql> "

var replQuitWords = map[string]bool{"quit": true, "exit": true, "q": true}

func newReplCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Read PromQL queries interactively, checking each one",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if err := o.Complete(c, args); err != nil {
				return err
			}
			r := &replOptions{Options: o}
			r.Run()
			return nil
		},
	}
	return cmd
}

type replOptions struct {
	*Options
}

// Run drives a go-prompt loop: every accepted line is checked with the same
// Options.flags as "parse" and either re-printed in canonical form or
// reported as a diagnostic; the loop never exits on a bad query.
func (r *replOptions) Run() {
	fmt.Fprintln(r.Out, "promqlint interactive mode. Type 'quit' or press Ctrl-D to exit.")
	p := prompt.New(
		r.execute,
		r.complete,
		prompt.OptionPrefix(replPrefix),
		prompt.OptionTitle("promqlint"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			return breakline && replQuitWords[strings.TrimSpace(in)]
		}),
	)
	p.Run()
}

func (r *replOptions) execute(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if replQuitWords[line] {
		fmt.Fprintln(r.Out, "bye")
		return
	}

	expr, perr := promqlint.Parse(line, promqlint.WithFlags(r.flags))
	if perr != nil {
		fmt.Fprintln(r.ErrOut, formatParseError(line, perr))
		return
	}
	fmt.Fprintln(r.Out, color.GreenString(promqlint.Pretty(expr)))
}

// complete offers the function catalog and a handful of grammar keywords as
// completions for the word currently being typed; it does not attempt to
// resolve metric or label names against any live series store.
func (r *replOptions) complete(d prompt.Document) []prompt.Suggest {
	word := d.GetWordBeforeCursor()
	if word == "" {
		return nil
	}

	suggestions := make([]prompt.Suggest, 0, len(functions.Names())+len(replKeywords))
	for _, name := range functions.Names() {
		suggestions = append(suggestions, prompt.Suggest{Text: name, Description: "function"})
	}
	for _, kw := range replKeywords {
		suggestions = append(suggestions, prompt.Suggest{Text: kw, Description: "keyword"})
	}
	return prompt.FilterHasPrefix(suggestions, word, true)
}

var replKeywords = []string{
	"by", "without", "on", "ignoring", "group_left", "group_right",
	"offset", "bool", "and", "or", "unless",
}
