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

// Package cmd wires promqlint's public API into a cobra CLI: "parse" checks
// one query and prints its AST, "repl" reads queries interactively.
package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"sigs.k8s.io/promqlint/config"
)

// Options holds the flags and I/O streams shared by every subcommand.
type Options struct {
	args []string

	configPath string
	flags      config.Flags

	Out    io.Writer
	ErrOut io.Writer
}

// NewOptions returns an Options bound to the given streams.
func NewOptions(out, errOut io.Writer) *Options {
	return &Options{Out: out, ErrOut: errOut}
}

func addGlobalFlags(cmd *cobra.Command, o *Options) {
	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "path to a YAML file of checker flags (default: built-in defaults)")
	cmd.PersistentFlags().BoolVar(&o.flags.EnableExperimentalFunctions, "enable-experimental-functions", false, "accept limitk/limit_ratio aggregators")
	cmd.PersistentFlags().BoolVar(&o.flags.StrictLabelNames, "strict-label-names", false, "reject matcher label names that are not valid legacy Prometheus label names")
}

// Complete finishes configuring o from the parsed flags and positional args,
// loading a config file over the flag-set defaults when --config was given.
func (o *Options) Complete(cmd *cobra.Command, args []string) error {
	o.args = args
	if o.configPath == "" {
		return nil
	}
	fileFlags, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("enable-experimental-functions") {
		o.flags.EnableExperimentalFunctions = fileFlags.EnableExperimentalFunctions
	}
	if !cmd.Flags().Changed("strict-label-names") {
		o.flags.StrictLabelNames = fileFlags.StrictLabelNames
	}
	return nil
}

// NewRootCmd assembles the promqlint command tree.
func NewRootCmd(o *Options) *cobra.Command {
	root := &cobra.Command{
		Use:          "promqlint",
		Short:        "Lex, parse and semantically check PromQL queries",
		SilenceUsage: true,
		Example: `
  promqlint parse 'sum by (job) (rate(http_requests_total[5m]))'
  promqlint parse -o json 'up{job="prometheus"}'
  promqlint repl
`,
	}
	addGlobalFlags(root, o)
	root.AddCommand(newParseCmd(o))
	root.AddCommand(newReplCmd(o))
	return root
}
