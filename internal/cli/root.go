// Package cli implements the harness command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"digital.vasic.harness/pkg/suite"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string
	EnvFile string
	Verbose bool
	Format  string // "text" | "json" | "yaml"
	NoColor bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// Registrar adds groups and cases to a suite. failing asks for
// the deliberately broken cases as well.
type Registrar func(s *suite.Suite, failing bool)

// NewRootCommand creates the root command. register supplies
// the cases that "harness run" executes.
func NewRootCommand(register Registrar) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "harness",
		Short: "expect/describe/it test harness",
		Long: "Runs describe/it suites with per-case timeouts and reports " +
			"every outcome as a console tree, JSON lines or YAML.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf(
					"invalid format %q: must be one of %v",
					opts.Format, ValidFormats,
				))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./harness.yaml)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file with HARNESS_* settings")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log lifecycle events to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable coloured output")

	cmd.AddCommand(NewRunCommand(opts, register))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}
