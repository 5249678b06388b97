// Package cmd wires the zenc CLI: one cobra subcommand per driver entry
// point in internal/core, plus the file I/O and external toolchain
// invocation internal/core deliberately stays free of.
package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "zenc",
	Short: "Compiler for the zen language",
	Long: `zenc lexes, parses, type-checks, ownership-checks and lowers zen
source to LLVM IR, then drives llc and the system linker to produce a
native executable.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. The caller maps a non-nil return to
// exit code 1; exit code 2 (driver/toolchain failure) is raised directly
// by the subcommand via os.Exit before returning.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colorized diagnostic output")
	cobra.OnInitialize(func() {
		if noColor {
			color.NoColor = true
		}
	})
}

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
)
