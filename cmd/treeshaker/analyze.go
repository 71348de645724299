package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/HugoDaniel/treeshaker/internal/report"
)

var (
	analyzeFormat string
	analyzeFlags  bundleFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [entry.js...]",
	Short: "Report what a build keeps and drops",
	Long: `Run a build and print, for every module, the statements and top-level
bindings that were kept or dropped and the conditionals whose branch was
decided at build time.

Examples:
  treeshaker analyze src/index.js
  treeshaker analyze src/index.js --format json
  treeshaker analyze --format yaml`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "human", "Output format (human, json, yaml)")
	addBundleFlags(analyzeCmd, &analyzeFlags)
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(analyzeFormat)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, args, &analyzeFlags)
	if err != nil {
		return err
	}

	result, err := s.bundle()
	if err != nil {
		printDiagnostics(os.Stderr, result.Diagnostics, useColor(os.Stderr))
		return err
	}

	r, err := report.New(result)
	if err != nil {
		return err
	}
	return r.Write(os.Stdout, format)
}
