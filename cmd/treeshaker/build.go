package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildOutput string
	buildFlags  bundleFlags
)

var buildCmd = &cobra.Command{
	Use:   "build [entry.js...]",
	Short: "Bundle entry modules and remove unused code",
	Long: `Bundle the given entry modules into a single ES module. Without
arguments the config file's input list is used.

Examples:
  treeshaker build src/index.js
  treeshaker build src/index.js -o dist/bundle.js
  treeshaker build src/index.js --external react --minify-whitespace
  treeshaker build src/index.js --no-treeshake`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Write output to `file` (default: stdout)")
	addBundleFlags(buildCmd, &buildFlags)
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, args, &buildFlags)
	if err != nil {
		return err
	}

	result, err := s.bundle()
	printDiagnostics(os.Stderr, result.Diagnostics, useColor(os.Stderr))
	if err != nil {
		return err
	}

	// Write output
	var output io.Writer = os.Stdout
	if buildOutput != "" {
		f, err := os.Create(buildOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	if _, err := io.WriteString(output, result.Code); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	// Print stats to stderr if output is to file
	if buildOutput != "" && !quiet {
		stats := result.Stats
		fmt.Fprintf(os.Stderr, "Bundled %d modules: %d -> %d bytes (%d gzipped), kept %d of %d statements\n",
			stats.Modules, stats.InputSize, stats.OutputSize, stats.GzipSize,
			stats.IncludedStatements, stats.Statements)
	}
	return nil
}
