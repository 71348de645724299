// Command treeshaker bundles ES modules and removes the code they do not
// need.
//
// Usage:
//
//	treeshaker build [options] <entry.js...>
//	treeshaker analyze [options] <entry.js...>
//	treeshaker init [path]
//
// Config file:
//
//	treeshaker looks for treeshaker.json, treeshaker.yaml, treeshaker.toml or
//	.treeshakerrc in the current directory and parent directories. Config
//	file options are overridden by TREESHAKER_ environment variables, which
//	are overridden by CLI flags.
//
// Example treeshaker.toml:
//
//	input = ["src/index.js"]
//	external = ["react"]
//	treeshake = true
//	freeze = true
//	logLevel = "warn"
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HugoDaniel/treeshaker/internal/bundler"
	"github.com/HugoDaniel/treeshaker/internal/config"
	"github.com/HugoDaniel/treeshaker/internal/graph"
	"github.com/HugoDaniel/treeshaker/internal/logging"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var (
	configFile string
	noConfig   bool
	logLevel   string
	verbosity  int
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "treeshaker",
	Short: "treeshaker - ES module tree-shaker",
	Long: `treeshaker links ES modules into a single module and removes statements
whose results are never used and that have no side effects.`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("treeshaker v{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Use specific config `file`")
	rootCmd.PersistentFlags().BoolVar(&noConfig, "no-config", false, "Ignore config files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error or silent")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log output (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print errors")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// bundleFlags are the options shared by build and analyze.
type bundleFlags struct {
	minifyWhitespace bool
	noTreeshake      bool
	freeze           bool
	toStringTag      bool
	globalEffects    bool
	propertyEffects  bool
	maxPasses        int
	external         []string
	silence          []string
}

func addBundleFlags(cmd *cobra.Command, f *bundleFlags) {
	flags := cmd.Flags()
	flags.BoolVar(&f.minifyWhitespace, "minify-whitespace", false, "Remove unnecessary whitespace")
	flags.BoolVar(&f.noTreeshake, "no-treeshake", false, "Keep every statement of every module")
	flags.BoolVar(&f.freeze, "freeze", true, "Wrap namespace objects in Object.freeze")
	flags.BoolVar(&f.toStringTag, "namespace-to-string-tag", false, "Add Symbol.toStringTag to namespace objects")
	flags.BoolVar(&f.globalEffects, "unknown-global-side-effects", true, "Treat reading unknown globals as a side effect")
	flags.BoolVar(&f.propertyEffects, "property-read-side-effects", true, "Treat reading properties of unknown values as a side effect")
	flags.IntVar(&f.maxPasses, "max-passes", 0, "Maximum number of inclusion passes")
	flags.StringSliceVar(&f.external, "external", nil, "Import specifiers to leave external (can be repeated)")
	flags.StringSliceVar(&f.silence, "silence", nil, "Warning codes to suppress (can be repeated)")
}

// mergeOptions returns the CLI overrides. Flags the user did not pass are
// left nil so config file values survive.
func (f *bundleFlags) mergeOptions(cmd *cobra.Command) config.MergeOptions {
	changed := cmd.Flags().Changed
	opts := config.MergeOptions{
		NoTreeshake: f.noTreeshake,
		External:    f.external,
		Silence:     f.silence,
	}
	if changed("minify-whitespace") {
		opts.MinifyWhitespace = &f.minifyWhitespace
	}
	if changed("freeze") {
		opts.Freeze = &f.freeze
	}
	if changed("namespace-to-string-tag") {
		opts.NamespaceToStringTag = &f.toStringTag
	}
	if changed("unknown-global-side-effects") {
		opts.UnknownGlobalSideEffects = &f.globalEffects
	}
	if changed("property-read-side-effects") {
		opts.PropertyReadSideEffects = &f.propertyEffects
	}
	if changed("max-passes") {
		opts.MaxPasses = &f.maxPasses
	}
	return opts
}

// session is everything a bundling command needs.
type session struct {
	loader     graph.FSLoader
	entries    []string
	options    bundler.Options
	logger     *slog.Logger
	configPath string
}

func newSession(cmd *cobra.Command, args []string, flags *bundleFlags) (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	cfg := &config.Config{}
	var configPath string
	if !noConfig {
		if configFile != "" {
			cfg, err = config.LoadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", configFile, err)
			}
			configPath = configFile
		} else {
			cfg, configPath, err = config.Load(cwd)
			if err != nil {
				return nil, fmt.Errorf("loading config: %w", err)
			}
		}
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = cfg.Input
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no entry module specified")
	}
	entries, err := relativeEntries(cwd, inputs)
	if err != nil {
		return nil, err
	}

	s := &session{
		loader:     graph.FSLoader{Root: cwd},
		entries:    entries,
		options:    cfg.Merge(flags.mergeOptions(cmd)),
		logger:     logging.NewLogger(os.Stderr, resolveLevel(cmd, cfg)),
		configPath: configPath,
	}
	s.options.Logger = s.logger
	if configPath != "" {
		s.logger.Debug("using config", "path", configPath)
	}
	return s, nil
}

func (s *session) bundle() (bundler.Result, error) {
	return bundler.New(s.options).Bundle(s.loader, s.entries)
}

// resolveLevel picks the log level: --log-level, then -v/-q, then the
// config file, then warn.
func resolveLevel(cmd *cobra.Command, cfg *config.Config) slog.Level {
	flags := cmd.Flags()
	switch {
	case flags.Changed("log-level"):
		return logging.LevelFromString(logLevel)
	case flags.Changed("verbose") || flags.Changed("quiet"):
		return logging.LevelFromVerbosity(verbosity, quiet)
	case cfg.LogLevel != "":
		return logging.LevelFromString(cfg.LogLevel)
	}
	return slog.LevelWarn
}

// relativeEntries turns entry paths into module IDs below cwd.
func relativeEntries(cwd string, inputs []string) ([]string, error) {
	entries := make([]string, 0, len(inputs))
	for _, input := range inputs {
		entry := input
		if filepath.IsAbs(entry) {
			rel, err := filepath.Rel(cwd, entry)
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", input, err)
			}
			entry = rel
		}
		entry = filepath.ToSlash(filepath.Clean(entry))
		if entry == ".." || strings.HasPrefix(entry, "../") {
			return nil, fmt.Errorf("entry %s is outside the working directory", input)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
