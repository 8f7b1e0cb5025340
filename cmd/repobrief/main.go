package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joeynyc/repobrief/internal/analyzers/churn"
	"github.com/joeynyc/repobrief/internal/analyzers/conventions"
	"github.com/joeynyc/repobrief/internal/analyzers/dependencies"
	"github.com/joeynyc/repobrief/internal/analyzers/structure"
	"github.com/joeynyc/repobrief/internal/config"
	"github.com/joeynyc/repobrief/internal/engine"
	"github.com/joeynyc/repobrief/internal/logging"
	"github.com/joeynyc/repobrief/internal/renderers/agents"
	"github.com/joeynyc/repobrief/internal/renderers/sections"
)

var Version = "dev"

// app holds what every command needs once flags are parsed.
type app struct {
	configPath string
	root       string
	verbose    bool

	cfg *config.Config
	log zerolog.Logger
	eng *engine.Engine
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "repobrief",
		Short:         "Universal codebase context engine for AI coding agents",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", config.FileName, "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&a.root, "root", "", "Repository root (defaults to the configured root)")
	rootCmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Show analyzer progress and debug logs")

	rootCmd.AddCommand(initCmd(a))
	rootCmd.AddCommand(updateCmd(a))
	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	rootCmd.AddCommand(historyCmd(a))

	return rootCmd
}

// setup loads configuration, builds the logger and wires the engine.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	default:
		return err
	}
	a.cfg = cfg
	a.log = logging.New(cfg.Log, a.verbose)

	if err != nil {
		ev := a.log.Debug()
		if cmd.Flags().Changed("config") {
			ev = a.log.Warn()
		}
		ev.Str("path", a.configPath).Msg("config file not found, using defaults")
	}

	eng := engine.New(cfg, a.log)

	// Analyzers
	eng.RegisterAnalyzer(structure.New())
	eng.RegisterAnalyzer(dependencies.New())
	eng.RegisterAnalyzer(churn.New())
	eng.RegisterAnalyzer(conventions.New())

	// Documents written on every run
	eng.RegisterDocument(sections.New())

	// Export targets
	for _, t := range agents.Targets(cfg.Output.MaxContextTokens) {
		if cfg.IsExporterEnabled(t.Name()) {
			eng.RegisterExporter(t)
		}
	}

	a.eng = eng
	return nil
}

// progress prints each analyzer summary when --verbose is set.
func (a *app) progress(cmd *cobra.Command, summaries []engine.Summary) {
	if !a.verbose {
		return
	}
	for _, s := range summaries {
		fmt.Fprintf(cmd.ErrOrStderr(), "→ %s\n", s.Text)
	}
}
