package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joeynyc/repobrief/internal/diff"
	"github.com/joeynyc/repobrief/internal/renderers/agents"
	"github.com/joeynyc/repobrief/internal/server"
)

func initCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scan the repository and generate .repobrief context files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.eng.Init(cmd.Context(), a.root)
			if err != nil {
				return fmt.Errorf("failed to initialize repobrief: %w", err)
			}
			a.progress(cmd, res.Summaries)

			c := res.Context
			framework := c.Structure.Detection.Framework
			if framework == "" {
				framework = "Unknown"
			}

			// Keep stdout parseable when --json is set.
			out := cmd.OutOrStdout()
			if asJSON {
				out = cmd.ErrOrStderr()
			}
			fmt.Fprintf(out, "Analyzed %d files across %d directories. Found: %s/%s project with %d deps, %d git commits.\n",
				c.Structure.FilesAnalyzed, c.Structure.DirectoriesAnalyzed,
				c.PrimaryLanguage(), framework, c.DependencyCount(), c.Churn.TotalCommitCount)
			fmt.Fprintf(out, "RepoBrief initialized at %s\n", a.eng.OutputDir(c.RootDir))

			if asJSON {
				data, err := json.MarshalIndent(c, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling context: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the generated context JSON to stdout")
	return cmd
}

func updateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Re-run analysis and show a high-level diff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.eng.Update(cmd.Context(), a.root)
			if err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			a.progress(cmd, res.Summaries)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "RepoBrief updated.")
			if len(res.Diff) == 0 {
				fmt.Fprintf(out, "- %s\n", diff.NoChanges)
			}
			for _, line := range res.Diff {
				fmt.Fprintf(out, "- %s\n", line)
			}
			return nil
		},
	}
}

func exportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the context for a target AI coding tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.eng.Export(cmd.Context(), a.root, format)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Export completed: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Target format: "+strings.Join(agents.Formats, "|"))
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.root != "" {
				a.cfg.Root = a.root
			}
			srv, err := server.New(a.eng, a.log, Version)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			if err := srv.Run(cmd.Context()); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}

func historyCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := a.eng.History(cmd.Context(), a.root, limit)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tKIND\tRUNTIME\tDEV\tHOT\tCOMMITS\tCHANGES")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					shortID(r.ID), r.At.Local().Format(time.DateTime), r.Kind,
					r.Runtime, r.Dev, r.HotFiles, r.TotalCommits, strings.Join(r.Diff, "; "))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
