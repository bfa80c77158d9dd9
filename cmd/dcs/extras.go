package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kingrea/dcs/internal/config"
	"github.com/kingrea/dcs/internal/console"
	"github.com/kingrea/dcs/internal/logbook"
	"github.com/kingrea/dcs/internal/propagation"
	"github.com/kingrea/dcs/internal/registry"
	"github.com/kingrea/dcs/internal/tui"
)

func newListCmd(a *app) *cobra.Command {
	var (
		recent bool
		stale  bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered documents with their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(openOptions{}); err != nil {
				return err
			}
			entries := propagation.Survey(a.ws)
			switch {
			case stale:
				var needing []propagation.Entry
				for _, e := range entries {
					if e.Status == propagation.StatusStale {
						needing = append(needing, e)
					}
				}
				a.metrics.ObserveStale(len(needing))
				if len(needing) == 0 {
					a.printer.Success("No documents need updating")
					return a.done("list", true)
				}
				a.printer.Header("Documents needing updates:")
				entries = needing
			case recent:
				a.printer.Header("Recently updated documents:")
				entries = propagation.MostRecent(entries, limit)
			default:
				a.printer.Header("Documents:")
			}
			fmt.Fprintln(a.out, documentTable(entries))
			return a.done("list", true)
		},
	}
	cmd.Flags().BoolVar(&recent, "recent", false, "order by last_updated, newest first")
	cmd.Flags().BoolVar(&stale, "stale", false, "only documents older than a document that affects them")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of documents shown with --recent (0 for all)")
	cmd.MarkFlagsMutuallyExclusive("recent", "stale")
	return cmd
}

func documentTable(entries []propagation.Entry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Path", "Version", "Last Updated", "Status")
	for _, e := range entries {
		updated := e.Meta.LastUpdated
		if updated == "" {
			updated = "unknown"
		}
		t.Row(e.Record.ID, orDash(e.Record.Path), orDash(e.Record.Version), updated, string(e.Status))
	}
	return t.String()
}

func orDash(value string) string {
	if value == "" {
		return registry.EmptySentinel
	}
	return value
}

func newBrowseCmd(a *app) *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse documents interactively",
		Long: `Open an interactive browser over the registry. Filter with /, show only
documents needing updates with s and refresh the selected document's
front matter with u.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(openOptions{journal: true}); err != nil {
				return err
			}
			// tea.NewProgram creates a new bubbletea application
			p := tea.NewProgram(
				tui.NewBrowser(a.ws, tui.WithAuthor(author)),
				tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
			)
			if _, err := p.Run(); err != nil {
				a.printer.Error("Error running browser: %v", err)
				return a.done("browse", false)
			}
			return a.done("browse", true)
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "value for updated_by when updating from the browser")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent metadata updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.configure(); err != nil {
				return err
			}
			defer a.log.Close()
			path := a.cfg.UpdatesLogPath()
			if _, err := os.Stat(path); err != nil {
				a.printer.Info("No metadata updates recorded yet")
				return nil
			}
			book, err := logbook.New(path)
			if err != nil {
				a.printer.Error("Could not open update journal: %v", err)
				return failed()
			}
			entries, total := book.Tail(lines)
			if total == 0 {
				a.printer.Info("No metadata updates recorded yet")
				return nil
			}
			a.printer.Header("Last %d of %d metadata updates:", len(entries), total)
			for _, entry := range entries {
				a.printer.Plain(entry)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "number of entries to show")
	return cmd
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create .dcs/config.yaml in the project root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printer = console.New(a.out, a.flags.noColor)
			if err := config.InitDCSDir(a.flags.root); err != nil {
				a.printer.Error("Error initializing %s directory: %v", config.DCSDir, err)
				return failed()
			}
			if err := a.configure(); err != nil {
				return err
			}
			defer a.log.Close()
			a.printer.Success("Initialized %s", a.cfg.ProjectConfigPath())
			if _, err := os.Stat(a.cfg.MasterPath()); err != nil {
				a.printer.Warning("Master document %s not found; add a %q table to it", a.cfg.Project.Master, a.cfg.RegistrySection())
			}
			return nil
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dcs version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "dcs %s\n", version)
		},
	}
}
