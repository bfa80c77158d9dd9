package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/dcs/internal/consistency"
	"github.com/kingrea/dcs/internal/impact"
	"github.com/kingrea/dcs/internal/propagation"
	"github.com/kingrea/dcs/internal/render"
	"github.com/kingrea/dcs/internal/report"
	"github.com/kingrea/dcs/internal/workspace"
)

func newUpdateMetaCmd(a *app) *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "update-meta <doc-id>",
		Short: "Rewrite a document's front matter from its registry row",
		Long: `Rewrite the front matter of one document from its registry row.

doc_id, version, depends_on, affects and change_requires are copied from the
registry, last_updated is set to today and updated_by to --author (or the
previous value). Other keys and the document body are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(openOptions{journal: true}); err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			if _, err := a.ws.UpdateMetadata(id, strings.TrimSpace(author)); err != nil {
				a.printer.Error("%s", updateProblem(a.ws, id, err))
				a.printer.Error("Failed to update metadata for document %s", id)
				return a.done("update-meta", false)
			}
			a.printer.Success("Updated metadata for document %s", id)
			return a.done("update-meta", true)
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "value for updated_by")
	return cmd
}

func updateProblem(ws *workspace.Workspace, id string, err error) string {
	switch {
	case errors.Is(err, workspace.ErrUnknownDocument):
		return fmt.Sprintf("Document ID %s not found in registry", id)
	case errors.Is(err, workspace.ErrNoPath):
		return fmt.Sprintf("Document %s has no path in registry", id)
	case errors.Is(err, workspace.ErrDocumentMissing):
		rec, _ := ws.Registry.Lookup(id)
		return fmt.Sprintf("Document file %s does not exist", rec.Path)
	default:
		return err.Error()
	}
}

func newCheckCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check documents against the registry",
		Long: `Check every registered document against its registry row: the file must
exist, its front matter must name the same doc_id and version, dependencies
must be registered and must not form a cycle.

Documents matched by the configured globs that have no registry row are
listed as warnings and do not fail the check.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(openOptions{}); err != nil {
				return err
			}
			rep := consistency.Check(a.ws, consistency.Options{Strict: a.strict(cmd, strict)})
			a.metrics.ObserveReport("check", rep)
			a.printIssues(rep, "All documents are consistent", "Document consistency issues found:")
			a.warnUnregistered()
			return a.done("check", rep.OK())
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "also compare depends_on/affects and validate front matter against the schema")
	return cmd
}

func (a *app) warnUnregistered() {
	paths, err := consistency.Unregistered(a.ws, a.cfg.DocumentPatterns(), a.cfg.ExcludePatterns())
	if err != nil {
		a.log.Warn("unregistered scan failed", "err", err)
		return
	}
	a.metrics.ObserveUnregistered(len(paths))
	if len(paths) == 0 {
		return
	}
	a.printer.Warning("%d documents are not in the registry:", len(paths))
	for _, path := range paths {
		a.printer.Bullet("%s", path)
	}
}

func newImpactCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "impact <doc-id>",
		Short: "List the documents affected by a change",
		Long: `List every document reachable from <doc-id> through the Affects column,
in discovery order. A document whose Affects is ALL affects every other
registered document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(openOptions{}); err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			if !a.ws.Registry.Has(id) {
				a.log.Warn("document is not registered", "id", id)
			}
			affected := impact.Analyze(a.ws.Registry, id)
			a.metrics.ObserveImpact(id, len(affected))
			if len(affected) == 0 {
				a.printer.Info("Document %s has no downstream impacts", id)
				return a.done("impact", true)
			}
			a.printer.Info("Changing document %s will affect:", id)
			for _, entry := range impact.Describe(a.ws.Registry, affected) {
				a.printer.Bullet("%s (%s)", entry.ID, entry.DisplayPath())
			}
			return a.done("impact", true)
		},
	}
}

func newGraphCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the dependency graph",
		Long: `Render the registry as a dependency graph.

text lists each document with its dependencies and affected documents.
dot emits a Graphviz digraph: blue edges for dependencies, red edges for
affects.`,
		Example: "  dcs graph --format dot | dot -Tsvg > docs.svg",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(openOptions{}); err != nil {
				return err
			}
			out, err := render.Render(a.ws.Registry, render.Format(format))
			if err != nil {
				a.printer.Error("%v", err)
				_ = a.done("graph", false)
				return &exitError{code: exitUsage}
			}
			fmt.Fprintln(a.out, out)
			return a.done("graph", true)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(render.FormatText), "output format: "+formatNames())
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return strings.Split(formatNames(), ", "), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func formatNames() string {
	var names []string
	for _, f := range render.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func newValidateCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that updates have propagated to affected documents",
		Long: `Run the consistency check, then compare last_updated dates: every document
listed in a document's front-matter affects must be at least as recent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(openOptions{}); err != nil {
				return err
			}
			rep := a.validate(cmd, strict)
			a.metrics.ObserveReport("validate", rep)
			a.printIssues(rep, "All document updates have been properly propagated", "Document update propagation issues found:")
			return a.done("validate", rep.OK())
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "use strict consistency checks")
	return cmd
}

func (a *app) validate(cmd *cobra.Command, strict bool) report.Report {
	return propagation.Validate(a.ws, propagation.Options{
		Consistency: consistency.Options{Strict: a.strict(cmd, strict)},
	})
}

func newVerifyCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the consistency and propagation checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(openOptions{}); err != nil {
				return err
			}
			a.printer.Info("Performing comprehensive verification...")

			consistent := consistency.Check(a.ws, consistency.Options{Strict: a.strict(cmd, strict)})
			a.printIssues(consistent, "Document consistency check passed", "Document consistency issues found:")

			propagated := a.validate(cmd, strict)
			a.printIssues(propagated, "Document update propagation check passed", "Document update propagation issues found:")

			a.metrics.ObserveReport("verify", propagated)
			return a.done("verify", consistent.OK() && propagated.OK())
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "use strict consistency checks")
	return cmd
}
