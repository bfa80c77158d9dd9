package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/dcs/internal/config"
	"github.com/kingrea/dcs/internal/console"
	"github.com/kingrea/dcs/internal/logbook"
	"github.com/kingrea/dcs/internal/logging"
	"github.com/kingrea/dcs/internal/metrics"
	"github.com/kingrea/dcs/internal/registry"
	"github.com/kingrea/dcs/internal/report"
	"github.com/kingrea/dcs/internal/workspace"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootFlags struct {
	root        string
	master      string
	logLevel    string
	metricsFile string
	noColor     bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags  rootFlags
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	printer *console.Printer
	cfg     *config.Config
	log     *logging.Logger
	ws      *workspace.Workspace
	metrics *metrics.Recorder
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout, errOut: stderr, now: time.Now}

	root := &cobra.Command{
		Use:   "dcs",
		Short: "Documentation control system",
		Long: `dcs keeps a documentation tree consistent with its master registry.

The registry is the "Document Registry" table of the master document
(README-Master.md by default). Every registered document carries a YAML
front-matter block that dcs checks against its registry row, and the
"Affects" column drives impact analysis and update propagation checks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.root, "root", ".", "project root holding the master document")
	pf.StringVar(&a.flags.master, "master", "", "master document, relative to the project root (default from config)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus textfile metrics for this run to `path`")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(
		newUpdateMetaCmd(a),
		newCheckCmd(a),
		newImpactCmd(a),
		newGraphCmd(a),
		newValidateCmd(a),
		newVerifyCmd(a),
		newListCmd(a),
		newBrowseCmd(a),
		newHistoryCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)
	return root
}

type openOptions struct {
	journal bool
}

// configure loads configuration and logging. Problems are printed and
// returned as an exit error.
func (a *app) configure() error {
	a.printer = console.New(a.out, a.flags.noColor)

	cfg, err := config.NewConfig(a.flags.root)
	if err != nil {
		a.printer.Error("%v", err)
		return failed()
	}
	cfg.SetMaster(a.flags.master)
	a.cfg = cfg

	level := a.flags.logLevel
	if level == "" {
		level = cfg.LogLevel()
	}
	log, err := logging.New(logging.Options{
		Level:    level,
		Console:  a.errOut,
		FilePath: cfg.LogFile(),
	})
	if err != nil {
		return usageError(err)
	}
	a.log = log
	return nil
}

// open configures the run and loads the registry. A missing or empty
// registry is a configuration error.
func (a *app) open(opts openOptions) error {
	if err := a.configure(); err != nil {
		return err
	}
	cfg, log := a.cfg, a.log

	wsOpts := []workspace.Option{workspace.WithLogger(log), workspace.WithClock(a.now)}
	if opts.journal {
		book, err := logbook.New(cfg.UpdatesLogPath())
		if err != nil {
			a.printer.Error("Could not open update journal: %v", err)
			return failed()
		}
		wsOpts = append(wsOpts, workspace.WithJournal(book))
	}

	ws, err := workspace.Open(cfg, wsOpts...)
	if err != nil {
		log.Error("registry load failed", "err", err)
		a.printer.Error("%s", registryProblem(err, cfg))
		a.printer.Error("Failed to load document registry from %s", cfg.Project.Master)
		_ = log.Close()
		return failed()
	}
	a.ws = ws

	rec, err := metrics.New()
	if err != nil {
		log.Warn("metrics disabled", "err", err)
	}
	a.metrics = rec
	a.metrics.ObserveRegistry(ws.Registry)
	log.Debug("run started", "root", cfg.ProjectDir, "run", log.RunID())
	return nil
}

func registryProblem(err error, cfg *config.Config) string {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Sprintf("Master document %s does not exist", cfg.Project.Master)
	case errors.Is(err, registry.ErrSectionNotFound):
		return fmt.Sprintf("Could not find %s section in %s", cfg.RegistrySection(), cfg.Project.Master)
	case errors.Is(err, registry.ErrEmptyRegistry):
		return fmt.Sprintf("%s table is empty or malformed", cfg.RegistrySection())
	default:
		return err.Error()
	}
}

// done records the run and turns a failed outcome into exit code 1.
func (a *app) done(command string, ok bool) error {
	a.metrics.ObserveRun(command, ok, a.now())
	if err := a.metrics.WriteFile(a.flags.metricsFile); err != nil {
		a.log.Warn("metrics not written", "err", err)
	}
	a.log.Debug("command finished", "command", command, "ok", ok)
	_ = a.log.Close()
	if !ok {
		return failed()
	}
	return nil
}

// strict resolves --strict against the config default.
func (a *app) strict(cmd *cobra.Command, flag bool) bool {
	if cmd.Flags().Changed("strict") {
		return flag
	}
	return a.cfg.Strict()
}

// printIssues prints either the success line or the failure header and one
// bullet per issue.
func (a *app) printIssues(rep report.Report, success, failure string) {
	if rep.OK() {
		a.printer.Success("%s", success)
		return
	}
	a.printer.Error("%s", failure)
	for _, issue := range rep.Strings() {
		a.printer.Bullet("%s", issue)
	}
}
