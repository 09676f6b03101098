// Package cli implements the abubox command line.
package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/allgemeinbildung/abubox/internal/clipboard"
	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/db"
	"github.com/allgemeinbildung/abubox/internal/draft"
	"github.com/allgemeinbildung/abubox/internal/export"
	"github.com/allgemeinbildung/abubox/internal/kv"
	"github.com/allgemeinbildung/abubox/internal/listview"
	"github.com/allgemeinbildung/abubox/internal/logger"
	"github.com/allgemeinbildung/abubox/internal/page"
	"github.com/allgemeinbildung/abubox/internal/print"
	"github.com/allgemeinbildung/abubox/internal/render"
)

const DefaultConfigPath = "config.yaml"

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string

	cfg       *config.Config
	logger    zerolog.Logger
	backend   kv.Store
	store     *draft.Store
	formatter *export.Formatter

	// copier and printer are replaced in tests.
	copier  page.Copier
	printer print.Printer
}

// NewRootCommand builds the command tree. Every command opens the configured
// store before it runs and closes it afterwards.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "abubox",
		Short:         "Keep assignment answer drafts",
		Long:          `abubox stores two-slot answer drafts per assignment, autosaves edits and exports, copies or prints them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", DefaultConfigPath, "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides logging.level)")

	root.AddCommand(
		newServeCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newSaveCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newBulkDeleteCmd(a),
		newResetCmd(a),
		newExportCmd(a),
		newExportAllCmd(a),
		newCopyCmd(a),
		newPrintCmd(a),
	)
	return root
}

// Execute runs the root command and prints any error to stderr.
func Execute(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	// PersistentPostRunE is skipped when a command fails.
	defer a.close()

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	a.logger = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level)
	config.SetLogger(a.logger)
	db.SetLogger(a.logger)
	kv.SetLogger(a.logger)
	page.SetLogger(a.logger)
	export.SetLogger(a.logger)
	print.SetLogger(a.logger)
	render.SetLogger(a.logger)

	schema, err := draft.SchemaFromConfig(cfg.Schema)
	if err != nil {
		return err
	}

	a.backend, err = kv.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}

	a.store = draft.NewStore(a.backend, draft.NewCodec(cfg.Storage.Prefix), schema,
		draft.WithLogger(a.logger),
		draft.WithCorruptHandler(func(e *draft.CorruptRecordError) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warnung: beschädigter Eintrag %q wird übersprungen\n", e.ID)
		}),
	)
	a.formatter = export.NewFormatter(schema, export.OptionsFromConfig(cfg.Page, cfg.Features))

	if a.copier == nil {
		a.copier = clipboard.New(
			clipboard.WithLogger(a.logger),
			clipboard.WithOSC52(cfg.Clipboard.OSC52Fallback),
		)
	}
	if a.printer == nil {
		a.printer = print.NewPDFPrinter(cfg.Print)
	}
	return nil
}

func (a *app) close() error {
	if w, ok := a.copier.(interface{ Wait() }); ok {
		w.Wait()
	}
	if a.backend == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend = nil
	return err
}

func (a *app) spooler() *print.Spooler {
	return print.NewSpooler(nil, a.printer, a.formatter)
}

// openPage opens id the way a browser tab would, with prompts on the terminal.
func (a *app) openPage(id string, prompter listview.Prompter) (*page.Page, error) {
	l := a.logger
	return page.Open(page.Options{
		AssignmentID:    id,
		DefaultID:       a.cfg.Page.DefaultAssignment,
		ReferrerSegment: a.cfg.Page.ReferrerSegment,
		Capabilities:    page.CapabilitiesFromConfig(a.cfg.Features),
		Delay:           a.cfg.Autosave.Delay(),
		Store:           a.store,
		Formatter:       a.formatter,
		Copier:          a.copier,
		Spooler:         a.spooler(),
		Prompter:        prompter,
		Logger:          &l,
	})
}
