package commands

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/wilhelmsk/core/internal/adapters/repository"
	"github.com/wilhelmsk/core/internal/application/services"
	"github.com/wilhelmsk/core/internal/domain/docpath"
	"github.com/wilhelmsk/core/internal/infrastructure/config"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
)

// offline bundles the services used by the file commands. Deltas are not
// published because no server is attached.
type offline struct {
	cfg      *config.Config
	gauges   *services.GaugeService
	defaults *services.DefaultsService
}

// newOffline builds the services with the afero filesystem fs. Logging goes
// to stderr at warn level so stdout carries only command output.
func newOffline(configFile string, fs afero.Fs) (*offline, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logger
	logCfg.Output = "stderr"
	logCfg.Format = "console"
	logCfg.Level = "warn"
	log, err := logger.New(logCfg)
	if err != nil {
		log = logger.NewNop()
	}

	gaugeDoc := repository.NewFileDocument(fs, cfg.Storage.GaugesPath(), "gauges", repository.EmptyGaugeDocument, log, nil)
	defaultsDoc := repository.NewFileDocument(fs, cfg.Storage.DefaultsPath(), "defaults", repository.EmptyDefaultsDocument, log, nil)

	return &offline{
		cfg:      cfg,
		gauges:   services.NewGaugeService(repository.NewGaugeRepository(gaugeDoc), log),
		defaults: services.NewDefaultsService(repository.NewDefaultsRepository(defaultsDoc), nil, log),
	}, nil
}

// NewGaugesCommand creates the gauges command with subcommands
func NewGaugesCommand(configFile *string) *cobra.Command {
	gaugesCmd := &cobra.Command{
		Use:   "gauges",
		Short: "Inspect and edit the saved gauges",
	}

	gaugesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every saved gauge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOffline(*configFile, afero.NewOsFs())
			if err != nil {
				return err
			}
			gauges, err := o.gauges.ListGauges(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := json.Marshal(gauges)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	})

	gaugesCmd.AddCommand(&cobra.Command{
		Use:   "get <title>",
		Short: "Print one gauge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOffline(*configFile, afero.NewOsFs())
			if err != nil {
				return err
			}
			gauge, err := o.gauges.GetGauge(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), gauge.Record)
		},
	})

	gaugesCmd.AddCommand(&cobra.Command{
		Use:   "delete <title>",
		Short: "Remove one gauge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOffline(*configFile, afero.NewOsFs())
			if err != nil {
				return err
			}
			if err := o.gauges.DeleteGauge(cmd.Context(), args[0]); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Gauge Removed: %s\n", args[0])
			return nil
		},
	})

	return gaugesCmd
}

// NewDefaultsCommand creates the defaults command with subcommands. Paths
// may be given dotted or slash separated.
func NewDefaultsCommand(configFile *string) *cobra.Command {
	defaultsCmd := &cobra.Command{
		Use:   "defaults",
		Short: "Inspect and edit the defaults document",
	}

	defaultsCmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Print the value at path, or the whole document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOffline(*configFile, afero.NewOsFs())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				doc, err := o.defaults.Document(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), doc)
			}

			path, err := cliPath(args[0])
			if err != nil {
				return err
			}
			value, err := o.defaults.GetDefault(cmd.Context(), path)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), value)
		},
	})

	defaultsCmd.AddCommand(&cobra.Command{
		Use:   "set <path> <json>",
		Short: "Store a JSON value at path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOffline(*configFile, afero.NewOsFs())
			if err != nil {
				return err
			}
			path, err := cliPath(args[0])
			if err != nil {
				return err
			}
			if err := o.defaults.SaveDefault(cmd.Context(), path, json.RawMessage(args[1])); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Defaults Saved: %s\n", path)
			warn(cmd.ErrOrStderr(), "offline edits are not published as deltas")
			return nil
		},
	})

	defaultsCmd.AddCommand(&cobra.Command{
		Use:   "delete <path>",
		Short: "Remove the value at path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOffline(*configFile, afero.NewOsFs())
			if err != nil {
				return err
			}
			path, err := cliPath(args[0])
			if err != nil {
				return err
			}
			if err := o.defaults.DeleteDefault(cmd.Context(), path); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Default Removed: %s\n", path)
			return nil
		},
	})

	return defaultsCmd
}

func cliPath(raw string) (string, error) {
	if strings.Contains(raw, "/") {
		return docpath.Normalize(raw, "/")
	}
	return docpath.Normalize(raw, ".")
}

// printJSON writes raw indented, and colorized when w is a terminal
func printJSON(w io.Writer, raw []byte) error {
	out := pretty.Pretty(raw)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) && !color.NoColor {
		out = pretty.Color(out, nil)
	}
	_, err := w.Write(out)
	return err
}

func warn(w io.Writer, msg string) {
	warnColor.Fprintf(w, "warning: %s\n", msg)
}

func exitf(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// Execute runs root and exits non-zero with a colored message on failure
func Execute(root *cobra.Command) {
	root.SilenceErrors = true
	root.SilenceUsage = true
	if err := root.Execute(); err != nil {
		exitf("Error: %v", err)
	}
}
