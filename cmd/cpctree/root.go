package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dgallion1/cpctree/internal/config"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once flags and environment have
// been resolved.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	verbose bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "cpctree [xml_directory]",
		Short: "Convert a CPC classification scheme into a nested symbol tree",
		Long: `cpctree reads cpc-scheme.xml from a CPC scheme directory, follows the
link-file references into the per-subclass documents and writes the whole
classification as one nested mapping of symbol to title and children.

Run with a directory to build cpc_tree.json in the current directory.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.runBuild(cmd.Context(), args[0], buildFlags{})
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newBuildCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return root
}

// init loads configuration from the environment and sets up logging.
func (a *app) init() error {
	a.cfg = config.Load()
	if err := a.cfg.Validate(); err != nil {
		fmt.Fprintln(a.stderr, "invalid configuration:", err)
		return err
	}

	level, _ := a.cfg.Level()
	if a.verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(a.cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(a.stderr, opts)
	} else {
		handler = slog.NewJSONHandler(a.stderr, opts)
	}
	a.log = slog.New(handler)
	return nil
}

// fail logs err and hands it back to cobra for the exit status.
func (a *app) fail(msg string, err error) error {
	a.log.Error(msg, "error", err)
	return err
}
