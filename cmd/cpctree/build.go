package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/cpctree/internal/builder"
	"github.com/dgallion1/cpctree/internal/export"
	"github.com/dgallion1/cpctree/internal/tree"
	"github.com/spf13/cobra"
)

type buildFlags struct {
	output  string
	format  string
	workers int
}

func newBuildCmd(a *app) *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build <xml_directory>",
		Short: "Build the classification tree from a scheme directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBuild(cmd.Context(), args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file, - for stdout (default $CPCTREE_OUTPUT or cpc_tree.json)")
	cmd.Flags().StringVar(&f.format, "format", "", "json, yaml, markdown, html or docx (default from the output extension)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "top-level subtrees built concurrently (default $CPCTREE_WORKERS or 1)")
	return cmd
}

func (a *app) runBuild(ctx context.Context, dir string, f buildFlags) error {
	output := f.output
	if output == "" {
		output = a.cfg.Output
	}
	writer, err := a.writerFor(f.format, output)
	if err != nil {
		return a.fail("choose output format", err)
	}
	workers := f.workers
	if workers <= 0 {
		workers = a.cfg.Workers
	}

	log := a.log.With("dir", dir)
	b := builder.New(dir, builder.WithLogger(log), builder.WithWorkers(workers))
	forest, err := b.Build(ctx)
	if err != nil {
		return a.fail("build failed", err)
	}

	if err := a.writeOutput(output, writer, tree.LoadForest(forest)); err != nil {
		return a.fail("write output", err)
	}

	stats := b.Stats()
	log.Info("tree written",
		"output", output,
		"top_level", len(forest),
		"nodes", forest.Count(),
		"linked_read", stats.LinkedRead,
		"linked_missing", stats.LinkedMissing,
		"linked_malformed", stats.LinkedMalformed,
	)
	return nil
}

// writerFor picks the explicit format if given, then the output file's
// extension, then the configured default.
func (a *app) writerFor(format, output string) (export.Writer, error) {
	if format != "" {
		return export.ForFormat(format)
	}
	if output != "-" {
		if w, err := export.ForFile(output); err == nil {
			return w, nil
		}
	}
	return export.ForFormat(a.cfg.Format)
}

// writeOutput renders into a temporary file next to path and renames it into
// place, so a failed run never leaves a truncated tree behind.
func (a *app) writeOutput(path string, w export.Writer, nodes map[string]*tree.Node) error {
	if path == "-" {
		return w.Write(a.stdout, nodes)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := w.Write(tmp, nodes); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
