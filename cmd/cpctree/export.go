package main

import (
	"github.com/dgallion1/cpctree/internal/tree"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "export <tree.json|tree.yaml>",
		Short: "Convert a serialized tree into another format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			writer, err := a.writerFor(format, output)
			if err != nil {
				return a.fail("choose output format", err)
			}

			nodes, err := tree.ReadFile(args[0])
			if err != nil {
				return a.fail("read tree", err)
			}
			if err := a.writeOutput(output, writer, nodes); err != nil {
				return a.fail("write output", err)
			}
			a.log.Info("tree exported", "input", args[0], "output", output, "top_level", len(nodes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	cmd.Flags().StringVar(&format, "format", "", "json, yaml, markdown, html or docx (default from the output extension)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
