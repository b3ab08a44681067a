package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	serve := &serveOptions{}

	cmd := &cobra.Command{
		Use:          "framecut",
		Short:        "Two-track timeline editor with a local control API",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the editor (same as: framecut serve)
  framecut

  # Add media to the library without starting the editor
  framecut import ~/Movies/beach.mp4

  # Inspect a file the way import would
  framecut probe ~/Movies/beach.mp4
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => run the editor.
			return runServe(cmd, serve)
		},
	}
	serve.bind(cmd)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newClipsCmd())
	cmd.AddCommand(newProbeCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
