package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	render := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "generate <url>",
		Short: "Generate embed code for a single post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := render.options()
			if err != nil {
				return err
			}

			deps, err := root.deps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			resp, err := deps.Service.Generate(cmd.Context(), args[0], opts)
			if err != nil {
				return fmt.Errorf("generating embed code: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Code)
			return err
		},
	}

	render.register(cmd)
	return cmd
}
