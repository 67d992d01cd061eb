package main

import (
	"fmt"
	"io"
	"os"

	"github.com/InQaaaaGit/tweet_embed/internal/batch"
	"github.com/spf13/cobra"
)

func newBatchCmd(root *rootOptions) *cobra.Command {
	render := &renderFlags{}
	var (
		exportFormat string
		out          string
	)

	cmd := &cobra.Command{
		Use:   "batch [file|-]",
		Short: "Generate embed code for every URL in a file, one per line",
		Long: `Reads URLs one per line from a file or standard input ("-" or no argument).
Blank lines are skipped. Items are processed in order with a delay between provider
requests; a failed item produces a placeholder comment and does not stop the run.

With --export the result table is written as CSV or TSV to --out
(default twitter_embeds_<epoch-ms>.<ext>); otherwise the joined embed code is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := render.options()
			if err != nil {
				return err
			}

			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			urls := batch.SplitLines(text)
			if len(urls) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no URLs to process")
				return nil
			}

			deps, err := root.deps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			result, err := deps.Service.GenerateBatch(cmd.Context(), urls, opts)
			if err != nil {
				return err
			}
			for _, itemErr := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", itemErr.URL, itemErr.Err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d items, %d failed\n", len(result.Rows), len(result.Errors))

			if exportFormat == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Output)
				return err
			}

			dl, err := deps.Service.Export(result, exportFormat, out)
			if err != nil {
				return err
			}
			if err := os.WriteFile(dl.FileName, []byte(dl.Content), 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "written %s\n", dl.FileName)
			return nil
		},
	}

	render.register(cmd)
	cmd.Flags().StringVar(&exportFormat, "export", "", "Write the result table: csv | tsv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Export file name; the extension is added when missing")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
