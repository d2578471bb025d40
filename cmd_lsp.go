package main

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/heathj/htmllint/lsp"
)

func newLSPCmd(opts *globalOptions) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbosity := 0
			if opts.verbose {
				verbosity = 2
			}
			var path *string
			if logFile != "" {
				path = &logFile
			}
			commonlog.Configure(verbosity, path)

			e, err := opts.newEngine()
			if err != nil {
				return err
			}
			return lsp.NewServer(e, version).RunStdio()
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "write server logs to the file")

	return cmd
}
