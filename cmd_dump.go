package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heathj/htmllint/parser"
)

func newDumpCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the tokens, events or tree the parser sees",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tokens [file]",
		Short: "Write every token as a JSON line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(firstArg(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			return parser.DumpTokens(cmd.OutOrStdout(), src)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "events [file]",
		Short: "Write every parser event as a JSON line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.newEngine()
			if err != nil {
				return err
			}
			src, err := readSource(firstArg(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			return parser.DumpEvents(cmd.OutOrStdout(), e.Table(), src)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tree [file]",
		Short: "Write the element tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.newEngine()
			if err != nil {
				return err
			}
			src, err := readSource(firstArg(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			doc, err := parser.NewParser(e.Table(), nil).Parse(src)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), doc.String())
			return err
		},
	})

	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
