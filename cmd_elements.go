package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heathj/htmllint/rules"
)

func newElementsCmd(opts *globalOptions) *cobra.Command {
	var (
		property    string
		derivedFrom string
	)

	cmd := &cobra.Command{
		Use:   "elements",
		Short: "List the known elements",
		Long: `List the elements of the loaded element table, the embedded HTML5
elements plus those of the configuration.

--property filters on a flag or content category such as "void",
"phrasing" or "deprecated". --derived-from lists the elements inheriting
from a tag.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.newEngine()
			if err != nil {
				return err
			}
			table := e.Table()

			var tags []string
			switch {
			case property != "":
				tags = table.TagsWithProperty(property)
			case derivedFrom != "":
				tags = table.TagsDerivedFrom(derivedFrom)
			default:
				tags = table.Tags()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tags, "\n"))
			return err
		},
	}

	cmd.Flags().StringVarP(&property, "property", "p", "", "only list elements with the property")
	cmd.Flags().StringVar(&derivedFrom, "derived-from", "", "only list elements inheriting from the tag")

	cmd.AddCommand(&cobra.Command{
		Use:   "rules",
		Short: "List the rules and their configured severity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.newEngine()
			if err != nil {
				return err
			}
			cfg := e.Config()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range rules.Names() {
				r, _ := rules.New(name)
				sev := string(cfg[name])
				if sev == "" {
					sev = "off"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, sev, r.Description())
			}
			return tw.Flush()
		},
	})

	return cmd
}
