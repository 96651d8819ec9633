package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newMappingsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mappings",
		Short: "List supported materials and coatings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := root.store(root.logger(cmd))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MATERIAL\tOEKOBILANZ\tUBP/KG")
			for _, m := range st.Materials() {
				fmt.Fprintf(tw, "%s\t%s\t%g\n", m.Code, m.OekoName, m.UBPPerKg)
			}
			fmt.Fprintln(tw, "\nBESCHICHTUNG\tOEKOBILANZ\tUBP/M2")
			for _, c := range st.Coatings() {
				fmt.Fprintf(tw, "%s\t%s\t%g\n", c.Key, c.Entry.OekoName, c.Entry.UBPPerM2)
				if c.Aluminum != nil {
					fmt.Fprintf(tw, "%s (Alu)\t%s\t%g\n", c.Key, c.Aluminum.OekoName, c.Aluminum.UBPPerM2)
				}
			}
			return tw.Flush()
		},
	}
}
