package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields [tree.yaml]",
	Short: "List the fields a filter reads",
	Args:  cobra.MaximumNArgs(1),
	RunE:  fieldsHandler,
}

func fieldsHandler(cmd *cobra.Command, args []string) error {
	data, err := getTreeSource(cmd, args)
	if err != nil {
		return err
	}
	prog, _, err := compileTree(data)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for i := 0; i < prog.InterestingFieldCount(); i++ {
		f := prog.InterestingFieldAt(i)
		fmt.Fprintf(w, "%d\t%s\t%s\n", f.ID, f.Abbrev, f.Name)
	}
	return w.Flush()
}
