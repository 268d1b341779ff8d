package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var compileCmd = &cobra.Command{
	Use:   "compile [tree.yaml]",
	Short: "Compile a filter tree and print the program",
	Example: `  dfilter compile filter.yaml
  dfilter compile -c '{test: "==", left: {field: tcp.port}, right: {value: 80}}'
  cat filter.yaml | dfilter compile --stdin -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: compileHandler,
}

func addCompileFlags() {
	f := compileCmd.Flags()
	f.Bool("optimize", true, "Run the branch optimizer")
	f.Bool("return-values", false, "Return the values of a bare field filter")
	f.StringP("output", "o", "text", "Output format (text, json)")
	compileCmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp))
}

func compileHandler(cmd *cobra.Command, args []string) error {
	data, err := getTreeSource(cmd, args)
	if err != nil {
		return err
	}
	prog, _, err := compileTree(data)
	if err != nil {
		return err
	}
	output, err := getOutput(prog, viper.GetString("output"))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}
