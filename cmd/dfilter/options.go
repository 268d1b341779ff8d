package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/packetlens/dfilter"
	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/fields"
)

var envKeyReplacer = strings.NewReplacer("-", "_")

func getCompileOptions() []dfilter.Option {
	opts := []dfilter.Option{
		dfilter.WithOptimize(viper.GetBool("optimize")),
		dfilter.WithReturnValues(viper.GetBool("return-values")),
	}
	if viper.GetBool("verbose") {
		opts = append(opts, dfilter.WithLogger(newLogger(os.Stderr)))
	}
	return opts
}

// getRegistry loads the field registry named by --fields, or returns nil so
// fields are registered as they are found in the tree.
func getRegistry() (*fields.Table, error) {
	path := viper.GetString("fields")
	if path == "" {
		return nil, nil
	}
	return fields.LoadFile(path)
}

func compileTree(data []byte) (*bytecode.Program, *fields.Table, error) {
	table, err := getRegistry()
	if err != nil {
		return nil, nil, err
	}
	return dfilter.CompileYAML(data, table, getCompileOptions()...)
}

func getTreeSource(cmd *cobra.Command, args []string) ([]byte, error) {
	// Determine which tree is to be compiled. There are three possibilities:
	// 1. --code <yaml>
	// 2. --stdin (read the tree from stdin)
	// 3. path as args[0]
	var codeFlagSet bool
	if f := cmd.Flags().Lookup("code"); f != nil && f.Changed {
		codeFlagSet = true
	}
	var stdinFlagSet bool
	if f := cmd.Flags().Lookup("stdin"); f != nil && f.Changed {
		stdinFlagSet = true
	}
	pathSupplied := len(args) > 0
	// Error if multiple input sources are specified
	if pathSupplied && (codeFlagSet || stdinFlagSet) {
		return nil, errors.New("multiple input sources specified")
	} else if codeFlagSet && stdinFlagSet {
		return nil, errors.New("multiple input sources specified")
	}
	if stdinFlagSet {
		return io.ReadAll(cmd.InOrStdin())
	} else if pathSupplied {
		return os.ReadFile(args[0])
	}
	code := viper.GetString("code")
	if code == "" {
		return nil, errors.New("no filter tree provided")
	}
	return []byte(code), nil
}
