package main

import (
	"fmt"

	"github.com/fatih/color"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	red     = color.New(color.FgRed).SprintFunc()
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "dfilter",
	Short: "Compile display filter trees into filter VM bytecode",
	Long: `dfilter compiles display filter expression trees, written in YAML,
into bytecode for the filter VM and prints the resulting program.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		processGlobalFlags()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is .dfilter.yaml)")
	pf.StringP("code", "c", "", "Filter tree to compile, as YAML")
	pf.Bool("stdin", false, "Read the filter tree from stdin")
	pf.String("fields", "", "Field registry file (YAML)")
	pf.Bool("no-color", false, "Disable colored output")
	pf.BoolP("verbose", "v", false, "Log compile diagnostics to stderr")

	addCompileFlags()
	rootCmd.AddCommand(compileCmd, fieldsCmd)
	bindFlags()
}

// bindFlags binds the global and compile flags to their viper keys.
func bindFlags() {
	pf := rootCmd.PersistentFlags()
	for _, name := range []string{"code", "stdin", "fields", "no-color", "verbose"} {
		viper.BindPFlag(name, pf.Lookup(name))
	}
	cf := compileCmd.Flags()
	for _, name := range []string{"optimize", "return-values", "output"} {
		viper.BindPFlag(name, cf.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".dfilter")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("dfilter")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fatal(fmt.Errorf("reading config: %w", err))
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}
