package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/tag-enforcer/internal/config"
	"github.com/franz/tag-enforcer/internal/util"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "enforcer",
		Short: "Enforce consistent tags and file names across an MP3 library",
		Long: `enforcer reads the tags of your MP3 files, pulls remixers, featured
artists and other qualifiers out of free-text fields, renders every tag from
configurable templates and proposes a canonical file path.

Changes are planned first and only written on commit. Ambiguous values are
asked for once and remembered.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.SetVerbose(viper.GetBool("verbose"))
			util.SetQuiet(viper.GetBool("quiet"))
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/enforcer/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "cache database file (default is $XDG_DATA_HOME/enforcer/enforcer.db)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only, never prompt)")

	// Bind flags to viper
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigFile(config.DefaultPaths().ConfigFile)
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("ENFORCER")
	viper.AutomaticEnv()

	// A missing config file is fine: defaults apply
	if err := viper.ReadInConfig(); err == nil {
		util.DebugLog("Using config file: %s", viper.ConfigFileUsed())
	} else if util.FileExists(viper.ConfigFileUsed()) {
		util.ErrorLog("Failed to read config %s: %v", viper.ConfigFileUsed(), err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
