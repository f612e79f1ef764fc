package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/tag-enforcer/internal/config"
	"github.com/franz/tag-enforcer/internal/util"
)

const defaultEditor = "vim"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the configuration file in $EDITOR",
	Long: `Open the configuration file in $EDITOR (vim if unset).
A file holding the defaults is written first if none exists.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

func init() {
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// editor returns the command used to edit the config file
func editor() string {
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return defaultEditor
}

func configFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return config.DefaultPaths().ConfigFile
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := configFilePath()

	wrote, err := config.WriteDefault(path)
	if err != nil {
		return err
	}
	if wrote {
		util.InfoLog("Wrote default configuration to %s", path)
	}

	c := exec.Command(editor(), path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("editor %s failed: %w", editor(), err)
	}

	// Re-read so mistakes show up now rather than on the next plan
	v := viper.New()
	config.SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}
	if _, err := config.Load(v); err != nil {
		return err
	}
	util.SuccessLog("Configuration is valid")
	return nil
}
