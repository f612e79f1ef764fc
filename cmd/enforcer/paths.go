package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print where configuration, caches and logs are kept",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, paths, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("config: %s\n", paths.ConfigFile)
		fmt.Printf("data:   %s\n", paths.DataDir)
		fmt.Printf("db:     %s\n", paths.DB)
		fmt.Printf("events: %s\n", paths.EventsDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
