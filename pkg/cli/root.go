// Package cli provides the command-line interface for Stagehand
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stagehand/stagehand/pkg/config"
	"github.com/stagehand/stagehand/pkg/logger"
)

var (
	cfgFile     string
	projectRoot string
	verbosity   string
	version     string

	console = logger.NewConsoleLogger()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Lifecycle phase script runner with a bounded blocking window",
	Long: `Stagehand runs ordered batches of scripts during host lifecycle phases.
One phase is governed by a wall-clock deadline: its scripts block startup
only until the deadline, after which remaining scripts are launched without
being awaited. Slow scripts are never killed, only no longer waited for.`,

	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("stagehand v%s\n", version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the CLI
func Execute(v string) error {
	version = v

	// Initialize the root command explicitly (avoiding init())
	initializeRootCommand()

	return rootCmd.Execute()
}

// initializeRootCommand sets up the root command and its flags.
func initializeRootCommand() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: stagehand.config.json)")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "project root directory")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "", "log level (debug, info, warn, error)")

	rootCmd.Flags().Bool("version", false, "Print version information and quit")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newTriggerCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(projectRoot)
		viper.SetConfigName("stagehand.config")
		viper.SetConfigType("json")
	}

	viper.SetEnvPrefix("STAGEHAND")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbosity == "debug" {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}

// getConfigPath resolves the config file: an explicit --config wins, then
// whichever known config name exists under the project root, then the
// default JSON name (which init will create).
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if found, err := config.NewManager().FindConfig(projectRoot); err == nil {
		return found
	}
	return filepath.Join(projectRoot, config.DefaultConfigName)
}
