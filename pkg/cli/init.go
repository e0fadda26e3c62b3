package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stagehand/stagehand/pkg/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new Stagehand configuration",
		Long: `Create a starter configuration file in the project root. Edit it to
point at your script and module directories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing configuration")

	return cmd
}

func runInit(force bool) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration already exists. Use --force to overwrite")
	}

	cm := config.NewManager()
	cfg := config.GetDefaultConfig()

	if err := cm.SaveConfig(cfg, configPath); err != nil {
		return err
	}

	console.Success(fmt.Sprintf("Created configuration at %s", configPath))
	console.Info("Edit the configuration to point at your script and module directories")

	return nil
}
