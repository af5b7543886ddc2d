package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved CLI configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	source := viper.ConfigFileUsed()
	if source == "" {
		source = "(defaults and flags only)"
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Setting", "Value")
	table.Append([]string{"Server URL", serverURL})
	table.Append([]string{"Output format", outputFormat})
	table.Append([]string{"Config file", source})
	table.Render()

	fmt.Println("\nSet GRIDTIME_SERVER or ~/.gridtime/config.yaml (server_url) to change the daemon address.")
	return nil
}
