package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <document-id>",
	Short: "Show the derived timer state",
	Long:  `Shows whether a timer is running for a document, derived from the shape of the stored ledger rows.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := newClient().TimerStatus(context.Background(), args[0])
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	running := "idle"
	if status.Running {
		running = "running"
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	table.Append([]string{"Document", args[0]})
	table.Append([]string{"State", running})
	if status.Segment != "" {
		table.Append([]string{"Segment", status.Segment})
	}
	if status.Running {
		table.Append([]string{"Date", status.Date})
		table.Append([]string{"Started", status.Start})
	}
	table.Render()
	return nil
}
