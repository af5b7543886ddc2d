package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var startDescription string

var startCmd = &cobra.Command{
	Use:   "start <document-id>",
	Short: "Start a timer",
	Long:  `Starts a timer for a document. Fails if a timer is already running.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVarP(&startDescription, "message", "m", "", "description of the work being timed")
}

func runStart(cmd *cobra.Command, args []string) error {
	result, err := newClient().StartTimer(context.Background(), args[0], startDescription)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Timer started at %s (%s, segment %s)\n", result.Start, result.Date, result.Segment)
	return nil
}
