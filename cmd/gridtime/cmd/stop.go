package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var stopAt string

var stopCmd = &cobra.Command{
	Use:   "stop <document-id>",
	Short: "Stop the running timer",
	Long:  `Stops the running timer for a document and reports the elapsed duration.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
	stopCmd.Flags().StringVar(&stopAt, "at", "", "end time as RFC3339 (default: now)")
}

func runStop(cmd *cobra.Command, args []string) error {
	if stopAt != "" {
		if _, err := time.Parse(time.RFC3339, stopAt); err != nil {
			return fmt.Errorf("invalid --at value %q: %w", stopAt, err)
		}
	}

	result, err := newClient().StopTimer(context.Background(), args[0], stopAt)
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

	fmt.Printf("Timer stopped at %s, elapsed %s (segment %s)\n", result.End, result.Duration, result.Segment)
	return nil
}
