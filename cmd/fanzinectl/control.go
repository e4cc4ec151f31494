package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/fanzineflow/internal/app"
	"github.com/Lllllllleong/fanzineflow/internal/pipeline"
)

// withControl builds the control service and runs fn against it.
func withControl(ctx context.Context, fn func(*pipeline.Control) error) error {
	cfg, err := cliConfig()
	if err != nil {
		return err
	}
	control, err := app.NewControl(ctx, cfg)
	if err != nil {
		return err
	}
	return fn(control)
}

var queueCmd = &cobra.Command{
	Use:   "queue <fanzineId>",
	Short: "Queue all ready and errored pages for OCR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withControl(cmd.Context(), func(c *pipeline.Control) error {
			queued, err := c.TriggerBatchOCR(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Queued %d pages.\n", queued)
			return nil
		})
	},
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize <fanzineId>",
	Short: "Aggregate reviewed pages into the draft entity list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withControl(cmd.Context(), func(c *pipeline.Control) error {
			count, err := c.Finalize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Aggregated %d entities.\n", count)
			return nil
		})
	},
}

var rescanCmd = &cobra.Command{
	Use:   "rescan <fanzineId>",
	Short: "Force a full re-ingest of the source PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withControl(cmd.Context(), func(c *pipeline.Control) error {
			if err := c.Rescan(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Rescan requested.")
			return nil
		})
	},
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <fanzineId>",
	Short: "Delete a fanzine, its page records and its page assets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !deleteYes {
			return fmt.Errorf("refusing to delete %s without --yes", args[0])
		}
		return withControl(cmd.Context(), func(c *pipeline.Control) error {
			if err := c.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		})
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "confirm deletion")
}
