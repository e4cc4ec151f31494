package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/fanzineflow/internal/app"
	"github.com/Lllllllleong/fanzineflow/internal/models"
)

var statusVerbose bool

var statusCmd = &cobra.Command{
	Use:   "status <fanzineId>",
	Short: "Show the phase and per-page status breakdown of a fanzine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fanzineID := args[0]

		cfg, err := cliConfig()
		if err != nil {
			return err
		}
		st, err := app.NewStore(ctx, cfg)
		if err != nil {
			return err
		}

		f, err := st.GetFanzine(ctx, fanzineID)
		if err != nil {
			return err
		}

		fmt.Printf("Fanzine:  %s\n", fanzineID)
		fmt.Printf("Title:    %s\n", f.Title)
		fmt.Printf("Phase:    %s\n", f.ProcessingStatus)
		fmt.Printf("Pages:    %d\n", f.PageCount)
		if f.ErrorIngest != "" {
			fmt.Printf("Ingest error:      %s\n", f.ErrorIngest)
		}
		if f.ErrorAgg != "" {
			fmt.Printf("Aggregation error: %s\n", f.ErrorAgg)
		}
		if !f.LastWorkerPulse.IsZero() {
			fmt.Printf("Last pulse:        %s\n", f.LastWorkerPulse.Format("2006-01-02 15:04:05"))
		}
		if len(f.DraftEntities) > 0 {
			fmt.Printf("Draft entities:    %d\n", len(f.DraftEntities))
		}

		records, err := st.ListPages(ctx, fanzineID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		counts := map[models.PageStatus]int{}
		for _, rec := range records {
			counts[rec.Page.Status]++
		}
		statuses := make([]string, 0, len(counts))
		for status := range counts {
			statuses = append(statuses, string(status))
		}
		sort.Strings(statuses)
		fmt.Println("\nPage statuses:")
		for _, status := range statuses {
			fmt.Printf("  %-15s %d\n", status, counts[models.PageStatus(status)])
		}

		if !statusVerbose {
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\nPAGE\tSTATUS\tMODEL\tERROR")
		for _, rec := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
				rec.Page.PageNumber, rec.Page.Status, rec.Page.OCRModelUsed, rec.Page.ErrorLog)
		}
		return w.Flush()
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusVerbose, "verbose", "v", false, "list every page")
}
