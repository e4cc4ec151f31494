package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lllllllleong/fanzineflow/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "fanzinectl",
	Short: "Operator tooling for the fanzine digitization pipeline",
	Long: `fanzinectl inspects and drives the fanzine digitization pipeline.

It talks to the same Firestore records and storage bucket as the deployed
functions, so every action here is equivalent to the corresponding workbench
callable:

  fanzinectl status <fanzineId>     # phase and per-page status breakdown
  fanzinectl queue <fanzineId>      # queue ready/error pages for OCR
  fanzinectl finalize <fanzineId>   # aggregate reviewed pages into entities
  fanzinectl rescan <fanzineId>     # force a full re-ingest
  fanzinectl delete <fanzineId>     # remove records and page assets`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("project", "", "GCP project id (env PROJECT_ID)")
	flags.String("bucket", "", "fanzine storage bucket (env FANZINE_BUCKET)")
	flags.String("collection", config.DefaultCollection, "Firestore collection")

	viper.BindPFlag("project_id", flags.Lookup("project"))
	viper.BindPFlag("fanzine_bucket", flags.Lookup("bucket"))
	viper.BindPFlag("collection", flags.Lookup("collection"))
	viper.BindEnv("project_id", "PROJECT_ID")
	viper.BindEnv("fanzine_bucket", "FANZINE_BUCKET")
	viper.BindEnv("collection", "FIRESTORE_COLLECTION")

	rootCmd.AddCommand(statusCmd, queueCmd, finalizeCmd, rescanCmd, deleteCmd)
}

// cliConfig resolves flags and environment into the shared service config.
// The CLI only drives the store and blob layers, so the OCR model settings
// stay at their defaults.
func cliConfig() (*config.Config, error) {
	projectID := viper.GetString("project_id")
	if projectID == "" {
		return nil, fmt.Errorf("project id is required (set --project or PROJECT_ID)")
	}
	bucket := viper.GetString("fanzine_bucket")
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required (set --bucket or FANZINE_BUCKET)")
	}

	return &config.Config{
		ProjectID:     projectID,
		FanzineBucket: bucket,
		Collection:    viper.GetString("collection"),
		PrimaryModel:  config.DefaultPrimaryModel,
		FallbackModel: config.DefaultFallbackModel,
	}, nil
}
