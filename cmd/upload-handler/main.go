package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/fanzineflow/internal/app"
	"github.com/Lllllllleong/fanzineflow/internal/config"
	"github.com/Lllllllleong/fanzineflow/internal/models"
	"github.com/Lllllllleong/fanzineflow/internal/pipeline"
)

var (
	handler *pipeline.UploadHandler
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("HandlePDFUpload", handlePDFUpload)
}

// main is required by the Go Functions Framework.
func main() {}

// handlePDFUpload fires when an object is finalized in the fanzine bucket
// and creates the fanzine record for raw PDF uploads.
func handlePDFUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		var cfg *config.Config
		if cfg, initErr = config.Load(); initErr != nil {
			return
		}
		handler, initErr = app.NewUploadHandler(context.Background(), cfg)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	fanzineID, err := handler.Process(ctx, gcsEvent.Name, gcsEvent.Metadata)
	if err != nil {
		return err
	}
	if fanzineID != "" {
		slog.Info("Created fanzine record for upload.", "fanzineId", fanzineID, "object", gcsEvent.Name)
	}
	return nil
}
