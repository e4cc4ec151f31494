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
	worker  *pipeline.Worker
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("HandlePageWritten", handlePageWritten)
}

// main is required by the Go Functions Framework.
func main() {}

// handlePageWritten fires on every write to a page document. The worker
// itself decides whether the page is actually queued, so duplicate and
// stale deliveries are cheap no-ops.
func handlePageWritten(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		var cfg *config.Config
		if cfg, initErr = config.Load(); initErr != nil {
			return
		}
		worker, initErr = app.NewWorker(context.Background(), cfg)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var event models.FirestoreEvent
	if err := json.Unmarshal(e.Data(), &event); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	if !event.Value.Exists() {
		return nil
	}
	path := event.Value.Path()
	if len(path) != 4 {
		slog.Warn("Ignoring event for unexpected document path", "name", event.Value.Name)
		return nil
	}

	return worker.Process(ctx, path[1], path[3])
}
