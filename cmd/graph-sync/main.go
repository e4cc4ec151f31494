package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/fanzineflow/internal/graphsync"
	"github.com/Lllllllleong/fanzineflow/internal/models"
)

var syncer = graphsync.NewSyncer()

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("HandleGraphRecordCreated", handleGraphRecordCreated)
}

// main is required by the Go Functions Framework.
func main() {}

// handleGraphRecordCreated fires on creation of social-graph records and
// emits the corresponding graph edge. Routing is by collection path:
// users/{uid}/following/{target}, likes/{id} and remixes/{id}.
func handleGraphRecordCreated(ctx context.Context, e cloudevents.Event) error {
	var event models.FirestoreEvent
	if err := json.Unmarshal(e.Data(), &event); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	doc := event.Value
	if !doc.Exists() {
		return nil
	}
	path := doc.Path()
	createdAt := doc.TimeField("createdAt")

	switch {
	case len(path) == 4 && path[0] == "users" && path[2] == "following":
		return syncer.OnFollow(path[1], path[3], createdAt)
	case len(path) == 2 && path[0] == "likes":
		return syncer.OnLike(doc.StringField("userId"), doc.StringField("contentId"), createdAt)
	case len(path) == 2 && path[0] == "remixes":
		return syncer.OnRemix(doc.StringField("userId"), doc.StringField("originalContentId"), path[1], createdAt)
	default:
		slog.Warn("Ignoring event for unexpected document path", "name", doc.Name)
		return nil
	}
}
