package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/fanzineflow/internal/config"
	"github.com/Lllllllleong/fanzineflow/internal/models"
	"github.com/Lllllllleong/fanzineflow/internal/store"
	"github.com/Lllllllleong/fanzineflow/internal/textutil"
)

// UploadHandler reacts to finalized blobs under the raw-upload prefix and
// creates the fanzine shell record that starts the pipeline.
type UploadHandler struct {
	store        store.Store
	uploadPrefix string
}

func NewUploadHandler(s store.Store, uploadPrefix string) *UploadHandler {
	if uploadPrefix == "" {
		uploadPrefix = config.DefaultUploadPrefix
	}
	return &UploadHandler{store: s, uploadPrefix: uploadPrefix}
}

// Process creates a fanzine record for the uploaded object. Objects outside
// the upload prefix or without a .pdf suffix are ignored; the returned id is
// empty in that case.
func (h *UploadHandler) Process(ctx context.Context, objectName string, metadata map[string]string) (string, error) {
	if !strings.HasSuffix(objectName, ".pdf") || !strings.Contains(objectName, h.uploadPrefix) {
		return "", nil
	}

	uploaderID := metadata["uploaderId"]
	if uploaderID == "" {
		uploaderID = "unknown"
	}

	fanzineID := uuid.NewString()
	f := &models.Fanzine{
		Title:            titleFromObjectName(objectName),
		SourceFile:       objectName,
		ProcessingStatus: models.PhaseNeedsIngest,
		Status:           "draft",
		UploaderID:       uploaderID,
		CreationDate:     time.Now(),
	}
	if err := h.store.CreateFanzine(ctx, fanzineID, f); err != nil {
		return "", fmt.Errorf("failed to create fanzine for %s: %w", objectName, err)
	}

	slog.Info("Created fanzine for uploaded PDF.", "fanzineId", fanzineID, "sourceFile", objectName)
	return fanzineID, nil
}

// titleFromObjectName derives a display title from the uploaded filename.
func titleFromObjectName(objectName string) string {
	name := strings.TrimSuffix(path.Base(objectName), ".pdf")
	name = strings.ReplaceAll(name, "_", " ")
	return textutil.TitleCase(name)
}
