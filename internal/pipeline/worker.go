package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/fanzineflow/internal/blob"
	"github.com/Lllllllleong/fanzineflow/internal/models"
	"github.com/Lllllllleong/fanzineflow/internal/ocr"
	"github.com/Lllllllleong/fanzineflow/internal/store"
	"github.com/Lllllllleong/fanzineflow/internal/textutil"
)

// Worker runs OCR for a single page. It is invoked on every write to a page
// record and acts only when the committed status is exactly queued, so its
// own result writes (review_needed or error) cannot re-trigger it.
type Worker struct {
	store   store.Store
	blobs   blob.Store
	adapter *ocr.Adapter
	timeout time.Duration
}

func NewWorker(s store.Store, blobs blob.Store, adapter *ocr.Adapter, timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = 100 * time.Second
	}
	return &Worker{store: s, blobs: blobs, adapter: adapter, timeout: timeout}
}

// Process handles one invocation for the given page.
func (w *Worker) Process(ctx context.Context, fanzineID, pageID string) error {
	page, err := w.store.GetPage(ctx, fanzineID, pageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load page %s/%s: %w", fanzineID, pageID, err)
	}

	if page.Status != models.PageQueued {
		return nil
	}

	logCtx := slog.With("fanzineId", fanzineID, "pageId", pageID, "pageNumber", page.PageNumber)
	logCtx.Info("Starting page OCR.")

	if err := w.runOCR(ctx, fanzineID, pageID, page, logCtx); err != nil {
		logCtx.Error("OCR worker failed.", "error", err)
		if storeErr := w.store.SetPageError(ctx, fanzineID, pageID, err.Error()); storeErr != nil {
			logCtx.Error("CRITICAL: Failed to persist page error.", "error", storeErr)
		}
	}

	// Pulse the parent in both outcomes so a crashed page can never leave the
	// fanzine waiting for a completion that will not come.
	if err := w.store.TouchPulse(ctx, fanzineID); err != nil {
		logCtx.Error("Failed to pulse parent fanzine.", "error", err)
		return err
	}
	return nil
}

func (w *Worker) runOCR(ctx context.Context, fanzineID, pageID string, page *models.Page, logCtx *slog.Logger) error {
	pageBytes, err := w.blobs.Download(ctx, page.StoragePath)
	if err != nil {
		return fmt.Errorf("failed to fetch page asset: %w", err)
	}

	ocrCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	res, err := w.adapter.Invoke(ocrCtx, pageBytes)
	if err != nil {
		return err
	}

	var entities []models.Entity
	droppedEntities := 0
	for _, name := range res.Entities {
		norm, ok := textutil.NormalizeEntity(name)
		if !ok {
			droppedEntities++
			continue
		}
		entities = append(entities, norm)
	}

	processed := textutil.ApplyWikilinks(res.Text, entities)

	cleanNames := make([]string, len(entities))
	for i, e := range entities {
		cleanNames[i] = e.Clean
	}

	result := store.PageResult{
		TextRaw:          res.Text,
		TextProcessed:    processed,
		DetectedEntities: cleanNames,
		ErrorEntityID:    droppedEntities,
		ModelUsed:        res.ModelUsed,
	}
	if err := w.store.SetPageResult(ctx, fanzineID, pageID, result); err != nil {
		return fmt.Errorf("failed to write page result: %w", err)
	}

	logCtx.Info("Page OCR complete.", "model", res.ModelUsed, "entityCount", len(cleanNames), "droppedEntities", droppedEntities)
	return nil
}
