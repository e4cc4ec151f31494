package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/fanzineflow/internal/blob"
	"github.com/Lllllllleong/fanzineflow/internal/models"
	"github.com/Lllllllleong/fanzineflow/internal/store"
)

// Control implements the manually invocable workbench actions. All of them
// are idempotent to re-invocation.
type Control struct {
	store      store.Store
	blobs      blob.Store
	aggregator *Aggregator
}

func NewControl(s store.Store, blobs blob.Store, aggregator *Aggregator) *Control {
	return &Control{store: s, blobs: blobs, aggregator: aggregator}
}

// TriggerBatchOCR moves the fanzine to processing_ocr and resets every page
// in ready or error to queued, clearing old error logs. This is the control
// that actually moves pages into the active pipeline; ingest alone only
// prepares them.
func (c *Control) TriggerBatchOCR(ctx context.Context, fanzineID string) (int, error) {
	logCtx := slog.With("fanzineId", fanzineID)

	if err := c.store.SetPhase(ctx, fanzineID, models.PhaseProcessingOCR); err != nil {
		return 0, err
	}

	records, err := c.store.ListPages(ctx, fanzineID)
	if err != nil {
		return 0, fmt.Errorf("failed to list pages for %s: %w", fanzineID, err)
	}

	var eligible []string
	for _, rec := range records {
		if rec.Page.Status == models.PageReady || rec.Page.Status == models.PageError {
			eligible = append(eligible, rec.ID)
		}
	}

	if err := c.store.QueuePages(ctx, fanzineID, eligible); err != nil {
		return 0, fmt.Errorf("failed to queue pages for %s: %w", fanzineID, err)
	}

	logCtx.Info("Queued pages for OCR.", "queuedCount", len(eligible))
	return len(eligible), nil
}

// Finalize runs aggregation directly and returns the resulting entity count.
func (c *Control) Finalize(ctx context.Context, fanzineID string) (int, error) {
	if err := c.aggregator.Run(ctx, fanzineID); err != nil {
		return 0, err
	}

	f, err := c.store.GetFanzine(ctx, fanzineID)
	if err != nil {
		return 0, err
	}
	return len(f.DraftEntities), nil
}

// Rescan forces the fanzine back to needs_ingest. The rescan timestamp is
// touched as well so the write registers as a change even when the phase is
// already needs_ingest.
func (c *Control) Rescan(ctx context.Context, fanzineID string) error {
	return c.store.RequestRescan(ctx, fanzineID)
}

// Delete cascades: page records, then blobs, then the fanzine record.
func (c *Control) Delete(ctx context.Context, fanzineID string) error {
	logCtx := slog.With("fanzineId", fanzineID)

	deletedPages, err := c.store.DeletePages(ctx, fanzineID)
	if err != nil {
		return fmt.Errorf("failed to delete pages for %s: %w", fanzineID, err)
	}

	deletedBlobs, err := c.blobs.DeletePrefix(ctx, FanzinePrefix(fanzineID))
	if err != nil {
		return fmt.Errorf("failed to delete blobs for %s: %w", fanzineID, err)
	}

	if err := c.store.DeleteFanzine(ctx, fanzineID); err != nil {
		return err
	}

	logCtx.Info("Fanzine deleted.", "pageRecords", deletedPages, "blobs", deletedBlobs)
	return nil
}
