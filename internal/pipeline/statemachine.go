package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/fanzineflow/internal/models"
	"github.com/Lllllllleong/fanzineflow/internal/store"
)

// Manager orchestrates the high-level state of a fanzine. It is invoked on
// every write to the fanzine record and performs at most one phase-appropriate
// action per invocation. The next phase's action runs only on the next
// triggered invocation, never recursively.
//
// The trigger is at-least-once and unordered, so every decision here is
// derived from committed state: the page-status probes below are the only
// progress signal, and writing an already-current phase twice is harmless.
type Manager struct {
	store      store.Store
	ingest     *Ingest
	aggregator *Aggregator
}

func NewManager(s store.Store, ingest *Ingest, aggregator *Aggregator) *Manager {
	return &Manager{store: s, ingest: ingest, aggregator: aggregator}
}

// Process runs the single action appropriate to the fanzine's current phase.
func (m *Manager) Process(ctx context.Context, fanzineID string) error {
	f, err := m.store.GetFanzine(ctx, fanzineID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted between trigger and invocation.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load fanzine %s: %w", fanzineID, err)
	}

	logCtx := slog.With("fanzineId", fanzineID, "phase", string(f.ProcessingStatus))

	switch f.ProcessingStatus {
	case models.PhaseNeedsIngest:
		logCtx.Info("Starting ingest.")
		if err := m.store.SetPhase(ctx, fanzineID, models.PhaseExtractingImages); err != nil {
			return err
		}
		// Ingest persists its own terminal outcome (images_ready or error);
		// nothing to propagate to the trigger layer.
		if err := m.ingest.Run(ctx, fanzineID, f.SourceFile); err != nil {
			logCtx.Error("Ingest failed.", "error", err)
		}
		return nil

	case models.PhaseProcessingOCR:
		pending, err := m.store.AnyPageWithStatus(ctx, fanzineID, models.PagePendingOCR...)
		if err != nil {
			return fmt.Errorf("failed to probe OCR progress for %s: %w", fanzineID, err)
		}
		if !pending {
			logCtx.Info("All pages processed. Moving to review.")
			return m.store.SetPhase(ctx, fanzineID, models.PhaseReviewNeeded)
		}
		return nil

	case models.PhaseReviewNeeded:
		pending, err := m.store.AnyPageWithStatus(ctx, fanzineID, models.PagePendingReview...)
		if err != nil {
			return fmt.Errorf("failed to probe review progress for %s: %w", fanzineID, err)
		}
		if !pending {
			logCtx.Info("All pages reviewed. Ready for aggregation.")
			return m.store.SetPhase(ctx, fanzineID, models.PhaseReadyForAgg)
		}
		return nil

	case models.PhaseReadyForAgg:
		logCtx.Info("Starting aggregation.")
		if err := m.store.SetPhase(ctx, fanzineID, models.PhaseAggregating); err != nil {
			return err
		}
		if err := m.aggregator.Run(ctx, fanzineID); err != nil {
			logCtx.Error("Aggregation failed.", "error", err)
		}
		return nil

	default:
		// extracting_images, images_ready, aggregating, complete, error:
		// re-entrant writes during a long-running job must not re-trigger it.
		return nil
	}
}
