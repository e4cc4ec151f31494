package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Lllllllleong/fanzineflow/internal/store"
)

// Aggregator reduces per-page entity sets into one deduplicated
// document-level set. Plain set semantics: no cross-page reconciliation.
type Aggregator struct {
	store store.Store
}

func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// Run executes the aggregation job. Failures are persisted as the error phase
// with a job-specific message.
func (a *Aggregator) Run(ctx context.Context, fanzineID string) error {
	logCtx := slog.With("fanzineId", fanzineID)

	entities, err := a.collect(ctx, fanzineID)
	if err != nil {
		logCtx.Error("Aggregation failed.", "error", err)
		if storeErr := a.store.SetAggError(ctx, fanzineID, err.Error()); storeErr != nil {
			logCtx.Error("CRITICAL: Failed to persist aggregation error.", "error", storeErr)
		}
		return err
	}

	if err := a.store.SetAggregationComplete(ctx, fanzineID, entities); err != nil {
		logCtx.Error("Failed to finalize aggregation.", "error", err)
		if storeErr := a.store.SetAggError(ctx, fanzineID, err.Error()); storeErr != nil {
			logCtx.Error("CRITICAL: Failed to persist aggregation error.", "error", storeErr)
		}
		return err
	}

	logCtx.Info("Aggregation complete.", "entityCount", len(entities))
	return nil
}

func (a *Aggregator) collect(ctx context.Context, fanzineID string) ([]string, error) {
	records, err := a.store.ListPages(ctx, fanzineID)
	if err != nil {
		return nil, fmt.Errorf("failed to stream pages: %w", err)
	}

	seen := make(map[string]struct{})
	for _, rec := range records {
		for _, e := range rec.Page.DetectedEntities {
			seen[e] = struct{}{}
		}
	}

	entities := make([]string, 0, len(seen))
	for e := range seen {
		entities = append(entities, e)
	}
	sort.Strings(entities)
	return entities, nil
}
