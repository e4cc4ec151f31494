// Package app wires the deployed services from configuration. Each
// constructor builds the full client stack a single Cloud Function needs;
// entrypoints call these once behind sync.Once, and the operator CLI reuses
// them with a flag-derived config.
package app

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/fanzineflow/internal/blob"
	"github.com/Lllllllleong/fanzineflow/internal/config"
	"github.com/Lllllllleong/fanzineflow/internal/gcp"
	"github.com/Lllllllleong/fanzineflow/internal/ocr"
	"github.com/Lllllllleong/fanzineflow/internal/pipeline"
	"github.com/Lllllllleong/fanzineflow/internal/store"
)

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return store.NewFirestoreStore(client, cfg.Collection), nil
}

func newBlobs(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	client, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return blob.NewGCSStore(client, cfg.FanzineBucket), nil
}

// NewManager builds the fanzine state machine service.
func NewManager(ctx context.Context, cfg *config.Config) (*pipeline.Manager, error) {
	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	blobs, err := newBlobs(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ingest := pipeline.NewIngest(st, blobs, cfg.SignedURLTTL)
	aggregator := pipeline.NewAggregator(st)
	return pipeline.NewManager(st, ingest, aggregator), nil
}

// NewWorker builds the per-page OCR worker service.
func NewWorker(ctx context.Context, cfg *config.Config) (*pipeline.Worker, error) {
	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	blobs, err := newBlobs(ctx, cfg)
	if err != nil {
		return nil, err
	}
	vertex, err := gcp.NewVertexClient(ctx, cfg.ProjectID, cfg.VertexAIRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}
	adapter := ocr.NewAdapter(vertex, cfg.PrimaryModel, cfg.FallbackModel)
	return pipeline.NewWorker(st, blobs, adapter, cfg.OCRTimeout), nil
}

// NewUploadHandler builds the raw-PDF upload handler service.
func NewUploadHandler(ctx context.Context, cfg *config.Config) (*pipeline.UploadHandler, error) {
	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewUploadHandler(st, cfg.UploadPrefix), nil
}

// NewControl builds the workbench control service backing the callable
// endpoints and the operator CLI.
func NewControl(ctx context.Context, cfg *config.Config) (*pipeline.Control, error) {
	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	blobs, err := newBlobs(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewControl(st, blobs, pipeline.NewAggregator(st)), nil
}

// NewStore builds a bare record store for read-only tooling.
func NewStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	return newStore(ctx, cfg)
}
