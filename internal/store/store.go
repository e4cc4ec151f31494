package store

import (
	"context"
	"errors"

	"github.com/Lllllllleong/fanzineflow/internal/models"
)

// ErrNotFound is returned when a fanzine or page record does not exist.
var ErrNotFound = errors.New("record not found")

// PageRecord pairs a page with its store-assigned id.
type PageRecord struct {
	ID   string
	Page models.Page
}

// PageResult is the single atomic update an OCR worker writes on success.
type PageResult struct {
	TextRaw          string
	TextProcessed    string
	DetectedEntities []string
	ErrorEntityID    int
	ModelUsed        string
}

// Store is the shared mutable record store every trigger reads and writes.
// All phase transitions and worker results go through it; implementations
// must make each method an independently committed write so that re-delivered
// triggers always observe fully committed state.
//
// Bulk operations (CreatePages, QueuePages, DeletePages) are committed in
// bounded groups below the underlying store's atomic-write ceiling.
type Store interface {
	GetFanzine(ctx context.Context, id string) (*models.Fanzine, error)
	CreateFanzine(ctx context.Context, id string, f *models.Fanzine) error
	DeleteFanzine(ctx context.Context, id string) error

	// SetPhase writes processingStatus. Writing an already-current phase is
	// harmless; concurrent identical writes are the documented race outcome.
	SetPhase(ctx context.Context, id string, phase models.Phase) error
	// SetIngestError and SetAggError move the fanzine to the error phase and
	// record a job-specific human-readable message.
	SetIngestError(ctx context.Context, id, msg string) error
	SetAggError(ctx context.Context, id, msg string) error
	// SetIngestComplete records pageCount and the images_ready phase.
	SetIngestComplete(ctx context.Context, id string, pageCount int) error
	// SetAggregationComplete records the document-level entity set and the
	// complete phase.
	SetAggregationComplete(ctx context.Context, id string, entities []string) error
	// TouchPulse writes only lastWorkerPulse, forcing a re-evaluation trigger
	// on the parent without changing its phase.
	TouchPulse(ctx context.Context, id string) error
	// RequestRescan forces needs_ingest and touches lastRescanRequest so the
	// write registers as a change even when the phase is already needs_ingest.
	RequestRescan(ctx context.Context, id string) error

	GetPage(ctx context.Context, fanzineID, pageID string) (*models.Page, error)
	// ListPages returns all pages ordered by pageNumber.
	ListPages(ctx context.Context, fanzineID string) ([]PageRecord, error)
	// AnyPageWithStatus reports whether at least one page has one of the
	// given statuses. This existence probe is the only admissible progress
	// signal for phase gating.
	AnyPageWithStatus(ctx context.Context, fanzineID string, statuses ...models.PageStatus) (bool, error)
	CreatePages(ctx context.Context, fanzineID string, pages []models.Page) error
	// QueuePages resets the given pages to queued and clears their error logs.
	QueuePages(ctx context.Context, fanzineID string, pageIDs []string) error
	SetPageResult(ctx context.Context, fanzineID, pageID string, res PageResult) error
	SetPageError(ctx context.Context, fanzineID, pageID, msg string) error
	// DeletePages removes every page record and returns how many were deleted.
	DeletePages(ctx context.Context, fanzineID string) (int, error)
}
