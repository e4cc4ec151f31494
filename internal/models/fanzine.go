package models

import "time"

// Phase is the document-level orchestration state of a fanzine. It is the
// single source of truth for the traffic manager: every transition is derived
// from the committed value, never from in-memory bookkeeping.
type Phase string

const (
	PhaseNeedsIngest      Phase = "needs_ingest"
	PhaseExtractingImages Phase = "extracting_images"
	PhaseImagesReady      Phase = "images_ready"
	PhaseProcessingOCR    Phase = "processing_ocr"
	PhaseReviewNeeded     Phase = "review_needed"
	PhaseReadyForAgg      Phase = "ready_for_agg"
	PhaseAggregating      Phase = "aggregating"
	PhaseComplete         Phase = "complete"
	PhaseError            Phase = "error"
)

// PageStatus is the per-page worker state.
type PageStatus string

const (
	PageReady        PageStatus = "ready"
	PageQueued       PageStatus = "queued"
	PageReviewNeeded PageStatus = "review_needed"
	PageError        PageStatus = "error"
	// PageComplete is written by the review surface when a human approves a
	// page; the pipeline itself never sets it.
	PageComplete PageStatus = "complete"
)

// PagePendingOCR is the status set that keeps a fanzine in processing_ocr.
var PagePendingOCR = []PageStatus{PageReady, PageQueued}

// PagePendingReview is the status set that keeps a fanzine in review_needed:
// anything a human has not yet approved.
var PagePendingReview = []PageStatus{PageReviewNeeded, PageError, PageReady, PageQueued}

// Fanzine is the master record for one ingested source PDF.
type Fanzine struct {
	Title             string     `firestore:"title,omitempty"`
	SourceFile        string     `firestore:"sourceFile,omitempty"`
	ProcessingStatus  Phase      `firestore:"processingStatus,omitempty"`
	Status            string     `firestore:"status,omitempty"`
	UploaderID        string     `firestore:"uploaderId,omitempty"`
	PageCount         int        `firestore:"pageCount,omitempty"`
	DraftEntities     []string   `firestore:"draftEntities,omitempty"`
	ErrorIngest       string     `firestore:"error_ingest,omitempty"`
	ErrorAgg          string     `firestore:"error_agg,omitempty"`
	LastWorkerPulse   time.Time  `firestore:"lastWorkerPulse,omitempty"`
	LastRescanRequest time.Time  `firestore:"lastRescanRequest,omitempty"`
	CreationDate      time.Time  `firestore:"creationDate,omitempty"`
	AggregatedAt      time.Time  `firestore:"aggregatedAt,omitempty"`
}

// Page is one rendered page of a fanzine, stored in the pages sub-collection.
type Page struct {
	PageNumber       int        `firestore:"pageNumber"`
	StoragePath      string     `firestore:"storagePath,omitempty"`
	ImageURL         string     `firestore:"imageUrl,omitempty"`
	Status           PageStatus `firestore:"status,omitempty"`
	TextRaw          string     `firestore:"text_raw,omitempty"`
	TextProcessed    string     `firestore:"text_processed,omitempty"`
	DetectedEntities []string   `firestore:"detected_entities,omitempty"`
	ErrorEntityID    int        `firestore:"error_entity_id,omitempty"`
	ErrorLog         string     `firestore:"errorLog,omitempty"`
	OCRModelUsed     string     `firestore:"ocrModelUsed,omitempty"`
	ProcessedAt      time.Time  `firestore:"processedAt,omitempty"`
	UploadedAt       time.Time  `firestore:"uploadedAt,omitempty"`
}

// Entity is a normalized mention produced by the OCR worker. Clean is the
// canonical display form used for dedup; Prefix holds a stripped honorific.
type Entity struct {
	Original string `json:"original"`
	Clean    string `json:"clean"`
	Prefix   string `json:"prefix"`
}
