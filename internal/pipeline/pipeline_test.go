package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Lllllllleong/fanzineflow/internal/blob"
	"github.com/Lllllllleong/fanzineflow/internal/models"
	"github.com/Lllllllleong/fanzineflow/internal/ocr"
	"github.com/Lllllllleong/fanzineflow/internal/store"
)

// testEnv wires the pipeline components against in-memory implementations.
type testEnv struct {
	store      *store.MemoryStore
	blobs      *blob.MemoryStore
	gen        *scriptedGen
	manager    *Manager
	worker     *Worker
	control    *Control
	ingest     *Ingest
	aggregator *Aggregator
}

// scriptedGen fakes the generative OCR capability per call.
type scriptedGen struct {
	fn    func(model string, page []byte) (string, string, error)
	calls []string
}

func (g *scriptedGen) Generate(_ context.Context, model string, page []byte) (string, string, error) {
	g.calls = append(g.calls, model)
	return g.fn(model, page)
}

// jsonResponse builds the strict-JSON payload the OCR prompt demands.
func jsonResponse(text string, entities ...string) string {
	payload := fmt.Sprintf(`{"text": %q, "entities": [`, text)
	for i, e := range entities {
		if i > 0 {
			payload += ", "
		}
		payload += fmt.Sprintf("%q", e)
	}
	return payload + "]}"
}

func newTestEnv(pageCount int) *testEnv {
	s := store.NewMemoryStore()
	b := blob.NewMemoryStore()
	gen := &scriptedGen{fn: func(string, []byte) (string, string, error) {
		return jsonResponse("page text"), "FinishReasonStop", nil
	}}

	adapter := ocr.NewAdapter(gen, "primary-model", "fallback-model")
	ingest := NewIngest(s, b, time.Hour)
	ingest.split = stubSplit(pageCount)
	aggregator := NewAggregator(s)

	return &testEnv{
		store:      s,
		blobs:      b,
		gen:        gen,
		manager:    NewManager(s, ingest, aggregator),
		worker:     NewWorker(s, b, adapter, time.Minute),
		control:    NewControl(s, b, aggregator),
		ingest:     ingest,
		aggregator: aggregator,
	}
}

// stubSplit fabricates single-page files without a real PDF.
func stubSplit(pageCount int) splitFunc {
	return func(_, outDir string) ([]string, error) {
		files := make([]string, pageCount)
		for n := range files {
			p := filepath.Join(outDir, fmt.Sprintf("split_%d.pdf", n+1))
			if err := os.WriteFile(p, []byte(fmt.Sprintf("%%PDF page %d", n+1)), 0o600); err != nil {
				return nil, err
			}
			files[n] = p
		}
		return files, nil
	}
}

// seedFanzine creates a fanzine record directly in the given phase.
func (e *testEnv) seedFanzine(id string, phase models.Phase) {
	_ = e.store.CreateFanzine(context.Background(), id, &models.Fanzine{
		Title:            "Test Zine",
		SourceFile:       "uploads/raw_pdfs/test_zine.pdf",
		ProcessingStatus: phase,
		Status:           "draft",
	})
}

// seedPage creates a page record with the given status.
func (e *testEnv) seedPage(fanzineID, pageID string, pageNumber int, status models.PageStatus, entities ...string) {
	e.store.SeedPage(fanzineID, pageID, models.Page{
		PageNumber:       pageNumber,
		StoragePath:      PageAssetPath(fanzineID, pageNumber),
		Status:           status,
		DetectedEntities: entities,
	})
}

func (e *testEnv) phase(id string) models.Phase {
	f, err := e.store.GetFanzine(context.Background(), id)
	if err != nil {
		return ""
	}
	return f.ProcessingStatus
}
