package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/fanzineflow/internal/models"
)

// dispatch drains the store's write-event queue and routes every event the
// way the deployed triggers would: fanzine writes to the state machine, page
// writes to the worker. It loops until the system quiesces.
func dispatch(t *testing.T, env *testEnv) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		events := env.store.DrainEvents()
		if len(events) == 0 {
			return
		}
		for _, ev := range events {
			if ev.PageID == "" {
				require.NoError(t, env.manager.Process(context.Background(), ev.FanzineID))
			} else {
				require.NoError(t, env.worker.Process(context.Background(), ev.FanzineID, ev.PageID))
			}
		}
	}
	t.Fatal("event loop did not quiesce")
}

func TestEndToEnd(t *testing.T) {
	env := newTestEnv(3)
	ctx := context.Background()

	// Scripted OCR: page 2's primary call hits a recitation block; the
	// fallback succeeds. All other pages succeed on the primary model.
	env.gen.fn = func(model string, page []byte) (string, string, error) {
		switch {
		case bytes.Contains(page, []byte("page 1")):
			return jsonResponse("First page text", "Dr. John Smith", "Fandom Press"), "FinishReasonStop", nil
		case bytes.Contains(page, []byte("page 2")):
			if model == "primary-model" {
				return "", "FinishReasonRecitation", nil
			}
			return jsonResponse("Second page text", "John Smith", "Jane Doe"), "FinishReasonStop", nil
		case bytes.Contains(page, []byte("page 3")):
			return jsonResponse("Third page text", "Jane Doe"), "FinishReasonStop", nil
		}
		return "", "", fmt.Errorf("unexpected page payload")
	}

	// Upload lands the source PDF and creates the fanzine shell.
	env.blobs.Put("uploads/raw_pdfs/test_zine.pdf", []byte("%PDF fake"))
	h := NewUploadHandler(env.store, "uploads/raw_pdfs/")
	fanzineID, err := h.Process(ctx, "uploads/raw_pdfs/test_zine.pdf", nil)
	require.NoError(t, err)

	// Ingest runs off the creation trigger and parks at the manual gate.
	dispatch(t, env)
	assert.Equal(t, models.PhaseImagesReady, env.phase(fanzineID))

	// Manual batch queue moves all three pages into the active pipeline.
	queued, err := env.control.TriggerBatchOCR(ctx, fanzineID)
	require.NoError(t, err)
	assert.Equal(t, 3, queued)

	// Workers run, pulses re-check the parent, review gate is reached.
	dispatch(t, env)
	assert.Equal(t, models.PhaseReviewNeeded, env.phase(fanzineID))

	pages, err := env.store.ListPages(ctx, fanzineID)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for _, rec := range pages {
		assert.Equal(t, models.PageReviewNeeded, rec.Page.Status)
	}
	// Page 2 carries fallback provenance; the others used the primary model.
	assert.Equal(t, "primary-model", pages[0].Page.OCRModelUsed)
	assert.Equal(t, "fallback-model", pages[1].Page.OCRModelUsed)
	assert.Equal(t, "primary-model", pages[2].Page.OCRModelUsed)

	// Human approval of every page, then the review surface nudges the
	// parent so the gate re-evaluates.
	for _, rec := range pages {
		env.store.SetPageStatus(fanzineID, rec.ID, models.PageComplete)
	}
	require.NoError(t, env.store.TouchPulse(ctx, fanzineID))
	dispatch(t, env)
	assert.Equal(t, models.PhaseComplete, env.phase(fanzineID))

	// Finalize is idempotent and reports the deduplicated union.
	count, err := env.control.Finalize(ctx, fanzineID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	f, err := env.store.GetFanzine(ctx, fanzineID)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"John Smith", "Fandom Press", "Jane Doe"},
		f.DraftEntities,
	)
}
