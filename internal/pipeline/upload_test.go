package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/fanzineflow/internal/models"
)

func TestUploadHandlerCreatesFanzine(t *testing.T) {
	env := newTestEnv(0)
	h := NewUploadHandler(env.store, "uploads/raw_pdfs/")

	id, err := h.Process(context.Background(), "uploads/raw_pdfs/my_great_zine.pdf", map[string]string{"uploaderId": "user-42"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	f, err := env.store.GetFanzine(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "My Great Zine", f.Title)
	assert.Equal(t, "uploads/raw_pdfs/my_great_zine.pdf", f.SourceFile)
	assert.Equal(t, models.PhaseNeedsIngest, f.ProcessingStatus)
	assert.Equal(t, "draft", f.Status)
	assert.Equal(t, "user-42", f.UploaderID)
}

func TestUploadHandlerAccentedTitle(t *testing.T) {
	env := newTestEnv(0)
	h := NewUploadHandler(env.store, "uploads/raw_pdfs/")

	id, err := h.Process(context.Background(), "uploads/raw_pdfs/émile_zola_zine.pdf", nil)
	require.NoError(t, err)

	f, err := env.store.GetFanzine(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Émile Zola Zine", f.Title)
}

func TestUploadHandlerIgnoresOtherObjects(t *testing.T) {
	env := newTestEnv(0)
	h := NewUploadHandler(env.store, "uploads/raw_pdfs/")

	for _, object := range []string{
		"uploads/raw_pdfs/notes.txt",
		"fanzines/f1/pages/page_001.pdf",
		"uploads/other/file.pdf",
	} {
		id, err := h.Process(context.Background(), object, nil)
		require.NoError(t, err)
		assert.Empty(t, id, "object %s must be ignored", object)
	}
}

func TestUploadHandlerUnknownUploader(t *testing.T) {
	env := newTestEnv(0)
	h := NewUploadHandler(env.store, "uploads/raw_pdfs/")

	id, err := h.Process(context.Background(), "uploads/raw_pdfs/zine.pdf", nil)
	require.NoError(t, err)

	f, err := env.store.GetFanzine(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "unknown", f.UploaderID)
}
