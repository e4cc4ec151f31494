package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/fanzineflow/internal/blob"
	"github.com/Lllllllleong/fanzineflow/internal/models"
	"github.com/Lllllllleong/fanzineflow/internal/store"
)

// splitFunc splits a source PDF into single-page files and returns their
// paths in page order. Swappable so tests can run without real PDF bytes.
type splitFunc func(sourcePath, outDir string) ([]string, error)

// Ingest expands one source PDF blob into N page assets and page records.
// Re-running it for the same fanzine is safe: stale page records from a
// previous attempt are deleted before the new set is created.
type Ingest struct {
	store        store.Store
	blobs        blob.Store
	signedURLTTL time.Duration
	split        splitFunc
}

func NewIngest(s store.Store, blobs blob.Store, signedURLTTL time.Duration) *Ingest {
	if signedURLTTL <= 0 {
		signedURLTTL = time.Hour
	}
	return &Ingest{
		store:        s,
		blobs:        blobs,
		signedURLTTL: signedURLTTL,
		split:        splitWithPdfcpu,
	}
}

// Run executes the ingest job. Failures are persisted as the error phase with
// a job-specific message; the returned error mirrors what was persisted.
func (i *Ingest) Run(ctx context.Context, fanzineID, sourceFile string) error {
	logCtx := slog.With("fanzineId", fanzineID, "sourceFile", sourceFile)

	if err := i.run(ctx, fanzineID, sourceFile, logCtx); err != nil {
		if storeErr := i.store.SetIngestError(ctx, fanzineID, err.Error()); storeErr != nil {
			logCtx.Error("CRITICAL: Failed to persist ingest error.", "error", storeErr)
		}
		return err
	}
	return nil
}

func (i *Ingest) run(ctx context.Context, fanzineID, sourceFile string, logCtx *slog.Logger) error {
	if sourceFile == "" {
		return fmt.Errorf("fanzine has no source file")
	}

	sourceBytes, err := i.blobs.Download(ctx, sourceFile)
	if err != nil {
		return fmt.Errorf("source PDF missing: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "fanzine-ingest-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePath := filepath.Join(tempDir, "source.pdf")
	if err := os.WriteFile(sourcePath, sourceBytes, 0o600); err != nil {
		return fmt.Errorf("failed to stage source PDF: %w", err)
	}

	pageFiles, err := i.split(sourcePath, tempDir)
	if err != nil {
		return fmt.Errorf("failed to split PDF: %w", err)
	}
	pageCount := len(pageFiles)
	logCtx.Info("Source PDF split locally.", "pageCount", pageCount)

	// Clear page records left over from a previous ingest of this fanzine.
	stale, err := i.store.DeletePages(ctx, fanzineID)
	if err != nil {
		return fmt.Errorf("failed to clear stale pages: %w", err)
	}
	if stale > 0 {
		logCtx.Info("Cleared stale page records from previous ingest.", "count", stale)
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(10)
	for n, localPath := range pageFiles {
		pageNumber := n + 1
		localPath := localPath
		eg.Go(func() error {
			data, err := os.ReadFile(localPath)
			if err != nil {
				return fmt.Errorf("page %d: failed to read split file: %w", pageNumber, err)
			}
			if err := i.blobs.Upload(gctx, PageAssetPath(fanzineID, pageNumber), data); err != nil {
				return fmt.Errorf("page %d: %w", pageNumber, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("one or more pages failed to upload: %w", err)
	}
	logCtx.Info("All page assets uploaded.")

	pages := make([]models.Page, pageCount)
	for n := range pages {
		pageNumber := n + 1
		assetPath := PageAssetPath(fanzineID, pageNumber)
		// Initial time-bounded access URL; the review surface refreshes it
		// when expired.
		url, err := i.blobs.SignedURL(assetPath, i.signedURLTTL)
		if err != nil {
			return fmt.Errorf("page %d: failed to sign URL: %w", pageNumber, err)
		}
		pages[n] = models.Page{
			PageNumber:  pageNumber,
			StoragePath: assetPath,
			ImageURL:    url,
			Status:      models.PageReady,
			UploadedAt:  time.Now(),
		}
	}
	if err := i.store.CreatePages(ctx, fanzineID, pages); err != nil {
		return fmt.Errorf("failed to create page records: %w", err)
	}

	if err := i.store.SetIngestComplete(ctx, fanzineID, pageCount); err != nil {
		return fmt.Errorf("failed to finalize ingest: %w", err)
	}
	logCtx.Info("Ingest complete.", "pageCount", pageCount)
	return nil
}

// PageAssetPath is the deterministic blob path for one page of a fanzine.
func PageAssetPath(fanzineID string, pageNumber int) string {
	return fmt.Sprintf("fanzines/%s/pages/page_%03d.pdf", fanzineID, pageNumber)
}

// FanzinePrefix is the blob prefix holding every asset of a fanzine.
func FanzinePrefix(fanzineID string) string {
	return fmt.Sprintf("fanzines/%s/", fanzineID)
}

// splitWithPdfcpu optimizes the source with relaxed validation and splits it
// into single-page PDFs.
func splitWithPdfcpu(sourcePath, outDir string) ([]string, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	optimizedPath := filepath.Join(outDir, "optimized.pdf")
	if err := api.OptimizeFile(sourcePath, optimizedPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to validate/optimize PDF: %w", err)
	}

	pageCount, err := api.PageCountFile(optimizedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	if err := api.SplitFile(optimizedPath, outDir, 1, nil); err != nil {
		return nil, fmt.Errorf("failed to split PDF: %w", err)
	}

	base := strings.TrimSuffix(optimizedPath, filepath.Ext(optimizedPath))
	files := make([]string, pageCount)
	for n := range files {
		files[n] = fmt.Sprintf("%s_%d.pdf", base, n+1)
	}
	return files, nil
}
