package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/fanzineflow/internal/config"
	"github.com/Lllllllleong/fanzineflow/internal/models"
)

const pagesSubcollection = "pages"

// FirestoreStore implements Store on a Firestore collection with a pages
// sub-collection per fanzine.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = config.DefaultCollection
	}
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) fanzineRef(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

func (s *FirestoreStore) pagesRef(fanzineID string) *firestore.CollectionRef {
	return s.fanzineRef(fanzineID).Collection(pagesSubcollection)
}

func (s *FirestoreStore) GetFanzine(ctx context.Context, id string) (*models.Fanzine, error) {
	snap, err := s.fanzineRef(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fanzine %s: %w", id, err)
	}
	var f models.Fanzine
	if err := snap.DataTo(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fanzine %s: %w", id, err)
	}
	return &f, nil
}

func (s *FirestoreStore) CreateFanzine(ctx context.Context, id string, f *models.Fanzine) error {
	if _, err := s.fanzineRef(id).Set(ctx, f); err != nil {
		return fmt.Errorf("failed to create fanzine %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) DeleteFanzine(ctx context.Context, id string) error {
	if _, err := s.fanzineRef(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete fanzine %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) SetPhase(ctx context.Context, id string, phase models.Phase) error {
	return s.updateFanzine(ctx, id, []firestore.Update{
		{Path: "processingStatus", Value: string(phase)},
	})
}

func (s *FirestoreStore) SetIngestError(ctx context.Context, id, msg string) error {
	return s.updateFanzine(ctx, id, []firestore.Update{
		{Path: "processingStatus", Value: string(models.PhaseError)},
		{Path: "error_ingest", Value: msg},
	})
}

func (s *FirestoreStore) SetAggError(ctx context.Context, id, msg string) error {
	return s.updateFanzine(ctx, id, []firestore.Update{
		{Path: "processingStatus", Value: string(models.PhaseError)},
		{Path: "error_agg", Value: msg},
	})
}

func (s *FirestoreStore) SetIngestComplete(ctx context.Context, id string, pageCount int) error {
	return s.updateFanzine(ctx, id, []firestore.Update{
		{Path: "processingStatus", Value: string(models.PhaseImagesReady)},
		{Path: "pageCount", Value: pageCount},
	})
}

func (s *FirestoreStore) SetAggregationComplete(ctx context.Context, id string, entities []string) error {
	return s.updateFanzine(ctx, id, []firestore.Update{
		{Path: "draftEntities", Value: entities},
		{Path: "processingStatus", Value: string(models.PhaseComplete)},
		{Path: "aggregatedAt", Value: firestore.ServerTimestamp},
	})
}

func (s *FirestoreStore) TouchPulse(ctx context.Context, id string) error {
	return s.updateFanzine(ctx, id, []firestore.Update{
		{Path: "lastWorkerPulse", Value: firestore.ServerTimestamp},
	})
}

func (s *FirestoreStore) RequestRescan(ctx context.Context, id string) error {
	return s.updateFanzine(ctx, id, []firestore.Update{
		{Path: "processingStatus", Value: string(models.PhaseNeedsIngest)},
		{Path: "lastRescanRequest", Value: firestore.ServerTimestamp},
	})
}

func (s *FirestoreStore) updateFanzine(ctx context.Context, id string, updates []firestore.Update) error {
	if _, err := s.fanzineRef(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update fanzine %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) GetPage(ctx context.Context, fanzineID, pageID string) (*models.Page, error) {
	snap, err := s.pagesRef(fanzineID).Doc(pageID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s/%s: %w", fanzineID, pageID, err)
	}
	var p models.Page
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode page %s/%s: %w", fanzineID, pageID, err)
	}
	return &p, nil
}

func (s *FirestoreStore) ListPages(ctx context.Context, fanzineID string) ([]PageRecord, error) {
	it := s.pagesRef(fanzineID).OrderBy("pageNumber", firestore.Asc).Documents(ctx)
	defer it.Stop()

	var records []PageRecord
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list pages for %s: %w", fanzineID, err)
		}
		var p models.Page
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode page %s/%s: %w", fanzineID, snap.Ref.ID, err)
		}
		records = append(records, PageRecord{ID: snap.Ref.ID, Page: p})
	}
	return records, nil
}

func (s *FirestoreStore) AnyPageWithStatus(ctx context.Context, fanzineID string, statuses ...models.PageStatus) (bool, error) {
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}
	docs, err := s.pagesRef(fanzineID).
		Where("status", "in", values).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return false, fmt.Errorf("failed to probe page statuses for %s: %w", fanzineID, err)
	}
	return len(docs) > 0, nil
}

func (s *FirestoreStore) CreatePages(ctx context.Context, fanzineID string, pages []models.Page) error {
	batch := s.client.Batch()
	count := 0
	for _, p := range pages {
		batch.Set(s.pagesRef(fanzineID).NewDoc(), p)
		count++
		if count >= config.MaxMutationsPerBatch {
			if _, err := batch.Commit(ctx); err != nil {
				return fmt.Errorf("failed to commit page batch for %s: %w", fanzineID, err)
			}
			batch = s.client.Batch()
			count = 0
		}
	}
	if count > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit final page batch for %s: %w", fanzineID, err)
		}
	}
	return nil
}

func (s *FirestoreStore) QueuePages(ctx context.Context, fanzineID string, pageIDs []string) error {
	batch := s.client.Batch()
	count := 0
	for _, pid := range pageIDs {
		batch.Update(s.pagesRef(fanzineID).Doc(pid), []firestore.Update{
			{Path: "status", Value: string(models.PageQueued)},
			{Path: "errorLog", Value: firestore.Delete},
		})
		count++
		if count >= config.MaxMutationsPerBatch {
			if _, err := batch.Commit(ctx); err != nil {
				return fmt.Errorf("failed to commit queue batch for %s: %w", fanzineID, err)
			}
			batch = s.client.Batch()
			count = 0
		}
	}
	if count > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit final queue batch for %s: %w", fanzineID, err)
		}
	}
	return nil
}

func (s *FirestoreStore) SetPageResult(ctx context.Context, fanzineID, pageID string, res PageResult) error {
	updates := []firestore.Update{
		{Path: "text_raw", Value: res.TextRaw},
		{Path: "text_processed", Value: res.TextProcessed},
		{Path: "detected_entities", Value: res.DetectedEntities},
		{Path: "status", Value: string(models.PageReviewNeeded)},
		{Path: "error_entity_id", Value: res.ErrorEntityID},
		{Path: "processedAt", Value: firestore.ServerTimestamp},
		{Path: "ocrModelUsed", Value: res.ModelUsed},
	}
	if _, err := s.pagesRef(fanzineID).Doc(pageID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to write page result %s/%s: %w", fanzineID, pageID, err)
	}
	return nil
}

func (s *FirestoreStore) SetPageError(ctx context.Context, fanzineID, pageID, msg string) error {
	updates := []firestore.Update{
		{Path: "status", Value: string(models.PageError)},
		{Path: "errorLog", Value: msg},
	}
	if _, err := s.pagesRef(fanzineID).Doc(pageID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to write page error %s/%s: %w", fanzineID, pageID, err)
	}
	return nil
}

func (s *FirestoreStore) DeletePages(ctx context.Context, fanzineID string) (int, error) {
	it := s.pagesRef(fanzineID).Documents(ctx)
	defer it.Stop()

	batch := s.client.Batch()
	count, deleted := 0, 0
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to iterate pages for %s: %w", fanzineID, err)
		}
		batch.Delete(snap.Ref)
		count++
		deleted++
		if count >= config.MaxMutationsPerBatch {
			if _, err := batch.Commit(ctx); err != nil {
				return deleted, fmt.Errorf("failed to commit delete batch for %s: %w", fanzineID, err)
			}
			batch = s.client.Batch()
			count = 0
		}
	}
	if count > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			return deleted, fmt.Errorf("failed to commit final delete batch for %s: %w", fanzineID, err)
		}
	}
	return deleted, nil
}
