package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Lllllllleong/fanzineflow/internal/config"
	"github.com/Lllllllleong/fanzineflow/internal/models"
)

// WriteEvent describes one committed write. The memory store queues an event
// for every mutation, making it an explicit re-check queue: tests drain it to
// simulate trigger delivery, including at-least-once redelivery.
type WriteEvent struct {
	FanzineID string
	PageID    string // empty for fanzine-level writes
}

// MemoryStore is an in-memory Store used by tests. It records the size of
// every bulk commit group so batch bounds can be asserted.
type MemoryStore struct {
	mu       sync.Mutex
	fanzines map[string]*models.Fanzine
	pages    map[string]map[string]*models.Page
	pageSeq  int

	BatchSizes []int
	events     []WriteEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fanzines: make(map[string]*models.Fanzine),
		pages:    make(map[string]map[string]*models.Page),
	}
}

// SeedPage inserts a page directly, bypassing batching. Test helper.
func (m *MemoryStore) SeedPage(fanzineID, pageID string, p models.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pages[fanzineID] == nil {
		m.pages[fanzineID] = make(map[string]*models.Page)
	}
	cp := p
	m.pages[fanzineID][pageID] = &cp
}

// SetPageStatus flips a page's status the way an external review surface
// would, queuing the corresponding write event. Test helper.
func (m *MemoryStore) SetPageStatus(fanzineID, pageID string, status models.PageStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pages[fanzineID][pageID]; ok {
		p.Status = status
		m.recordWrite(fanzineID, pageID)
	}
}

// DrainEvents returns all queued write events and clears the queue.
func (m *MemoryStore) DrainEvents() []WriteEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.events
	m.events = nil
	return events
}

func (m *MemoryStore) recordWrite(fanzineID, pageID string) {
	m.events = append(m.events, WriteEvent{FanzineID: fanzineID, PageID: pageID})
}

func (m *MemoryStore) GetFanzine(_ context.Context, id string) (*models.Fanzine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fanzines[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MemoryStore) CreateFanzine(_ context.Context, id string, f *models.Fanzine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.fanzines[id] = &cp
	m.recordWrite(id, "")
	return nil
}

func (m *MemoryStore) DeleteFanzine(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fanzines, id)
	return nil
}

func (m *MemoryStore) mutateFanzine(id string, fn func(f *models.Fanzine)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fanzines[id]
	if !ok {
		return fmt.Errorf("fanzine %s: %w", id, ErrNotFound)
	}
	fn(f)
	m.recordWrite(id, "")
	return nil
}

func (m *MemoryStore) SetPhase(_ context.Context, id string, phase models.Phase) error {
	return m.mutateFanzine(id, func(f *models.Fanzine) {
		f.ProcessingStatus = phase
	})
}

func (m *MemoryStore) SetIngestError(_ context.Context, id, msg string) error {
	return m.mutateFanzine(id, func(f *models.Fanzine) {
		f.ProcessingStatus = models.PhaseError
		f.ErrorIngest = msg
	})
}

func (m *MemoryStore) SetAggError(_ context.Context, id, msg string) error {
	return m.mutateFanzine(id, func(f *models.Fanzine) {
		f.ProcessingStatus = models.PhaseError
		f.ErrorAgg = msg
	})
}

func (m *MemoryStore) SetIngestComplete(_ context.Context, id string, pageCount int) error {
	return m.mutateFanzine(id, func(f *models.Fanzine) {
		f.ProcessingStatus = models.PhaseImagesReady
		f.PageCount = pageCount
	})
}

func (m *MemoryStore) SetAggregationComplete(_ context.Context, id string, entities []string) error {
	return m.mutateFanzine(id, func(f *models.Fanzine) {
		f.DraftEntities = entities
		f.ProcessingStatus = models.PhaseComplete
		f.AggregatedAt = time.Now()
	})
}

func (m *MemoryStore) TouchPulse(_ context.Context, id string) error {
	return m.mutateFanzine(id, func(f *models.Fanzine) {
		f.LastWorkerPulse = time.Now()
	})
}

func (m *MemoryStore) RequestRescan(_ context.Context, id string) error {
	return m.mutateFanzine(id, func(f *models.Fanzine) {
		f.ProcessingStatus = models.PhaseNeedsIngest
		f.LastRescanRequest = time.Now()
	})
}

func (m *MemoryStore) GetPage(_ context.Context, fanzineID, pageID string) (*models.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[fanzineID][pageID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) ListPages(_ context.Context, fanzineID string) ([]PageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []PageRecord
	for id, p := range m.pages[fanzineID] {
		records = append(records, PageRecord{ID: id, Page: *p})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Page.PageNumber < records[j].Page.PageNumber
	})
	return records, nil
}

func (m *MemoryStore) AnyPageWithStatus(_ context.Context, fanzineID string, statuses ...models.PageStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pages[fanzineID] {
		for _, st := range statuses {
			if p.Status == st {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *MemoryStore) CreatePages(_ context.Context, fanzineID string, pages []models.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pages[fanzineID] == nil {
		m.pages[fanzineID] = make(map[string]*models.Page)
	}
	count := 0
	for _, p := range pages {
		m.pageSeq++
		id := fmt.Sprintf("page-%06d", m.pageSeq)
		cp := p
		m.pages[fanzineID][id] = &cp
		m.recordWrite(fanzineID, id)
		count++
		if count >= config.MaxMutationsPerBatch {
			m.BatchSizes = append(m.BatchSizes, count)
			count = 0
		}
	}
	if count > 0 {
		m.BatchSizes = append(m.BatchSizes, count)
	}
	return nil
}

func (m *MemoryStore) QueuePages(_ context.Context, fanzineID string, pageIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, pid := range pageIDs {
		p, ok := m.pages[fanzineID][pid]
		if !ok {
			return fmt.Errorf("page %s/%s: %w", fanzineID, pid, ErrNotFound)
		}
		p.Status = models.PageQueued
		p.ErrorLog = ""
		m.recordWrite(fanzineID, pid)
		count++
		if count >= config.MaxMutationsPerBatch {
			m.BatchSizes = append(m.BatchSizes, count)
			count = 0
		}
	}
	if count > 0 {
		m.BatchSizes = append(m.BatchSizes, count)
	}
	return nil
}

func (m *MemoryStore) SetPageResult(_ context.Context, fanzineID, pageID string, res PageResult) error {
	return m.mutatePage(fanzineID, pageID, func(p *models.Page) {
		p.TextRaw = res.TextRaw
		p.TextProcessed = res.TextProcessed
		p.DetectedEntities = res.DetectedEntities
		p.Status = models.PageReviewNeeded
		p.ErrorEntityID = res.ErrorEntityID
		p.ProcessedAt = time.Now()
		p.OCRModelUsed = res.ModelUsed
	})
}

func (m *MemoryStore) SetPageError(_ context.Context, fanzineID, pageID, msg string) error {
	return m.mutatePage(fanzineID, pageID, func(p *models.Page) {
		p.Status = models.PageError
		p.ErrorLog = msg
	})
}

func (m *MemoryStore) mutatePage(fanzineID, pageID string, fn func(p *models.Page)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[fanzineID][pageID]
	if !ok {
		return fmt.Errorf("page %s/%s: %w", fanzineID, pageID, ErrNotFound)
	}
	fn(p)
	m.recordWrite(fanzineID, pageID)
	return nil
}

func (m *MemoryStore) DeletePages(_ context.Context, fanzineID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := len(m.pages[fanzineID])
	delete(m.pages, fanzineID)
	return deleted, nil
}
