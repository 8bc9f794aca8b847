package store

import (
	"context"
	"sync"

	"github.com/dhabedank/stageprompt/internal/core"
)

// MemoryStore is a process-local RecordStore and DocumentStore.
type MemoryStore struct {
	mu        sync.RWMutex
	prompts   map[string]map[int][]core.PromptRecord
	documents map[string]core.Document
}

var (
	_ core.RecordStore   = (*MemoryStore)(nil)
	_ core.DocumentStore = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prompts:   make(map[string]map[int][]core.PromptRecord),
		documents: make(map[string]core.Document),
	}
}

func (m *MemoryStore) ReplaceStagePrompts(ctx context.Context, projectID string, stage int, records []core.PromptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stages, ok := m.prompts[projectID]
	if !ok {
		stages = make(map[int][]core.PromptRecord)
		m.prompts[projectID] = stages
	}
	stages[stage] = append([]core.PromptRecord(nil), records...)
	return nil
}

func (m *MemoryStore) ReadStagePrompts(ctx context.Context, projectID string, stage int) ([]core.PromptRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.PromptRecord(nil), m.prompts[projectID][stage]...), nil
}

func (m *MemoryStore) ClearProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.prompts, projectID)
	return nil
}

func (m *MemoryStore) SaveDocument(ctx context.Context, doc core.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ProjectID] = doc
	return nil
}

func (m *MemoryStore) GetDocument(ctx context.Context, projectID string) (*core.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[projectID]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}
