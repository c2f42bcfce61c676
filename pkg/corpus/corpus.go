// Package corpus holds the in-memory PolicyChunk / ApprovedTemplate store
// that backs retrieval, plus a thin Markdown/JSON loader for the policy
// documents and approved-template data files.
package corpus

import (
	"sync"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
)

// Store is an in-memory, read-mostly corpus of policy chunks and approved
// templates, indexed by doc id. It implements retrieval.CorpusLookup.
type Store struct {
	mu        sync.RWMutex
	chunks    map[string]*models.PolicyChunk
	templates map[string]*models.ApprovedTemplate
}

// NewStore returns an empty corpus store.
func NewStore() *Store {
	return &Store{
		chunks:    make(map[string]*models.PolicyChunk),
		templates: make(map[string]*models.ApprovedTemplate),
	}
}

// AddChunk registers a policy chunk under docID.
func (s *Store) AddChunk(docID string, chunk *models.PolicyChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[docID] = chunk
}

// AddTemplate registers an approved template under docID.
func (s *Store) AddTemplate(docID string, tmpl *models.ApprovedTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[docID] = tmpl
}

// Chunk implements retrieval.CorpusLookup.
func (s *Store) Chunk(docID string) (*models.PolicyChunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[docID]
	return c, ok
}

// Template implements retrieval.CorpusLookup.
func (s *Store) Template(docID string) (*models.ApprovedTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[docID]
	return t, ok
}

// Chunks returns every registered policy chunk alongside its doc id, in
// insertion-unstable (map) order; callers that need a stable order should
// sort by doc id.
func (s *Store) Chunks() map[string]*models.PolicyChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.PolicyChunk, len(s.chunks))
	for id, c := range s.chunks {
		out[id] = c
	}
	return out
}

// ApprovedTemplates returns every registered approved template, in
// insertion-unstable (map) order; callers that need a stable order should
// sort by ID.
func (s *Store) ApprovedTemplates() []*models.ApprovedTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ApprovedTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	return out
}

// ByBusinessType returns approved templates matching businessType.
func (s *Store) ByBusinessType(businessType models.BusinessType) []*models.ApprovedTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ApprovedTemplate
	for _, t := range s.templates {
		if t.Metadata.BusinessType == businessType {
			out = append(out, t)
		}
	}
	return out
}

// ByCategory returns approved templates matching both category components.
func (s *Store) ByCategory(category1, category2 string) []*models.ApprovedTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ApprovedTemplate
	for _, t := range s.templates {
		if t.Metadata.Category1 == category1 && t.Metadata.Category2 == category2 {
			out = append(out, t)
		}
	}
	return out
}

// ByBusinessAndServiceType returns approved templates matching both the
// business and service type, grounding the generator's exact-match tier.
func (s *Store) ByBusinessAndServiceType(businessType models.BusinessType, serviceType models.ServiceType) []*models.ApprovedTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ApprovedTemplate
	for _, t := range s.templates {
		if t.Metadata.BusinessType == businessType && t.Metadata.ServiceType == serviceType {
			out = append(out, t)
		}
	}
	return out
}
