package store

import (
	"sync"

	"assurbot/internal/models"
)

// MemoryLeadStore keeps leads in memory. Used when no redis is configured
// and as a test double.
type MemoryLeadStore struct {
	mu    sync.Mutex
	leads []models.Lead
}

// NewMemoryLeadStore creates an empty in-memory store.
func NewMemoryLeadStore() *MemoryLeadStore {
	return &MemoryLeadStore{}
}

// SubmitLead appends the lead.
func (s *MemoryLeadStore) SubmitLead(lead models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
	return nil
}

// Leads returns a copy of the stored leads in insertion order.
func (s *MemoryLeadStore) Leads() []models.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Lead(nil), s.leads...)
}
