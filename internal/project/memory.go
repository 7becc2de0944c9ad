package project

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used in demo mode and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[string]*Project)}
}

func (s *MemoryStore) Create(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = StatusDraft
	}

	s.projects[p.ID] = clone(p)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var projects []*Project
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			projects = append(projects, clone(p))
		}
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

func (s *MemoryStore) Update(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	s.projects[p.ID] = clone(p)
	return nil
}

func (s *MemoryStore) UpdateScenes(_ context.Context, id string, scenes []Scene, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.Scenes = append([]Scene(nil), scenes...)
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.projects, id)
	return nil
}

func clone(p *Project) *Project {
	out := *p
	out.Assets = append([]string(nil), p.Assets...)
	out.Scenes = append([]Scene(nil), p.Scenes...)
	return &out
}
