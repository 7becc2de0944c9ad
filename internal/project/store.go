package project

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("project not found")

// Store persists projects. Implementations must return ErrNotFound for
// unknown ids and must stamp CreatedAt/UpdatedAt themselves.
type Store interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Project, error)
	Update(ctx context.Context, p *Project) error
	// UpdateScenes replaces the scene sequence and status of one project
	// without touching other fields.
	UpdateScenes(ctx context.Context, id string, scenes []Scene, status Status) error
	Delete(ctx context.Context, id string) error
}
