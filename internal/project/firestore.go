package project

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps projects in a Firestore collection, document id
// doubling as the project id.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) Create(ctx context.Context, p *Project) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = StatusDraft
	}

	doc := s.client.Collection(s.collection).NewDoc()
	p.ID = doc.ID

	if _, err := doc.Set(ctx, p); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*Project, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	var p Project
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	p.ID = snap.Ref.ID
	return &p, nil
}

func (s *FirestoreStore) ListByOwner(ctx context.Context, ownerID string) ([]*Project, error) {
	iter := s.client.Collection(s.collection).Where("userId", "==", ownerID).Documents(ctx)
	defer iter.Stop()

	var projects []*Project
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}

		var p Project
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
		p.ID = snap.Ref.ID
		projects = append(projects, &p)
	}

	// Sorted here rather than in the query so no composite index is needed.
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

func (s *FirestoreStore) Update(ctx context.Context, p *Project) error {
	p.UpdatedAt = time.Now().UTC()

	_, err := s.client.Collection(s.collection).Doc(p.ID).Set(ctx, p)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (s *FirestoreStore) UpdateScenes(ctx context.Context, id string, scenes []Scene, st Status) error {
	_, err := s.client.Collection(s.collection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "scenes", Value: scenes},
		{Path: "status", Value: st},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update scenes: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.Collection(s.collection).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
