// Package memory keeps documents in process memory. It backs tests and the
// "memory" storage backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dnsosebee/methodable-sub000/application/ports"
	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

// DocumentRepository is a map-backed ports.DocumentRepository. Documents
// are immutable values, so they are stored without copying.
type DocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]*aggregates.Document
}

// NewDocumentRepository creates an empty repository
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{docs: make(map[string]*aggregates.Document)}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *aggregates.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID()]; ok {
		return pkgerrors.NewDocumentExists(doc.ID())
	}
	r.docs[doc.ID()] = doc
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, documentID string) (*aggregates.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return nil, pkgerrors.NewDocumentNotFound(documentID)
	}
	return doc, nil
}

func (r *DocumentRepository) Save(ctx context.Context, doc *aggregates.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[doc.ID()]
	if !ok {
		return pkgerrors.NewDocumentNotFound(doc.ID())
	}
	if stored.Version() != doc.Version()-1 {
		return pkgerrors.NewConcurrentModification(doc.ID(), doc.Version()-1)
	}
	r.docs[doc.ID()] = doc
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[documentID]; !ok {
		return pkgerrors.NewDocumentNotFound(documentID)
	}
	delete(r.docs, documentID)
	return nil
}

func (r *DocumentRepository) List(ctx context.Context, ownerID string) ([]ports.DocumentSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.DocumentSummary, 0, len(r.docs))
	for _, doc := range r.docs {
		if ownerID != "" && doc.OwnerID() != ownerID {
			continue
		}
		out = append(out, ports.Summarize(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
