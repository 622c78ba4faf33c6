// Package file stores each document as a JSON file in a data directory,
// the server-side counterpart of keeping an outline in browser storage.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/application/ports"
	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

const extension = ".json"

// documentRecord is the on-disk layout of a document
type documentRecord struct {
	ID            string          `json:"id"`
	RootContentID string          `json:"rootContentId"`
	OwnerID       string          `json:"ownerId"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Graph         json.RawMessage `json:"graph"`
}

// DocumentRepository implements ports.DocumentRepository on the local
// filesystem. Writes go to a temporary file that is renamed into place.
type DocumentRepository struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

// NewDocumentRepository creates a repository rooted at dir, creating it if needed
func NewDocumentRepository(dir string, logger *zap.Logger) (*DocumentRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &DocumentRepository{dir: dir, logger: logger}, nil
}

func (r *DocumentRepository) path(documentID string) (string, error) {
	if documentID == "" || strings.ContainsAny(documentID, `/\`) || documentID == "." || documentID == ".." {
		return "", pkgerrors.NewInvalidArgument("documentId", "document ID cannot be used as a file name")
	}
	return filepath.Join(r.dir, documentID+extension), nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *aggregates.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.path(doc.ID())
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil {
		return pkgerrors.NewDocumentExists(doc.ID())
	}
	return r.write(p, doc)
}

func (r *DocumentRepository) Get(ctx context.Context, documentID string) (*aggregates.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.path(documentID)
	if err != nil {
		return nil, err
	}
	return r.read(p, documentID)
}

func (r *DocumentRepository) Save(ctx context.Context, doc *aggregates.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.path(doc.ID())
	if err != nil {
		return err
	}
	stored, err := r.readRecord(p, doc.ID())
	if err != nil {
		return err
	}
	if stored.Version != doc.Version()-1 {
		return pkgerrors.NewConcurrentModification(doc.ID(), doc.Version()-1)
	}
	return r.write(p, doc)
}

func (r *DocumentRepository) Delete(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.path(documentID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return pkgerrors.NewDocumentNotFound(documentID)
		}
		return pkgerrors.NewDatabaseError("delete", err)
	}
	return nil
}

func (r *DocumentRepository) List(ctx context.Context, ownerID string) ([]ports.DocumentSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list", err)
	}
	out := []ports.DocumentSummary{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), extension) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), extension)
		rec, err := r.readRecord(filepath.Join(r.dir, e.Name()), id)
		if err != nil {
			r.logger.Warn("Skipping unreadable document file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		if ownerID != "" && rec.OwnerID != ownerID {
			continue
		}
		out = append(out, ports.DocumentSummary{
			ID:            rec.ID,
			RootContentID: rec.RootContentID,
			OwnerID:       rec.OwnerID,
			Version:       rec.Version,
			UpdatedAt:     rec.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *DocumentRepository) readRecord(p, documentID string) (*documentRecord, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pkgerrors.NewDocumentNotFound(documentID)
		}
		return nil, pkgerrors.NewDatabaseError("read", err)
	}
	var rec documentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", documentID, err)
	}
	return &rec, nil
}

func (r *DocumentRepository) read(p, documentID string) (*aggregates.Document, error) {
	rec, err := r.readRecord(p, documentID)
	if err != nil {
		return nil, err
	}
	return decode(rec)
}

func decode(rec *documentRecord) (*aggregates.Document, error) {
	g, err := aggregates.Deserialize(string(rec.Graph))
	if err != nil {
		return nil, fmt.Errorf("failed to decode graph of %s: %w", rec.ID, err)
	}
	root, err := valueobjects.NewBlockContentID(rec.RootContentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", rec.ID, err)
	}
	return aggregates.ReconstructDocument(rec.ID, root, rec.OwnerID, g, rec.Version, rec.CreatedAt, rec.UpdatedAt), nil
}

func (r *DocumentRepository) write(p string, doc *aggregates.Document) error {
	graph, err := aggregates.Serialize(doc.Graph())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(documentRecord{
		ID:            doc.ID(),
		RootContentID: doc.RootContentID().String(),
		OwnerID:       doc.OwnerID(),
		Version:       doc.Version(),
		CreatedAt:     doc.CreatedAt(),
		UpdatedAt:     doc.UpdatedAt(),
		Graph:         json.RawMessage(graph),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, ".doc-*")
	if err != nil {
		return pkgerrors.NewDatabaseError("write", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return pkgerrors.NewDatabaseError("write", err)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.NewDatabaseError("write", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return pkgerrors.NewDatabaseError("write", err)
	}
	return nil
}
