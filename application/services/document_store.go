package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dnsosebee/methodable-sub000/application/ports"
	"github.com/dnsosebee/methodable-sub000/domain/config"
	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/validators"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	"github.com/dnsosebee/methodable-sub000/domain/events"
	domainservices "github.com/dnsosebee/methodable-sub000/domain/services"
	"github.com/dnsosebee/methodable-sub000/domain/versioning"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
	"go.uber.org/zap"
)

// RollbackNotice is shown to the user when an edit was discarded
const RollbackNotice = "That edit could not be applied and was undone. Your outline is unchanged."

// Mutation computes the next graph of a document. root is the document's
// root content.
type Mutation func(g *aggregates.Graph, root valueobjects.BlockContentID) (domainservices.EditResult, error)

// DispatchResult describes what a dispatched edit did
type DispatchResult struct {
	DocumentID string              `json:"documentId"`
	Version    int                 `json:"version"`
	Focus      *valueobjects.Focus `json:"focus"`
	Changed    bool                `json:"changed"`
	RolledBack bool                `json:"rolledBack"`
	Notice     string              `json:"notice,omitempty"`
	Problems   []string            `json:"problems,omitempty"`
}

// DocumentStore owns the current graph of every open document and is the
// only writer of them. Dispatches are serialized; readers get immutable
// snapshots and never block on a running edit for longer than the swap.
type DocumentStore struct {
	mu      sync.Mutex
	current map[string]*aggregates.Document

	repo      ports.DocumentRepository
	ids       ports.IDGenerator
	events    ports.EventPublisher
	metrics   ports.MetricsRecorder
	tracer    ports.Tracer
	validator *validators.GraphValidator
	versions  *versioning.VersioningService
	cfg       *config.DomainConfig
	strict    atomic.Bool
	logger    *zap.Logger
	now       func() time.Time
}

// NewDocumentStore creates a document store
func NewDocumentStore(
	repo ports.DocumentRepository,
	ids ports.IDGenerator,
	eventPublisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	tracer ports.Tracer,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *DocumentStore {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	s := &DocumentStore{
		current:   make(map[string]*aggregates.Document),
		repo:      repo,
		ids:       ids,
		events:    eventPublisher,
		metrics:   metrics,
		tracer:    tracer,
		validator: validators.NewGraphValidator(),
		versions:  versioning.NewVersioningService(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
	s.strict.Store(cfg.StrictInvariants)
	return s
}

// SetStrict switches between rejecting and rolling back edits that fail the
// consistency check
func (s *DocumentStore) SetStrict(strict bool) {
	if s.strict.Swap(strict) != strict {
		s.logger.Info("Invariant mode changed", zap.Bool("strict", strict))
	}
}

// Strict reports whether failed consistency checks are returned as errors
func (s *DocumentStore) Strict() bool {
	return s.strict.Load()
}

// Config returns the editing rules the store was built with
func (s *DocumentStore) Config() *config.DomainConfig {
	return s.cfg
}

// CurrentVersion reports the version of a document held in memory
func (s *DocumentStore) CurrentVersion(documentID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.current[documentID]
	if !ok {
		return 0, false
	}
	return doc.Version(), true
}

// CurrentRevision reports the revision of a document held in memory
func (s *DocumentStore) CurrentRevision(documentID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.current[documentID]
	if !ok {
		return "", false
	}
	return doc.Revision(), true
}

// Get returns the current revision of a document, loading it on first use
func (s *DocumentStore) Get(ctx context.Context, documentID string) (*aggregates.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, documentID)
}

// List returns summaries of the stored documents of ownerID
func (s *DocumentStore) List(ctx context.Context, ownerID string) ([]ports.DocumentSummary, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *DocumentStore) load(ctx context.Context, documentID string) (*aggregates.Document, error) {
	if doc, ok := s.current[documentID]; ok {
		return doc, nil
	}
	doc, err := s.repo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if problems := s.validator.Check(doc.Graph()); len(problems) > 0 {
		s.logger.Warn("Loaded document has consistency problems",
			zap.String("document_id", documentID),
			zap.Strings("problems", problems),
		)
	}
	s.current[documentID] = doc
	return doc, nil
}

// Create seeds a new document holding a single root block. An empty
// documentID is replaced by a generated one.
func (s *DocumentStore) Create(
	ctx context.Context,
	documentID, ownerID, rootText string,
	verb valueobjects.Verb,
) (*aggregates.Document, error) {
	start := s.now()
	if documentID == "" {
		documentID = s.ids.NewDocumentID()
	}
	if rootText == "" {
		rootText = s.cfg.DefaultRootText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.current[documentID]; ok {
		return nil, pkgerrors.NewDocumentExists(documentID)
	}

	rootContentID := s.ids.NewBlockContentID()
	g, err := aggregates.NewGraph().WithUser(ownerID).InsertRootBlock(rootText, verb, s.ids.NewLocatedBlockID(), rootContentID)
	if err != nil {
		return nil, err
	}
	doc := aggregates.NewDocument(documentID, rootContentID, ownerID, g, start)

	saveCtx, cancel := context.WithTimeout(ctx, s.cfg.SaveTimeout)
	defer cancel()
	if err := s.repo.Create(saveCtx, doc); err != nil {
		s.metrics.RecordOperation(ctx, "create_document", s.now().Sub(start), err)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	s.current[documentID] = doc

	s.publish(ctx, events.NewDocumentCreated(documentID, rootContentID.String(), ownerID, s.now()))
	s.metrics.RecordOperation(ctx, "create_document", s.now().Sub(start), nil)
	s.logger.Info("Document created",
		zap.String("document_id", documentID),
		zap.String("root_content_id", rootContentID.String()),
	)
	return doc, nil
}

// Delete removes a document from storage and memory
func (s *DocumentStore) Delete(ctx context.Context, documentID string) error {
	start := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	version := 0
	if doc, ok := s.current[documentID]; ok {
		version = doc.Version()
	}
	if err := s.repo.Delete(ctx, documentID); err != nil {
		s.metrics.RecordOperation(ctx, "delete_document", s.now().Sub(start), err)
		return err
	}
	delete(s.current, documentID)

	s.publish(ctx, events.NewDocumentDeleted(documentID, version, s.now()))
	s.metrics.RecordOperation(ctx, "delete_document", s.now().Sub(start), nil)
	return nil
}

// Dispatch applies mutate to the current graph of a document. The result is
// checked for consistency before it replaces the current graph, persisted,
// and announced.
func (s *DocumentStore) Dispatch(
	ctx context.Context,
	documentID, userID, operation string,
	mutate Mutation,
) (result *DispatchResult, err error) {
	start := s.now()
	defer func() {
		s.metrics.RecordOperation(ctx, operation, s.now().Sub(start), err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}

	before := doc.Graph().WithUser(userID)
	var edit domainservices.EditResult
	err = s.tracer.TraceFunction(ctx, "dispatch."+operation, func(ctx context.Context) error {
		var err error
		edit, err = mutate(before, doc.RootContentID())
		return err
	})
	if err != nil {
		return nil, err
	}

	result = &DispatchResult{
		DocumentID: documentID,
		Version:    doc.Version(),
		Focus:      edit.Focus,
	}
	if !edit.Changed(before) {
		return result, nil
	}

	if verr := s.validator.Validate(doc.Graph(), edit.Graph); verr != nil {
		return s.reject(ctx, doc, operation, verr, result)
	}

	if limit := s.cfg.MaxBlocksPerDocument; limit > 0 && len(edit.Graph.BlockContents()) > limit {
		return nil, pkgerrors.NewDocumentTooLarge(documentID, limit)
	}

	version, err := s.versions.CreateVersion(documentID, doc.Version()+1, edit.Graph, userID, operation)
	if err != nil {
		return nil, fmt.Errorf("failed to version document: %w", err)
	}

	next := doc.WithGraph(edit.Graph, s.now())
	saveCtx, cancel := context.WithTimeout(ctx, s.cfg.SaveTimeout)
	defer cancel()
	if err := s.repo.Save(saveCtx, next); err != nil {
		if errors.Is(err, pkgerrors.ErrConcurrentModification) {
			// Another writer got there first; reload on the next dispatch.
			delete(s.current, documentID)
		}
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	s.current[documentID] = next

	s.publish(ctx, events.NewDocumentChanged(
		documentID,
		operation,
		version.Checksum,
		next.Version(),
		version.BlockCount,
		version.LocationCount,
		s.now(),
	))

	result.Version = next.Version()
	result.Changed = true
	return result, nil
}

func (s *DocumentStore) reject(
	ctx context.Context,
	doc *aggregates.Document,
	operation string,
	verr error,
	result *DispatchResult,
) (*DispatchResult, error) {
	s.metrics.RecordInvariantViolation(ctx, operation)

	var violation *pkgerrors.InvariantViolation
	fields := []zap.Field{
		zap.String("document_id", doc.ID()),
		zap.String("operation", operation),
	}
	if errors.As(verr, &violation) {
		fields = append(fields,
			zap.Strings("problems", violation.Problems),
			zap.String("old_graph", violation.OldGraph),
			zap.String("new_graph", violation.NewGraph),
		)
	}

	if s.strict.Load() {
		s.logger.Error("Edit failed the consistency check", append(fields, zap.Error(verr))...)
		return nil, verr
	}

	s.logger.Warn("Edit failed the consistency check, keeping the last good graph", fields...)
	var problems []string
	if violation != nil {
		problems = violation.Problems
	}
	s.publish(ctx, events.NewDocumentRolledBack(doc.ID(), operation, doc.Version(), problems, s.now()))

	result.Focus = nil
	result.RolledBack = true
	result.Notice = RollbackNotice
	result.Problems = problems
	return result, nil
}

func (s *DocumentStore) publish(ctx context.Context, event events.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		// The edit is already committed; a lost notification is not fatal
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.String("document_id", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}
