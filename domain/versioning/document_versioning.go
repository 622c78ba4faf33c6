package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
)

// DocumentVersion describes one committed state of a document
type DocumentVersion struct {
	DocumentID    string    `json:"document_id"`
	Version       int       `json:"version"`
	Checksum      string    `json:"checksum"`
	BlockCount    int       `json:"block_count"`
	LocationCount int       `json:"location_count"`
	ArchivedCount int       `json:"archived_count"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	Operation     string    `json:"operation"`
}

// VersioningService stamps committed graphs with a version and checksum
type VersioningService struct {
	now func() time.Time
}

// NewVersioningService creates a new versioning service
func NewVersioningService() *VersioningService {
	return &VersioningService{now: time.Now}
}

// CreateVersion describes graph as version number version of documentID
func (s *VersioningService) CreateVersion(
	documentID string,
	version int,
	graph *aggregates.Graph,
	userID string,
	operation string,
) (*DocumentVersion, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph cannot be nil")
	}

	checksum, err := Checksum(graph)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	live, archived := 0, 0
	for _, l := range graph.LocatedBlocks() {
		if l.IsArchived() {
			archived++
		} else {
			live++
		}
	}

	return &DocumentVersion{
		DocumentID:    documentID,
		Version:       version,
		Checksum:      checksum,
		BlockCount:    len(graph.BlockContents()),
		LocationCount: live,
		ArchivedCount: archived,
		CreatedAt:     s.now(),
		CreatedBy:     userID,
		Operation:     operation,
	}, nil
}

// Checksum hashes the serialized graph. Serialization is sorted by id, so
// equal graphs always hash the same.
func Checksum(graph *aggregates.Graph) (string, error) {
	data, err := aggregates.Serialize(graph)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:]), nil
}
