package versioning

import (
	"testing"
	"time"

	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestGraph(t *testing.T) *aggregates.Graph {
	t.Helper()
	g, err := aggregates.NewGraph().InsertRootBlock("root", valueobjects.VerbDo,
		valueobjects.MustLocatedBlockID("lr"), valueobjects.MustBlockContentID("R"))
	require.NoError(t, err)
	return g
}

func TestCreateVersion(t *testing.T) {
	s := NewVersioningService()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	g := createTestGraph(t)
	v1, err := s.CreateVersion("doc", 1, g, "u1", "create")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.BlockCount)
	assert.Equal(t, 1, v1.LocationCount)
	assert.Len(t, v1.Checksum, 64)

	next, err := g.InsertNewBlock(valueobjects.LocatedBlockID{}, valueobjects.MustBlockContentID("R"), "a",
		valueobjects.VerbDo, valueobjects.MustLocatedBlockID("la"), valueobjects.MustBlockContentID("A"))
	require.NoError(t, err)
	next, err = next.RemoveLocatedBlock(valueobjects.MustLocatedBlockID("la"))
	require.NoError(t, err)

	clock = clock.Add(time.Minute)
	v2, err := s.CreateVersion("doc", 2, next, "u1", "remove")
	require.NoError(t, err)
	assert.Equal(t, 1, v2.ArchivedCount)

	assert.Equal(t, 0, v2.LocationCount-v1.LocationCount)
	assert.NotEqual(t, v1.Checksum, v2.Checksum)
	assert.Equal(t, clock, v2.CreatedAt)
	assert.Equal(t, "remove", v2.Operation)

	_, err = s.CreateVersion("doc", 3, nil, "u1", "noop")
	assert.Error(t, err)
}

func TestChecksumIsStable(t *testing.T) {
	a, err := Checksum(createTestGraph(t))
	require.NoError(t, err)
	b, err := Checksum(createTestGraph(t))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
