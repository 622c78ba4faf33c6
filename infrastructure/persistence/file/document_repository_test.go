package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func createTestRepository(t *testing.T) (*DocumentRepository, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "docs")
	repo, err := NewDocumentRepository(dir, zap.NewNop())
	require.NoError(t, err)
	return repo, dir
}

func createTestDocument(t *testing.T, id, owner string) *aggregates.Document {
	t.Helper()
	g, err := aggregates.NewGraph().WithUser(owner).InsertRootBlock(
		"Make tea", valueobjects.VerbDo,
		valueobjects.MustLocatedBlockID("l1"), valueobjects.MustBlockContentID("c1"),
	)
	require.NoError(t, err)
	g, err = g.InsertNewBlock(
		valueobjects.LocatedBlockID{}, valueobjects.MustBlockContentID("c1"),
		"Boil water", valueobjects.VerbRead,
		valueobjects.MustLocatedBlockID("l2"), valueobjects.MustBlockContentID("c2"),
	)
	require.NoError(t, err)
	return aggregates.NewDocument(id, valueobjects.MustBlockContentID("c1"), owner, g, testNow)
}

func TestDocumentRepository_RoundTrip(t *testing.T) {
	repo, dir := createTestRepository(t)
	ctx := context.Background()
	doc := createTestDocument(t, "d1", "u1")

	require.NoError(t, repo.Create(ctx, doc))
	assert.FileExists(t, filepath.Join(dir, "d1.json"))

	got, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID())
	assert.Equal(t, "u1", got.OwnerID())
	assert.Equal(t, 1, got.Version())
	assert.True(t, got.CreatedAt().Equal(testNow))
	assert.Equal(t, doc.RootContentID(), got.RootContentID())
	assert.True(t, doc.Graph().Equal(got.Graph()))
}

func TestDocumentRepository_CreateExisting(t *testing.T) {
	repo, _ := createTestRepository(t)
	ctx := context.Background()
	doc := createTestDocument(t, "d1", "u1")

	require.NoError(t, repo.Create(ctx, doc))
	assert.ErrorIs(t, repo.Create(ctx, doc), pkgerrors.ErrDocumentExists)
}

func TestDocumentRepository_Save(t *testing.T) {
	repo, _ := createTestRepository(t)
	ctx := context.Background()
	doc := createTestDocument(t, "d1", "u1")
	require.NoError(t, repo.Create(ctx, doc))

	g, err := doc.Graph().UpdateHumanText(valueobjects.MustBlockContentID("c2"), "Boil fresh water")
	require.NoError(t, err)
	next := doc.WithGraph(g, testNow.Add(time.Minute))
	require.NoError(t, repo.Save(ctx, next))

	assert.ErrorIs(t, repo.Save(ctx, next), pkgerrors.ErrConcurrentModification)

	got, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version())
	content, err := got.Graph().BlockContent(valueobjects.MustBlockContentID("c2"))
	require.NoError(t, err)
	assert.Equal(t, "Boil fresh water", content.HumanText())
}

func TestDocumentRepository_RejectsUnsafeIDs(t *testing.T) {
	repo, _ := createTestRepository(t)

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		_, err := repo.Get(context.Background(), id)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument, id)
	}
}

func TestDocumentRepository_DeleteList(t *testing.T) {
	repo, dir := createTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, createTestDocument(t, "d1", "u1")))
	require.NoError(t, repo.Create(ctx, createTestDocument(t, "d2", "u2")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "d1", all[0].ID)
	assert.Equal(t, "c1", all[0].RootContentID)

	mine, err := repo.List(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "d2", mine[0].ID)

	require.NoError(t, repo.Delete(ctx, "d1"))
	assert.ErrorIs(t, repo.Delete(ctx, "d1"), pkgerrors.ErrDocumentNotFound)
	_, err = repo.Get(ctx, "d1")
	assert.ErrorIs(t, err, pkgerrors.ErrDocumentNotFound)
}
