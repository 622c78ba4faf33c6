package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cid(s string) valueobjects.BlockContentID { return valueobjects.MustBlockContentID(s) }
func lid(s string) valueobjects.LocatedBlockID  { return valueobjects.MustLocatedBlockID(s) }

func path(ids ...string) valueobjects.Path {
	p := valueobjects.Path{}
	for _, id := range ids {
		p = p.Child(lid(id))
	}
	return p
}

// seqIDs hands out c1, c2, ... and l1, l2, ...
type seqIDs struct{ content, located int }

func (s *seqIDs) NewBlockContentID() valueobjects.BlockContentID {
	s.content++
	return cid(fmt.Sprintf("c%d", s.content))
}

func (s *seqIDs) NewLocatedBlockID() valueobjects.LocatedBlockID {
	s.located++
	return lid(fmt.Sprintf("l%d", s.located))
}

type block struct {
	located, content, text string
	verb                   valueobjects.Verb
	children               []block
}

// createTestOutline builds root content R (location lr) with the given children.
func createTestOutline(t *testing.T, children ...block) *aggregates.Graph {
	t.Helper()
	g, err := aggregates.NewGraph().InsertRootBlock("root", valueobjects.VerbDo, lid("lr"), cid("R"))
	require.NoError(t, err)
	return addBlocks(t, g, cid("R"), children)
}

func addBlocks(t *testing.T, g *aggregates.Graph, parent valueobjects.BlockContentID, children []block) *aggregates.Graph {
	t.Helper()
	left := valueobjects.LocatedBlockID{}
	for _, b := range children {
		verb := b.verb
		if verb == nil {
			verb = valueobjects.VerbDo
		}
		var err error
		g, err = g.InsertNewBlock(left, parent, b.text, verb, lid(b.located), cid(b.content))
		require.NoError(t, err)
		g = addBlocks(t, g, cid(b.content), b.children)
		left = lid(b.located)
	}
	return g
}

func navigationOutline(t *testing.T) *aggregates.Graph {
	return createTestOutline(t,
		block{located: "la", content: "A", text: "a", children: []block{
			{located: "la1", content: "A1", text: "a1"},
			{located: "la2", content: "A2", text: "a2", verb: valueobjects.VerbView, children: []block{
				{located: "la21", content: "A21", text: "a21"},
			}},
		}},
		block{located: "lb", content: "B", text: "b"},
	)
}

func TestPreOrder(t *testing.T) {
	g := navigationOutline(t)

	paths, err := PreOrder(g, cid("R"))
	require.NoError(t, err)

	want := []valueobjects.Path{
		path(),
		path("la"),
		path("la", "la1"),
		path("la", "la2"),
		path("la", "la2", "la21"),
		path("lb"),
	}
	require.Len(t, paths, len(want))
	for i := range want {
		assert.True(t, want[i].Equals(paths[i]), "position %d: want %s got %s", i, want[i], paths[i])
	}
}

func TestNeighborsWalkPreOrder(t *testing.T) {
	g := navigationOutline(t)
	order, err := PreOrder(g, cid("R"))
	require.NoError(t, err)

	for i := 0; i+1 < len(order); i++ {
		t.Run(order[i].String(), func(t *testing.T) {
			down, err := DownstairsNeighbor(g, cid("R"), order[i])
			require.NoError(t, err)
			assert.True(t, order[i+1].Equals(down), "down from %s: got %s", order[i], down)

			up, err := UpstairsNeighbor(g, down)
			require.NoError(t, err)
			assert.True(t, order[i].Equals(up), "up from %s: got %s", down, up)
		})
	}
}

func TestNeighborsAtDocumentEdges(t *testing.T) {
	g := navigationOutline(t)

	_, err := UpstairsNeighbor(g, path())
	assert.True(t, errors.Is(err, pkgerrors.ErrNoSuchBlock))

	_, err = DownstairsNeighbor(g, cid("R"), path("lb"))
	assert.True(t, errors.Is(err, pkgerrors.ErrNoSuchBlock))

	_, err = DownstairsNeighbor(g, cid("R"), path("lb", "la1"))
	assert.True(t, errors.Is(err, pkgerrors.ErrLocatedBlockNotFound))
}

func TestGuideStepsSkipWorkspaceBlocks(t *testing.T) {
	g := navigationOutline(t)

	next, err := NextGuideStep(g, cid("R"), path("la", "la1"))
	require.NoError(t, err)
	assert.True(t, path("la", "la2", "la21").Equals(next), "got %s", next)

	prev, err := PreviousGuideStep(g, cid("R"), path("la", "la2", "la21"))
	require.NoError(t, err)
	assert.True(t, path("la", "la1").Equals(prev), "got %s", prev)

	_, err = NextGuideStep(g, cid("R"), path("lb"))
	assert.True(t, errors.Is(err, pkgerrors.ErrNoSuchBlock))
}
