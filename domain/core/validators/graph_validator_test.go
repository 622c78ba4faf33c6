package validators

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/entities"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	"github.com/dnsosebee/methodable-sub000/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestGraph(t *testing.T) *aggregates.Graph {
	t.Helper()
	g, err := aggregates.NewGraph().InsertRootBlock("", valueobjects.VerbDo,
		valueobjects.MustLocatedBlockID("lr"), valueobjects.MustBlockContentID("R"))
	require.NoError(t, err)
	g, err = g.InsertNewBlock(valueobjects.LocatedBlockID{}, valueobjects.MustBlockContentID("R"), "a",
		valueobjects.VerbDo, valueobjects.MustLocatedBlockID("la"), valueobjects.MustBlockContentID("A"))
	require.NoError(t, err)
	g, err = g.RemoveLocatedBlock(valueobjects.MustLocatedBlockID("la"))
	require.NoError(t, err)
	return g
}

func TestGraphValidatorAcceptsPrimitiveOutput(t *testing.T) {
	v := NewGraphValidator()
	g := createTestGraph(t)

	assert.Empty(t, v.Check(g))
	assert.NoError(t, v.Validate(aggregates.NewGraph(), g))
}

func TestGraphValidatorReportsDamage(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		problem string
	}{
		{
			name: "content without locations",
			doc: `{"blockContents":[{"id":"R","verb":"DO"},{"id":"X","verb":"DO"}],
				"locatedBlocks":[{"id":"lr","contentId":"R","parentId":null,"leftId":null}]}`,
			problem: "content X has no locations",
		},
		{
			name: "location showing missing content",
			doc: `{"blockContents":[{"id":"R","verb":"DO"}],
				"locatedBlocks":[{"id":"lr","contentId":"R","parentId":null,"leftId":null},
				{"id":"lg","contentId":"ghost","parentId":"R","leftId":null}]}`,
			problem: "location lg shows missing content ghost",
		},
		{
			name: "location under missing parent",
			doc: `{"blockContents":[{"id":"R","verb":"DO"},{"id":"A","verb":"DO"}],
				"locatedBlocks":[{"id":"lr","contentId":"R","parentId":null,"leftId":null},
				{"id":"la","contentId":"A","parentId":"gone","leftId":null}]}`,
			problem: "location la has missing parent gone",
		},
		{
			name: "broken sibling chain",
			doc: `{"blockContents":[{"id":"R","verb":"DO"},{"id":"A","verb":"DO"},{"id":"B","verb":"DO"}],
				"locatedBlocks":[{"id":"lr","contentId":"R","parentId":null,"leftId":null},
				{"id":"la","contentId":"A","parentId":"R","leftId":null},
				{"id":"lb","contentId":"B","parentId":"R","leftId":"lx"}]}`,
			problem: `location lb has left "lx", expected "la"`,
		},
		{
			name: "live location under archived content",
			doc: `{"blockContents":[{"id":"R","verb":"DO"},{"id":"A","verb":"DO","archived":true},{"id":"B","verb":"DO"}],
				"locatedBlocks":[{"id":"lr","contentId":"R","parentId":null,"leftId":null},
				{"id":"la","contentId":"A","parentId":"R","leftId":null},
				{"id":"lb","contentId":"B","parentId":"A","leftId":null}]}`,
			problem: "location lb has archived parent A",
		},
		{
			name: "content placed inside itself",
			doc: `{"blockContents":[{"id":"R","verb":"DO"},{"id":"A","verb":"DO"},{"id":"B","verb":"DO"}],
				"locatedBlocks":[{"id":"lr","contentId":"R","parentId":null,"leftId":null},
				{"id":"la","contentId":"A","parentId":"R","leftId":null},
				{"id":"lb","contentId":"B","parentId":"A","leftId":null},
				{"id":"la2","contentId":"A","parentId":"B","leftId":null}]}`,
			problem: "content A is placed inside itself",
		},
	}

	v := NewGraphValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := aggregates.Deserialize(tt.doc)
			require.NoError(t, err)

			assert.Contains(t, v.Check(g), tt.problem)

			err = v.Validate(createTestGraph(t), g)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvariantViolation))

			var violation *errors.InvariantViolation
			require.True(t, stderrors.As(err, &violation))
			assert.True(t, strings.HasPrefix(violation.OldGraph, `{"blockContents"`))
			assert.NotEmpty(t, violation.NewGraph)
		})
	}
}

func TestGraphValidatorNilGraph(t *testing.T) {
	assert.Equal(t, []string{"graph is nil"}, NewGraphValidator().Check(nil))
}

func TestGraphValidatorReportsCycleOnce(t *testing.T) {
	g, err := aggregates.Deserialize(`{"blockContents":[{"id":"R","verb":"DO"},{"id":"A","verb":"DO"},{"id":"B","verb":"DO"}],
		"locatedBlocks":[{"id":"lr","contentId":"R","parentId":null,"leftId":null},
		{"id":"la","contentId":"A","parentId":"R","leftId":null},
		{"id":"lb","contentId":"B","parentId":"A","leftId":null},
		{"id":"la2","contentId":"A","parentId":"B","leftId":null}]}`)
	require.NoError(t, err)

	var cycles []string
	for _, p := range NewGraphValidator().Check(g) {
		if strings.HasSuffix(p, "is placed inside itself") {
			cycles = append(cycles, p)
		}
	}
	assert.Equal(t, []string{"content A is placed inside itself"}, cycles)
}

func TestGraphValidatorReportsLingeringArchivedLocation(t *testing.T) {
	var (
		lr   = valueobjects.MustLocatedBlockID("lr")
		la   = valueobjects.MustLocatedBlockID("la")
		root = valueobjects.MustBlockContentID("R")
		a    = valueobjects.MustBlockContentID("A")
		none valueobjects.LocatedBlockID
	)

	tests := []struct {
		name     string
		children []valueobjects.LocatedBlockID
		located  []valueobjects.LocatedBlockID
		problem  string
	}{
		{
			name:     "still listed as a child",
			children: []valueobjects.LocatedBlockID{la},
			problem:  "archived location la is still a child of R",
		},
		{
			name:    "still in the location set",
			located: []valueobjects.LocatedBlockID{la},
			problem: "archived location la is still in the location set of A",
		},
	}

	v := NewGraphValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := aggregates.ReconstructGraph(
				[]*entities.BlockContent{
					entities.ReconstructBlockContent(root, "", valueobjects.VerbDo, "", tt.children, []valueobjects.LocatedBlockID{lr}, false),
					entities.ReconstructBlockContent(a, "a", valueobjects.VerbDo, "", nil, tt.located, false),
				},
				[]*entities.LocatedBlock{
					entities.ReconstructLocatedBlock(lr, root, valueobjects.BlockContentID{}, none, "", valueobjects.StatusNotStarted, false),
					entities.ReconstructLocatedBlock(la, a, root, none, "", valueobjects.StatusNotStarted, true),
				},
			)

			assert.Contains(t, v.Check(g), tt.problem)
			assert.Error(t, v.Validate(createTestGraph(t), g))
		})
	}
}
