package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocatedBlockID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "uuid", input: "0b9c4f8e-6f3c-4b8f-9d55-3e1f0b0c2a11"},
		{name: "arbitrary format", input: "loc-1"},
		{name: "empty string", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewLocatedBlockID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, id.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
			assert.False(t, id.IsZero())
		})
	}
}

func TestIDJSON(t *testing.T) {
	type holder struct {
		Parent BlockContentID `json:"parentId"`
		Left   LocatedBlockID `json:"leftId"`
	}

	data, err := json.Marshal(holder{Parent: MustBlockContentID("c1")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"parentId":"c1","leftId":null}`, string(data))

	var back holder
	require.NoError(t, json.Unmarshal([]byte(`{"parentId":null,"leftId":"l9"}`), &back))
	assert.True(t, back.Parent.IsZero())
	assert.Equal(t, "l9", back.Left.String())

	assert.Error(t, json.Unmarshal([]byte(`{"leftId":7}`), &back))
}

func TestParseVerb(t *testing.T) {
	for _, v := range AllVerbs() {
		parsed, err := ParseVerb(v.Name())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}

	lower, err := ParseVerb("choose")
	require.NoError(t, err)
	assert.Equal(t, VerbChoose, lower)

	_, err = ParseVerb("JUMP")
	assert.Error(t, err)
}

func TestVerbTable(t *testing.T) {
	tests := []struct {
		verb      Verb
		child     Verb
		sibling   Verb
		workspace bool
	}{
		{VerbDo, VerbDo, VerbDo, false},
		{VerbChoose, VerbDo, VerbDo, false},
		{VerbRead, VerbRead, VerbRead, false},
		{VerbView, VerbRead, VerbDo, true},
		{VerbEdit, VerbRead, VerbDo, true},
	}

	for _, tt := range tests {
		t.Run(tt.verb.Name(), func(t *testing.T) {
			assert.Equal(t, tt.child, tt.verb.DefaultChildVerb())
			assert.Equal(t, tt.sibling, tt.verb.DefaultSiblingVerb())
			assert.Equal(t, tt.workspace, tt.verb.IsWorkspace())
		})
	}
}

func TestParseBlockStatus(t *testing.T) {
	s, err := ParseBlockStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusNotStarted, s)

	s, err = ParseBlockStatus("complete")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, s)

	_, err = ParseBlockStatus("done")
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	a, b, c := MustLocatedBlockID("a"), MustLocatedBlockID("b"), MustLocatedBlockID("c")
	p := NewPath(a, b)

	assert.False(t, p.IsRoot())
	assert.Equal(t, b, p.Last())
	assert.True(t, p.Parent().Equals(NewPath(a)))
	assert.True(t, p.Child(c).Equals(NewPath(a, b, c)))
	assert.True(t, p.Sibling(c).Equals(NewPath(a, c)))
	assert.True(t, Path{}.Parent().IsRoot())
	assert.True(t, Path{}.Last().IsZero())

	// Child must not write into the receiver's backing array.
	base := make(Path, 2, 8)
	copy(base, p)
	left := base.Child(a)
	right := base.Child(c)
	assert.Equal(t, a, left.Last())
	assert.Equal(t, c, right.Last())

	parsed, err := ParsePath("a, b,c")
	require.NoError(t, err)
	assert.True(t, parsed.Equals(NewPath(a, b, c)))
	assert.Equal(t, "a,b,c", parsed.String())

	empty, err := ParsePath("")
	require.NoError(t, err)
	assert.True(t, empty.IsRoot())

	_, err = ParsePath("a,,b")
	assert.Error(t, err)
}

func TestFocusPosition(t *testing.T) {
	tests := []struct {
		input string
		want  FocusPosition
		json  string
	}{
		{"start", FocusStart(), `"start"`},
		{"end", FocusEnd(), `"end"`},
		{"4", FocusAt(4), `4`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFocusPosition(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			data, err := json.Marshal(got)
			require.NoError(t, err)
			assert.Equal(t, tt.json, string(data))
		})
	}

	_, err := ParseFocusPosition("-1")
	assert.Error(t, err)

	offset, ok := FocusAt(-3).Offset()
	assert.True(t, ok)
	assert.Equal(t, 0, offset)
}
