package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "ideamap/pkg/errors"
)

func TestNewIdeaID(t *testing.T) {
	id := NewIdeaID()

	assert.NotEmpty(t, id.String())
	assert.False(t, id.IsZero())

	_, err := uuid.Parse(id.String())
	assert.NoError(t, err)
}

func TestNewIdeaIDFromString(t *testing.T) {
	validUUID := uuid.New().String()

	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{name: "valid UUID string", input: validUUID},
		{name: "empty string", input: "", wantErr: true, errMsg: "idea ID cannot be empty"},
		{name: "invalid UUID format", input: "not-a-uuid", wantErr: true, errMsg: "idea ID must be a valid UUID"},
		{name: "whitespace only", input: "   ", wantErr: true, errMsg: "idea ID must be a valid UUID"},
		{name: "padded UUID", input: " " + validUUID, wantErr: true, errMsg: "idea ID must be a valid UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewIdeaIDFromString(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.True(t, id.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestIdeaID_JSON(t *testing.T) {
	id := NewIdeaID()

	data, err := json.Marshal(map[string]IdeaID{"id": id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.String()+`"}`, string(data))

	var decoded struct {
		ID IdeaID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, id.Equals(decoded.ID))

	assert.Error(t, json.Unmarshal([]byte(`{"id":"nope"}`), &decoded))
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input   string
		want    Language
		wantErr bool
	}{
		{input: "", want: LanguageEnglish},
		{input: "en", want: LanguageEnglish},
		{input: " VI ", want: LanguageVietnamese},
		{input: "fr", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lang, err := ParseLanguage(tt.input)
			if tt.wantErr {
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, lang)
		})
	}

	assert.Equal(t, "Vietnamese", LanguageVietnamese.DisplayName())
	assert.Equal(t, "English", LanguageEnglish.DisplayName())
}

func TestNodeRef_NodeIDRoundTrip(t *testing.T) {
	ideaID := NewIdeaID()

	refs := []NodeRef{
		CentralRef(),
		ProblemRef(0),
		ProblemRef(3),
		IdeaRef(ideaID),
		PhaseRef(ideaID, 2),
	}

	for _, ref := range refs {
		t.Run(ref.String(), func(t *testing.T) {
			parsed, err := ParseNodeID(ref.NodeID())
			require.NoError(t, err)
			assert.True(t, ref.Equals(parsed))

			viaKind, err := ParseNodeRef(string(ref.Kind()), ref.NodeID())
			require.NoError(t, err)
			assert.Equal(t, ref, viaKind)
		})
	}

	assert.Equal(t, "central-topic", CentralRef().NodeID())
	assert.Equal(t, "problem-3", ProblemRef(3).NodeID())
	assert.Equal(t, ideaID.String()+"/phase-2", PhaseRef(ideaID, 2).NodeID())
}

func TestParseNodeRef_Errors(t *testing.T) {
	tests := []struct {
		name string
		kind string
		id   string
	}{
		{name: "unknown kind", kind: "task", id: "x"},
		{name: "problem not numeric", kind: "problem", id: "problem-x"},
		{name: "negative problem", kind: "problem", id: "-1"},
		{name: "idea not uuid", kind: "idea", id: "idea-1"},
		{name: "phase missing index", kind: "phase", id: uuid.New().String()},
		{name: "phase bad idea", kind: "phase", id: "nope/phase-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNodeRef(tt.kind, tt.id)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestParseNodeRef_BareProblemIndexAndCentralIgnoresID(t *testing.T) {
	ref, err := ParseNodeRef("problem", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, ref.ProblemIndex())

	ref, err = ParseNodeRef("central", "")
	require.NoError(t, err)
	assert.Equal(t, NodeKindCentral, ref.Kind())
}

func TestNodeRef_JSON(t *testing.T) {
	ideaID := NewIdeaID()
	ref := IdeaRef(ideaID)

	data, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"idea","id":"`+ideaID.String()+`"}`, string(data))

	var decoded NodeRef
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ref, decoded)

	data, err = json.Marshal(NodeRef{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestUserInput_IsBlank(t *testing.T) {
	assert.True(t, UserInput{}.IsBlank())
	assert.True(t, UserInput{Interests: "  ", Skills: "\n", MarketTrends: "\t"}.IsBlank())
	assert.False(t, UserInput{Interests: "baking"}.IsBlank())
	assert.Equal(t, "baking", UserInput{Interests: " baking "}.Normalized().Interests)
}
