package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/fanzineflow/internal/models"
)

func TestNormalizeEntity(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   models.Entity
		wantOK bool
	}{
		{
			name:   "honorific stripped",
			input:  "Dr. John Smith",
			want:   models.Entity{Original: "Dr. John Smith", Clean: "John Smith", Prefix: "Dr. "},
			wantOK: true,
		},
		{
			name:   "honorific case insensitive",
			input:  "DR. JOHN SMITH",
			want:   models.Entity{Original: "DR. JOHN SMITH", Clean: "John Smith", Prefix: "DR. "},
			wantOK: true,
		},
		{
			name:   "all caps title cased",
			input:  "FANDOM PRESS",
			want:   models.Entity{Original: "FANDOM PRESS", Clean: "Fandom Press", Prefix: ""},
			wantOK: true,
		},
		{
			name:   "short all caps preserved",
			input:  "NASA",
			want:   models.Entity{Original: "NASA", Clean: "NASA", Prefix: ""},
			wantOK: true,
		},
		{
			name:   "mixed case untouched",
			input:  "Jane Doe",
			want:   models.Entity{Original: "Jane Doe", Clean: "Jane Doe", Prefix: ""},
			wantOK: true,
		},
		{
			name:   "accented all caps title cased",
			input:  "ÉMILE ZOLA",
			want:   models.Entity{Original: "ÉMILE ZOLA", Clean: "Émile Zola", Prefix: ""},
			wantOK: true,
		},
		{
			name:   "prof prefix",
			input:  "Prof. Ada Lovelace",
			want:   models.Entity{Original: "Prof. Ada Lovelace", Clean: "Ada Lovelace", Prefix: "Prof. "},
			wantOK: true,
		},
		{
			name:   "empty dropped",
			input:  "",
			wantOK: false,
		},
		{
			name:   "whitespace only dropped",
			input:  "   ",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeEntity(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestApplyWikilinks(t *testing.T) {
	ent, ok := NormalizeEntity("Dr. John Smith")
	require.True(t, ok)

	got := ApplyWikilinks("DR. JOHN SMITH met John Smith", []models.Entity{ent})
	assert.Equal(t, "DR. Dr. [[John Smith]] met Dr. [[John Smith]]", got)
}

func TestApplyWikilinksLongestFirst(t *testing.T) {
	long := models.Entity{Original: "John Smith", Clean: "John Smith"}
	short := models.Entity{Original: "John", Clean: "John"}

	// The longer name is substituted first; the shorter one must not re-match
	// inside the already-linked span.
	got := ApplyWikilinks("John Smith wrote to John.", []models.Entity{short, long})
	assert.Equal(t, "[[John Smith]] wrote to [[John]].", got)
}

func TestApplyWikilinksWholeWordOnly(t *testing.T) {
	ent := models.Entity{Original: "Ann", Clean: "Ann"}
	got := ApplyWikilinks("Annette met Ann.", []models.Entity{ent})
	assert.Equal(t, "Annette met [[Ann]].", got)
}

func TestApplyWikilinksAccentedNames(t *testing.T) {
	jose := models.Entity{Original: "José", Clean: "José"}
	esa := models.Entity{Original: "Ésa Name", Clean: "Ésa Name"}

	got := ApplyWikilinks("José met John.", []models.Entity{jose})
	assert.Equal(t, "[[José]] met John.", got)

	got = ApplyWikilinks("Ésa Name met John.", []models.Entity{esa})
	assert.Equal(t, "[[Ésa Name]] met John.", got)

	// An accented letter still counts as part of a word: no match inside a
	// longer name.
	got = ApplyWikilinks("Josés met John.", []models.Entity{jose})
	assert.Equal(t, "Josés met John.", got)
}

func TestApplyWikilinksEmptyText(t *testing.T) {
	assert.Equal(t, "", ApplyWikilinks("", []models.Entity{{Clean: "X"}}))
}

type ocrPayload struct {
	Text     string   `json:"text"`
	Entities []string `json:"entities"`
}

func TestExtractJSONDirect(t *testing.T) {
	var got ocrPayload
	err := ExtractJSON(`{"text": "hello", "entities": ["A"]}`, &got)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, []string{"A"}, got.Entities)
}

func TestExtractJSONEmbedded(t *testing.T) {
	var got ocrPayload
	err := ExtractJSON(`Sure, here you go: {"text": "hi", "entities": []} Hope that helps!`, &got)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Text)
}

func TestExtractJSONFenced(t *testing.T) {
	var got ocrPayload
	err := ExtractJSON("```json\n{\"text\": \"fenced\", \"entities\": [\"B\"]}\n```", &got)
	require.NoError(t, err)
	assert.Equal(t, "fenced", got.Text)
}

func TestExtractJSONFailure(t *testing.T) {
	var got ocrPayload
	err := ExtractJSON("not json at all", &got)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, len("not json at all"), parseErr.RawLength)
	// The message must not leak response content, only its length.
	assert.NotContains(t, err.Error(), "not json")
}
