package bench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSuite(t *testing.T) {
	suite, err := DefaultSuite()
	require.NoError(t, err)

	assert.Equal(t, "books", suite.Name)
	assert.Len(t, suite.Queries, 6)
	assert.Equal(t, []string{
		"book_title_index",
		"book_year_index",
		"book_format_index",
		"book_lang_pages_index",
		"book_ebook_index",
	}, IndexNames(suite.Indexes))
	assert.Equal(t, KindFulltext, suite.Indexes[0].Kind)
	assert.Equal(t, KindComposite, suite.Indexes[3].Kind)
	assert.Equal(t, "full text search", suite.Fulltext.Name)
	assert.Equal(t, "python programming", suite.FulltextParams["search_term"])

	for _, q := range suite.Queries {
		assert.NotContains(t, q.Cypher, "\n\n")
		assert.False(t, q.Write)
	}
}

func TestIndexDescriptor_CreateStatement(t *testing.T) {
	cases := []struct {
		desc IndexDescriptor
		want string
	}{
		{
			IndexDescriptor{Name: "book_year_index", Label: "Book", Properties: []string{"publication_year"}, Kind: KindProperty},
			"CREATE INDEX book_year_index IF NOT EXISTS FOR (n:Book) ON (n.publication_year)",
		},
		{
			IndexDescriptor{Name: "book_lang_pages_index", Label: "Book", Properties: []string{"language_code", "page_count"}, Kind: KindComposite},
			"CREATE INDEX book_lang_pages_index IF NOT EXISTS FOR (n:Book) ON (n.language_code, n.page_count)",
		},
		{
			IndexDescriptor{Name: "book_title_index", Label: "Book", Properties: []string{"title"}, Kind: KindFulltext},
			"CREATE FULLTEXT INDEX book_title_index IF NOT EXISTS FOR (n:Book) ON EACH [n.title]",
		},
		{
			IndexDescriptor{Name: "book-title", Label: "Book Shelf", Properties: []string{"sub.title"}, Kind: KindFulltext},
			"CREATE FULLTEXT INDEX `book-title` IF NOT EXISTS FOR (n:`Book Shelf`) ON EACH [n.`sub.title`]",
		},
		{
			IndexDescriptor{Name: "odd`name", Label: "Book", Properties: []string{"year"}, Kind: KindProperty},
			"CREATE INDEX `odd``name` IF NOT EXISTS FOR (n:Book) ON (n.year)",
		},
	}
	for _, tc := range cases {
		require.NoError(t, tc.desc.Validate())
		assert.Equal(t, tc.want, tc.desc.CreateStatement())
	}
	assert.Equal(t, "DROP INDEX book_year_index IF EXISTS", DropStatement("book_year_index"))
	assert.Equal(t, "DROP INDEX `book-title` IF EXISTS", DropStatement("book-title"))
}

func TestIndexDescriptor_Validate(t *testing.T) {
	bad := []IndexDescriptor{
		{Name: "", Label: "Book", Properties: []string{"title"}, Kind: KindProperty},
		{Name: "  ", Label: "Book", Properties: []string{"title"}, Kind: KindProperty},
		{Name: "x", Label: "", Properties: []string{"title"}, Kind: KindProperty},
		{Name: "x", Label: "Book", Properties: []string{"a", "b"}, Kind: KindProperty},
		{Name: "x", Label: "Book", Properties: []string{"a"}, Kind: KindComposite},
		{Name: "x", Label: "Book", Kind: KindFulltext},
		{Name: "x", Label: "Book", Properties: []string{"a"}, Kind: "vector"},
		{Name: "x", Label: "Book", Properties: []string{" "}, Kind: KindProperty},
	}
	for _, d := range bad {
		assert.Error(t, d.Validate(), "%+v", d)
	}
}

func TestParseSuite_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown field": `
name: s
queries: [{name: a, cypher: "RETURN 1", timeout: 3}]
`,
		"duplicate query": `
name: s
queries:
  - {name: a, cypher: "RETURN 1"}
  - {name: a, cypher: "RETURN 2"}
`,
		"duplicate index": `
name: s
queries: [{name: a, cypher: "RETURN 1"}]
indexes:
  - {name: i, label: Book, properties: [a], kind: property}
  - {name: i, label: Book, properties: [b], kind: property}
`,
		"fulltext index without query": `
name: s
queries: [{name: a, cypher: "RETURN 1"}]
indexes:
  - {name: t, label: Book, properties: [title], kind: fulltext}
`,
		"no queries": `
name: s
`,
		"no name": `
queries: [{name: a, cypher: "RETURN 1"}]
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSuite([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadSuite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	doc := `
name: people
queries:
  - name: adults
    cypher: |
      MATCH (p:Person) WHERE p.age >= $age RETURN count(p)
    params:
      age: 18
indexes:
  - {name: person_age, label: Person, properties: [age], kind: property}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	suite, err := LoadSuite(path)
	require.NoError(t, err)
	assert.Equal(t, "people", suite.Name)
	assert.Equal(t, "MATCH (p:Person) WHERE p.age >= $age RETURN count(p)", suite.Queries[0].Cypher)
	assert.Equal(t, 18, suite.Queries[0].Params["age"])
	assert.Empty(t, suite.Fulltext.Cypher)

	_, err = LoadSuite(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNamedQuery_WithParams(t *testing.T) {
	q := NamedQuery{Name: "q", Cypher: "RETURN $a, $b", Params: map[string]any{"a": 1, "b": 2}}
	merged := q.WithParams(map[string]any{"b": 3})

	assert.Equal(t, map[string]any{"a": 1, "b": 3}, merged.Params)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, q.Params)
	assert.Equal(t, q, q.WithParams(nil))
}
