package bench

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed suites/books.yaml
var booksSuite []byte

// Suite is a battery of queries timed before and after its indexes exist,
// plus a full-text query that needs the full-text index to run at all.
type Suite struct {
	Name           string            `yaml:"name"`
	Queries        []NamedQuery      `yaml:"queries"`
	Indexes        []IndexDescriptor `yaml:"indexes"`
	Fulltext       NamedQuery        `yaml:"fulltext"`
	FulltextParams map[string]any    `yaml:"fulltext_params"`
}

// DefaultSuite returns the built-in Book catalogue suite.
func DefaultSuite() (Suite, error) {
	return ParseSuite(booksSuite)
}

// LoadSuite reads and validates a YAML suite definition.
func LoadSuite(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("read suite %s: %w", path, err)
	}
	suite, err := ParseSuite(data)
	if err != nil {
		return Suite{}, fmt.Errorf("suite %s: %w", path, err)
	}
	return suite, nil
}

// ParseSuite decodes a YAML suite. Unknown fields are rejected.
func ParseSuite(data []byte) (Suite, error) {
	var suite Suite
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&suite); err != nil {
		return Suite{}, fmt.Errorf("decode suite: %w", err)
	}
	for i := range suite.Queries {
		suite.Queries[i].Cypher = strings.TrimSpace(suite.Queries[i].Cypher)
	}
	suite.Fulltext.Cypher = strings.TrimSpace(suite.Fulltext.Cypher)
	if err := suite.Validate(); err != nil {
		return Suite{}, err
	}
	return suite, nil
}

// Validate checks names are present and unique and that every index can be
// rendered. A suite declaring a full-text index must also declare the
// full-text query.
func (s Suite) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("suite name is required"))
	}
	if len(s.Queries) == 0 {
		errs = append(errs, errors.New("suite has no queries"))
	}

	seen := make(map[string]struct{}, len(s.Queries))
	for i, q := range s.Queries {
		if q.Name == "" {
			errs = append(errs, fmt.Errorf("query #%d has no name", i+1))
			continue
		}
		if q.Cypher == "" {
			errs = append(errs, fmt.Errorf("query %q has no cypher", q.Name))
		}
		if _, dup := seen[q.Name]; dup {
			errs = append(errs, fmt.Errorf("query name %q is declared twice", q.Name))
		}
		seen[q.Name] = struct{}{}
	}

	if err := validateIndexes(s.Indexes); err != nil {
		errs = append(errs, err)
	}

	hasFulltextIndex := false
	for _, d := range s.Indexes {
		if d.Kind == KindFulltext {
			hasFulltextIndex = true
		}
	}
	switch {
	case s.Fulltext.Cypher != "" && s.Fulltext.Name == "":
		errs = append(errs, errors.New("fulltext query has no name"))
	case s.Fulltext.Cypher == "" && hasFulltextIndex:
		errs = append(errs, errors.New("suite declares a fulltext index but no fulltext query"))
	}

	return errors.Join(errs...)
}
