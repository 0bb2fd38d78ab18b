package bench

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// NamedQuery is a Cypher statement benchmarked under a stable name.
type NamedQuery struct {
	Name   string         `yaml:"name" json:"name"`
	Cypher string         `yaml:"cypher" json:"cypher"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	// Write runs the statement in a write session. Benchmarks are read-only
	// unless they say otherwise.
	Write bool `yaml:"write,omitempty" json:"write,omitempty"`
}

// WithParams returns a copy of q whose parameters are overlaid with params.
func (q NamedQuery) WithParams(params map[string]any) NamedQuery {
	if len(params) == 0 {
		return q
	}
	merged := make(map[string]any, len(q.Params)+len(params))
	for k, v := range q.Params {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	q.Params = merged
	return q
}

// IndexKind selects the Cypher form used to create an index.
type IndexKind string

const (
	KindProperty  IndexKind = "property"
	KindFulltext  IndexKind = "fulltext"
	KindComposite IndexKind = "composite"
)

// IndexDescriptor names an index on a node label and one or more properties.
type IndexDescriptor struct {
	Name       string    `yaml:"name" json:"name"`
	Label      string    `yaml:"label" json:"label"`
	Properties []string  `yaml:"properties" json:"properties"`
	Kind       IndexKind `yaml:"kind" json:"kind"`
}

// plainIdent matches names that need no quoting in Cypher.
var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdent renders name as a Cypher symbolic name, backtick-quoting it
// when it is not a plain identifier.
func quoteIdent(name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Validate checks that the descriptor can be rendered into a statement.
func (d IndexDescriptor) Validate() error {
	if blank(d.Name) {
		return errors.New("index name is empty")
	}
	if blank(d.Label) {
		return fmt.Errorf("index %s: label is empty", d.Name)
	}
	for _, p := range d.Properties {
		if blank(p) {
			return fmt.Errorf("index %s: property name is empty", d.Name)
		}
	}

	switch d.Kind {
	case KindProperty:
		if len(d.Properties) != 1 {
			return fmt.Errorf("index %s: property index needs exactly one property, got %d", d.Name, len(d.Properties))
		}
	case KindComposite:
		if len(d.Properties) < 2 {
			return fmt.Errorf("index %s: composite index needs at least two properties, got %d", d.Name, len(d.Properties))
		}
	case KindFulltext:
		if len(d.Properties) == 0 {
			return fmt.Errorf("index %s: fulltext index needs at least one property", d.Name)
		}
	default:
		return fmt.Errorf("index %s: unknown kind %q", d.Name, d.Kind)
	}
	return nil
}

// CreateStatement renders the idempotent CREATE statement for the descriptor.
func (d IndexDescriptor) CreateStatement() string {
	props := make([]string, len(d.Properties))
	for i, p := range d.Properties {
		props[i] = "n." + quoteIdent(p)
	}
	list := strings.Join(props, ", ")
	name, label := quoteIdent(d.Name), quoteIdent(d.Label)

	if d.Kind == KindFulltext {
		return fmt.Sprintf("CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:%s) ON EACH [%s]", name, label, list)
	}
	return fmt.Sprintf("CREATE INDEX %s IF NOT EXISTS FOR (n:%s) ON (%s)", name, label, list)
}

// DropStatement renders the idempotent DROP statement for an index name.
func DropStatement(name string) string {
	return fmt.Sprintf("DROP INDEX %s IF EXISTS", quoteIdent(name))
}

// IndexNames lists descriptor names in order.
func IndexNames(descriptors []IndexDescriptor) []string {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	return names
}

func validateIndexes(descriptors []IndexDescriptor) error {
	seen := make(map[string]struct{}, len(descriptors))
	var errs []error
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[d.Name]; dup {
			errs = append(errs, fmt.Errorf("index name %s is declared twice", d.Name))
		}
		seen[d.Name] = struct{}{}
	}
	return errors.Join(errs...)
}

func validateIndexNames(names []string) error {
	var errs []error
	for _, name := range names {
		if blank(name) {
			errs = append(errs, errors.New("index name is empty"))
		}
	}
	return errors.Join(errs...)
}
