package graph

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MemoryClient is an in-memory implementation of the Client interface used
// for unit testing without a running graph database. It answers scripted
// statements and keeps a catalogue of index names so that CREATE/DROP INDEX
// statements behave like the server's, including IF [NOT] EXISTS.
type MemoryClient struct {
	mu           sync.Mutex
	writeCalls   []ExecutedQuery
	readCalls    []ExecutedQuery
	responses    map[string]Result
	failures     map[string]error
	indexes      map[string]string
	err          error
	connectivity error
	closed       bool
	closeCalls   int
}

// ExecutedQuery captures a cypher statement and parameters executed against the graph.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// indexName matches a bare identifier or a backtick-quoted one with `` escapes.
const indexName = "(`(?:[^`]|``)+`|[A-Za-z_][A-Za-z0-9_]*)"

var (
	createIndexPattern = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:(FULLTEXT|RANGE|TEXT|POINT)\s+)?INDEX\s+` + indexName + `\s+(IF\s+NOT\s+EXISTS\s+)?FOR\b`)
	dropIndexPattern   = regexp.MustCompile(`(?is)^\s*DROP\s+INDEX\s+` + indexName + `(\s+IF\s+EXISTS)?\s*$`)
	showIndexPattern   = regexp.MustCompile(`(?is)^\s*SHOW\s+INDEXES\b`)
)

// NewMemoryClient instantiates the in-memory client with an empty catalogue.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		responses: make(map[string]Result),
		failures:  make(map[string]error),
		indexes:   make(map[string]string),
	}
}

// WithError configures the client to return the provided error for subsequent calls.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return the supplied error.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// Respond registers the result returned whenever cypher is executed.
// Statements are matched after whitespace normalisation.
func (m *MemoryClient) Respond(cypher string, res Result) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[normalize(cypher)] = res
	return m
}

// Fail registers an error returned whenever cypher is executed.
func (m *MemoryClient) Fail(cypher string, err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[normalize(cypher)] = err
	return m
}

// FailSyntax makes cypher fail the way the server rejects malformed statements.
func (m *MemoryClient) FailSyntax(cypher string) *MemoryClient {
	return m.Fail(cypher, &neo4j.Neo4jError{
		Code: CodeSyntaxError,
		Msg:  fmt.Sprintf("Invalid input: %q", strings.TrimSpace(cypher)),
	})
}

// SeedIndex adds an index to the catalogue as if it had been created earlier.
func (m *MemoryClient) SeedIndex(name, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes[name] = kind
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.precheck(); err != nil {
		return Result{}, err
	}
	m.writeCalls = append(m.writeCalls, ExecutedQuery{
		Query:  cypher,
		Params: cloneMap(params),
	})
	return m.execute(cypher)
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.precheck(); err != nil {
		return Result{}, err
	}
	m.readCalls = append(m.readCalls, ExecutedQuery{
		Query:  cypher,
		Params: cloneMap(params),
	})
	if createIndexPattern.MatchString(cypher) || dropIndexPattern.MatchString(cypher) {
		return Result{}, &neo4j.Neo4jError{
			Code: "Neo.ClientError.Statement.AccessMode",
			Msg:  "Schema operations are not allowed for AccessMode READ",
		}
	}
	return m.execute(cypher)
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MemoryClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// CloseCalls returns how many times Close was invoked.
func (m *MemoryClient) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// Indexes returns the sorted names in the index catalogue.
func (m *MemoryClient) Indexes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.indexes))
	for name := range m.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteCalls returns a snapshot of executed write queries.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.writeCalls...)
}

// ReadCalls returns a snapshot of executed read queries.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.readCalls...)
}

func (m *MemoryClient) precheck() error {
	if m.closed {
		return ErrClosed
	}
	return m.err
}

// execute must be called with m.mu held.
func (m *MemoryClient) execute(cypher string) (Result, error) {
	key := normalize(cypher)
	if err, ok := m.failures[key]; ok {
		return Result{}, err
	}

	if match := createIndexPattern.FindStringSubmatch(cypher); match != nil {
		kind, name, ifNotExists := strings.ToUpper(match[1]), unquoteName(match[2]), match[3] != ""
		if _, exists := m.indexes[name]; exists {
			if ifNotExists {
				return Result{}, nil
			}
			return Result{}, &neo4j.Neo4jError{
				Code: CodeIndexNameExists,
				Msg:  fmt.Sprintf("There already exists an index called '%s'.", name),
			}
		}
		if kind == "" {
			kind = "RANGE"
		}
		m.indexes[name] = kind
		return Result{}, nil
	}

	if match := dropIndexPattern.FindStringSubmatch(cypher); match != nil {
		name, ifExists := unquoteName(match[1]), match[2] != ""
		if _, exists := m.indexes[name]; !exists {
			if ifExists {
				return Result{}, nil
			}
			return Result{}, &neo4j.Neo4jError{
				Code: CodeIndexNotFound,
				Msg:  fmt.Sprintf("Unable to drop index called `%s`. There is no such index.", name),
			}
		}
		delete(m.indexes, name)
		return Result{}, nil
	}

	if showIndexPattern.MatchString(cypher) {
		res := Result{Keys: []string{"name", "type"}}
		for _, name := range sortedKeys(m.indexes) {
			res.Records = append(res.Records, Record{"name": name, "type": m.indexes[name]})
		}
		return res, nil
	}

	if res, ok := m.responses[key]; ok {
		return cloneResult(res), nil
	}
	return Result{Records: []Record{}}, nil
}

func unquoteName(name string) string {
	if len(name) >= 2 && name[0] == '`' && name[len(name)-1] == '`' {
		return strings.ReplaceAll(name[1:len(name)-1], "``", "`")
	}
	return name
}

func normalize(cypher string) string {
	return strings.Join(strings.Fields(cypher), " ")
}

func sortedKeys(src map[string]string) []string {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneResult(res Result) Result {
	out := Result{
		Keys:    append([]string(nil), res.Keys...),
		Records: make([]Record, 0, len(res.Records)),
		Summary: res.Summary,
	}
	for _, rec := range res.Records {
		out.Records = append(out.Records, Record(cloneMap(rec)))
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
