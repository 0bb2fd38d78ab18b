package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Server status codes the benchmark cares about.
const (
	CodeSyntaxError         = "Neo.ClientError.Statement.SyntaxError"
	CodeUnauthorized        = "Neo.ClientError.Security.Unauthorized"
	CodeAuthRateLimit       = "Neo.ClientError.Security.AuthenticationRateLimit"
	CodeTokenExpired        = "Neo.ClientError.Security.TokenExpired"
	CodeCredentialsExpired  = "Neo.ClientError.Security.CredentialsExpired"
	CodeForbidden           = "Neo.ClientError.Security.Forbidden"
	CodeIndexNotFound       = "Neo.ClientError.Schema.IndexNotFound"
	CodeIndexAlreadyExists  = "Neo.ClientError.Schema.IndexAlreadyExists"
	CodeEquivalentSchema    = "Neo.ClientError.Schema.EquivalentSchemaRuleAlreadyExists"
	CodeIndexNameExists     = "Neo.ClientError.Schema.IndexWithNameAlreadyExists"
	CodeDatabaseUnavailable = "Neo.TransientError.General.DatabaseUnavailable"
)

// classify tags transport and authentication failures with ErrUnavailable and
// leaves statement errors untouched. Permission errors such as
// Security.Forbidden are statement errors: the session is still usable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrClosed) {
		return err
	}
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	switch ErrorCode(err) {
	case CodeUnauthorized, CodeAuthRateLimit, CodeTokenExpired, CodeCredentialsExpired, CodeDatabaseUnavailable:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// unavailable tags any connectivity check failure with ErrUnavailable.
func unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// ErrorCode returns the Neo4j status code carried by err, or "" when err is not
// a server error.
func ErrorCode(err error) string {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return neoErr.Code
	}
	return ""
}

// IsServerError reports whether err originated from the database engine.
func IsServerError(err error) bool {
	var neoErr *neo4j.Neo4jError
	return errors.As(err, &neoErr)
}

// IsSchemaNotFound reports whether a DROP failed only because the index is
// already gone. Older servers report this without IF EXISTS support.
func IsSchemaNotFound(err error) bool {
	if ErrorCode(err) == CodeIndexNotFound {
		return true
	}
	return IsServerError(err) && strings.Contains(err.Error(), "does not exist")
}

// IsSchemaExists reports whether a CREATE failed only because an equivalent
// index is already present.
func IsSchemaExists(err error) bool {
	switch ErrorCode(err) {
	case CodeIndexAlreadyExists, CodeEquivalentSchema, CodeIndexNameExists:
		return true
	}
	return IsServerError(err) && strings.Contains(err.Error(), "already exists")
}
