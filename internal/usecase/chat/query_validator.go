package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/futig/fundqa-bot/internal/entity"
)

var (
	codeFence    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	writeClauses = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP)\b`)
)

// CypherValidator cleans up model output into a runnable query. With readOnly
// set it rejects queries containing write clauses.
type CypherValidator struct {
	readOnly bool
}

func NewCypherValidator(readOnly bool) *CypherValidator {
	return &CypherValidator{readOnly: readOnly}
}

func (v *CypherValidator) Validate(_ context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if m := codeFence.FindStringSubmatch(query); m != nil {
		query = m[1]
	}
	if query == "" {
		return "", fmt.Errorf("%w: empty query", entity.ErrUnsafeQuery)
	}

	if v.readOnly {
		if clause := writeClauses.FindString(stripLiterals(query)); clause != "" {
			return "", fmt.Errorf("%w: write clause %s", entity.ErrUnsafeQuery, strings.ToUpper(clause))
		}
	}

	return query, nil
}

var stringLiteral = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`)

// stripLiterals blanks quoted strings so a fund named "Set Income" is not a SET clause.
func stripLiterals(query string) string {
	return stringLiteral.ReplaceAllString(query, "''")
}
