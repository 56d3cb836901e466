package chat

import (
	"context"
	"testing"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCypherValidator(t *testing.T) {
	ctx := context.Background()
	readOnly := NewCypherValidator(true)

	q, err := readOnly.Validate(ctx, "```cypher\nMATCH (f:Fund) RETURN f.name LIMIT 30\n```")
	require.NoError(t, err)
	assert.Equal(t, "MATCH (f:Fund) RETURN f.name LIMIT 30", q)

	q, err = readOnly.Validate(ctx, "  MATCH (f:Fund {name: 'Set Income'}) RETURN f  ")
	require.NoError(t, err)
	assert.Equal(t, "MATCH (f:Fund {name: 'Set Income'}) RETURN f", q)

	for _, bad := range []string{
		"",
		"```\n```",
		"CREATE (f:Fund {name: 'x'})",
		"MATCH (f:Fund) SET f.name = 'x'",
		"match (n) detach delete n",
		"MERGE (m:FundManager {name: 'x'})",
	} {
		_, err := readOnly.Validate(ctx, bad)
		assert.ErrorIs(t, err, entity.ErrUnsafeQuery, bad)
	}

	q, err = NewCypherValidator(false).Validate(ctx, "CREATE (f:Fund {name: 'x'})")
	require.NoError(t, err)
	assert.Equal(t, "CREATE (f:Fund {name: 'x'})", q)
}
