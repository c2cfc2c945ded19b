package dynamo

import (
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrKey(t *testing.T) {
	key := strKey("user_id", "u1")

	require.Len(t, key, 1)
	s, ok := key["user_id"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "u1", s.Value)
}

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{"push_token": "tok"})

	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", expr)
	assert.Equal(t, map[string]string{"#f0": "push_token"}, names)
	s, ok := values[":v0"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "tok", s.Value)
}

func TestBuildUpdateExpr_MultipleFields(t *testing.T) {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{
		"push_token": "tok",
		"enable":     true,
		"is_read":    false,
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(expr, "SET "))
	assert.Equal(t, 2, strings.Count(expr, ", "))
	assert.Len(t, names, 3)
	assert.Len(t, values, 3)
	// every placeholder referenced by the expression must be bound
	for placeholder := range names {
		assert.Contains(t, expr, placeholder)
	}
	for placeholder := range values {
		assert.Contains(t, expr, placeholder)
	}
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	_, _, values, err := buildUpdateExpr(map[string]interface{}{"enable": true})

	require.NoError(t, err)
	boolVal, isBool := values[":v0"].(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, _, _, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestChunkStrings(t *testing.T) {
	ids := make([]string, 60)
	for i := range ids {
		ids[i] = "id"
	}

	chunks := chunkStrings(ids, batchWriteMax)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 25)
	assert.Len(t, chunks[1], 25)
	assert.Len(t, chunks[2], 10)
}

func TestChunkStrings_Empty(t *testing.T) {
	assert.Nil(t, chunkStrings(nil, batchWriteMax))
}
