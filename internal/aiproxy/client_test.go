package aiproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFoodParse(t *testing.T) {
	parsed, err := decodeFoodParse(`{"name":"oatmeal with banana","calories":310,"protein_g":9,"carbs_g":58,"fat_g":5}`)
	require.NoError(t, err)
	assert.Equal(t, "oatmeal with banana", parsed.Name)
	assert.Equal(t, 310.0, parsed.Calories)
	assert.Equal(t, 9.0, parsed.ProteinG)
}

func TestDecodeFoodParseStripsMarkdownFence(t *testing.T) {
	content := "```json\n{\"name\":\"greek salad\",\"calories\":220,\"protein_g\":6,\"carbs_g\":12,\"fat_g\":16}\n```"
	parsed, err := decodeFoodParse(content)
	require.NoError(t, err)
	assert.Equal(t, "greek salad", parsed.Name)
	assert.Equal(t, 220.0, parsed.Calories)
}

func TestDecodeFoodParseToleratesLeadingProse(t *testing.T) {
	content := `Sure! Here is the breakdown: {"name":"banana","calories":105,"protein_g":1.3,"carbs_g":27,"fat_g":0.4}`
	parsed, err := decodeFoodParse(content)
	require.NoError(t, err)
	assert.Equal(t, "banana", parsed.Name)
}

func TestDecodeFoodParseRejectsGarbage(t *testing.T) {
	for _, content := range []string{
		"",
		"I cannot help with that.",
		`{"calories":100}`,
		`{"name":`,
	} {
		_, err := decodeFoodParse(content)
		assert.Error(t, err, content)
	}
}
