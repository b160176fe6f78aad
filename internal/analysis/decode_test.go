package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBatch_JSONArray(t *testing.T) {
	input := `[
		{"labels": {"app": "checkout"}, "line": "boom"},
		{"labels": {"app": "search"}, "line": "slow"}
	]`

	entries, skipped, err := DecodeBatch(strings.NewReader(input))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, entries, 2)
	assert.Equal(t, "checkout", entries[0].Labels["app"])
	assert.Equal(t, "slow", entries[1].Line)
}

func TestDecodeBatch_NDJSON(t *testing.T) {
	input := `{"labels": {"app": "checkout"}, "line": "boom"}
{"labels": {"app": "search"}, "line": "slow"}`

	entries, skipped, err := DecodeBatch(strings.NewReader(input))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, entries, 2)
	assert.Equal(t, "search", entries[1].Labels["app"])
}

func TestDecodeBatch_SkipsMalformedLines(t *testing.T) {
	input := `{"labels": {"app": "checkout"}, "line": "boom"}
not json at all
{"labels": {"app": "search"}, "line": "slow"}`

	entries, skipped, err := DecodeBatch(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Len(t, entries, 2)
}

func TestDecodeBatch_SkipsOversizedLines(t *testing.T) {
	huge := `{"labels": {"app": "checkout"}, "line": "` +
		strings.Repeat("x", 2<<20) + `"}`
	input := `{"labels": {"app": "checkout"}, "line": "boom"}` + "\n" +
		huge + "\n" +
		`{"labels": {"app": "search"}, "line": "slow"}`

	entries, skipped, err := DecodeBatch(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, entries, 2)
	assert.Equal(t, "boom", entries[0].Line)
	assert.Equal(t, "slow", entries[1].Line)
}

func TestDecodeBatch_EmptyInput(t *testing.T) {
	entries, skipped, err := DecodeBatch(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestDecodeBatch_WhitespaceOnly(t *testing.T) {
	entries, skipped, err := DecodeBatch(strings.NewReader("  \n\t\n"))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Empty(t, entries)
}

func TestDecodeBatch_BlankLinesIgnored(t *testing.T) {
	input := "{\"line\": \"a\"}\n\n\n{\"line\": \"b\"}\n"

	entries, skipped, err := DecodeBatch(strings.NewReader(input))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Len(t, entries, 2)
}

func TestDecodeBatch_EmptyArray(t *testing.T) {
	entries, skipped, err := DecodeBatch(strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}
