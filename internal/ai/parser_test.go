package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendwatch/internal/types"
)

func TestParseJSONDirect(t *testing.T) {
	var out []Classification
	err := parseJSON(`[{"index":1,"importance":"high"}]`, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, types.ImportanceHigh, out[0].Importance)
}

func TestParseJSONCodeFence(t *testing.T) {
	text := "Here are the ratings:\n```json\n[{\"index\": 2, \"importance\": \"critical\"}]\n```\nDone."
	var out []Classification
	err := parseJSON(text, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].Index)
}

func TestParseJSONEmbeddedInProse(t *testing.T) {
	text := `Sure! The answer is [{"index": 1, "importance": "low"}] as requested.`
	var out []Classification
	err := parseJSON(text, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, types.ImportanceLow, out[0].Importance)
}

func TestParseJSONStringWithBrackets(t *testing.T) {
	text := `{"note": "a ] tricky [ string", "v": 1}`
	var out map[string]interface{}
	err := parseJSON(text, &out)
	require.NoError(t, err)
	assert.Equal(t, "a ] tricky [ string", out["note"])
}

func TestParseJSONGarbage(t *testing.T) {
	var out []Classification
	assert.Error(t, parseJSON("no json here", &out))
	assert.Error(t, parseJSON("", &out))
	assert.Error(t, parseJSON("[1, 2", &out))
}

func TestIsRetriableError(t *testing.T) {
	assert.False(t, isRetriableError(nil))
	assert.True(t, isRetriableError(errString("429 Too Many Requests")))
	assert.True(t, isRetriableError(errString("503 Service Unavailable")))
	assert.True(t, isRetriableError(errString("connection refused")))
	assert.False(t, isRetriableError(errString("401 unauthorized")))
	assert.False(t, isRetriableError(errString("invalid request")))
}

type errString string

func (e errString) Error() string { return string(e) }
