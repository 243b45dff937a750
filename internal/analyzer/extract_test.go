package analyzer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_FindsEmbeddedObject(t *testing.T) {
	text := "Đây là kết quả:\n```json\n{\"riskLevel\":\"HIGH \",\"riskType\":\"scam\",\"confidenceScore\":91,\"summary\":\"x\"}\n```\nCảm ơn."
	got, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, "HIGH ", got["riskLevel"])
	assert.Equal(t, json.Number("91"), got["confidenceScore"])
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	text := `prefix {"extractedText":"he said \"}{\" then left","nested":{"a":1},"summary":"ok"} trailing {"other":true}`
	got, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, `he said "}{" then left`, got["extractedText"])
	assert.Equal(t, "ok", got["summary"])
	_, hasOther := got["other"]
	assert.False(t, hasOther, "only the first balanced span is used")
}

func TestExtractJSON_Failures(t *testing.T) {
	for _, in := range []string{
		"",
		"no json here",
		"{unterminated",
		"{not: valid json}",
		"} {\"a\": ",
	} {
		_, err := ExtractJSON(in)
		assert.ErrorIs(t, err, ErrNoJSON, in)
	}
}
