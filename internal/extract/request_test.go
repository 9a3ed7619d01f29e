package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/extract-chat/internal/model"
	"github.com/sells-group/extract-chat/internal/schema"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr string
	}{
		{"", MsgMissingURL},
		{"   ", MsgMissingURL},
		{"example.com", MsgInvalidURL},
		{"ftp://example.com", MsgInvalidURL},
		{"http://x", ""},
		{"https://x", ""},
		{" https://example.com ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestNewRequest_NoSchema(t *testing.T) {
	req, err := NewRequest("https://example.com", "get titles", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com"}, req.URLs)
	assert.Equal(t, "get titles", req.Prompt)
	assert.Equal(t, 20, req.MaxResults)
	assert.Nil(t, req.Schema)

	body, err := json.Marshal(req.Firecrawl())
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.NotContains(t, decoded, "schema")
	assert.Equal(t, float64(20), decoded["max_results"])
	assert.Equal(t, []any{"https://example.com"}, decoded["urls"])
}

func TestNewRequest_WithSchema(t *testing.T) {
	s, err := schema.Build([]model.SchemaField{{Name: "title", Type: model.FieldString}})
	require.NoError(t, err)

	req, err := NewRequest("https://example.com", "get titles", s)
	require.NoError(t, err)

	fc := req.Firecrawl()
	require.NotNil(t, fc.Schema)
	assert.Equal(t, "object", fc.Schema["type"])
	assert.Contains(t, fc.Schema["properties"], "title")
}

func TestNewRequest_Rejections(t *testing.T) {
	_, err := NewRequest("example.com", "get titles", nil)
	assert.True(t, IsValidation(err))

	_, err = NewRequest("https://example.com", "  ", nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, MsgMissingPrompt, err.Error())
}

func TestHasHTTPScheme(t *testing.T) {
	assert.True(t, HasHTTPScheme("http://a"))
	assert.True(t, HasHTTPScheme("https://a"))
	assert.False(t, HasHTTPScheme("www.a.com"))
	assert.False(t, HasHTTPScheme(""))
}
