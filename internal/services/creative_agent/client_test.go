package creative_agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaras/salesagent-sub000/internal/config"
	"github.com/numaras/salesagent-sub000/internal/models"
)

func testAgentConfig() *config.CreativeAgentConfig {
	cfg := config.GetCreativeAgentConfig()
	cfg.Timeout = 2 * time.Second
	cfg.GeminiAPIKey = "gemini-test-key"
	return cfg
}

func TestHTTPClientListFormats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/list_creative_formats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"formats": []map[string]interface{}{
				{"format_id": map[string]interface{}{"id": "display_300x250"}, "name": "MREC"},
				{"format_id": map[string]interface{}{"agent_url": "https://other.example.com", "id": "video_15s"}, "name": "Video",
					"output_format_ids": []interface{}{"video_15s_rendered"}},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(testAgentConfig())
	formats, err := c.ListFormats(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	require.Len(t, formats, 2)

	assert.Equal(t, srv.URL+"/", formats[0].FormatID.AgentURL)
	assert.False(t, formats[0].IsGenerative())
	assert.Equal(t, "https://other.example.com", formats[1].FormatID.AgentURL)
	assert.True(t, formats[1].IsGenerative())
}

func TestHTTPClientBuildSendsGeminiKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/build_creative", r.URL.Path)
		assert.Equal(t, "gemini-test-key", r.Header.Get("X-Gemini-Api-Key"))

		var req BuildRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Spring sale banner", req.Message)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(BuildResult{
			Status:         "completed",
			ContextID:      "ctx-1",
			CreativeOutput: map[string]interface{}{"url": "https://cdn.example.com/gen.png"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(testAgentConfig())
	res, err := c.BuildCreative(context.Background(), srv.URL, &BuildRequest{
		Message:        "Spring sale banner",
		TargetFormatID: models.FormatID{AgentURL: srv.URL, ID: "display_gen"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ctx-1", res.ContextID)
	assert.Equal(t, "https://cdn.example.com/gen.png", res.CreativeOutput["url"])
}

func TestHTTPClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(testAgentConfig())
	_, err := c.PreviewCreative(context.Background(), srv.URL, &PreviewRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestHTTPClientBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(testAgentConfig())
	for i := 0; i < 7; i++ {
		_, err := c.ListFormats(context.Background(), srv.URL)
		assert.Error(t, err)
	}
	assert.EqualValues(t, 5, calls.Load())
}
