package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/aideas-api/internal/generation"
	"github.com/Conceptual-Machines/aideas-api/internal/llm"
)

func newTestRouter(t *testing.T) (*gin.Engine, *generation.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orchestrator, err := generation.NewOrchestrator(generation.Options{
		Provider: llm.NewSyntheticProvider(),
		Model:    "synthetic",
	})
	require.NoError(t, err)

	router := gin.New()
	handler := NewGenerationHandler(orchestrator)
	router.POST("/api/v1/generations", handler.Generate)
	return router, orchestrator
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/generations", gin.H{
		"key":        "C",
		"style":      "pop",
		"difficulty": "BEGINNER",
		"tempo":      120,
		"length":     2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Cached  bool `json:"cached"`
		Content struct {
			ID               string          `json:"id"`
			Type             string          `json:"type"`
			Key              string          `json:"key"`
			Tempo            float64         `json:"tempo"`
			MusicData        json.RawMessage `json:"musicData"`
			NotationBlob     json.RawMessage `json:"notationBlob"`
			AudioTimelineRef string          `json:"audioTimelineRef"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.False(t, resp.Cached)
	assert.NotEmpty(t, resp.Content.ID)
	assert.Equal(t, "fragment", resp.Content.Type)
	assert.Equal(t, "C", resp.Content.Key)
	assert.Equal(t, 120.0, resp.Content.Tempo)
	assert.NotEmpty(t, resp.Content.MusicData)
	assert.NotEmpty(t, resp.Content.NotationBlob)
	assert.Contains(t, resp.Content.AudioTimelineRef, resp.Content.ID)
}

func TestGenerateEndpointIdempotent(t *testing.T) {
	router, _ := newTestRouter(t)

	body := gin.H{"key": "G", "style": "swing", "tempo": 100, "length": 2}

	first := postJSON(t, router, "/api/v1/generations", body)
	require.Equal(t, http.StatusCreated, first.Code)

	second := postJSON(t, router, "/api/v1/generations", body)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b struct {
		Cached  bool `json:"cached"`
		Content struct {
			ID string `json:"id"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))

	assert.False(t, a.Cached)
	assert.True(t, b.Cached)
	assert.Equal(t, a.Content.ID, b.Content.ID, "identical requests should resolve to the same content")
}

type failingProvider struct{ err error }

func (p *failingProvider) Name() string { return "failing" }

func (p *failingProvider) Generate(context.Context, *llm.ProviderRequest) (*llm.RawOutput, error) {
	return nil, p.err
}

func TestGenerateEndpointMapsProviderFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"timeout", llm.ErrProviderTimeout, http.StatusGatewayTimeout},
		{"unavailable", llm.ErrProvider, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orchestrator, err := generation.NewOrchestrator(generation.Options{
				Provider: &failingProvider{err: tc.err},
				Model:    "failing",
			})
			require.NoError(t, err)

			router := gin.New()
			router.POST("/api/v1/generations", NewGenerationHandler(orchestrator).Generate)

			w := postJSON(t, router, "/api/v1/generations", gin.H{
				"key": "C", "style": "pop", "tempo": 120, "length": 2,
			})
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

func TestGenerateEndpointRejectsBadRequest(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(t, router, "/api/v1/generations", gin.H{"key": "H"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, router, "/api/v1/generations", gin.H{"key": "C", "tempo": 500})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
