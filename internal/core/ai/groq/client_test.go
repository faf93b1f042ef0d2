package groq

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"recipe-scraper/internal/infrastructure/config"
	"recipe-scraper/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.GroqConfig {
	return config.GroqConfig{
		APIKey:       "gsk_test",
		BaseURL:      baseURL,
		WhisperModel: "whisper-large-v3-turbo",
		LlamaModel:   "llama-3.3-70b-versatile",
		VisionModel:  "vision-model",
		MaxTokens:    8000,
		Timeout:      5 * time.Second,
	}
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"id": "chatcmpl-1",
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestExtractRecipes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.3-70b-versatile", req["model"])
		assert.Equal(t, 0.1, req["temperature"])
		assert.Equal(t, 0.95, req["top_p"])
		assert.Equal(t, float64(8000), req["max_tokens"])

		messages := req["messages"].([]interface{})
		require.Len(t, messages, 2)
		assert.Equal(t, extractionSystemPrompt, messages[0].(map[string]interface{})["content"])
		assert.Equal(t, "the prompt", messages[1].(map[string]interface{})["content"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("```json\n{\"recipes\":[],\"total_recipes\":0}\n```")))
	}))
	defer srv.Close()

	result, err := NewClient(testConfig(srv.URL)).ExtractRecipes(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Empty(t, result.Recipes)
	assert.Equal(t, 0, result.TotalRecipes)
}

func TestExtractRecipesInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("Sorry, I can't help with that.")))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL)).ExtractRecipes(context.Background(), "p")
	assert.Error(t, err)
}

func TestExtractTextSendsDataURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model               string  `json:"model"`
			Temperature         float64 `json:"temperature"`
			MaxCompletionTokens int     `json:"max_completion_tokens"`
			Messages            []struct {
				Content []struct {
					Type     string `json:"type"`
					Text     string `json:"text"`
					ImageURL struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "vision-model", req.Model)
		assert.Equal(t, float64(1), req.Temperature)
		assert.Equal(t, 2000, req.MaxCompletionTokens)
		require.Len(t, req.Messages, 1)
		require.Len(t, req.Messages[0].Content, 2)
		assert.Equal(t, "image_url", req.Messages[0].Content[0].Type)
		assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", req.Messages[0].Content[0].ImageURL.URL)
		assert.Equal(t, ocrPrompt, req.Messages[0].Content[1].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("  1 cup flour\n2 eggs  ")))
	}))
	defer srv.Close()

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	text, err := NewClient(testConfig(srv.URL)).ExtractText(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, "1 cup flour\n2 eggs", text)
}

func TestTranscribeAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-large-v3-turbo", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		assert.Equal(t, "0", r.FormValue("temperature"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "audio_item1.m4a", header.Filename)
		assert.Equal(t, "fake-audio", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" Add the garlic. ","segments":[]}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "audio_item1.m4a")
	require.NoError(t, os.WriteFile(path, []byte("fake-audio"), 0o644))

	text, err := NewClient(testConfig(srv.URL)).TranscribeAudio(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Add the garlic.", text)
}

func TestAPIErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"tokens"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL)).ExtractRecipes(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, "groq API returned status 429: rate limited", err.Error())

	var ce *common.CustomError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "AI_SERVICE_ERROR", ce.Code)
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(config.GroqConfig{BaseURL: "http://localhost"})
	assert.False(t, c.Available())

	_, err := c.ExtractRecipes(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "AI_SERVICE_ERROR", common.AsCustomError(err).Code)
	_, err = c.ExtractText(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.TranscribeAudio(context.Background(), "/tmp/x.m4a")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSanitizeResponse(t *testing.T) {
	assert.Equal(t, "[IMAGE_DATA_REMOVED]", sanitizeResponse([]byte(`{"url":"data:image/png;base64,AAAA"}`)))
	assert.Equal(t, "plain", sanitizeResponse([]byte("plain")))
}
