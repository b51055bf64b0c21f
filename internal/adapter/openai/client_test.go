package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(endpoint string) *Client {
	return NewClient(endpoint, "test-key", "gpt-4o-mini", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Draft(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Dear Rahim, stay hydrated.  "}}]}`))
	}))
	defer srv.Close()

	reply, err := testClient(srv.URL+"/v1/").Draft(context.Background(), domain.ReplyPrompt{
		Name:     "Rahim",
		Location: "Dhaka, Bangladesh",
		Question: "Is it safe to jog at noon?",
		Language: domain.LanguageBN,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dear Rahim, stay hydrated.", reply)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[0].Content, "HeatWatch AI")
	assert.Contains(t, got.Messages[1].Content, `"Rahim"`)
	assert.Contains(t, got.Messages[1].Content, "Is it safe to jog at noon?")
	assert.Contains(t, got.Messages[1].Content, "Language: Bengali")
}

func TestClient_Draft_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	reply, err := testClient(srv.URL).Draft(context.Background(), domain.ReplyPrompt{Name: "A", Location: "B"})
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestClient_Draft_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Draft(context.Background(), domain.ReplyPrompt{Name: "A", Location: "B"})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "Rate limit reached")
}

func TestClient_Draft_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testClient(url).Draft(context.Background(), domain.ReplyPrompt{Name: "A", Location: "B"})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClient_Report(t *testing.T) {
	var mu sync.Mutex
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		mu.Lock()
		prompts = append(prompts, req.Messages[1].Content)
		n := len(prompts)
		mu.Unlock()

		content := "- Record 41.2C on Tuesday"
		if n == 2 {
			content = "- Ramna Park: shaded green space"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	defer srv.Close()

	report, err := testClient(srv.URL).Report(context.Background(), "Dhaka, Bangladesh", domain.LanguageBN)
	require.NoError(t, err)
	assert.Equal(t, domain.LocationReport{
		Location:      "Dhaka, Bangladesh",
		Language:      domain.LanguageBN,
		NewsSummary:   "- Record 41.2C on Tuesday",
		ReliefCenters: "- Ramna Park: shaded green space",
	}, report)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "last 7 days")
	assert.Contains(t, prompts[0], `"Dhaka, Bangladesh"`)
	assert.Contains(t, prompts[0], "in Bengali")
	assert.Contains(t, prompts[1], "cooling centers")
	assert.Contains(t, prompts[1], "in Bengali")
}

func TestClient_Report_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"   "}}]}`))
	}))
	defer srv.Close()

	report, err := testClient(srv.URL).Report(context.Background(), "Dhaka", domain.LanguageEN)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Empty(t, report.NewsSummary)
}

func TestClient_Report_ReliefFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"- calm week"}}]}`))
	}))
	defer srv.Close()

	report, err := testClient(srv.URL).Report(context.Background(), "Dhaka", domain.LanguageEN)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "relief centres")
	assert.Equal(t, domain.LocationReport{}, report)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUserPrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt domain.ReplyPrompt
		want   []string
	}{
		{
			name:   "no question english",
			prompt: domain.ReplyPrompt{Name: "Ana", Location: "Lisbon", Language: domain.LanguageEN},
			want:   []string{noQuestion, "Language: English", `"Lisbon"`},
		},
		{
			name:   "whitespace question is treated as none",
			prompt: domain.ReplyPrompt{Name: "Ana", Location: "Lisbon", Question: "   "},
			want:   []string{noQuestion},
		},
		{
			name:   "bengali",
			prompt: domain.ReplyPrompt{Name: "Karim", Location: "Sylhet", Question: "Any shelters?", Language: domain.LanguageBN},
			want:   []string{"Any shelters?", "Language: Bengali"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := userPrompt(tt.prompt)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}
