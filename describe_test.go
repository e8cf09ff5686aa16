package imagebot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(b)
}

// newAzureServer fakes an Azure OpenAI deployment and records the last request.
func newAzureServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, func() (*http.Request, chatRequest)) {
	t.Helper()

	var mu sync.Mutex
	var lastReq *http.Request
	var lastBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		lastReq = r.Clone(context.Background())
		lastBody = body
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, func() (*http.Request, chatRequest) {
		mu.Lock()
		defer mu.Unlock()
		return lastReq, lastBody
	}
}

func TestDescribe_RequestShape(t *testing.T) {
	t.Parallel()

	srv, last := newAzureServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("  一隻橘色的貓在窗邊曬太陽。  ")))
	})

	d := NewDescriptionClient(srv.URL, "secret", "gpt-4o-mini", "2024-02-15-preview", srv.Client())
	got := d.Describe(context.Background(), "橘貓")
	if want := "一隻橘色的貓在窗邊曬太陽。"; got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}

	req, body := last()
	if req == nil {
		t.Fatal("no request recorded")
	}
	if want := "/openai/deployments/gpt-4o-mini/chat/completions"; req.URL.Path != want {
		t.Errorf("path = %q, want %q", req.URL.Path, want)
	}
	if v := req.URL.Query().Get("api-version"); v != "2024-02-15-preview" {
		t.Errorf("api-version = %q", v)
	}
	if k := req.Header.Get("api-key"); k != "secret" {
		t.Errorf("api-key header = %q", k)
	}
	if body.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", body.Temperature)
	}
	if body.MaxTokens != 100 {
		t.Errorf("max_tokens = %d, want 100", body.MaxTokens)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(body.Messages))
	}
	if body.Messages[0].Role != "system" || body.Messages[0].Content != DescribeSystemPrompt {
		t.Errorf("system message = %+v", body.Messages[0])
	}
	if body.Messages[1].Role != "user" || !strings.Contains(body.Messages[1].Content, "橘貓") {
		t.Errorf("user message = %+v", body.Messages[1])
	}
}

func TestDescribe_Fallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		want    string
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			},
			want: MsgDescribeAPIError,
		},
		{
			name: "unparseable error body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("bad gateway"))
			},
			want: MsgDescribeAPIError,
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
			},
			want: MsgDescribeEmpty,
		},
		{
			name: "timeout",
			handler: func(_ http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
			want:    MsgDescribeTimeout,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := newAzureServer(t, tc.handler)
			d := NewDescriptionClient(srv.URL, "k", "dep", "2024-02-15-preview", srv.Client())
			if tc.timeout > 0 {
				d.Timeout = tc.timeout
			}
			if got := d.Describe(context.Background(), "cat"); got != tc.want {
				t.Errorf("Describe = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDescribe_ConnectionFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	d := NewDescriptionClient(endpoint, "k", "dep", "2024-02-15-preview", nil)
	if got := d.Describe(context.Background(), "cat"); got != MsgDescribeRequest {
		t.Errorf("Describe = %q, want %q", got, MsgDescribeRequest)
	}
}

func TestDescribeMessages(t *testing.T) {
	t.Parallel()

	msgs := DescribeMessages("日月潭")
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if want := "請根據搜尋到的圖片給我關於 日月潭 的簡短描述（50 字內）。"; msgs[1].Content != want {
		t.Errorf("user prompt = %q, want %q", msgs[1].Content, want)
	}
}
