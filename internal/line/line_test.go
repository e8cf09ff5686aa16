package line

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/anatolykoptev/go-imagebot"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

const testSecret = "channel-secret"

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type recordingEvents struct {
	mu     sync.Mutex
	events []imagebot.Event
	err    error
}

func (r *recordingEvents) Handle(_ context.Context, ev imagebot.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

const webhookBody = `{
  "destination": "Ubot",
  "events": [
    {
      "type": "message",
      "mode": "active",
      "timestamp": 1700000000000,
      "webhookEventId": "01HEVENT1",
      "deliveryContext": {"isRedelivery": false},
      "source": {"type": "user", "userId": "Uuser"},
      "replyToken": "reply-1",
      "message": {"type": "text", "id": "1001", "quoteToken": "q1", "text": "  橘貓  "}
    },
    {
      "type": "message",
      "mode": "active",
      "timestamp": 1700000000001,
      "webhookEventId": "01HEVENT2",
      "deliveryContext": {"isRedelivery": false},
      "source": {"type": "user", "userId": "Uuser"},
      "replyToken": "reply-2",
      "message": {"type": "sticker", "id": "1002", "quoteToken": "q2", "packageId": "1", "stickerId": "2", "stickerResourceType": "STATIC"}
    },
    {
      "type": "follow",
      "mode": "active",
      "timestamp": 1700000000002,
      "webhookEventId": "01HEVENT3",
      "deliveryContext": {"isRedelivery": false},
      "source": {"type": "user", "userId": "Uuser"},
      "replyToken": "reply-3",
      "follow": {"isUnblocked": false}
    }
  ]
}`

func postWebhook(t *testing.T, h http.Handler, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Line-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_DispatchesTextMessages(t *testing.T) {
	t.Parallel()

	events := &recordingEvents{}
	h := NewHandler(testSecret, events)

	rec := postWebhook(t, h, webhookBody, sign(webhookBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(events.events) != 1 {
		t.Fatalf("dispatched %d events, want 1 (text only)", len(events.events))
	}
	got := events.events[0]
	if got.ReplyToken != "reply-1" || got.Text != "橘貓" {
		t.Errorf("event = %+v, want reply-1 / trimmed text", got)
	}
}

func TestHandler_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		signature string
	}{
		{name: "missing", signature: ""},
		{name: "wrong secret", signature: base64.StdEncoding.EncodeToString([]byte("nope"))},
		{name: "not base64", signature: "%%%"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			events := &recordingEvents{}
			rec := postWebhook(t, NewHandler(testSecret, events), webhookBody, tc.signature)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(events.events) != 0 {
				t.Errorf("dispatched %d events on bad signature", len(events.events))
			}
		})
	}
}

func TestHandler_MalformedBody(t *testing.T) {
	t.Parallel()

	body := `{"events": [`
	rec := postWebhook(t, NewHandler(testSecret, &recordingEvents{}), body, sign(body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_HandlerErrorStillOK(t *testing.T) {
	t.Parallel()

	events := &recordingEvents{err: errors.New("reply token expired")}
	rec := postWebhook(t, NewHandler(testSecret, events), webhookBody, sign(webhookBody))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 so the platform does not redeliver", rec.Code)
	}
}

func TestHandler_EmptyEvents(t *testing.T) {
	t.Parallel()

	// The platform verifies the endpoint with an empty event list.
	body := `{"destination":"Ubot","events":[]}`
	rec := postWebhook(t, NewHandler(testSecret, &recordingEvents{}), body, sign(body))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

type replyCapture struct {
	mu    sync.Mutex
	auth  string
	path  string
	body  map[string]any
	calls int
}

func newReplyServer(t *testing.T, status int) (*httptest.Server, *replyCapture) {
	t.Helper()
	c := &replyCapture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		c.mu.Lock()
		c.auth = r.Header.Get("Authorization")
		c.path = r.URL.Path
		c.body = body
		c.calls++
		c.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"sentMessages":[{"id":"1","quoteToken":"q"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"Invalid reply token"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestReplier_SendsTextAndImage(t *testing.T) {
	t.Parallel()

	srv, c := newReplyServer(t, http.StatusOK)
	r, err := NewReplier("access-token", messaging_api.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewReplier: %v", err)
	}

	const img = "https://a.com/cat.jpg"
	err = r.Reply(context.Background(), imagebot.Reply{
		ReplyToken: "reply-1",
		Parts:      []imagebot.Part{imagebot.TextPart("一隻貓"), imagebot.ImagePart(img)},
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path != "/v2/bot/message/reply" {
		t.Errorf("path = %q", c.path)
	}
	if c.auth != "Bearer access-token" {
		t.Errorf("Authorization = %q", c.auth)
	}
	if c.body["replyToken"] != "reply-1" {
		t.Errorf("replyToken = %v", c.body["replyToken"])
	}
	msgs, _ := c.body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want 2", c.body["messages"])
	}
	text, _ := msgs[0].(map[string]any)
	if text["type"] != "text" || text["text"] != "一隻貓" {
		t.Errorf("text message = %v", text)
	}
	image, _ := msgs[1].(map[string]any)
	if image["type"] != "image" || image["originalContentUrl"] != img || image["previewImageUrl"] != img {
		t.Errorf("image message = %v", image)
	}
}

func TestReplier_APIError(t *testing.T) {
	t.Parallel()

	srv, c := newReplyServer(t, http.StatusBadRequest)
	r, err := NewReplier("access-token", messaging_api.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewReplier: %v", err)
	}

	err = r.Reply(context.Background(), imagebot.Reply{
		ReplyToken: "expired",
		Parts:      []imagebot.Part{imagebot.TextPart(imagebot.MsgApology)},
	})
	if err == nil {
		t.Fatal("expected error on 400")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls != 1 {
		t.Errorf("calls = %d, want exactly 1 (no retry)", c.calls)
	}
}
