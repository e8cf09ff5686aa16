package line

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go-imagebot"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// EventHandler processes one inbound chat event.
type EventHandler interface {
	Handle(ctx context.Context, ev imagebot.Event) error
}

// Handler is the LINE webhook endpoint. It verifies the X-Line-Signature
// header and hands text message events to the dispatcher one by one, on the
// request goroutine.
type Handler struct {
	channelSecret string
	events        EventHandler
}

// NewHandler returns a webhook handler for the channel identified by secret.
func NewHandler(channelSecret string, events EventHandler) *Handler {
	return &Handler{channelSecret: channelSecret, events: events}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cb, err := webhook.ParseRequest(h.channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			slog.Warn("line: invalid webhook signature", "remote", r.RemoteAddr)
		} else {
			slog.Warn("line: malformed webhook body", "error", err.Error())
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// Replies must go out even if LINE drops the connection first.
	ctx := context.WithoutCancel(r.Context())

	for _, event := range cb.Events {
		ev, ok := textEvent(event)
		if !ok {
			slog.Debug("line: ignoring event", "type", event.GetType())
			continue
		}
		if err := h.events.Handle(ctx, ev); err != nil {
			slog.Error("line: handling message failed", "error", err.Error())
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// textEvent extracts a text message event. The text is trimmed here once;
// the rest of the pipeline uses it verbatim.
func textEvent(event webhook.EventInterface) (imagebot.Event, bool) {
	msg, ok := event.(webhook.MessageEvent)
	if !ok {
		return imagebot.Event{}, false
	}
	text, ok := msg.Message.(webhook.TextMessageContent)
	if !ok {
		return imagebot.Event{}, false
	}
	return imagebot.Event{
		ReplyToken: msg.ReplyToken,
		Text:       strings.TrimSpace(text.Text),
	}, true
}
