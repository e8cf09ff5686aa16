package line

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-imagebot"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

const replyTimeout = 10 * time.Second

// Replier sends replies through the Messaging API reply endpoint.
type Replier struct {
	api *messaging_api.MessagingApiAPI
}

// NewReplier builds a reply client for the channel access token. opts are
// applied after the default client, which times out after 10s.
func NewReplier(channelToken string, opts ...messaging_api.MessagingApiAPIOption) (*Replier, error) {
	opts = append([]messaging_api.MessagingApiAPIOption{
		messaging_api.WithHTTPClient(&http.Client{Timeout: replyTimeout}),
	}, opts...)
	api, err := messaging_api.NewMessagingApiAPI(channelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create messaging api client: %w", err)
	}
	return &Replier{api: api}, nil
}

// Reply implements imagebot.Replier. The reply token is single-use, so a
// failed send is not retried. The client is shared between requests, so the
// deadline comes from its own timeout rather than ctx.
func (r *Replier) Reply(_ context.Context, rep imagebot.Reply) error {
	req := &messaging_api.ReplyMessageRequest{
		ReplyToken: rep.ReplyToken,
		Messages:   toMessages(rep.Parts),
	}
	if _, err := r.api.ReplyMessage(req); err != nil {
		return fmt.Errorf("line reply: %w", err)
	}
	return nil
}

func toMessages(parts []imagebot.Part) []messaging_api.MessageInterface {
	msgs := make([]messaging_api.MessageInterface, 0, len(parts))
	for _, p := range parts {
		switch p.Kind {
		case imagebot.PartImage:
			msgs = append(msgs, &messaging_api.ImageMessage{
				OriginalContentUrl: p.OriginalURL,
				PreviewImageUrl:    p.PreviewURL,
			})
		default:
			msgs = append(msgs, &messaging_api.TextMessage{Text: p.Text})
		}
	}
	return msgs
}
