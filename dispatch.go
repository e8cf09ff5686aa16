package imagebot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Event is the part of an inbound chat message the bot consumes.
type Event struct {
	ReplyToken string
	Text       string // already trimmed by the webhook adapter
}

// PartKind distinguishes reply parts.
type PartKind int

const (
	PartText PartKind = iota
	PartImage
)

// Part is one message in a reply.
type Part struct {
	Kind        PartKind
	Text        string // PartText
	OriginalURL string // PartImage
	PreviewURL  string // PartImage
}

// TextPart returns a text message part.
func TextPart(text string) Part { return Part{Kind: PartText, Text: text} }

// ImagePart returns an image message part using url for both sizes.
func ImagePart(url string) Part { return Part{Kind: PartImage, OriginalURL: url, PreviewURL: url} }

// Reply is the outbound answer to one Event: a text part, optionally
// followed by an image part.
type Reply struct {
	ReplyToken string
	Parts      []Part
}

// Replier sends a composed reply back to the chat platform.
type Replier interface {
	Reply(ctx context.Context, r Reply) error
}

// ImageSearcher is the search side of the dispatcher.
type ImageSearcher interface {
	Search(ctx context.Context, query string) Result
}

// URLValidator is the re-check applied to the searcher's answer.
type URLValidator interface {
	Validate(ctx context.Context, rawURL string) bool
}

// Dispatcher turns one inbound Event into exactly one Reply.
type Dispatcher struct {
	Searcher  ImageSearcher
	Validator URLValidator
	Describer Describer // nil = image replies carry MsgDescribeEmpty
	Replier   Replier
}

// Handle composes and sends the reply for ev. The only error it returns
// is a failed send; nothing is retried.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	if d.Replier == nil {
		return errors.New("imagebot: dispatcher has no replier")
	}
	log := slog.With("event_id", uuid.NewString())
	log.Info("imagebot: received message", "text", ev.Text)

	parts := d.compose(ctx, log, ev.Text)
	if err := d.Replier.Reply(ctx, Reply{ReplyToken: ev.ReplyToken, Parts: parts}); err != nil {
		log.Error("imagebot: reply failed", "error", err.Error())
		return fmt.Errorf("send reply: %w", err)
	}
	log.Info("imagebot: reply sent", "parts", len(parts))
	return nil
}

// Compose returns the reply parts for query without sending anything.
func (d *Dispatcher) Compose(ctx context.Context, query string) []Part {
	return d.compose(ctx, slog.Default(), query)
}

func (d *Dispatcher) compose(ctx context.Context, log *slog.Logger, query string) []Part {
	res := d.Searcher.Search(ctx, query)
	if !res.IsFound() {
		log.Info("imagebot: no image to send", "outcome", res.Outcome.String(), "reason", res.Reason.String())
		return []Part{TextPart(MsgApology)}
	}

	if !d.Validator.Validate(ctx, res.URL) {
		log.Info("imagebot: image not uploadable, sending link", "url", res.URL)
		return []Part{TextPart(MsgLinkOnly + res.URL)}
	}

	text := MsgDescribeEmpty
	if d.Describer != nil {
		text = d.Describer.Describe(ctx, query)
	}
	if text == "" {
		text = MsgDescribeEmpty
	}
	return []Part{TextPart(text), ImagePart(res.URL)}
}
