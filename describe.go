package imagebot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	describeTimeout     = 10 * time.Second
	describeTemperature = 0.7
	describeMaxTokens   = 100
)

// DescribeSystemPrompt frames the model as an image captioning expert.
const DescribeSystemPrompt = "你是一個圖片搜尋專家，請根據圖片給出一個簡短描述（50 字內）。"

// Describer produces a short caption for a search query.
type Describer interface {
	Describe(ctx context.Context, query string) string
}

// DescriptionClient calls an Azure OpenAI chat deployment.
type DescriptionClient struct {
	client     *openai.Client
	deployment string
	Timeout    time.Duration // default: 10s
}

// NewDescriptionClient targets {endpoint}/openai/deployments/{deployment}
// with the given api-version. httpClient may be nil.
func NewDescriptionClient(endpoint, apiKey, deployment, apiVersion string, httpClient *http.Client) *DescriptionClient {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	cfg.APIVersion = apiVersion
	cfg.AzureModelMapperFunc = func(string) string { return deployment }
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &DescriptionClient{
		client:     openai.NewClientWithConfig(cfg),
		deployment: deployment,
		Timeout:    describeTimeout,
	}
}

// DescribeMessages builds the fixed two-message prompt for query.
func DescribeMessages(query string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: DescribeSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("請根據搜尋到的圖片給我關於 %s 的簡短描述（50 字內）。", query)},
	}
}

// Describe returns the trimmed first choice, or a localized fallback on
// any failure. It makes exactly one call.
func (d *DescriptionClient) Describe(ctx context.Context, query string) string {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = describeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       d.deployment,
		Messages:    DescribeMessages(query),
		Temperature: describeTemperature,
		MaxTokens:   describeMaxTokens,
	})
	if err != nil {
		msg := describeFallback(err)
		slog.Error("imagebot: description request failed", "query", query, "error", err.Error())
		return msg
	}
	if len(resp.Choices) == 0 {
		slog.Error("imagebot: description response has no choices", "query", query)
		return MsgDescribeEmpty
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func describeFallback(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return MsgDescribeTimeout
	}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	if errors.As(err, &apiErr) || errors.As(err, &reqErr) {
		return MsgDescribeAPIError
	}
	return MsgDescribeRequest
}
