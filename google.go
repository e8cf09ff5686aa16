package imagebot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
)

// GoogleProvider searches images through the Custom Search JSON API.
type GoogleProvider struct {
	EngineID string
	svc      *customsearch.Service
}

// NewGoogleProvider builds a provider for the programmable search engine
// engineID. endpoint is the API URL (e.g. https://www.googleapis.com/customsearch/v1);
// empty means the library default. client supplies the transport; nil uses
// http.DefaultTransport.
func NewGoogleProvider(ctx context.Context, apiKey, engineID, endpoint string, client *http.Client) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google api key is required")
	}
	if engineID == "" {
		return nil, errors.New("search engine id is required")
	}

	base := http.DefaultTransport
	if client != nil && client.Transport != nil {
		base = client.Transport
	}
	hc := &http.Client{Transport: &transport.APIKey{Key: apiKey, Transport: base}}

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(serviceBasePath(endpoint)))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create customsearch service: %w", err)
	}
	return &GoogleProvider{EngineID: engineID, svc: svc}, nil
}

// Name implements SearchProvider.
func (p *GoogleProvider) Name() string { return "google" }

// Search implements SearchProvider.
func (p *GoogleProvider) Search(ctx context.Context, query string, opts SearchOpts) ([]SearchItem, error) {
	opts = opts.withDefaults()

	res, err := p.svc.Cse.List().
		Cx(p.EngineID).
		Q(query).
		SearchType("image").
		ImgSize(opts.ImageSize).
		Start(int64(opts.Start)).
		Num(int64(opts.Count)).
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, &ProviderError{Reason: ReasonHTTP, Err: err}
		}
		return nil, err
	}

	items := make([]SearchItem, 0, len(res.Items))
	for _, it := range res.Items {
		if it == nil {
			continue
		}
		items = append(items, SearchItem{Link: it.Link})
	}
	return items, nil
}

// serviceBasePath turns the full API URL into the base path the client
// library expects; the library appends "customsearch/v1" itself.
func serviceBasePath(endpoint string) string {
	base := strings.TrimSuffix(strings.TrimRight(endpoint, "/"), "customsearch/v1")
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
