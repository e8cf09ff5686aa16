package imagebot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// metadataPrefixBytes bounds how much of the chosen image is read for
	// EXIF/IPTC/XMP attribution. The rest of the body is never downloaded.
	metadataPrefixBytes = 256 * 1024
	maxRedirects        = 3
)

// fetchResult holds the response of a streamed image GET.
type fetchResult struct {
	Status      int
	ContentType string
	Prefix      []byte // up to metadataPrefixBytes of a 200 body, when asked for
}

// fetchImage issues a streamed GET for imageURL. The body is only read when
// readPrefix is set and the response is a 200; otherwise it is closed after
// the headers.
func (v *Validator) fetchImage(ctx context.Context, imageURL string, readPrefix bool) (*fetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, v.fetchTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", v.UserAgent)

	client := *v.client()
	client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.New("too many redirects")
		}
		return nil
	}

	resp, err := client.Do(req) //nolint:gosec // URL comes from search results
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	r := &fetchResult{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if !readPrefix || resp.StatusCode != http.StatusOK {
		return r, nil
	}

	// A short read still carries the leading metadata segments.
	r.Prefix, err = io.ReadAll(io.LimitReader(resp.Body, metadataPrefixBytes))
	if err != nil && len(r.Prefix) == 0 {
		return r, fmt.Errorf("read image prefix: %w", err)
	}
	return r, nil
}

// ReadMetadata downloads the leading bytes of imageURL and extracts its
// attribution metadata. It is meant for the one image that will be sent,
// after it passed the chain.
func (v *Validator) ReadMetadata(ctx context.Context, imageURL string) (*ImageMetadata, error) {
	r, err := v.fetchImage(ctx, imageURL, true)
	if err != nil {
		return nil, err
	}
	if r.Status != http.StatusOK {
		return nil, fmt.Errorf("metadata fetch status %d", r.Status)
	}
	return ExtractImageMetadata(r.Prefix, r.ContentType)
}
