package imagebot

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultWikimediaAPIURL is the Wikimedia Commons action API.
	DefaultWikimediaAPIURL = "https://commons.wikimedia.org/w/api.php"

	wikimediaTimeout = 10 * time.Second
)

// WikimediaResolver turns Wikimedia page and thumbnail links into direct
// file URLs through the Commons imageinfo API.
type WikimediaResolver struct {
	APIURL     string       // default: DefaultWikimediaAPIURL
	HTTPClient *http.Client // default: http.DefaultClient
	UserAgent  string
	Timeout    time.Duration // default: 10s
}

// Matches reports whether rawURL belongs to a media repository.
func (w *WikimediaResolver) Matches(rawURL string) bool {
	return containsAny(rawURL, MediaRepositoryDomains)
}

// Resolve looks up the direct file URL for imageURL.
// ok is false on any failure; the caller keeps the original URL.
func (w *WikimediaResolver) Resolve(ctx context.Context, imageURL string) (string, bool) {
	filename := WikimediaFilename(imageURL)
	if filename == "" {
		return "", false
	}

	resolved, err := w.lookup(ctx, filename)
	if err != nil {
		slog.Error("imagebot: wikimedia lookup failed", "file", filename, "error", err.Error())
		return "", false
	}
	if resolved == "" {
		slog.Warn("imagebot: no image info found", "file", filename)
		return "", false
	}
	return resolved, true
}

// WikimediaFilename extracts the decoded file name from the last path
// segment of imageURL. The query string is dropped and a "File:" page
// prefix is stripped.
func WikimediaFilename(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return ""
	}
	raw := u.EscapedPath()
	if i := strings.LastIndexByte(raw, '/'); i >= 0 {
		raw = raw[i+1:]
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	return strings.TrimPrefix(name, "File:")
}

type imageInfoResponse struct {
	Query struct {
		Pages map[string]struct {
			ImageInfo []struct {
				URL string `json:"url"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

func (w *WikimediaResolver) lookup(ctx context.Context, filename string) (string, error) {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = wikimediaTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	apiURL := w.APIURL
	if apiURL == "" {
		apiURL = DefaultWikimediaAPIURL
	}
	params := url.Values{
		"action": {"query"},
		"titles": {"File:" + filename},
		"prop":   {"imageinfo"},
		"iiprop": {"url"},
		"format": {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	if w.UserAgent != "" {
		req.Header.Set("User-Agent", w.UserAgent)
	}

	client := w.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikimedia api status %d", resp.StatusCode)
	}

	var body imageInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode wikimedia response: %w", err)
	}

	ids := make([]string, 0, len(body.Query.Pages))
	for id := range body.Query.Pages {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, comparePageIDs)

	for _, id := range ids {
		page := body.Query.Pages[id]
		slog.Debug("imagebot: wikimedia page", "page_id", id)
		if len(page.ImageInfo) > 0 {
			return page.ImageInfo[0].URL, nil
		}
	}
	return "", nil
}

// comparePageIDs orders page ids numerically. Ids that are not numbers sort
// last, by text.
func comparePageIDs(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
