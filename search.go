package imagebot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	searchTimeout = 15 * time.Second

	// DefaultCandidateCount is how many image results are requested per search.
	DefaultCandidateCount = 5
	// DefaultImageSize is the image size class requested from the provider.
	DefaultImageSize = "MEDIUM"
)

// SearchItem is one image result, in provider order.
type SearchItem struct {
	Link string
}

// SearchOpts configures a provider call.
// Zero values mean "use defaults": Count 5, ImageSize MEDIUM, Start 0, Timeout 15s.
type SearchOpts struct {
	Count     int
	Start     int
	ImageSize string
	Timeout   time.Duration
}

func (o SearchOpts) withDefaults() SearchOpts {
	if o.Count <= 0 {
		o.Count = DefaultCandidateCount
	}
	if o.ImageSize == "" {
		o.ImageSize = DefaultImageSize
	}
	if o.Timeout <= 0 {
		o.Timeout = searchTimeout
	}
	return o
}

// SearchProvider is an image search backend.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, opts SearchOpts) ([]SearchItem, error)
}

// ProviderError lets a provider state how a failure should be reported.
type ProviderError struct {
	Reason Reason
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CandidateInspector validates one candidate URL.
type CandidateInspector interface {
	Inspect(ctx context.Context, rawURL string) Verdict
}

// MetadataReader reads embedded attribution for an image URL.
type MetadataReader interface {
	ReadMetadata(ctx context.Context, rawURL string) (*ImageMetadata, error)
}

// MediaResolver maps repository page links to direct file URLs.
type MediaResolver interface {
	Matches(rawURL string) bool
	Resolve(ctx context.Context, rawURL string) (string, bool)
}

// Searcher finds one displayable image per query and caches the decision.
type Searcher struct {
	Provider  SearchProvider
	Inspector CandidateInspector
	Resolver  MediaResolver  // nil = no media repository resolution
	Metadata  MetadataReader // nil = no attribution lookup
	Cache     Cache
	Opts      SearchOpts

	// SkipFailureCache stops SearchFailed results from being cached.
	SkipFailureCache bool

	OnImageSearch func()
	OnPanic       func(tag string, r any)

	group singleflight.Group
}

// Search returns the image for query. It never fails: every problem is
// reported through the Result. Results, failures included, are cached
// per query; concurrent misses for one query share a single lookup.
func (s *Searcher) Search(ctx context.Context, query string) Result {
	if query == "" {
		return NotFound(ReasonNoResults)
	}

	if r, ok := s.Cache.Get(ctx, query); ok {
		slog.Info("imagebot: cache hit", "query", query, "outcome", r.Outcome.String())
		return r
	}

	v, _, _ := s.group.Do(query, func() (any, error) {
		if r, ok := s.Cache.Get(ctx, query); ok {
			return r, nil
		}
		r := s.lookup(ctx, query)
		if r.Outcome != OutcomeSearchFailed || !s.SkipFailureCache {
			s.Cache.Set(ctx, query, r)
		}
		return r, nil
	})
	return v.(Result)
}

func (s *Searcher) lookup(ctx context.Context, query string) Result {
	if s.OnImageSearch != nil {
		s.OnImageSearch()
	}

	opts := s.Opts.withDefaults()
	searchCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	items, err := s.Provider.Search(searchCtx, query, opts)
	cancel()
	if err != nil {
		reason := classifySearchError(err)
		slog.Error("imagebot: image search failed", "provider", s.Provider.Name(),
			"query", query, "reason", reason.String(), "error", err.Error())
		return SearchFailed(reason)
	}
	if len(items) == 0 {
		slog.Info("imagebot: no search results", "query", query)
		return NotFound(ReasonNoResults)
	}

	var first string
	var accepted []Verdict
	for _, item := range items {
		link := item.Link
		if link == "" {
			continue
		}
		if s.Resolver != nil && s.Resolver.Matches(link) {
			if resolved, ok := s.Resolver.Resolve(ctx, link); ok {
				slog.Info("imagebot: resolved media repository link", "from", link, "to", resolved)
				link = resolved
			}
		}
		if first == "" {
			first = link
		}

		if verdict, ok := s.inspect(ctx, link); ok && verdict.Accepted() {
			accepted = append(accepted, verdict)
		} else {
			slog.Info("imagebot: skipping image", "url", link)
		}
	}

	if len(accepted) > 0 {
		pick := accepted[0].Candidate
		if s.Metadata != nil && pick.Metadata == nil {
			meta, err := s.Metadata.ReadMetadata(ctx, pick.URL)
			if err != nil {
				slog.Debug("imagebot: attribution unavailable", "url", pick.URL, "error", err.Error())
			}
			pick.Metadata = meta
		}
		la := AssessLicense(pick)
		slog.Info("imagebot: valid image found", "query", query, "url", pick.URL,
			"accepted", len(accepted), "license", la.License.String(), "attribution", la.Attribution)
		return Found(pick.URL)
	}

	slog.Info("imagebot: no valid images found after filtering", "query", query)
	if first != "" {
		return Found(first)
	}
	return NotFound(ReasonNoValidSource)
}

// inspect validates one candidate, shielding the loop from panics.
func (s *Searcher) inspect(ctx context.Context, link string) (verdict Verdict, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if s.OnPanic != nil {
				s.OnPanic("candidateValidation", r)
			}
			slog.Error("imagebot: error validating image", "url", link, "panic", r)
			ok = false
		}
	}()
	return s.Inspector.Inspect(ctx, link), true
}

// classifySearchError maps a provider error to a Reason.
func classifySearchError(err error) Reason {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reason
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return ReasonTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ReasonConnection
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return ReasonMalformed
	}

	return ReasonRequest
}
