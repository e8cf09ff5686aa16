package imagebot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	probeTimeout = 5 * time.Second
	fetchTimeout = 10 * time.Second

	// MaxImageBytes is the largest declared Content-Length a chat client accepts.
	MaxImageBytes = 10 * 1024 * 1024
)

// AllowedMIMETypes are the image formats the chat client can display.
var AllowedMIMETypes = []string{"image/jpeg", "image/png", "image/gif"}

// ImageCandidate is a URL plus the probe results gathered while validating it.
type ImageCandidate struct {
	URL           string
	Status        int            // status of the HEAD probe
	ContentType   string         // Content-Type of the HEAD probe
	ContentLength string         // raw Content-Length of the HEAD probe
	Metadata      *ImageMetadata // attribution, read only for the chosen image
}

// Step is one predicate in the validation chain. Check returns a non-nil
// error describing why the candidate is rejected.
type Step struct {
	Name  string
	Check func(ctx context.Context, c *ImageCandidate) error
}

// Rejection names the failing step and its reason.
type Rejection struct {
	Step   string
	Reason string
}

func (r *Rejection) Error() string {
	return r.Step + ": " + r.Reason
}

// Verdict is the outcome of running the chain over one URL.
type Verdict struct {
	Candidate ImageCandidate
	Rejection *Rejection // nil when accepted
}

// Accepted reports whether every step passed.
func (v Verdict) Accepted() bool { return v.Rejection == nil }

// RunChain applies steps in order and stops at the first failure.
func RunChain(ctx context.Context, steps []Step, c *ImageCandidate) *Rejection {
	for _, s := range steps {
		if err := s.Check(ctx, c); err != nil {
			return &Rejection{Step: s.Name, Reason: err.Error()}
		}
	}
	return nil
}

// Validator decides whether a chat client can display an image URL.
// It performs network probes but holds no per-call state, so one Validator
// may be shared by concurrent requests.
type Validator struct {
	HTTPClient        *http.Client
	RestrictedDomains []string
	UserAgent         string
	ProbeTimeout      time.Duration // HEAD probes (default: 5s)
	FetchTimeout      time.Duration // content GET (default: 10s)
	MaxBytes          int64         // default: MaxImageBytes

	OnPanic func(tag string, r any)
}

// NewValidator returns a Validator with default timeouts and size ceiling.
// A nil client means a plain http.Client; nil restricted means DefaultRestrictedDomains.
func NewValidator(client *http.Client, restricted []string) *Validator {
	if client == nil {
		client = &http.Client{}
	}
	if restricted == nil {
		restricted = DefaultRestrictedDomains
	}
	return &Validator{
		HTTPClient:        client,
		RestrictedDomains: restricted,
		UserAgent:         defaultUserAgent,
		ProbeTimeout:      probeTimeout,
		FetchTimeout:      fetchTimeout,
		MaxBytes:          MaxImageBytes,
	}
}

// Steps returns the validation chain in evaluation order:
//  1. restricted-domain: host denylist, no network
//  2. reachability: https only, HEAD must answer 200
//  3. mime-type: extension must map to an allowed image type
//  4. size: declared Content-Length within MaxBytes
//  5. content-sniff: GET must serve a non-webp image
func (v *Validator) Steps() []Step {
	return []Step{
		{Name: "restricted-domain", Check: v.checkRestrictedDomain},
		{Name: "reachability", Check: v.checkReachable},
		{Name: "mime-type", Check: v.checkMIMEType},
		{Name: "size", Check: v.checkSize},
		{Name: "content-sniff", Check: v.checkContent},
	}
}

// Validate reports whether rawURL passes the whole chain.
func (v *Validator) Validate(ctx context.Context, rawURL string) bool {
	return v.Inspect(ctx, rawURL).Accepted()
}

// Inspect runs the chain over rawURL and returns the probed candidate with
// the first failing step, if any. Panics are recovered as rejections.
func (v *Validator) Inspect(ctx context.Context, rawURL string) (verdict Verdict) {
	verdict.Candidate.URL = rawURL

	defer func() {
		if r := recover(); r != nil {
			if v.OnPanic != nil {
				v.OnPanic("imageValidation", r)
			}
			slog.Error("imagebot: validation panic", "url", rawURL, "panic", r)
			verdict.Rejection = &Rejection{Step: "panic", Reason: fmt.Sprint(r)}
		}
	}()

	verdict.Rejection = RunChain(ctx, v.Steps(), &verdict.Candidate)
	if verdict.Rejection != nil {
		slog.Info("imagebot: image rejected", "url", rawURL,
			"step", verdict.Rejection.Step, "reason", verdict.Rejection.Reason)
		return verdict
	}

	slog.Info("imagebot: image is valid", "url", rawURL)
	return verdict
}

func (v *Validator) checkRestrictedDomain(_ context.Context, c *ImageCandidate) error {
	matched, ok := hostMatches(c.URL, v.RestrictedDomains)
	if !ok {
		return errors.New("url has no host")
	}
	if matched {
		return errors.New("host is on the restricted list")
	}
	return nil
}

func (v *Validator) checkReachable(ctx context.Context, c *ImageCandidate) error {
	// Literal prefix on purpose: "HTTPS://" is not accepted either.
	if !strings.HasPrefix(c.URL, "https://") {
		return errors.New("not served over https")
	}

	status, header, err := v.head(ctx, c.URL, false)
	if err != nil {
		return fmt.Errorf("not accessible: %w", err)
	}
	c.Status = status
	c.ContentType = header.Get("Content-Type")
	c.ContentLength = header.Get("Content-Length")

	if status != http.StatusOK {
		return fmt.Errorf("not accessible (status %d)", status)
	}
	return nil
}

// checkMIMEType only trusts the extension. When the guess fails the URL is
// re-probed and its Content-Type logged, but the candidate is rejected either way.
func (v *Validator) checkMIMEType(ctx context.Context, c *ImageCandidate) error {
	guessed := guessMIMEType(c.URL)
	if slices.Contains(AllowedMIMETypes, guessed) {
		return nil
	}
	slog.Warn("imagebot: invalid MIME type based on file extension", "mime", guessed, "url", c.URL)

	_, header, err := v.head(ctx, c.URL, true)
	if err != nil {
		return fmt.Errorf("extension type %q not allowed; re-probe failed: %w", guessed, err)
	}
	if ct := header.Get("Content-Type"); !slices.Contains(AllowedMIMETypes, ct) {
		slog.Warn("imagebot: invalid MIME type from Content-Type", "mime", ct, "url", c.URL)
	}
	return fmt.Errorf("extension type %q not allowed", guessed)
}

func (v *Validator) checkSize(_ context.Context, c *ImageCandidate) error {
	raw := strings.TrimSpace(c.ContentLength)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("unreadable Content-Length %q", raw)
	}
	if n > v.maxBytes() {
		return fmt.Errorf("size %d exceeds %d bytes", n, v.maxBytes())
	}
	return nil
}

func (v *Validator) checkContent(ctx context.Context, c *ImageCandidate) error {
	r, err := v.fetchImage(ctx, c.URL, false)
	if err != nil {
		return fmt.Errorf("content fetch failed: %w", err)
	}
	if r.Status != http.StatusOK {
		return fmt.Errorf("content fetch status %d", r.Status)
	}
	if !strings.Contains(r.ContentType, "image") {
		return fmt.Errorf("not an image (%q)", r.ContentType)
	}
	if strings.Contains(r.ContentType, "webp") {
		return errors.New("webp is not supported")
	}
	return nil
}

// head issues a HEAD request and returns status and headers.
// follow controls whether redirects are followed.
func (v *Validator) head(ctx context.Context, rawURL string, follow bool) (int, http.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, v.probeTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", v.UserAgent)

	client := v.client()
	if !follow {
		noFollow := *client
		noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		client = &noFollow
	}

	resp, err := client.Do(req) //nolint:gosec // URL comes from search results
	if err != nil {
		return 0, nil, err
	}
	resp.Body.Close()
	return resp.StatusCode, resp.Header, nil
}

func (v *Validator) client() *http.Client {
	if v.HTTPClient == nil {
		return http.DefaultClient
	}
	return v.HTTPClient
}

func (v *Validator) probeTimeout() time.Duration {
	if v.ProbeTimeout > 0 {
		return v.ProbeTimeout
	}
	return probeTimeout
}

func (v *Validator) fetchTimeout() time.Duration {
	if v.FetchTimeout > 0 {
		return v.FetchTimeout
	}
	return fetchTimeout
}

func (v *Validator) maxBytes() int64 {
	if v.MaxBytes > 0 {
		return v.MaxBytes
	}
	return MaxImageBytes
}

// guessMIMEType maps the extension of the URL path to a MIME type,
// without parameters. Returns "" when unknown.
func guessMIMEType(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	if ext == "" {
		return ""
	}
	mt := mime.TypeByExtension(strings.ToLower(ext))
	if idx := strings.IndexByte(mt, ';'); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	return mt
}
