// Package imagebot answers chat messages with a validated image found by
// keyword search, plus a short generated description.
package imagebot

import (
	"net/http"
	"time"
)

const (
	// DefaultCacheSize is the maximum number of cached search results.
	DefaultCacheSize = 100
	// DefaultCacheTTL is how long a search result stays cached.
	DefaultCacheTTL = 5 * time.Minute

	defaultUserAgent = "Mozilla/5.0 (compatible; go-imagebot/1.0)"
)

// Config holds all dependencies injected by the consumer.
type Config struct {
	Provider   SearchProvider // required: image search backend
	Describer  Describer      // nil = image replies carry MsgDescribeEmpty
	Replier    Replier        // required for Dispatcher.Handle
	Cache      Cache          // nil = in-memory LRU of CacheSize entries, CacheTTL expiry
	HTTPClient *http.Client   // probes and media lookups (nil = plain client, per-call timeouts)

	CacheSize int           // default: DefaultCacheSize
	CacheTTL  time.Duration // default: DefaultCacheTTL
	UserAgent string        // default: "Mozilla/5.0 (compatible; go-imagebot/1.0)"

	// RestrictedDomains replaces DefaultRestrictedDomains when non-empty.
	RestrictedDomains []string

	// WikimediaAPIURL overrides DefaultWikimediaAPIURL.
	WikimediaAPIURL string

	// SkipFailureCache stops failed searches from being cached.
	// By default a failure is cached for the full TTL, like a miss.
	SkipFailureCache bool

	// Optional callbacks for metrics/logging.
	OnImageSearch func()
	OnPanic       func(tag string, r any)
}

// defaults fills zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if len(c.RestrictedDomains) == 0 {
		c.RestrictedDomains = DefaultRestrictedDomains
	}
	if c.WikimediaAPIURL == "" {
		c.WikimediaAPIURL = DefaultWikimediaAPIURL
	}
	if c.Cache == nil {
		c.Cache = NewResultCache(c.CacheSize, c.CacheTTL)
	}
}

// Bot bundles the wired components built from a Config.
type Bot struct {
	Validator  *Validator
	Searcher   *Searcher
	Dispatcher *Dispatcher
}

// New wires the validator, search client and dispatcher from cfg.
// cfg is copied; defaults are applied to the copy once.
func New(cfg Config) *Bot {
	cfg.defaults()

	v := NewValidator(cfg.HTTPClient, cfg.RestrictedDomains)
	v.UserAgent = cfg.UserAgent
	v.OnPanic = cfg.OnPanic

	s := &Searcher{
		Provider:  cfg.Provider,
		Inspector: v,
		Metadata:  v,
		Resolver: &WikimediaResolver{
			APIURL:     cfg.WikimediaAPIURL,
			HTTPClient: cfg.HTTPClient,
			UserAgent:  cfg.UserAgent,
		},
		Cache:            cfg.Cache,
		SkipFailureCache: cfg.SkipFailureCache,
		OnImageSearch:    cfg.OnImageSearch,
		OnPanic:          cfg.OnPanic,
	}

	return &Bot{
		Validator: v,
		Searcher:  s,
		Dispatcher: &Dispatcher{
			Searcher:  s,
			Validator: v,
			Describer: cfg.Describer,
			Replier:   cfg.Replier,
		},
	}
}
