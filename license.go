package imagebot

import (
	"net/url"
	"strings"
)

// DefaultRestrictedDomains are image hosts that block hot-linking; a chat
// client cannot render images served from them.
var DefaultRestrictedDomains = []string{
	"fbsbx.com", // Facebook CDN
}

// MediaRepositoryDomains mark URLs that must be resolved through the
// repository's metadata API before validation.
var MediaRepositoryDomains = []string{
	"wikimedia.org",
}

// ImageLicense classifies an image source by copyright safety.
type ImageLicense int

const (
	LicenseSafe    ImageLicense = iota // known free source (wikimedia, unsplash, etc.)
	LicenseUnknown                     // no info
	LicenseStock                       // stock agency
)

func (l ImageLicense) String() string {
	switch l {
	case LicenseSafe:
		return "safe"
	case LicenseStock:
		return "stock"
	default:
		return "unknown"
	}
}

// StockDomains are stock agencies that enforce copyright on hot-linked images.
var StockDomains = []string{
	"shutterstock",
	"gettyimages",
	"istockphoto",
	"adobestock",
	"depositphotos",
	"dreamstime",
	"123rf",
	"alamy",
	"freepik",
}

// FreeDomains are free / CC / attribution-friendly image sources.
var FreeDomains = []string{
	"wikimedia",
	"unsplash",
	"pexels",
	"pixabay",
	"flickr",
}

// CheckLicense classifies imageURL by its host. Stock wins over free.
func CheckLicense(imageURL string) ImageLicense {
	host := extractHost(imageURL)
	if host == "" {
		return LicenseUnknown
	}
	if containsAny(host, StockDomains) {
		return LicenseStock
	}
	if containsAny(host, FreeDomains) {
		return LicenseSafe
	}
	return LicenseUnknown
}

// hostMatches reports whether the host of rawURL contains any of domains.
// ok is false when rawURL has no parseable host.
func hostMatches(rawURL string, domains []string) (matched, ok bool) {
	host := extractHost(rawURL)
	if host == "" {
		return false, false
	}
	return containsAny(host, domains), true
}

// containsAny reports whether the lowercase s contains any of subs. Entries
// are lowercased and trimmed here, so lists from config may use any case.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		sub = strings.ToLower(strings.TrimSpace(sub))
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}
