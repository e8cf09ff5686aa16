package imagebot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/bep/imagemeta"
)

// ImageMetadata holds the attribution fields embedded in an image file.
// Only tag text is read; pixel data is never decoded.
type ImageMetadata struct {
	Copyright    string // EXIF Copyright / IPTC CopyrightNotice
	Artist       string // EXIF Artist / IPTC Byline
	Credit       string // IPTC Credit
	Source       string // IPTC Source
	License      string // XMP License
	WebStatement string // XMP WebStatement
	UsageTerms   string // XMP UsageTerms
	Rights       string // dc:rights
	Creator      string // dc:creator
}

// Attribution returns the most specific credit line available, or "".
func (m *ImageMetadata) Attribution() string {
	if m == nil {
		return ""
	}
	return firstNonEmpty(m.Artist, m.Creator, m.Credit, m.Copyright, m.Rights, m.Source)
}

// stockKeywords fingerprint stock agencies inside metadata text.
var stockKeywords = []string{
	"shutterstock",
	"getty images",
	"gettyimages",
	"istock",
	"alamy",
	"depositphotos",
	"dreamstime",
	"123rf",
	"adobe stock",
	"freepik",
}

// ccLicenseSegments identify a Creative Commons license or public-domain URL.
var ccLicenseSegments = []string{
	"creativecommons.org/licenses/",
	"creativecommons.org/publicdomain/",
}

// IsStockByMetadata reports whether a rights/credit field names a stock agency.
func IsStockByMetadata(meta *ImageMetadata) bool {
	if meta == nil {
		return false
	}
	for _, f := range []string{meta.Copyright, meta.Artist, meta.Credit, meta.Source, meta.Rights, meta.Creator} {
		if containsAny(strings.ToLower(f), stockKeywords) {
			return true
		}
	}
	return false
}

// IsCCByMetadata reports whether a license field references Creative Commons.
func IsCCByMetadata(meta *ImageMetadata) bool {
	if meta == nil {
		return false
	}
	for _, f := range []string{meta.License, meta.WebStatement, meta.UsageTerms, meta.Rights} {
		if containsAny(strings.ToLower(f), ccLicenseSegments) {
			return true
		}
	}
	return false
}

// wantedTags maps (source, tag-name) to the tags we read.
var wantedTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {"Copyright": true, "Artist": true},
	imagemeta.IPTC: {"CopyrightNotice": true, "Byline": true, "Credit": true, "Source": true},
	imagemeta.XMP: {
		"License":      true,
		"WebStatement": true,
		"UsageTerms":   true,
		"Rights":       true,
		"Creator":      true,
	},
}

// metadataFormat maps a served Content-Type to the decoder imagemeta needs.
// Only JPEG and PNG are probed; GIF carries no EXIF/IPTC/XMP block we read.
func metadataFormat(contentType string) (imagemeta.ImageFormat, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return imagemeta.ImageFormatAuto, false
	}
	switch mt {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return imagemeta.JPEG, true
	case "image/png":
		return imagemeta.PNG, true
	}
	return imagemeta.ImageFormatAuto, false
}

// ExtractImageMetadata parses EXIF/IPTC/XMP attribution from the leading
// bytes of an image served as contentType. A truncated file is fine as long
// as the metadata segments come first, which is the case for JPEG and PNG
// written by common tools. Returns nil, nil for unsupported formats or when
// nothing useful is found. Tags read before a decode error are kept.
func ExtractImageMetadata(data []byte, contentType string) (*ImageMetadata, error) {
	format, ok := metadataFormat(contentType)
	if !ok || len(data) == 0 {
		return nil, nil
	}

	meta := &ImageMetadata{}
	found := false

	err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: format,
		Sources:     imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return wantedTags[ti.Source][ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if setMetadataField(meta, ti.Tag, tagValueString(ti.Value)) {
				found = true
			}
			return nil
		},
	})
	// The prefix is cut at metadataPrefixBytes, so unexpected EOF is routine.
	if err != nil && !imagemeta.IsInvalidFormat(err) && !errors.Is(err, io.ErrUnexpectedEOF) {
		err = fmt.Errorf("decode %s metadata: %w", format, err)
	} else {
		err = nil
	}

	if !found {
		return nil, err
	}
	return meta, err
}

// setMetadataField stores s under the field for tag. Returns false when s
// is empty or the tag is not tracked.
func setMetadataField(meta *ImageMetadata, tag, s string) bool {
	if s == "" {
		return false
	}
	switch tag {
	case "Copyright", "CopyrightNotice":
		meta.Copyright = s
	case "Artist", "Byline":
		meta.Artist = s
	case "Credit":
		meta.Credit = s
	case "Source":
		meta.Source = s
	case "License":
		meta.License = s
	case "WebStatement":
		meta.WebStatement = s
	case "UsageTerms":
		meta.UsageTerms = s
	case "Rights":
		meta.Rights = s
	case "Creator":
		meta.Creator = s
	default:
		return false
	}
	return true
}

// tagValueString extracts a string from a tag value.
// XMP values may be string or []string (from altList/seqList).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []string:
		if len(val) > 0 {
			return strings.TrimSpace(val[0])
		}
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
