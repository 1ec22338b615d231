// Package extract turns uploaded proposal files into plain text.
//
// Uploads are untrusted and heterogeneous, so extraction is organized as an
// ordered chain of format providers tried in sequence. A provider either
// produces text, reports that it is not responsible for the declared media
// type, or fails; a failure simply advances the chain. The final provider
// decodes the raw bytes as lossy UTF-8 and never fails, so Extract always
// returns a string. An empty result means no path produced usable text and
// the caller must treat the upload as unreadable, not as an empty document.
package extract

import (
	"errors"
	"log/slog"
	"mime"
	"strings"
)

// Recognized media types for the format-specific providers.
const (
	MediaTypePDF       = "application/pdf"
	MediaTypeDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeMsWord    = "application/msword"
	MediaTypePlainText = "text/plain"
)

// ErrNotApplicable is returned by a provider that does not handle the
// declared media type. The chain moves on without logging it as a failure.
var ErrNotApplicable = errors.New("extract: provider not applicable to media type")

// ErrEmptyExtraction is the sentinel callers use when every provider yielded
// only whitespace or errors. Extract itself never returns an error; services
// wrap an empty result in this sentinel before surfacing it to users.
var ErrEmptyExtraction = errors.New("extract: no usable text could be extracted")

// Provider is one strategy for turning raw bytes into text. Implementations
// must not panic and must not retain the input slice.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// TryExtract attempts extraction. It returns ErrNotApplicable when the
	// media type is not one it handles, any other error when the format
	// matched but parsing failed, and otherwise the extracted text, which
	// may legitimately be empty.
	TryExtract(data []byte, mediaType string) (string, error)
}

// Chain is a fixed, ordered list of providers with first-success-wins
// semantics. The zero value is unusable; construct with NewChain.
type Chain struct {
	providers []Provider
}

// NewChain returns the default extraction chain: PDF, then DOCX, then the
// lossy plain-text fallback. The fallback is always last and always
// applicable, so the chain as a whole is total.
func NewChain() Chain {
	return Chain{providers: []Provider{
		&PDFProvider{},
		&DocxProvider{},
		&PlainTextProvider{},
	}}
}

// NewChainWith builds a chain from an explicit provider list, in order.
func NewChainWith(providers ...Provider) Chain {
	return Chain{providers: providers}
}

// Extract runs the chain over data and returns the first successful
// provider's text, trimmed of surrounding whitespace. Each provider receives
// the full byte slice, so a failed attempt can never leave a later attempt
// reading from a partial offset. A provider that succeeds with an empty
// string still wins the chain: a parseable PDF with no text is an empty
// extraction, not a reason to reinterpret the bytes as plain text.
func (c Chain) Extract(data []byte, mediaType string) string {
	mt := normalizeMediaType(mediaType)
	for _, p := range c.providers {
		text, err := p.TryExtract(data, mt)
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if err != nil {
			slog.Debug("Extraction provider failed, trying next.", "provider", p.Name(), "mediaType", mt, "error", err)
			continue
		}
		return strings.TrimSpace(text)
	}
	return ""
}

// normalizeMediaType strips parameters such as "; charset=utf-8" and
// lowercases the type so providers can compare against the constants above.
func normalizeMediaType(mediaType string) string {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mt
}
