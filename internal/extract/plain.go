package extract

import "strings"

// PlainTextProvider is the terminal fallback: it treats the raw bytes as
// UTF-8 and drops any byte sequence that is not valid UTF-8 rather than
// failing. It applies to every media type and never returns an error, which
// makes the chain total.
type PlainTextProvider struct{}

func (p *PlainTextProvider) Name() string { return "plaintext" }

func (p *PlainTextProvider) TryExtract(data []byte, mediaType string) (string, error) {
	return strings.ToValidUTF8(string(data), ""), nil
}
