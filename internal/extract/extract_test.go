package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider scripts one chain slot for combinator tests.
type stubProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) TryExtract(data []byte, mediaType string) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestChainFirstSuccessWins(t *testing.T) {
	failing := &stubProvider{name: "failing", err: assert.AnError}
	winner := &stubProvider{name: "winner", text: "extracted text"}
	unreached := &stubProvider{name: "unreached", text: "should not appear"}

	chain := NewChainWith(failing, winner, unreached)
	got := chain.Extract([]byte("irrelevant"), "application/pdf")

	assert.Equal(t, "extracted text", got)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, winner.calls)
	assert.Zero(t, unreached.calls, "chain must stop at the first success")
}

func TestChainSkipsNotApplicableProviders(t *testing.T) {
	notMine := &stubProvider{name: "notMine", err: ErrNotApplicable}
	winner := &stubProvider{name: "winner", text: "text"}

	chain := NewChainWith(notMine, winner)
	assert.Equal(t, "text", chain.Extract(nil, "text/plain"))
	assert.Equal(t, 1, notMine.calls)
}

func TestChainEmptySuccessStillWins(t *testing.T) {
	// A parseable document with no text is an empty extraction; the chain
	// must not reinterpret the bytes through a later provider.
	emptyDoc := &stubProvider{name: "emptyDoc", text: ""}
	unreached := &stubProvider{name: "unreached", text: "fallback text"}

	chain := NewChainWith(emptyDoc, unreached)
	assert.Equal(t, "", chain.Extract([]byte("data"), "application/pdf"))
	assert.Zero(t, unreached.calls)
}

func TestChainTrimsResult(t *testing.T) {
	p := &stubProvider{name: "padded", text: "\n\n  body text \t\n"}
	chain := NewChainWith(p)
	assert.Equal(t, "body text", chain.Extract(nil, "text/plain"))
}

func TestChainExhaustedReturnsEmpty(t *testing.T) {
	chain := NewChainWith(&stubProvider{name: "a", err: assert.AnError}, &stubProvider{name: "b", err: ErrNotApplicable})
	assert.Equal(t, "", chain.Extract([]byte{0x01}, "application/pdf"))
}

func TestExtractPlainTextUpload(t *testing.T) {
	chain := NewChain()
	assert.Equal(t, "Hello world", chain.Extract([]byte("Hello world"), "text/plain"))
}

func TestExtractUnknownMediaTypeFallsBackToPlainText(t *testing.T) {
	chain := NewChain()
	got := chain.Extract([]byte("  some notes\n"), "application/octet-stream")
	assert.Equal(t, "some notes", got)
}

func TestExtractMalformedPDFFallsBackToLossyDecode(t *testing.T) {
	raw := []byte("%PDF-1.7 this is not really a pdf \xff\xfe but it has readable words")
	chain := NewChain()

	got := chain.Extract(raw, "application/pdf")
	want := strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))

	require.NotEmpty(t, got)
	assert.Equal(t, want, got, "malformed PDF must yield the plain-text decoding of the same bytes")
}

func TestExtractDropsInvalidUTF8(t *testing.T) {
	raw := []byte("caf\xc3\xa9 \xff\xfe tr\xe8s bien")
	chain := NewChain()

	got := chain.Extract(raw, "text/plain")
	assert.Equal(t, strings.TrimSpace(strings.ToValidUTF8(string(raw), "")), got)
	assert.Contains(t, got, "café")
	assert.NotContains(t, got, "\xff")
}

func TestExtractWhitespaceOnlyIsEmpty(t *testing.T) {
	chain := NewChain()
	assert.Equal(t, "", chain.Extract([]byte(" \n\t "), "text/plain"))
	assert.Equal(t, "", chain.Extract(nil, "text/plain"))
}

func TestNormalizeMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"application/pdf", "application/pdf"},
		{"Application/PDF", "application/pdf"},
		{"text/plain; charset=utf-8", "text/plain"},
		{" text/plain ", "text/plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeMediaType(tt.in); got != tt.want {
			t.Errorf("normalizeMediaType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
