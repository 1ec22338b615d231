package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Executive summary</w:t></w:r></w:p><w:p></w:p><w:p><w:r><w:t xml:space="preserve">Team &amp; traction</w:t></w:r><w:r><w:t>, validated</w:t></w:r></w:p></w:body></w:document>`

const testRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

const testContentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const testPackageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// buildDocx assembles a minimal but well-formed docx archive in memory.
func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", testContentTypesXML},
		{"_rels/.rels", testPackageRelsXML},
		{"word/document.xml", documentXML},
		{"word/_rels/document.xml.rels", testRelsXML},
	}
	for _, f := range files {
		name, content := f.name, f.content
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestDocxProviderExtractsParagraphsInOrder(t *testing.T) {
	data := buildDocx(t, testDocumentXML)
	p := &DocxProvider{}

	got, err := p.TryExtract(data, MediaTypeDocx)
	if err != nil {
		t.Fatalf("TryExtract: %v", err)
	}

	// One line per paragraph, empty paragraphs preserved, runs joined.
	want := "Executive summary\n\nTeam & traction, validated"
	if got != want {
		t.Fatalf("TryExtract = %q, want %q", got, want)
	}
}

func TestDocxProviderClaimsLegacyMediaType(t *testing.T) {
	// A legacy binary .doc is not a zip archive; the provider claims the
	// media type but must fail with a real error so the chain falls through.
	p := &DocxProvider{}
	legacyBytes := []byte("\xd0\xcf\x11\xe0 legacy word document")

	_, err := p.TryExtract(legacyBytes, MediaTypeMsWord)
	if err == nil {
		t.Fatal("expected an open error for legacy .doc bytes")
	}
	if errors.Is(err, ErrNotApplicable) {
		t.Fatal("legacy word media type must be claimed, not skipped")
	}
}

func TestDocxProviderNotApplicable(t *testing.T) {
	p := &DocxProvider{}
	_, err := p.TryExtract([]byte("PK\x03\x04"), MediaTypePDF)
	if !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
}

func TestDocxFallsThroughChainToPlainText(t *testing.T) {
	chain := NewChain()
	got := chain.Extract([]byte("just a renamed text file"), MediaTypeDocx)
	if got != "just a renamed text file" {
		t.Fatalf("Extract = %q", got)
	}
}

func TestParagraphText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "single paragraph",
			content: `<w:p><w:r><w:t>hello</w:t></w:r></w:p>`,
			want:    "hello",
		},
		{
			name:    "entities unescaped",
			content: `<w:p><w:r><w:t>R&amp;D &lt;stage&gt;</w:t></w:r></w:p>`,
			want:    "R&D <stage>",
		},
		{
			name:    "runs concatenated without separator",
			content: `<w:p><w:r><w:t>fund</w:t></w:r><w:r><w:t>ing</w:t></w:r></w:p>`,
			want:    "funding",
		},
		{
			name:    "no paragraphs",
			content: `<w:body></w:body>`,
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paragraphText(tt.content); got != tt.want {
				t.Errorf("paragraphText() = %q, want %q", got, tt.want)
			}
		})
	}
}
