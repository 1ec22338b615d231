package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DocxProvider extracts text from word-processing uploads. It claims both
// the modern packaged media type and the legacy binary one; a legacy .doc is
// not a zip archive, so opening fails and the chain falls through to the
// plain-text provider, which is the best we can do for that format anyway.
type DocxProvider struct{}

func (p *DocxProvider) Name() string { return "docx" }

func (p *DocxProvider) TryExtract(data []byte, mediaType string) (string, error) {
	if mediaType != MediaTypeDocx && mediaType != MediaTypeMsWord {
		return "", ErrNotApplicable
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	return paragraphText(doc.Editable().GetContent()), nil
}

var docxRunPattern = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// xmlEntities covers the five entities the document.xml serializer emits.
var xmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// paragraphText flattens WordprocessingML into plain text: one line per
// paragraph, in document order, with the text runs of each paragraph
// concatenated. Empty paragraphs keep their line so the visual structure of
// the document survives into the extraction.
func paragraphText(content string) string {
	chunks := strings.Split(content, "</w:p>")
	paragraphs := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if !strings.Contains(chunk, "<w:p") {
			continue
		}
		var runs strings.Builder
		for _, match := range docxRunPattern.FindAllStringSubmatch(chunk, -1) {
			runs.WriteString(xmlEntities.Replace(match[1]))
		}
		paragraphs = append(paragraphs, runs.String())
	}
	return strings.Join(paragraphs, "\n")
}
