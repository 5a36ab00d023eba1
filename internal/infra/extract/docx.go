package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"docchat-service/internal/domain/model"
)

// Word has no page markers in the document body, so paragraphs are grouped
// into pseudo-pages of roughly this many characters.
const pseudoPageChars = 1500

// extractDOCX reads the text runs out of a docx container. The format is a
// zip archive with the body under word/document.xml: w:t runs grouped into
// w:p paragraphs.
func extractDOCX(path string) ([]model.Section, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx container: %w", err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, errors.New("docx: word/document.xml missing")
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("docx: open document.xml: %w", err)
	}
	defer rc.Close()

	paragraphs, err := parseDocumentXML(rc)
	if err != nil {
		return nil, err
	}

	var sections []model.Section
	page := 1
	var buf []string
	size := 0
	for _, para := range paragraphs {
		buf = append(buf, para)
		size += len(para) + 1
		if size > pseudoPageChars {
			sections = append(sections, model.Section{Text: strings.Join(buf, "\n"), Page: page})
			buf = nil
			size = 0
			page++
		}
	}
	if len(buf) > 0 {
		sections = append(sections, model.Section{Text: strings.Join(buf, "\n"), Page: page})
	}
	return sections, nil
}

// parseDocumentXML streams the body, emitting one string per non-empty
// paragraph. Explicit breaks become newlines inside the paragraph.
func parseDocumentXML(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var paragraphs []string
	var cur strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("docx: malformed document.xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &el); err != nil {
					return nil, fmt.Errorf("docx: decode text run: %w", err)
				}
				cur.WriteString(text)
			case "br":
				cur.WriteString("\n")
			case "tab":
				cur.WriteString("\t")
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				if s := strings.TrimSpace(cur.String()); s != "" {
					paragraphs = append(paragraphs, s)
				}
				cur.Reset()
			}
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		paragraphs = append(paragraphs, s)
	}
	return paragraphs, nil
}
