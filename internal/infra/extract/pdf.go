package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"docchat-service/internal/domain/model"
)

// extractPDF reads one section per page. Pages that fail to decode or carry
// no text are skipped; an entirely unreadable document yields no sections
// and is rejected upstream.
func extractPDF(path string) ([]model.Section, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sections []model.Section
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		sections = append(sections, model.Section{Text: text, Page: i})
	}
	return sections, nil
}
