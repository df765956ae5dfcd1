package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText turns raw file bytes into plain text according to the
// declared source kind.
func ExtractText(raw []byte, kind Kind) (string, error) {
	switch kind {
	case KindText:
		return string(raw), nil
	case KindPDF:
		return extractPDFText(raw)
	default:
		return "", newParseError(ErrUnreadableFile, fmt.Errorf("unsupported source kind: %s", kind))
	}
}

// extractPDFText extracts text page by page. Rows are joined with
// newlines so heading patterns keep their line anchoring.
func extractPDFText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", newParseError(ErrUnreadableFile, err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			if err == io.EOF {
				continue
			}
			return "", newParseError(ErrUnreadableFile, err)
		}
		for _, row := range rows {
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			sb.WriteByte('\n')
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", newParseError(ErrNoTextExtracted, nil)
	}
	return text, nil
}
