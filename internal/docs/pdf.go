package docs

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

const excerptLimit = 160

var extraneousWhitespace = regexp.MustCompile(`\s+`)

type pdfInfo struct {
	pages   int
	excerpt string
}

func inspectPDF(data []byte) (info pdfInfo, err error) {
	// ledongthuc/pdf panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return pdfInfo{}, fmt.Errorf("failed to open pdf: %w", err)
	}
	info.pages = reader.NumPage()

	content, err := reader.GetPlainText()
	if err != nil {
		return info, nil
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, io.LimitReader(content, 4*excerptLimit)); err != nil {
		return info, nil
	}
	info.excerpt = clip(extraneousWhitespace.ReplaceAllString(builder.String(), " "), excerptLimit)
	return info, nil
}

func clip(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
