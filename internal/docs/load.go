package docs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedType is returned for files that are neither PDFs nor images.
var ErrUnsupportedType = errors.New("unsupported file type")

// AcceptedTypes mirrors the upload form's accept list.
var AcceptedTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/webp",
}

// Load reads every path into a SourceFile, in order. Any failure aborts the whole
// selection so the previous one stays in place.
func Load(paths []string) ([]SourceFile, error) {
	files := make([]SourceFile, 0, len(paths))
	for _, path := range paths {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// LoadFile reads a single file and tags it with its detected MIME type.
func LoadFile(path string) (SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return NewSourceFile(filepath.Base(path), data)
}

// NewSourceFile tags in-memory data. PDFs are inspected for a page count and a
// short text excerpt; inspection failures leave those fields empty.
func NewSourceFile(name string, data []byte) (SourceFile, error) {
	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), AcceptedTypes...) {
		return SourceFile{}, fmt.Errorf("%s (%s): %w", name, detected.String(), ErrUnsupportedType)
	}
	file := SourceFile{
		Name: name,
		Type: detected.String(),
		Data: data,
	}
	if detected.Is("application/pdf") {
		if info, err := inspectPDF(data); err == nil {
			file.Pages = info.pages
			file.Excerpt = info.excerpt
		}
	}
	return file, nil
}
