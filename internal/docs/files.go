// Package docs holds the source files chosen for a generation run.
package docs

import (
	"fmt"
	"regexp"
)

// SourceFile is one user-selected document. Data is sent to the backend as-is.
type SourceFile struct {
	Name  string
	Type  string
	Data  []byte
	Pages int
	// Excerpt is the start of a PDF's extracted text, if any.
	Excerpt string
}

var displayExtension = regexp.MustCompile(`(?i)\.(pdf|png|jpg|jpeg|webp)$`)

// CleanName strips the document/image extension used for display.
func CleanName(name string) string {
	return displayExtension.ReplaceAllString(name, "")
}

// Selection is the ordered file set for the session. It is replaced wholesale on
// every new pick; there is no incremental add or remove.
type Selection struct {
	files []SourceFile
}

// Replace swaps in a new file set. A nil or empty slice clears the selection.
func (s *Selection) Replace(files []SourceFile) {
	s.files = append([]SourceFile(nil), files...)
}

// Files returns a copy in selection order.
func (s *Selection) Files() []SourceFile {
	return append([]SourceFile(nil), s.files...)
}

// Len reports how many files are selected.
func (s *Selection) Len() int {
	return len(s.files)
}

// Empty reports whether nothing is selected.
func (s *Selection) Empty() bool {
	return len(s.files) == 0
}

// Display is the single cleaned file name, or "N files selected".
func (s *Selection) Display() string {
	switch len(s.files) {
	case 0:
		return ""
	case 1:
		return CleanName(s.files[0].Name)
	default:
		return fmt.Sprintf("%d files selected", len(s.files))
	}
}

// Excerpt is the text excerpt of a single selected file.
func (s *Selection) Excerpt() string {
	if len(s.files) != 1 {
		return ""
	}
	return s.files[0].Excerpt
}

// TotalPages sums the known PDF page counts.
func (s *Selection) TotalPages() int {
	total := 0
	for _, f := range s.files {
		total += f.Pages
	}
	return total
}
