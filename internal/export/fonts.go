package export

import (
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const fontSize = 13

// systemFontPrefixes names installed fonts worth trying for scripts the
// embedded face lacks, most preferred first.
var systemFontPrefixes = []string{
	"NotoSansDevanagari-Regular",
	"NotoSansDevanagari",
	"NotoSerifDevanagari",
	"Lohit-Devanagari",
	"lohit_hi",
	"Mangal",
	"Nirmala",
	"gargi",
	"FreeSans",
	"NotoSans-Regular",
}

var discoverSystemFonts = sync.OnceValue(func() []string {
	return findFonts(xdg.FontDirs, systemFontPrefixes)
})

// findFonts walks dirs for .ttf/.otf files whose name starts with one of
// prefixes and returns them in prefix order.
func findFonts(dirs []string, prefixes []string) []string {
	byPrefix := make([][]string, len(prefixes))
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".ttf" && ext != ".otf" {
				return nil
			}
			name := d.Name()
			for i, prefix := range prefixes {
				if strings.HasPrefix(name, prefix) {
					byPrefix[i] = append(byPrefix[i], path)
					break
				}
			}
			return nil
		})
	}
	var out []string
	for _, paths := range byPrefix {
		out = append(out, paths...)
	}
	return out
}

func parseFace(data []byte) (font.Face, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func loadFace(path string) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	face, err := parseFace(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return face, nil
}

// loadFaces builds the face chain: the embedded Go Mono face, then the
// configured files, then any discovered system fonts. A configured file
// that cannot be loaded is an error; discovered ones are skipped.
func loadFaces(files, discovered []string) ([]font.Face, error) {
	primary, err := parseFace(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("embedded font: %w", err)
	}
	faces := []font.Face{primary}
	for _, path := range files {
		face, err := loadFace(path)
		if err != nil {
			return nil, err
		}
		faces = append(faces, face)
	}
	for _, path := range discovered {
		if face, err := loadFace(path); err == nil {
			faces = append(faces, face)
		}
	}
	return faces, nil
}

// fallbackFace draws each rune with the first face that has a glyph for it.
// Runes no face covers are drawn by the first face.
type fallbackFace struct {
	faces []font.Face
}

func newFallbackFace(faces ...font.Face) *fallbackFace {
	return &fallbackFace{faces: faces}
}

func (f *fallbackFace) pick(r rune) (font.Face, bool) {
	for _, face := range f.faces {
		if _, ok := face.GlyphAdvance(r); ok {
			return face, true
		}
	}
	return f.faces[0], false
}

// Covers reports whether some face in the chain has a glyph for r.
func (f *fallbackFace) Covers(r rune) bool {
	_, ok := f.pick(r)
	return ok
}

func (f *fallbackFace) Close() error {
	var first error
	for _, face := range f.faces {
		if err := face.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *fallbackFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	face, _ := f.pick(r)
	return face.Glyph(dot, r)
}

func (f *fallbackFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	face, _ := f.pick(r)
	return face.GlyphBounds(r)
}

func (f *fallbackFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	face, _ := f.pick(r)
	return face.GlyphAdvance(r)
}

func (f *fallbackFace) Kern(r0, r1 rune) fixed.Int26_6 {
	a, _ := f.pick(r0)
	b, _ := f.pick(r1)
	if a != b {
		return 0
	}
	return a.Kern(r0, r1)
}

// Metrics are the primary face's, stretched to fit the tallest fallback.
func (f *fallbackFace) Metrics() font.Metrics {
	m := f.faces[0].Metrics()
	for _, face := range f.faces[1:] {
		other := face.Metrics()
		m.Height = max(m.Height, other.Height)
		m.Ascent = max(m.Ascent, other.Ascent)
		m.Descent = max(m.Descent, other.Descent)
	}
	return m
}
