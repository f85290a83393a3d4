package export

import (
	"context"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	defaultColumns = 90
	rasterMargin   = 24
)

// TextRasterizer paints the rendered preview onto a white page.
type TextRasterizer struct {
	mu         sync.Mutex
	face       *fallbackFace
	background color.Color
	foreground color.Color
}

// NewTextRasterizer draws with the embedded Go Mono face and falls back, per
// rune, to fontFiles and then to script fonts installed on the system.
func NewTextRasterizer(fontFiles ...string) (*TextRasterizer, error) {
	faces, err := loadFaces(fontFiles, discoverSystemFonts())
	if err != nil {
		return nil, err
	}
	return newTextRasterizer(faces...), nil
}

func newTextRasterizer(faces ...font.Face) *TextRasterizer {
	return &TextRasterizer{
		face:       newFallbackFace(faces...),
		background: color.White,
		foreground: color.Black,
	}
}

// Missing lists the distinct runes in text that no loaded font can draw.
func (r *TextRasterizer) Missing(text string) []rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[rune]bool)
	var missing []rune
	for _, c := range text {
		if c < ' ' || seen[c] {
			continue
		}
		seen[c] = true
		if !r.face.Covers(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

func (r *TextRasterizer) Rasterize(ctx context.Context, region Region, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	columns := region.Columns
	if columns <= 0 {
		columns = defaultColumns
	}
	lines := strings.Split(renderText(region.Content, columns), "\n")

	r.mu.Lock()
	defer r.mu.Unlock()
	metrics := r.face.Metrics()
	lineHeight := metrics.Height.Ceil()
	advance, _ := r.face.GlyphAdvance('M')
	width := rasterMargin*2 + columns*advance.Ceil()
	height := rasterMargin*2 + len(lines)*lineHeight

	page := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(page, page.Bounds(), image.NewUniform(r.background), image.Point{}, draw.Src)
	drawer := font.Drawer{
		Dst:  page,
		Src:  image.NewUniform(r.foreground),
		Face: r.face,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(rasterMargin, rasterMargin+i*lineHeight+metrics.Ascent.Ceil())
		drawer.DrawString(line)
	}

	if scale <= 0 || scale == 1 {
		return page, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scaled := image.NewRGBA(image.Rect(0, 0, int(float64(width)*scale), int(float64(height)*scale)))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), page, page.Bounds(), draw.Src, nil)
	return scaled, nil
}

// renderText lays markdown out the way the preview shows it, as plain text,
// and hard-wraps anything still wider than columns.
func renderText(content string, columns int) string {
	content = strings.TrimRight(content, "\n")
	text, err := renderPlainMarkdown(content, columns)
	if err != nil {
		text = wordwrap.String(content, columns)
	}
	return wrap.String(text, columns)
}

func renderPlainMarkdown(content string, columns int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(columns),
	)
	if err != nil {
		return "", err
	}
	out, err := renderer.Render(content)
	if err != nil {
		return "", err
	}
	lines := strings.Split(ansi.Strip(out), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n"), nil
}
