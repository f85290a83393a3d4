// Package export turns the rendered preview into a single-page PDF.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"
)

const (
	// Scale is the rasterization factor applied for sharper output.
	Scale = 2.0
	// PageWidth is the fixed page width in PageUnit.
	PageWidth = 210.0
	PageUnit  = "mm"
	// DefaultFilename is the name every export is saved under.
	DefaultFilename = "PaperGen_Output.pdf"
)

// ErrEmptyRaster is returned when the rasterizer yields a zero-sized image.
var ErrEmptyRaster = errors.New("rasterizer produced an empty image")

// Region is the rendered content to capture.
type Region struct {
	Content string
	// Columns is the wrap width the preview used; zero picks a default.
	Columns int
}

// Rasterizer captures a region as an image at the given scale factor.
type Rasterizer interface {
	Rasterize(ctx context.Context, region Region, scale float64) (image.Image, error)
}

// PageFormat is a page size expressed in the document unit.
type PageFormat struct {
	Width  float64
	Height float64
}

// Encoder creates paginated documents.
type Encoder interface {
	NewDocument(unit string, format PageFormat) (Document, error)
}

// Document is a document under construction.
type Document interface {
	AddImage(img image.Image, x, y, width, height float64) error
	PageCount() int
	Save(path string) error
}

// Result describes a finished export.
type Result struct {
	Path       string
	Pages      int
	PageWidth  float64
	PageHeight float64
	Raster     image.Rectangle
}

// Config wires a Pipeline.
type Config struct {
	Rasterizer Rasterizer
	Encoder    Encoder
	Dir        string
	Filename   string
	// Fonts are extra font files the default rasterizer falls back to.
	Fonts  []string
	Logger *zap.Logger
}

// coverageReporter is implemented by rasterizers that can tell which runes
// they cannot draw.
type coverageReporter interface {
	Missing(text string) []rune
}

// Pipeline runs rasterize → encode → save.
type Pipeline struct {
	rasterizer Rasterizer
	encoder    Encoder
	dir        string
	filename   string
	logger     *zap.Logger
}

// NewPipeline fills in the production rasterizer and encoder when none are given.
func NewPipeline(cfg Config) *Pipeline {
	p := &Pipeline{
		rasterizer: cfg.Rasterizer,
		encoder:    cfg.Encoder,
		dir:        cfg.Dir,
		filename:   cfg.Filename,
		logger:     cfg.Logger,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.rasterizer == nil {
		p.rasterizer = defaultRasterizer(cfg.Fonts, p.logger)
	}
	if p.encoder == nil {
		p.encoder = PDFEncoder{}
	}
	if p.dir == "" {
		p.dir = "."
	}
	if p.filename == "" {
		p.filename = DefaultFilename
	}
	return p
}

func defaultRasterizer(fonts []string, logger *zap.Logger) *TextRasterizer {
	r, err := NewTextRasterizer(fonts...)
	if err == nil {
		return r
	}
	logger.Warn("export fonts unavailable", zap.Strings("fonts", fonts), zap.Error(err))
	if r, err = NewTextRasterizer(); err == nil {
		return r
	}
	return newTextRasterizer(basicfont.Face7x13)
}

// Path is where the next export will be written.
func (p *Pipeline) Path() string {
	return filepath.Join(p.dir, p.filename)
}

// Export writes the region to a one-page PDF. Empty content is a no-op and
// reports ok=false.
func (p *Pipeline) Export(ctx context.Context, region Region) (Result, bool, error) {
	if strings.TrimSpace(region.Content) == "" {
		return Result{}, false, nil
	}

	if reporter, ok := p.rasterizer.(coverageReporter); ok {
		if missing := reporter.Missing(region.Content); len(missing) > 0 {
			p.logger.Warn("no font covers some characters", zap.String("runes", string(missing)))
		}
	}

	img, err := p.rasterizer.Rasterize(ctx, region, Scale)
	if err != nil {
		return Result{}, false, fmt.Errorf("rasterize: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Result{}, false, ErrEmptyRaster
	}

	height := PageHeight(bounds.Dx(), bounds.Dy())
	doc, err := p.encoder.NewDocument(PageUnit, PageFormat{Width: PageWidth, Height: height})
	if err != nil {
		return Result{}, false, fmt.Errorf("new document: %w", err)
	}
	if err := doc.AddImage(img, 0, 0, PageWidth, height); err != nil {
		return Result{}, false, fmt.Errorf("add image: %w", err)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return Result{}, false, err
	}
	path := p.Path()
	if err := doc.Save(path); err != nil {
		return Result{}, false, fmt.Errorf("save %s: %w", path, err)
	}

	result := Result{
		Path:       path,
		Pages:      doc.PageCount(),
		PageWidth:  PageWidth,
		PageHeight: height,
		Raster:     bounds,
	}
	p.logger.Info("document exported",
		zap.String("path", path),
		zap.Int("pages", result.Pages),
		zap.Float64("pageHeight", height),
	)
	return result, true, nil
}

// PageHeight keeps the raster's aspect ratio at the fixed page width.
func PageHeight(rasterWidth, rasterHeight int) float64 {
	return float64(rasterHeight) * PageWidth / float64(rasterWidth)
}
