package export

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
)

func goMonoRasterizer(t *testing.T) *TextRasterizer {
	t.Helper()
	faces, err := loadFaces(nil, nil)
	require.NoError(t, err)
	return newTextRasterizer(faces...)
}

func rasterPixels(t *testing.T, r *TextRasterizer, text string) []byte {
	t.Helper()
	img, err := r.Rasterize(context.Background(), Region{Content: text, Columns: 10}, 1)
	require.NoError(t, err)
	rgba, ok := img.(*image.RGBA)
	require.True(t, ok)
	return rgba.Pix
}

func darkPixels(pix []byte) int {
	n := 0
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i] < 128 {
			n++
		}
	}
	return n
}

func TestTextRasterizerDrawsAccentedLetters(t *testing.T) {
	r := goMonoRasterizer(t)
	acute := rasterPixels(t, r, "é")
	tilde := rasterPixels(t, r, "ñ")
	plain := rasterPixels(t, r, "e")

	assert.Positive(t, darkPixels(acute))
	assert.False(t, bytes.Equal(acute, tilde), "é and ñ must not share a glyph")
	assert.False(t, bytes.Equal(acute, plain), "é must differ from e")
	assert.Empty(t, r.Missing("Résumé, niño, façade"))
}

func TestTextRasterizerDrawsDevanagariWithInstalledFont(t *testing.T) {
	r, err := NewTextRasterizer()
	require.NoError(t, err)
	if len(r.Missing("ऊज")) > 0 {
		t.Skip("no Devanagari font installed")
	}
	uu := rasterPixels(t, r, "ऊ")
	ja := rasterPixels(t, r, "ज")
	assert.Positive(t, darkPixels(uu))
	assert.False(t, bytes.Equal(uu, ja))
}

func TestFallbackFacePicksFaceByRune(t *testing.T) {
	mono, err := parseFace(gomono.TTF)
	require.NoError(t, err)
	chain := newFallbackFace(basicfont.Face7x13, mono)

	face, ok := chain.pick('a')
	assert.True(t, ok)
	assert.True(t, face == font.Face(basicfont.Face7x13))

	face, ok = chain.pick('é')
	assert.True(t, ok)
	assert.True(t, face == mono)
	assert.Zero(t, chain.Kern('a', 'é'))

	assert.False(t, chain.Covers('ऊ'))
	face, _ = chain.pick('ऊ')
	assert.True(t, face == font.Face(basicfont.Face7x13))

	m := chain.Metrics()
	assert.GreaterOrEqual(t, m.Height, basicfont.Face7x13.Metrics().Height)
	assert.GreaterOrEqual(t, m.Height, mono.Metrics().Height)
}

func TestMissingListsUncoveredRunesOnce(t *testing.T) {
	r := newTextRasterizer(basicfont.Face7x13)
	assert.Equal(t, []rune{'é', 'ñ'}, r.Missing("café niño é\n"))
}

func TestLoadFacesConfiguredFonts(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "mono.ttf")
	require.NoError(t, os.WriteFile(valid, gomono.TTF, 0o600))
	garbage := filepath.Join(dir, "broken.ttf")
	require.NoError(t, os.WriteFile(garbage, []byte("not a font"), 0o600))

	faces, err := loadFaces([]string{valid}, nil)
	require.NoError(t, err)
	assert.Len(t, faces, 2)

	_, err = loadFaces([]string{filepath.Join(dir, "absent.ttf")}, nil)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = loadFaces([]string{garbage}, nil)
	require.ErrorContains(t, err, "parse font")

	faces, err = loadFaces(nil, []string{garbage, filepath.Join(dir, "absent.ttf"), valid})
	require.NoError(t, err)
	assert.Len(t, faces, 2, "unreadable system fonts are skipped")

	_, err = NewTextRasterizer(garbage)
	require.Error(t, err)
}

func TestFindFontsOrdersByPreference(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	touch := func(path string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}
	bold := filepath.Join(first, "noto", "NotoSansDevanagari-Bold.otf")
	regular := filepath.Join(second, "NotoSansDevanagari-Regular.ttf")
	free := filepath.Join(second, "FreeSans.ttf")
	touch(bold)
	touch(regular)
	touch(free)
	touch(filepath.Join(second, "FreeSans.pfb"))
	touch(filepath.Join(second, "README.txt"))

	got := findFonts([]string{first, second, filepath.Join(first, "missing")}, systemFontPrefixes)
	assert.Equal(t, []string{regular, bold, free}, got)
}

func TestRenderTextShowsRenderedMarkdown(t *testing.T) {
	text := renderText("## Summary\n\nThe **Krebs cycle** releases energy.", 60)
	assert.Contains(t, text, "Krebs cycle")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "\x1b[")
}

func TestRenderTextHardWrapsLongTokens(t *testing.T) {
	url := "https://example.org/" + strings.Repeat("a", 80)
	text := renderText("Source: "+url, 30)
	for _, line := range strings.Split(text, "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 30, "line %q", line)
	}
	assert.Contains(t, strings.ReplaceAll(text, "\n", ""), strings.Repeat("a", 20))
}

func TestTextRasterizerKeepsLongTokensInsideMargin(t *testing.T) {
	r := goMonoRasterizer(t)
	img, err := r.Rasterize(context.Background(), Region{Content: strings.Repeat("x", 200), Columns: 20}, 1)
	require.NoError(t, err)
	rgba := img.(*image.RGBA)
	bounds := rgba.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Max.X - rasterMargin/2; x < bounds.Max.X; x++ {
			require.Equal(t, uint8(0xff), rgba.RGBAAt(x, y).R, "ink at %d,%d", x, y)
		}
	}
}

func TestPipelineFallsBackWhenConfiguredFontFails(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPipeline(Config{
		Dir:    t.TempDir(),
		Fonts:  []string{filepath.Join(t.TempDir(), "absent.ttf")},
		Logger: zap.New(core),
	})
	assert.Equal(t, 1, logs.FilterMessage("export fonts unavailable").Len())

	_, ok, err := p.Export(context.Background(), Region{Content: "Énergie \U000F0001"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("no font covers some characters").Len())
}
