package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/go-pdf/fpdf"
)

// PDFEncoder builds documents with fpdf.
type PDFEncoder struct{}

func (PDFEncoder) NewDocument(unit string, format PageFormat) (Document, error) {
	if format.Width <= 0 || format.Height <= 0 {
		return nil, fmt.Errorf("invalid page format %.2fx%.2f", format.Width, format.Height)
	}
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        unit,
		Size:           fpdf.SizeType{Wd: format.Width, Ht: format.Height},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	return &pdfDocument{doc: doc}, doc.Error()
}

type pdfDocument struct {
	doc    *fpdf.Fpdf
	images int
}

func (d *pdfDocument) AddImage(img image.Image, x, y, width, height float64) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	d.images++
	name := fmt.Sprintf("raster-%d", d.images)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.doc.RegisterImageOptionsReader(name, opts, &buf)
	d.doc.ImageOptions(name, x, y, width, height, false, opts, 0, "")
	return d.doc.Error()
}

func (d *pdfDocument) PageCount() int {
	return d.doc.PageCount()
}

func (d *pdfDocument) Save(path string) error {
	return d.doc.OutputFileAndClose(path)
}
