package pdfgen

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	WatermarkText = "To be approved"

	// watermarkSpan is the share of the page diagonal the watermark covers.
	watermarkSpan    = 0.8
	watermarkOpacity = 0.25

	// Signature box and placement, in points from the bottom-right corner.
	signatureMaxWidth  = 140.0
	signatureMaxHeight = 60.0
	signatureRight     = 40.0
	signatureBottom    = 48.0
	signatureDateSize  = 9
	signatureDateGap   = 14.0
)

var ErrNoDocuments = errors.New("nothing to merge")

// Composer merges and stamps finished documents.
type Composer struct {
	widthAtOnePt float64
}

func NewComposer() *Composer {
	return &Composer{
		widthAtOnePt: helveticaWidth(WatermarkText, 1),
	}
}

// Merge concatenates docs page by page in order.
func (c *Composer) Merge(docs ...[]byte) ([]byte, error) {
	switch len(docs) {
	case 0:
		return nil, ErrNoDocuments
	case 1:
		return docs[0], nil
	}
	readers := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		readers[i] = bytes.NewReader(d)
	}
	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, newConf()); err != nil {
		return nil, fmt.Errorf("merge %d documents: %w", len(docs), err)
	}
	return out.Bytes(), nil
}

func (c *Composer) PageCount(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), newConf())
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// WatermarkStyle is the diagonal stamp geometry for one page size.
type WatermarkStyle struct {
	Angle    float64
	FontSize int
}

// WatermarkFor sizes the stamp so it runs along the page diagonal and spans
// watermarkSpan of its length.
func (c *Composer) WatermarkFor(width, height float64) WatermarkStyle {
	diagonal := math.Hypot(width, height)
	size := watermarkSpan * diagonal / c.widthAtOnePt
	return WatermarkStyle{
		Angle:    math.Atan2(height, width) * 180 / math.Pi,
		FontSize: int(math.Floor(size)),
	}
}

// Watermark stamps WatermarkText diagonally across every page. Pages are
// batched by size so each distinct size is stamped in one pass.
func (c *Composer) Watermark(pdf []byte) ([]byte, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), newConf())
	if err != nil {
		return nil, fmt.Errorf("read for watermark: %w", err)
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("page sizes: %w", err)
	}

	bySize := map[types.Dim][]string{}
	var sizes []types.Dim
	for i, d := range dims {
		if _, ok := bySize[d]; !ok {
			sizes = append(sizes, d)
		}
		bySize[d] = append(bySize[d], strconv.Itoa(i+1))
	}

	out := pdf
	for _, d := range sizes {
		style := c.WatermarkFor(d.Width, d.Height)
		desc := fmt.Sprintf("fontname:Helvetica, points:%d, rotation:%.2f, opacity:%.2f, fillcolor:#808080, scalefactor:1 abs, position:c",
			style.FontSize, style.Angle, watermarkOpacity)
		wm, err := api.TextWatermark(WatermarkText, desc, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("build watermark: %w", err)
		}
		var buf bytes.Buffer
		if err := api.AddWatermarks(bytes.NewReader(out), &buf, bySize[d], wm, newConf()); err != nil {
			return nil, fmt.Errorf("apply watermark: %w", err)
		}
		out = buf.Bytes()
	}
	return out, nil
}

// SignatureScale returns the factor that fits an imgW x imgH image into the
// signature box without distortion. Images already inside are not enlarged.
func SignatureScale(imgW, imgH float64) float64 {
	if imgW <= 0 || imgH <= 0 {
		return 1
	}
	return math.Min(1, math.Min(signatureMaxWidth/imgW, signatureMaxHeight/imgH))
}

// SignatureDate formats the stamp date as MM/DD/YY.
func SignatureDate(t time.Time) string {
	return t.Format("01/02/06")
}

// InsertSignature stamps the signature PNG and the date at the bottom right of
// every page. Form fields are left as they are.
func (c *Composer) InsertSignature(pdf, signature []byte, now time.Time) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(signature))
	if err != nil {
		return nil, fmt.Errorf("decode signature image: %w", err)
	}
	scale := SignatureScale(float64(cfg.Width), float64(cfg.Height))

	imgDesc := fmt.Sprintf("position:br, offset:-%.0f %.0f, scalefactor:%.4f abs, rotation:0, opacity:1",
		signatureRight, signatureBottom, scale)
	imgWM, err := api.ImageWatermarkForReader(bytes.NewReader(signature), imgDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build signature stamp: %w", err)
	}
	var stamped bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdf), &stamped, nil, imgWM, newConf()); err != nil {
		return nil, fmt.Errorf("apply signature: %w", err)
	}

	dateDesc := fmt.Sprintf("fontname:Helvetica, points:%d, position:br, offset:-%.0f %.0f, scalefactor:1 abs, rotation:0, opacity:1, fillcolor:#000000",
		signatureDateSize, signatureRight, signatureBottom-signatureDateGap)
	dateWM, err := api.TextWatermark(SignatureDate(now), dateDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build date stamp: %w", err)
	}
	var dated bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(stamped.Bytes()), &dated, nil, dateWM, newConf()); err != nil {
		return nil, fmt.Errorf("apply date: %w", err)
	}
	return dated.Bytes(), nil
}

// newConf returns a fresh pdfcpu configuration. pdfcpu records the running
// command on the configuration, so one is never shared between calls.
func newConf() *model.Configuration {
	return model.NewDefaultConfiguration()
}

// helveticaWidth measures text in the core Helvetica font, the font the
// watermark is drawn with.
func helveticaWidth(text string, size float64) float64 {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", size)
	return pdf.GetStringWidth(text)
}
