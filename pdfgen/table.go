package pdfgen

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cfss-backend/models"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Table page layout, in points on landscape Letter.
const (
	tableMargin     = 36.0
	headerRowHeight = 16.0
	baseRowHeight   = 16.0
	lineHeight      = 9.0
	cellPadding     = 3.0
	bodyFontSize    = 7.0
	headerFontSize  = 6.5
	titleFontSize   = 12.0
	qrSize          = 54.0
	footerOffset    = 24.0
	groupBandHeight = 13.0
)

type headerCell struct {
	title string
	sub   []string
}

func (h headerCell) span() int {
	if len(h.sub) == 0 {
		return 1
	}
	return len(h.sub)
}

type tableLayout struct {
	title     string
	header    []headerCell
	fractions []float64
}

var windowTable = tableLayout{
	title: "tableau des spécifications des fenêtres",
	header: []headerCell{
		{title: "NO."},
		{title: "TYPE DE FENÊTRE"},
		{title: "LARGEUR MAX"},
		{title: "HAUTEUR MAX"},
		{title: "JAMBAGE", sub: []string{"TYPE", "COMPOSITION"}},
		{title: "LINTEAU", sub: []string{"TYPE", "COMPOSITION"}},
		{title: "SEUIL", sub: []string{"TYPE", "COMPOSITION"}},
		{title: "L1"},
		{title: "L2"},
	},
	fractions: []float64{0.04, 0.10, 0.07, 0.07, 0.07, 0.13, 0.07, 0.13, 0.07, 0.13, 0.06, 0.06},
}

var wallTable = tableLayout{
	title: "tableau des spécifications des murs",
	header: []headerCell{
		{title: "NO."},
		{title: "MUR"},
		{title: "COLOMBAGE"},
		{title: "ESPACEMENT"},
		{title: "HAUTEUR MAX"},
		{title: "DÉFLEXION"},
		{title: "NOTE"},
	},
	fractions: []float64{0.05, 0.17, 0.16, 0.12, 0.12, 0.10, 0.28},
}

// tableRow holds one line list per leaf column.
type tableRow [][]string

// RowHeight is base + (lines-1) * lineHeight for the tallest cell.
func RowHeight(lines int) float64 {
	if lines < 1 {
		lines = 1
	}
	return baseRowHeight + float64(lines-1)*lineHeight
}

func (r tableRow) height() float64 {
	lines := 1
	for _, cell := range r {
		if len(cell) > lines {
			lines = len(cell)
		}
	}
	return RowHeight(lines)
}

// ColumnWidths splits total by fractions.
func ColumnWidths(total float64, fractions []float64) []float64 {
	widths := make([]float64, len(fractions))
	for i, f := range fractions {
		widths[i] = total * f
	}
	return widths
}

// TableGenerator draws the specification table pages.
type TableGenerator struct {
	now func() time.Time
}

func NewTableGenerator() *TableGenerator {
	return &TableGenerator{now: time.Now}
}

// WindowTable draws the window specification table of a project.
func (g *TableGenerator) WindowTable(project *models.Project, windows []models.Window) ([]byte, error) {
	groups := GroupByFloor(windows, func(w models.Window) string { return w.Floor })
	rows := make([]rowGroup, 0, len(groups))
	for _, grp := range groups {
		rg := rowGroup{label: groupLabel(grp.Range, grp.Label)}
		for _, w := range grp.Items {
			rg.rows = append(rg.rows, windowRow(w))
		}
		rows = append(rows, rg)
	}
	return g.render(windowTable, project, rows)
}

// WallTable draws the wall specification table of a project.
func (g *TableGenerator) WallTable(project *models.Project, walls []models.Wall) ([]byte, error) {
	groups := GroupByFloor(walls, func(w models.Wall) string { return w.Floor })
	rows := make([]rowGroup, 0, len(groups))
	for _, grp := range groups {
		rg := rowGroup{label: groupLabel(grp.Range, grp.Label)}
		for _, w := range grp.Items {
			rg.rows = append(rg.rows, tableRow{
				{strconv.Itoa(w.ID)}, {w.Name}, {w.StudType}, {w.StudSpacing},
				{w.MaxHeight}, {w.Deflection}, splitLines(w.Note),
			})
		}
		rows = append(rows, rg)
	}
	return g.render(wallTable, project, rows)
}

func windowRow(w models.Window) tableRow {
	return tableRow{
		{strconv.Itoa(w.ID)},
		{w.Type},
		{w.LargeurMax},
		{w.HauteurMax},
		{w.Jambage.Type}, w.Jambage.Compositions,
		{w.Linteau.Type}, w.Linteau.Compositions,
		{w.Seuil.Type}, w.Seuil.Compositions,
		{w.L1},
		{w.L2},
	}
}

func groupLabel(r *FloorRange, text string) string {
	switch {
	case r == nil:
		return "SANS ÉTAGE"
	case text != "":
		return "ÉTAGE " + strings.ToUpper(text)
	default:
		return "ÉTAGE " + r.String()
	}
}

func splitLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

type rowGroup struct {
	label string
	rows  []tableRow
}

func (g *TableGenerator) render(layout tableLayout, project *models.Project, groups []rowGroup) ([]byte, error) {
	pdf := gofpdf.New("L", "pt", "Letter", "")
	pdf.SetMargins(tableMargin, tableMargin, tableMargin)
	pdf.SetAutoPageBreak(false, tableMargin)
	pdf.AddUTF8FontFromBytes("GoRegular", "", goregular.TTF)
	pdf.AddUTF8FontFromBytes("GoRegular", "B", gobold.TTF)
	pdf.AliasNbPages("{nb}")

	pageW, pageH := pdf.GetPageSize()
	widths := ColumnWidths(pageW-2*tableMargin, layout.fractions)

	qrName, err := registerQRCode(pdf, project)
	if err != nil {
		return nil, err
	}

	title := cases.Upper(language.French).String(layout.title)
	generated := g.now().Format("2006-01-02")
	pdf.SetFooterFunc(func() {
		pdf.SetY(pageH - footerOffset)
		pdf.SetFont("GoRegular", "", 7)
		half := (pageW - 2*tableMargin) / 2
		pdf.SetX(tableMargin)
		pdf.CellFormat(half, 10, fmt.Sprintf("%s  ·  %s  ·  %s", project.ProjectNumber, project.Name, generated), "", 0, "L", false, 0, "")
		pdf.CellFormat(half, 10, fmt.Sprintf("Page %d / {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	newPage := func() float64 {
		pdf.AddPage()
		pdf.SetFont("GoRegular", "B", titleFontSize)
		pdf.SetXY(tableMargin, tableMargin)
		pdf.CellFormat(pageW-2*tableMargin-qrSize, 16, title, "", 1, "L", false, 0, "")
		pdf.SetFont("GoRegular", "", 9)
		pdf.SetX(tableMargin)
		pdf.CellFormat(pageW-2*tableMargin-qrSize, 12, fmt.Sprintf("%s - %s", project.Name, project.ClientName), "", 1, "L", false, 0, "")
		pdf.ImageOptions(qrName, pageW-tableMargin-qrSize, tableMargin-8, qrSize, qrSize, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		return drawHeader(pdf, layout.header, widths, tableMargin+qrSize)
	}

	bottom := pageH - tableMargin - footerOffset/2
	y := newPage()
	for _, grp := range groups {
		if y+groupBandHeight+baseRowHeight > bottom {
			y = newPage()
		}
		y = drawGroupBand(pdf, grp.label, pageW-2*tableMargin, y)
		for _, row := range grp.rows {
			h := row.height()
			if y+h > bottom {
				y = newPage()
			}
			drawRow(pdf, row, widths, y, h)
			y += h
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("draw %s: %w", layout.title, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write %s: %w", layout.title, err)
	}
	return buf.Bytes(), nil
}

// drawHeader draws the two header rows and returns the y below them.
// Columns without sub-columns span both rows.
func drawHeader(pdf *gofpdf.Fpdf, header []headerCell, widths []float64, y float64) float64 {
	pdf.SetFont("GoRegular", "B", headerFontSize)
	pdf.SetFillColor(230, 230, 230)

	x := tableMargin
	col := 0
	for _, h := range header {
		span := h.span()
		w := 0.0
		for i := 0; i < span; i++ {
			w += widths[col+i]
		}
		if len(h.sub) == 0 {
			pdf.SetXY(x, y)
			pdf.CellFormat(w, 2*headerRowHeight, h.title, "1", 0, "CM", true, 0, "")
		} else {
			pdf.SetXY(x, y)
			pdf.CellFormat(w, headerRowHeight, h.title, "1", 0, "CM", true, 0, "")
			sx := x
			for i, sub := range h.sub {
				pdf.SetXY(sx, y+headerRowHeight)
				pdf.CellFormat(widths[col+i], headerRowHeight, sub, "1", 0, "CM", true, 0, "")
				sx += widths[col+i]
			}
		}
		x += w
		col += span
	}
	return y + 2*headerRowHeight
}

func drawGroupBand(pdf *gofpdf.Fpdf, label string, width, y float64) float64 {
	pdf.SetFont("GoRegular", "B", bodyFontSize)
	pdf.SetFillColor(245, 245, 245)
	pdf.SetXY(tableMargin, y)
	pdf.CellFormat(width, groupBandHeight, label, "1", 0, "LM", true, 0, "")
	return y + groupBandHeight
}

// drawRow draws one bordered row of height h. Single-line cells are centred,
// multi-line cells are listed from the top.
func drawRow(pdf *gofpdf.Fpdf, row tableRow, widths []float64, y, h float64) {
	pdf.SetFont("GoRegular", "", bodyFontSize)
	x := tableMargin
	for i, lines := range row {
		w := widths[i]
		pdf.Rect(x, y, w, h, "D")
		switch len(lines) {
		case 0:
		case 1:
			pdf.SetXY(x, y)
			pdf.CellFormat(w, h, lines[0], "", 0, "CM", false, 0, "")
		default:
			for n, line := range lines {
				pdf.SetXY(x+cellPadding, y+cellPadding+float64(n)*lineHeight)
				pdf.CellFormat(w-2*cellPadding, lineHeight, line, "", 0, "LM", false, 0, "")
			}
		}
		x += w
	}
}

// registerQRCode encodes the project number and revision as a PNG QR code
// and registers it with pdf.
func registerQRCode(pdf *gofpdf.Fpdf, project *models.Project) (string, error) {
	content := project.ProjectNumber
	if project.SelectedRevisionNumber > 0 {
		content = fmt.Sprintf("%s|R%d", content, project.SelectedRevisionNumber)
	}
	if content == "" {
		content = project.ID
	}
	if content == "" {
		content = "unnumbered"
	}
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode QR code: %w", err)
	}
	const name = "project-qr"
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	return name, nil
}
