package pdfgen

import (
	_ "embed"
	"fmt"
	"sync"

	userfont "github.com/pdfcpu/pdfcpu/pkg/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	//go:embed fonts/Roboto-Regular.ttf
	robotoTTF []byte
	//go:embed fonts/DejaVuSansCondensed.ttf
	dejaVuCondensedTTF []byte
)

// bundledFonts are keyed by PostScript name, the name pdfcpu registers a
// user font under.
var bundledFonts = map[string][]byte{
	"Roboto-Regular":      robotoTTF,
	"DejaVuSansCondensed": dejaVuCondensedTTF,
}

var (
	userFontsOnce sync.Once
	userFontsErr  error
)

// installUserFonts makes the bundled fonts available to pdfcpu as embeddable
// user fonts. Fonts already present in the user font directory are kept.
func installUserFonts() error {
	userFontsOnce.Do(func() {
		// Loading a configuration sets pdfcpu's user font directory.
		newConf()
		for name, ttf := range bundledFonts {
			if userfont.IsUserFont(name) {
				continue
			}
			if err := userfont.InstallFontFromBytes(userfont.UserFontDir, name, ttf); err != nil {
				userFontsErr = fmt.Errorf("install font %s: %w", name, err)
				return
			}
		}
		if err := userfont.LoadUserFonts(); err != nil {
			userFontsErr = fmt.Errorf("load user fonts: %w", err)
		}
	})
	return userFontsErr
}

// TextMeasurer measures rendered text widths in points with the metrics of
// the condensed form font. Faces are cached per size.
type TextMeasurer struct {
	font  *opentype.Font
	mu    sync.Mutex
	faces map[float64]font.Face
}

func NewTextMeasurer() (*TextMeasurer, error) {
	f, err := opentype.Parse(dejaVuCondensedTTF)
	if err != nil {
		return nil, fmt.Errorf("parse measuring font: %w", err)
	}
	return &TextMeasurer{font: f, faces: make(map[float64]font.Face)}, nil
}

// Width returns the advance width of text at size points.
func (m *TextMeasurer) Width(text string, size float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	face, ok := m.faces[size]
	if !ok {
		var err error
		face, err = opentype.NewFace(m.font, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			return 0, fmt.Errorf("build face at %.1fpt: %w", size, err)
		}
		m.faces[size] = face
	}
	return fixedToFloat(font.MeasureString(face, text)), nil
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
