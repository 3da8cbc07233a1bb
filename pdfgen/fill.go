package pdfgen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cfss-backend/models"
	"cfss-backend/windload"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	userfont "github.com/pdfcpu/pdfcpu/pkg/font"
	pdffont "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/primitives"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/unicode/norm"
)

// FormValues maps logical field names to their text.
type FormValues map[string]string

// condensedFields get the condensed font at the reduced size.
var condensedFields = map[string]bool{
	"projectAddress": true,
	"projectTitle":   true,
	"clientName":     true,
	"contractNumber": true,
}

// overflowField drops to the overflow size when its text is wider than the box.
const overflowField = "projectAddress"

// ShouldFlatten reports whether a generated form is flattened for the caller:
// always for non-admins, and for admins only on an explicit sign request by a
// privileged account.
func ShouldFlatten(user models.UserInfo, privileged, signDocument bool) bool {
	return !user.IsAdmin || (privileged && signDocument)
}

// CoverValues builds the logical cover-page fields of a project.
func CoverValues(p *models.Project, revisions []models.Revision, date time.Time) FormValues {
	values := FormValues{
		"projectTitle":   p.Name,
		"clientName":     p.ClientName,
		"projectAddress": p.Address(),
		"contractNumber": p.ContractNumber,
		"projectNumber":  p.ProjectNumber,
		"designedBy":     p.DesignedBy,
		"approvedBy":     p.ApprovedBy,
		"date":           date.Format("2006-01-02"),
	}

	if wind := p.CFSSWindData; wind != nil {
		values["windResistance"] = windload.FormatWindDataString(wind.Storeys, windload.DataResistance, wind.FloorGroups)
		values["windDeflection"] = windload.FormatWindDataString(wind.Storeys, windload.DataDeflection, wind.FloorGroups)
		for k, v := range wind.Specifications {
			if _, taken := values[k]; !taken {
				values[k] = v
			}
		}
	}

	for i, rev := range revisions {
		n := strconv.Itoa(i + 1)
		values["revision"+n] = strconv.Itoa(rev.Number)
		values["description"+n] = rev.Description
		values["Date"+n] = rev.CreatedAt.Format("2006-01-02")
	}
	return values
}

// WallValues adds one wall's fields to the project header values.
func WallValues(header FormValues, w models.Wall) FormValues {
	values := copyValues(header)
	values["wallName"] = w.Name
	values["floor"] = w.Floor
	values["studType"] = w.StudType
	values["studSpacing"] = w.StudSpacing
	values["maxHeight"] = w.MaxHeight
	values["deflection"] = w.Deflection
	values["note"] = w.Note
	return values
}

// EquipmentValues adds one equipment item's fields to the project header
// values. Free-form fields never replace the named ones.
func EquipmentValues(header FormValues, e models.Equipment) FormValues {
	values := copyValues(header)
	values["equipmentName"] = e.Name
	values["floor"] = e.Floor
	values["weight"] = e.Weight
	values["anchorage"] = e.Anchorage
	for k, v := range e.Fields {
		if _, taken := values[k]; !taken {
			values[k] = v
		}
	}
	return values
}

func copyValues(in FormValues) FormValues {
	out := make(FormValues, len(in)+8)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// FieldAssignment is one concrete form field to fill.
type FieldAssignment struct {
	Logical  string
	Field    string
	Value    string
	Font     string
	FontSize float64
}

// FieldPlan is the outcome of matching logical values to a template.
type FieldPlan struct {
	Assignments []FieldAssignment
	// Drift lists manifest field names missing from the PDF.
	Drift []string
	// Unmatched lists logical values no field received.
	Unmatched []string
}

// PlanFields resolves values against the field names present in a template.
// Logical fields the manifest enumerates resolve by exact name only; the rest
// resolve to every field whose name ends with the logical name.
func PlanFields(tmpl *Template, fonts FontPolicy, measure *TextMeasurer, present []string, values FormValues) (*FieldPlan, error) {
	have := make(map[string]bool, len(present))
	for _, name := range present {
		have[name] = true
	}

	plan := &FieldPlan{}
	for _, refs := range tmpl.Fields {
		for _, ref := range refs {
			if !have[ref.Name] {
				plan.Drift = append(plan.Drift, ref.Name)
			}
		}
	}
	sort.Strings(plan.Drift)

	logicals := make([]string, 0, len(values))
	for k := range values {
		logicals = append(logicals, k)
	}
	sort.Strings(logicals)

	for _, logical := range logicals {
		value := norm.NFC.String(values[logical])

		var targets []string
		if refs, ok := tmpl.Fields[logical]; ok {
			for _, ref := range refs {
				if have[ref.Name] {
					targets = append(targets, ref.Name)
				}
			}
		} else {
			for _, name := range present {
				if strings.HasSuffix(name, logical) {
					targets = append(targets, name)
				}
			}
		}
		if len(targets) == 0 {
			plan.Unmatched = append(plan.Unmatched, logical)
			continue
		}

		for _, field := range targets {
			a := FieldAssignment{Logical: logical, Field: field, Value: value, Font: fonts.Unicode}
			if condensedFields[logical] {
				a.Font = fonts.Condensed
				a.FontSize = fonts.CondensedSize
				if logical == overflowField && measure != nil {
					if box, ok := tmpl.FieldWidth(field); ok {
						w, err := measure.Width(value, fonts.CondensedSize)
						if err != nil {
							return nil, err
						}
						if w*fonts.CondensedWidthFactor > box {
							a.FontSize = fonts.OverflowSize
						}
					}
				}
			}
			plan.Assignments = append(plan.Assignments, a)
		}
	}
	return plan, nil
}

// FormFiller fills form templates with pdfcpu.
type FormFiller struct {
	fonts   FontPolicy
	measure *TextMeasurer
}

func NewFormFiller(manifest *Manifest, measure *TextMeasurer) *FormFiller {
	return &FormFiller{fonts: manifest.Fonts, measure: measure}
}

// FillResult is a filled document and what was learned while filling it.
type FillResult struct {
	PDF  []byte
	Plan *FieldPlan
}

// Fill writes values into the template form. Every filled field gets a fresh
// appearance whose font resource is an embedded subset of the policy font, so
// text outside Latin-1 renders; flatten locks every field afterwards.
func (f *FormFiller) Fill(tmpl *Template, pdf []byte, values FormValues, flatten bool) (*FillResult, error) {
	if err := installUserFonts(); err != nil {
		return nil, err
	}

	ctx, err := api.ReadContext(bytes.NewReader(pdf), newConf())
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", tmpl.Key, err)
	}

	form, err := readForm(ctx)
	if err != nil {
		return nil, fmt.Errorf("read form of %s: %w", tmpl.Key, err)
	}

	plan, err := PlanFields(tmpl, f.fonts, f.measure, form.names(), values)
	if err != nil {
		return nil, err
	}
	if len(plan.Assignments) == 0 {
		out := pdf
		if flatten {
			if out, err = f.Flatten(pdf); err != nil {
				return nil, err
			}
		}
		return &FillResult{PDF: out, Plan: plan}, nil
	}

	for _, a := range plan.Assignments {
		if err := form.applyFont(ctx, a.Field, a.Font, a.FontSize); err != nil {
			return nil, fmt.Errorf("set font of %s: %w", a.Field, err)
		}
	}

	var styled bytes.Buffer
	if err := api.WriteContext(ctx, &styled); err != nil {
		return nil, fmt.Errorf("write styled form: %w", err)
	}

	payload, err := json.Marshal(fillPayload(plan.Assignments))
	if err != nil {
		return nil, err
	}

	var filled bytes.Buffer
	if err := api.FillForm(bytes.NewReader(styled.Bytes()), bytes.NewReader(payload), &filled, newConf()); err != nil {
		return nil, fmt.Errorf("fill form %s: %w", tmpl.Key, err)
	}

	out := filled.Bytes()
	if flatten {
		if out, err = f.Flatten(out); err != nil {
			return nil, err
		}
	}
	return &FillResult{PDF: out, Plan: plan}, nil
}

// Flatten makes every form field of pdf read-only. Widgets and their
// appearances stay in the document; with FLATTEN_MODE=remote the flatten
// service burns them into page content instead. A document without a form is
// returned unchanged.
func (f *FormFiller) Flatten(pdf []byte) ([]byte, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), newConf())
	if err != nil {
		return nil, fmt.Errorf("read for flatten: %w", err)
	}
	form, err := readForm(ctx)
	if err != nil {
		return nil, err
	}
	if len(form.fields) == 0 {
		return pdf, nil
	}

	var out bytes.Buffer
	if err := api.LockFormFields(bytes.NewReader(pdf), &out, nil, newConf()); err != nil {
		return nil, fmt.Errorf("lock form fields: %w", err)
	}
	return out.Bytes(), nil
}

// FieldNames lists the full names of the text fields in pdf.
func (f *FormFiller) FieldNames(pdf []byte) ([]string, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), newConf())
	if err != nil {
		return nil, err
	}
	form, err := readForm(ctx)
	if err != nil {
		return nil, err
	}
	return form.names(), nil
}

type jsonTextField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

type jsonForm struct {
	TextFields []jsonTextField `json:"textfield"`
}

type jsonFormGroup struct {
	Forms []jsonForm `json:"forms"`
}

func fillPayload(assignments []FieldAssignment) jsonFormGroup {
	fields := make([]jsonTextField, 0, len(assignments))
	for _, a := range assignments {
		fields = append(fields, jsonTextField{Name: a.Field, Value: a.Value})
	}
	return jsonFormGroup{Forms: []jsonForm{{TextFields: fields}}}
}

// fontIDPrefix names the font resources of the appearances written by Fill.
const fontIDPrefix = "CfssF"

// formField is one terminal text field and the widget annotations that
// display it. A field merged with its only widget is its own widget.
type formField struct {
	dict    types.Dict
	widgets []types.Dict
}

// acroForm is the text-field view of a document's AcroForm.
type acroForm struct {
	fields    map[string][]formField
	order     []string
	resources map[string]bool
	fontIDs   map[string]string
	fontRefs  map[string]types.IndirectRef
}

func (a *acroForm) names() []string {
	return append([]string(nil), a.order...)
}

// applyFont points every widget of field at font. Each widget gets a new
// normal appearance whose resources carry the font under an id of its own,
// and a default appearance using that id. A zero size keeps the size the
// template set.
//
// The font stays out of the form's default resources: pdfcpu writes text in
// those fonts as raw bytes instead of glyph ids.
func (a *acroForm) applyFont(ctx *model.Context, field, font string, size float64) error {
	id, ref, err := a.fontResource(ctx, font)
	if err != nil {
		return err
	}
	for _, ff := range a.fields[field] {
		// A value equal to the old one would keep the blank appearance.
		delete(ff.dict, "V")
		for _, w := range ff.widgets {
			if err := setAppearance(ctx, w, id, ref, size); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *acroForm) fontResource(ctx *model.Context, font string) (string, types.IndirectRef, error) {
	if id, ok := a.fontIDs[font]; ok {
		return id, a.fontRefs[font], nil
	}
	if !userfont.IsUserFont(font) && !userfont.IsCoreFont(font) {
		return "", types.IndirectRef{}, fmt.Errorf("font %s is not installed", font)
	}
	ref, err := pdffont.EnsureFontDict(ctx.XRefTable, font, "", "", false, nil)
	if err != nil {
		return "", types.IndirectRef{}, err
	}
	id := a.freeFontID()
	a.fontIDs[font] = id
	a.fontRefs[font] = *ref
	return id, *ref, nil
}

// freeFontID returns a resource id that shares no prefix with a default
// resource font, since pdfcpu matches those ids by prefix.
func (a *acroForm) freeFontID() string {
	for n := len(a.fontIDs) + 1; ; n++ {
		id := fontIDPrefix + strconv.Itoa(n)
		taken := false
		for k := range a.resources {
			if strings.HasPrefix(k, id) || strings.HasPrefix(id, k) {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

func setAppearance(ctx *model.Context, w types.Dict, id string, ref types.IndirectRef, size float64) error {
	obj, found := w.Find("Rect")
	if !found {
		return errors.New("widget without Rect")
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil {
		return err
	}
	rect, err := ctx.RectForArray(arr)
	if err != nil {
		return err
	}

	ap, err := primitives.NewForm(ctx.XRefTable, []byte{}, id, &ref, rect)
	if err != nil {
		return err
	}
	w["AP"] = types.Dict{"N": *ap}

	da := RewriteDA(decodeString(w["DA"]), id, size)
	if !strings.Contains(da, "Tf") {
		da = RewriteDA(da, id, defaultFieldSize)
	}
	w["DA"] = types.StringLiteral(da)
	return nil
}

// defaultFieldSize applies to widgets without any default appearance.
const defaultFieldSize = 10

func readForm(ctx *model.Context) (*acroForm, error) {
	form := &acroForm{
		fields:    map[string][]formField{},
		resources: map[string]bool{},
		fontIDs:   map[string]string{},
		fontRefs:  map[string]types.IndirectRef{},
	}

	root, err := ctx.Catalog()
	if err != nil {
		return nil, err
	}
	obj, found := root.Find("AcroForm")
	if !found {
		return form, nil
	}
	acro, err := ctx.DereferenceDict(obj)
	if err != nil || acro == nil {
		return form, err
	}

	if dr, found := acro.Find("DR"); found {
		if res, err := ctx.DereferenceDict(dr); err == nil && res != nil {
			if fonts, found := res.Find("Font"); found {
				if fd, err := ctx.DereferenceDict(fonts); err == nil {
					for name := range fd {
						form.resources[name] = true
					}
				}
			}
		}
	}

	fieldsObj, found := acro.Find("Fields")
	if !found {
		return form, nil
	}
	fields, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, err
	}
	da, _ := acro.Find("DA")
	if err := walkFields(ctx, form, fields, "", "", da); err != nil {
		return nil, err
	}
	return form, nil
}

// walkFields collects terminal text fields under full dotted names. Field
// type and default appearance are inherited from ancestors and copied onto
// every widget.
func walkFields(ctx *model.Context, form *acroForm, arr types.Array, parent, inheritedFT string, inheritedDA types.Object) error {
	for _, obj := range arr {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return err
		}
		if d == nil {
			continue
		}

		ft := inheritedFT
		if v := d.NameEntry("FT"); v != nil {
			ft = *v
		}
		da := inheritedDA
		if v, found := d.Find("DA"); found {
			da = v
		}

		name := parent
		if t, found := d.Find("T"); found {
			partial := decodeString(t)
			if parent == "" {
				name = partial
			} else {
				name = parent + "." + partial
			}
		}

		var kids types.Array
		if k, found := d.Find("Kids"); found {
			if kids, err = ctx.DereferenceArray(k); err != nil {
				return err
			}
		}

		if hasNamedKids(ctx, kids) {
			if err := walkFields(ctx, form, kids, name, ft, da); err != nil {
				return err
			}
			continue
		}

		if ft != "Tx" || name == "" {
			continue
		}
		if _, seen := form.fields[name]; !seen {
			form.order = append(form.order, name)
		}
		if _, found := d.Find("DA"); !found && da != nil {
			d["DA"] = da
		}

		ff := formField{dict: d}
		for _, kid := range kids {
			w, err := ctx.DereferenceDict(kid)
			if err != nil || w == nil {
				continue
			}
			if _, found := w.Find("DA"); !found && da != nil {
				w["DA"] = da
			}
			ff.widgets = append(ff.widgets, w)
		}
		if len(kids) == 0 {
			ff.widgets = []types.Dict{d}
		}
		form.fields[name] = append(form.fields[name], ff)
	}
	return nil
}

func hasNamedKids(ctx *model.Context, kids types.Array) bool {
	for _, kid := range kids {
		d, err := ctx.DereferenceDict(kid)
		if err != nil || d == nil {
			continue
		}
		if _, found := d.Find("T"); found {
			return true
		}
	}
	return false
}

func decodeString(obj types.Object) string {
	switch v := obj.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return string(v)
		}
		return s
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	}
	return ""
}

// RewriteDA replaces the font resource and size of a default appearance
// string such as "/Helv 0 Tf 0 g". An empty font or a zero size keeps the
// existing operand.
func RewriteDA(da, font string, size float64) string {
	tokens := strings.Fields(da)
	for i, tok := range tokens {
		if tok != "Tf" || i < 2 {
			continue
		}
		if font != "" {
			tokens[i-2] = "/" + strings.TrimPrefix(font, "/")
		}
		if size > 0 {
			tokens[i-1] = strconv.FormatFloat(size, 'f', -1, 64)
		}
		return strings.Join(tokens, " ")
	}
	if font == "" || size <= 0 {
		return da
	}
	return strings.TrimSpace(fmt.Sprintf("/%s %s Tf %s", strings.TrimPrefix(font, "/"), strconv.FormatFloat(size, 'f', -1, 64), da))
}
