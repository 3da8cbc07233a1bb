package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cfss-backend/models"
	"cfss-backend/pdfgen"
	"cfss-backend/storage"
	"cfss-backend/utils"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Cell(100, 20, "page")
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 60))
	for x := 0; x < 200; x++ {
		img.Set(x, 30, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeProjects map[string]*models.Project

func (f fakeProjects) Get(_ context.Context, id string) (*models.Project, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, storage.ErrProjectNotFound
}

type fakeObjects struct {
	mu        sync.Mutex
	templates map[string][]byte
	puts      map[string][]byte
	reports   []storage.ReportObject
	deleted   []string
	failKey   string
	putErr    error
	inFlight  int32
	peak      int32
}

func (f *fakeObjects) FetchTemplate(_ context.Context, name, domain string) ([]byte, error) {
	b, ok := f.templates[domain+"/"+name]
	if !ok {
		return nil, errors.New("no such template")
	}
	return b, nil
}

func (f *fakeObjects) UploadReport(_ context.Context, pdf []byte, project *models.Project, _ models.UserInfo, _ string) (*storage.ReportUpload, error) {
	key := storage.BuildReportKey(project, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	f.mu.Lock()
	f.puts[key] = pdf
	f.mu.Unlock()
	return &storage.ReportUpload{Key: key, URL: "https://example.test/" + key}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, key string, body []byte, _ string, _ map[string]string) error {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts[key] = body
	return nil
}

func (f *fakeObjects) PresignGet(_ context.Context, key string) (string, error) {
	return "https://example.test/" + key, nil
}

func (f *fakeObjects) ListReports(_ context.Context, _ time.Time) ([]storage.ReportObject, error) {
	return f.reports, nil
}

func (f *fakeObjects) DeleteReport(_ context.Context, key string) error {
	if key == f.failKey {
		return errors.New("access denied")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeRegistry struct {
	mu       sync.Mutex
	reports  []models.ReportRecordGorm
	logs     []models.ActivityLogGorm
	expired  []models.ReportRecordGorm
	removed  []string
	failSave bool
}

func (f *fakeRegistry) SaveReportRecord(_ context.Context, r *models.ReportRecordGorm) error {
	if f.failSave {
		return errors.New("db down")
	}
	f.reports = append(f.reports, *r)
	return nil
}

func (f *fakeRegistry) SaveActivityLog(_ context.Context, l *models.ActivityLogGorm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *l)
	return nil
}

func (f *fakeRegistry) ExpiredReportRecords(_ context.Context, _ time.Time) ([]models.ReportRecordGorm, error) {
	return f.expired, nil
}

func (f *fakeRegistry) DeleteReportRecord(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

type fakeNotifier struct{ got []ReportReady }

func (f *fakeNotifier) NotifyReportReady(r ReportReady) error {
	f.got = append(f.got, r)
	return errors.New("smtp down")
}

func newReportService(t *testing.T, projects fakeProjects) (*ReportService, *fakeObjects, *fakeRegistry, *fakeNotifier) {
	t.Helper()
	manifest, err := pdfgen.LoadManifest()
	require.NoError(t, err)

	objects := &fakeObjects{
		templates: map[string][]byte{
			"cfss/cover":        samplePDF(t, 1),
			"cfss/summary":      samplePDF(t, 1),
			"cfss/wall":         samplePDF(t, 1),
			"seismic/cover":     samplePDF(t, 1),
			"seismic/equipment": samplePDF(t, 1),
		},
		puts: map[string][]byte{},
	}
	registry := &fakeRegistry{}
	notifier := &fakeNotifier{}
	svc := NewReportService(ReportDeps{
		Projects: projects,
		Objects:  objects,
		Manifest: manifest,
		Filler:   pdfgen.NewFormFiller(manifest, nil),
		Tables:   pdfgen.NewTableGenerator(),
		Composer: pdfgen.NewComposer(),
		Registry: registry,
		Activity: NewActivityRecorder(registry),
		Notifier: notifier,
	})
	return svc, objects, registry, notifier
}

func cfssProject() *models.Project {
	return &models.Project{
		ID: "p1", Domain: models.DomainCFSS, Name: "Tour Nord", ClientName: "ACME", ProjectNumber: "24-001",
		Walls: []models.Wall{{ID: 1, Name: "M1", Floor: "NV1"}, {ID: 2, Name: "M2", Floor: "NV2"}},
		Windows: []models.Window{
			{ID: 1, Type: "Fixe", Floor: "RDC", Jambage: models.Composition{Type: "J1", Compositions: []string{"600S162-43"}}},
		},
		WallRevisions: []models.Revision{{Number: 1, Description: "Permis", CreatedAt: time.Now()}},
	}
}

func TestGenerateCFSSReportForNonAdmin(t *testing.T) {
	svc, objects, registry, notifier := newReportService(t, fakeProjects{"p1": cfssProject()})
	user := models.UserInfo{Email: "tech@firm.ca"}

	res, err := svc.Generate(context.Background(), ReportRequest{ProjectID: "p1"}, user)
	require.NoError(t, err)

	assert.Equal(t, models.DomainCFSS, res.ReportType)
	assert.Equal(t, []string{SectionCover, SectionSummary, SectionWalls, SectionWindows, SectionWallTable}, res.Sections)
	assert.True(t, res.Watermarked)
	assert.True(t, res.Flattened)
	assert.Equal(t, 6, res.PageCount)
	assert.Contains(t, objects.puts, res.Key)

	require.Len(t, registry.reports, 1)
	assert.Equal(t, res.Key, registry.reports[0].ObjectKey)
	assert.Equal(t, 1, registry.reports[0].RevisionNumber)
	assert.Equal(t, []string(res.Sections), []string(registry.reports[0].Sections))

	require.Len(t, registry.logs, 1)
	assert.Equal(t, EventGenerate, registry.logs[0].EventName)

	// A failing notifier does not fail the request.
	require.Len(t, notifier.got, 1)
	assert.Equal(t, 6, notifier.got[0].PageCount)
}

func TestGenerateReportForAdmin(t *testing.T) {
	svc, _, _, _ := newReportService(t, fakeProjects{"p1": cfssProject()})

	res, err := svc.Generate(context.Background(), ReportRequest{ProjectID: "p1"}, models.UserInfo{Email: "boss@firm.ca", IsAdmin: true})
	require.NoError(t, err)
	assert.False(t, res.Watermarked)
	assert.False(t, res.Flattened)

	svc.Privileged = func(email string) bool { return email == "boss@firm.ca" }
	res, err = svc.Generate(context.Background(), ReportRequest{ProjectID: "p1", SignDocument: true}, models.UserInfo{Email: "boss@firm.ca", IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, res.Flattened)
}

func TestGenerateSeismicReport(t *testing.T) {
	project := &models.Project{
		ID: "s1", Domain: models.DomainSeismic, Name: "Usine", ProjectNumber: "S-7",
		Equipment: []models.Equipment{{ID: 1, Name: "Pompe"}, {ID: 2, Name: "Réservoir"}},
	}
	svc, _, registry, _ := newReportService(t, fakeProjects{"s1": project})
	registry.failSave = true

	res, err := svc.Generate(context.Background(), ReportRequest{ProjectID: "s1"}, models.UserInfo{Email: "a@b.c", IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, []string{SectionCover, SectionEquipment}, res.Sections)
	assert.Equal(t, 3, res.PageCount)
}

func TestGenerateReportErrors(t *testing.T) {
	svc, _, _, _ := newReportService(t, fakeProjects{"p1": cfssProject()})

	_, err := svc.Generate(context.Background(), ReportRequest{ProjectID: "missing"}, models.UserInfo{})
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)

	_, err = svc.Generate(context.Background(), ReportRequest{ProjectID: "p1", ReportType: "bridges"}, models.UserInfo{})
	assert.ErrorIs(t, err, ErrUnknownReportType)
}

func TestReportWallsFromSelectedRevision(t *testing.T) {
	p := cfssProject()
	p.SelectedRevisionNumber = 1
	p.WallRevisions[0].Walls = []models.Wall{{ID: 9, Name: "Old"}}
	assert.Equal(t, "Old", reportWalls(p)[0].Name)

	p.SelectedRevisionNumber = 0
	assert.Len(t, reportWalls(p), 2)
}

type failingFlattener struct{}

func (failingFlattener) Flatten(context.Context, []byte) ([]byte, error) {
	return nil, errors.New("flatten service unavailable")
}

func newVerifier(t *testing.T, objects *fakeObjects, flattener Flattener) (*BulkVerifier, *fakeRegistry) {
	t.Helper()
	manifest, err := pdfgen.LoadManifest()
	require.NoError(t, err)
	if flattener == nil {
		flattener = NewLocalFlattener(pdfgen.NewFormFiller(manifest, nil))
	}
	registry := &fakeRegistry{}
	sig := samplePNG(t)
	v, err := NewBulkVerifier(objects, pdfgen.NewComposer(), flattener,
		func(context.Context) ([]byte, error) { return sig, nil }, NewActivityRecorder(registry))
	require.NoError(t, err)
	return v, registry
}

func TestBulkVerify(t *testing.T) {
	objects := &fakeObjects{puts: map[string][]byte{}}
	v, registry := newVerifier(t, objects, nil)

	files := []VerifyFile{
		{Name: "a.pdf", Data: samplePDF(t, 1)},
		{Name: "b.pdf", Data: samplePDF(t, 2)},
		{Name: "notes.txt", Data: []byte("hello")},
		{Name: "c.pdf", Data: samplePDF(t, 1)},
		{Name: "d.pdf", Data: samplePDF(t, 1)},
		{Name: "e.pdf", Data: samplePDF(t, 1)},
	}
	entries, err := v.Verify(context.Background(), files, models.UserInfo{Email: "eng@firm.ca"})
	require.NoError(t, err)
	require.Len(t, entries, len(files))

	for i, e := range entries {
		assert.Equal(t, files[i].Name, e.Name)
		if e.Name == "notes.txt" {
			assert.Equal(t, StateError, e.State)
			assert.Contains(t, e.Error, "not a PDF")
			continue
		}
		assert.Equal(t, StateVerified, e.State, e.Name)
		assert.True(t, strings.HasPrefix(e.Key, "verified/"))
		assert.Contains(t, objects.puts, e.Key)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&objects.peak), int32(MaxConcurrentUploads))

	require.Len(t, registry.logs, 1)
	assert.Equal(t, "verified 5 of 6 documents", registry.logs[0].Description)
}

func TestBulkVerifyFailures(t *testing.T) {
	objects := &fakeObjects{puts: map[string][]byte{}}
	v, _ := newVerifier(t, objects, failingFlattener{})

	entries, err := v.Verify(context.Background(), []VerifyFile{{Name: "a.pdf", Data: samplePDF(t, 1)}}, models.UserInfo{})
	require.NoError(t, err)
	assert.Equal(t, StateError, entries[0].State)
	assert.Empty(t, entries[0].Key)
	assert.Contains(t, entries[0].Error, "flatten service unavailable")

	objects.putErr = errors.New("bucket gone")
	entries, err = v.Verify(context.Background(), []VerifyFile{{Name: "a.pdf", Data: samplePDF(t, 1)}}, models.UserInfo{})
	require.NoError(t, err)
	assert.Equal(t, StateError, entries[0].State)

	_, err = v.Verify(context.Background(), nil, models.UserInfo{})
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestDirStore(t *testing.T) {
	dir := t.TempDir()
	v, _ := newVerifier(t, &fakeObjects{}, nil)
	v.store = &DirStore{Dir: dir}

	entries, err := v.Verify(context.Background(), []VerifyFile{{Name: "plan.pdf", Data: samplePDF(t, 1)}}, models.UserInfo{})
	require.NoError(t, err)
	assert.Equal(t, StateVerified, entries[0].State)
	assert.True(t, strings.HasPrefix(entries[0].URL, dir))
}

func TestRemoteFlattener(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
		case "/flatten":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			_, _ = w.Write([]byte("%PDF-1.7 flat"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	cfg := &utils.Config{
		FlattenMode:         utils.FlattenRemote,
		FlattenURL:          srv.URL + "/flatten",
		FlattenClientID:     "svc",
		FlattenClientSecret: "secret",
		FlattenTokenURL:     srv.URL + "/token",
	}
	f := NewFlattener(cfg, nil)
	out, err := f.Flatten(context.Background(), []byte("%PDF-1.7 form"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 flat", string(out))

	// Without credentials the request goes out unauthenticated and is refused.
	cfg.FlattenClientID = ""
	_, err = NewRemoteFlattener(cfg).Flatten(context.Background(), []byte("%PDF"))
	assert.ErrorContains(t, err, "status 401")
}

func TestNewFlattenerDefaultsToLocal(t *testing.T) {
	_, ok := NewFlattener(&utils.Config{FlattenMode: utils.FlattenLocal}, nil).(*LocalFlattener)
	assert.True(t, ok)
}

func TestNotifyReportReady(t *testing.T) {
	assert.Nil(t, NewEmailService(&utils.Config{}))
	var nilService *EmailService
	assert.NoError(t, nilService.NotifyReportReady(ReportReady{}))

	es := NewEmailService(&utils.Config{SMTPHost: "mail.test", SMTPPort: "25", NotifyEmail: "office@firm.ca"})
	var gotTo []string
	var gotMsg string
	es.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		assert.Equal(t, "mail.test:25", addr)
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	err := es.NotifyReportReady(ReportReady{
		Project:    &models.Project{Name: "Tour Nord", ProjectNumber: "24-001", ClientName: "ACME"},
		User:       models.UserInfo{Email: "tech@firm.ca"},
		ReportType: "cfss",
		PageCount:  6,
		Upload:     &storage.ReportUpload{Key: "reports/x.pdf", URL: "https://example.test/x"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tech@firm.ca", "office@firm.ca"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Report ready: Tour Nord")
	assert.Contains(t, gotMsg, "https://example.test/x")
	assert.NotContains(t, gotMsg, "<td>")
}

func TestConvertHTMLToText(t *testing.T) {
	out := convertHTMLToText("<p>Hello</p><ul><li>one</li></ul><table><tr><td>a</td><td>b</td></tr></table>")
	assert.Equal(t, "Hello\n- one\n\n | a | b", out)
}

func TestRetentionSweep(t *testing.T) {
	objects := &fakeObjects{
		failKey: "reports/b.pdf",
		reports: []storage.ReportObject{{Key: "reports/x.pdf"}},
	}
	registry := &fakeRegistry{expired: []models.ReportRecordGorm{
		{ObjectKey: "reports/a.pdf"}, {ObjectKey: "reports/b.pdf"}, {ObjectKey: "reports/c.pdf"},
	}}

	n, err := NewRetentionSweeper(objects, registry, 30).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"reports/a.pdf", "reports/c.pdf"}, objects.deleted)
	assert.Equal(t, []string{"reports/a.pdf", "reports/c.pdf"}, registry.removed)

	objects.deleted = nil
	n, err = NewRetentionSweeper(objects, nil, 30).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"reports/x.pdf"}, objects.deleted)

	n, err = NewRetentionSweeper(objects, registry, 0).Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
