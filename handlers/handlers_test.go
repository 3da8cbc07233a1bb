package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cfss-backend/models"
	"cfss-backend/repository"
	"cfss-backend/services"
	"cfss-backend/storage"
	"cfss-backend/utils"
	"cfss-backend/windload"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memProjects struct {
	mu       sync.Mutex
	projects map[string]models.Project
}

func newMemProjects(projects ...models.Project) *memProjects {
	m := &memProjects{projects: map[string]models.Project{}}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *memProjects) Get(_ context.Context, id string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, storage.ErrProjectNotFound
	}
	if p.CFSSWindData != nil {
		wind := *p.CFSSWindData
		wind.FloorGroups = append([]windload.FloorGroup(nil), wind.FloorGroups...)
		p.CFSSWindData = &wind
	}
	p.WallRevisions = append([]models.Revision(nil), p.WallRevisions...)
	return &p, nil
}

// Put follows ProjectStore.Put: wind data, revisions and the version stay
// as stored for an existing project.
func (m *memProjects) Put(_ context.Context, project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.projects[project.ID]; ok {
		project.CFSSWindData = existing.CFSSWindData
		project.WallRevisions = existing.WallRevisions
		project.WindDataVersion = existing.WindDataVersion
	} else {
		project.WindDataVersion = 0
	}
	m.projects[project.ID] = *project
	return nil
}

func (m *memProjects) UpdateWindData(_ context.Context, id string, data models.CFSSWindData, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return 0, storage.ErrProjectNotFound
	}
	if p.WindDataVersion != expected {
		return 0, storage.ErrVersionConflict
	}
	p.CFSSWindData = &data
	p.WindDataVersion++
	m.projects[id] = p
	return p.WindDataVersion, nil
}

func (m *memProjects) AppendRevision(_ context.Context, id string, rev models.Revision, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return storage.ErrProjectNotFound
	}
	if len(p.WallRevisions) >= limit {
		return storage.ErrRevisionsFull
	}
	p.WallRevisions = append(p.WallRevisions, rev)
	m.projects[id] = p
	return nil
}

func windProject() models.Project {
	return models.Project{
		ID:            "p1",
		Domain:        models.DomainCFSS,
		Name:          "Tour Est",
		ProjectNumber: "CF-2041",
		CFSSWindData: &models.CFSSWindData{
			Storeys: []windload.Storey{
				{Label: "RDC", ULS: windload.Float(1.2), SLS: windload.Float(0.8)},
				{Label: "N2", ULS: windload.Float(1.3), SLS: windload.Float(0.9)},
				{Label: "N3", ULS: windload.Float(1.4), SLS: windload.Float(1)},
				{Label: "N4", ULS: windload.Float(1.5), SLS: windload.Float(1.1)},
			},
		},
	}
}

func newTestRouter(projects *memProjects) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/health", HealthHandler())

	api := r.Group("/api", ValidateSession(""))
	api.POST("/projects", SaveProjectHandler(projects, nil))
	api.GET("/projects/:id", GetProjectHandler(projects))
	api.PUT("/projects/:id/cfss-wind", UpdateWindDataHandler(projects, nil))
	api.POST("/projects/:id/cfss-wind/groups", GroupFloorsHandler(projects, nil))
	api.DELETE("/projects/:id/cfss-wind/groups", UngroupFloorsHandler(projects, nil))
	api.GET("/projects/:id/cfss-wind/preview", WindPreviewHandler(projects))
	api.GET("/projects/:id/cfss-wind/export", ExportWindHandler(projects))

	revisions := repository.NewRevisionRepository(projects)
	api.POST("/projects/:id/revisions", AddRevisionHandler(revisions, nil))
	api.GET("/projects/:id/revisions", ListRevisionsHandler(revisions))
	api.GET("/logs", GetActivityLogsHandler(nil))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-user-email", "Designer@Example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestValidateSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("headers", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", ValidateSession(""), func(c *gin.Context) { c.JSON(http.StatusOK, CurrentUser(c)) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("x-user-email", " Admin@Example.com ")
		req.Header.Set("x-user-admin", "true")
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		user := decode[models.UserInfo](t, w)
		assert.Equal(t, "admin@example.com", user.Email)
		assert.True(t, user.IsAdmin)
	})

	t.Run("bearer token", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", ValidateSession("s3cret"), func(c *gin.Context) { c.JSON(http.StatusOK, CurrentUser(c)) })

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("x-user-email", "someone@example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "headers are ignored when a secret is set")

		token, err := utils.GenerateJWT("s3cret", "eng@example.com", false, time.Hour)
		require.NoError(t, err)
		req = httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "eng@example.com", decode[models.UserInfo](t, w).Email)

		bad, err := utils.GenerateJWT("other", "eng@example.com", false, time.Hour)
		require.NoError(t, err)
		req = httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+bad)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSaveAndGetProject(t *testing.T) {
	projects := newMemProjects()
	r := newTestRouter(projects)

	w := doJSON(t, r, http.MethodPost, "/api/projects", map[string]any{"name": "Tour Ouest"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode[models.Project](t, w)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, models.DomainCFSS, saved.Domain)
	assert.Equal(t, "designer@example.com", saved.CreatedBy)

	w = doJSON(t, r, http.MethodGet, "/api/projects/"+saved.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tour Ouest", decode[models.Project](t, w).Name)

	w = doJSON(t, r, http.MethodPost, "/api/projects", map[string]any{"name": "X", "domain": "hvac"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/projects/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, utils.ErrCodeNotFound, decode[utils.Response](t, w).Code)
}

func TestSaveProjectRevisionCap(t *testing.T) {
	r := newTestRouter(newMemProjects())

	revisions := make([]models.Revision, 0, repository.MaxRevisions+1)
	for i := 1; i <= repository.MaxRevisions+1; i++ {
		revisions = append(revisions, models.Revision{Number: i})
	}
	w := doJSON(t, r, http.MethodPost, "/api/projects", models.Project{ID: "p9", Name: "Tour Nord", WallRevisions: revisions})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.ErrCodeRevisionLimit, decode[utils.Response](t, w).Code)

	w = doJSON(t, r, http.MethodGet, "/api/projects/p9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveProjectKeepsGroupsAndVersion(t *testing.T) {
	projects := newMemProjects(windProject())
	r := newTestRouter(projects)

	w := doJSON(t, r, http.MethodPost, "/api/projects/p1/cfss-wind/groups", groupRequest{Selection: []int{1, 2}, Version: 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A save built from the stale document must not undo the group.
	stale := windProject()
	stale.Name = "Tour Est B"
	stale.WallRevisions = []models.Revision{{Number: 1}, {Number: 2}}
	w = doJSON(t, r, http.MethodPost, "/api/projects", stale)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	saved := decode[models.Project](t, w)
	assert.Equal(t, "Tour Est B", saved.Name)
	assert.Equal(t, int64(1), saved.WindDataVersion)
	assert.Empty(t, saved.WallRevisions)
	require.NotNil(t, saved.CFSSWindData)
	assert.Equal(t, []windload.FloorGroup{{FirstIndex: 1, LastIndex: 2}}, saved.CFSSWindData.FloorGroups)

	w = doJSON(t, r, http.MethodPost, "/api/projects/p1/cfss-wind/groups", groupRequest{Selection: []int{3}, Version: 0})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGroupAndUngroupFloors(t *testing.T) {
	projects := newMemProjects(windProject())
	r := newTestRouter(projects)

	w := doJSON(t, r, http.MethodPost, "/api/projects/p1/cfss-wind/groups", groupRequest{Selection: []int{2, 1, 2}, Version: 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[windResponse](t, w)
	require.NotNil(t, resp.Group)
	assert.Equal(t, windload.FloorGroup{FirstIndex: 1, LastIndex: 2}, *resp.Group)
	assert.Equal(t, int64(1), resp.Version)
	assert.Len(t, resp.CFSSWindData.FloorGroups, 1)

	// Stale version.
	w = doJSON(t, r, http.MethodPost, "/api/projects/p1/cfss-wind/groups", groupRequest{Selection: []int{2, 3}, Version: 0})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, utils.ErrCodeRowVersionConflict, decode[utils.Response](t, w).Code)

	w = doJSON(t, r, http.MethodPost, "/api/projects/p1/cfss-wind/groups", groupRequest{Selection: []int{2, 3}, Version: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, windload.ErrAlreadyGrouped.Error(), decode[utils.Response](t, w).Message)

	w = doJSON(t, r, http.MethodPost, "/api/projects/p1/cfss-wind/groups", groupRequest{Selection: []int{0}, Version: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/projects/p1/cfss-wind/groups", groupRequest{Selection: []int{3, 5}, Version: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	first, last := 0, 1
	w = doJSON(t, r, http.MethodDelete, "/api/projects/p1/cfss-wind/groups", ungroupRequest{FirstIndex: &first, LastIndex: &last, Version: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	first, last = 1, 2
	w = doJSON(t, r, http.MethodDelete, "/api/projects/p1/cfss-wind/groups", ungroupRequest{FirstIndex: &first, LastIndex: &last, Version: 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[windResponse](t, w)
	assert.Empty(t, resp.CFSSWindData.FloorGroups)
	assert.Equal(t, int64(2), resp.Version)
}

func TestUpdateWindData(t *testing.T) {
	projects := newMemProjects(windProject())
	r := newTestRouter(projects)

	body := map[string]any{
		"version": 0,
		"cfssWindData": map[string]any{
			"storeys": []map[string]any{
				{"label": "RDC", "uls": "1.5", "sls": 1},
				{"label": "N2", "uls": 1.6, "sls": ""},
				{"label": "N3", "uls": 1.6, "sls": nil},
			},
			"floorGroups": []map[string]any{{"firstIndex": 1, "lastIndex": 2}},
		},
	}
	w := doJSON(t, r, http.MethodPut, "/api/projects/p1/cfss-wind", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[windResponse](t, w)
	assert.Equal(t, int64(1), resp.Version)
	require.Len(t, resp.CFSSWindData.Storeys, 3)
	assert.Nil(t, resp.CFSSWindData.Storeys[1].SLS)

	t.Run("schema violation", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/projects/p1/cfss-wind", map[string]any{
			"version":      1,
			"cfssWindData": map[string]any{"storeys": "not a list"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, utils.ErrCodeValidation, decode[utils.Response](t, w).Code)
	})

	t.Run("overlapping groups", func(t *testing.T) {
		body := map[string]any{
			"version": 1,
			"cfssWindData": map[string]any{
				"storeys":     []map[string]any{{"label": "A"}, {"label": "B"}, {"label": "C"}},
				"floorGroups": []map[string]any{{"firstIndex": 0, "lastIndex": 1}, {"firstIndex": 1, "lastIndex": 2}},
			},
		}
		w := doJSON(t, r, http.MethodPut, "/api/projects/p1/cfss-wind", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stale version", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/projects/p1/cfss-wind", body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestWindPreview(t *testing.T) {
	p := windProject()
	p.CFSSWindData.FloorGroups = []windload.FloorGroup{{FirstIndex: 0, LastIndex: 1}}
	r := newTestRouter(newMemProjects(p))

	w := doJSON(t, r, http.MethodGet, "/api/projects/p1/cfss-wind/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	preview := decode[windPreview](t, w)
	assert.Len(t, preview.ResistanceEntries, 3)
	assert.Equal(t,
		windload.FormatWindDataString(p.CFSSWindData.Storeys, windload.DataResistance, p.CFSSWindData.FloorGroups),
		preview.Resistance)
	assert.NotEmpty(t, preview.Deflection)
}

func TestExportWindWorkbook(t *testing.T) {
	p := windProject()
	p.CFSSWindData.FloorGroups = []windload.FloorGroup{{FirstIndex: 1, LastIndex: 2}}
	r := newTestRouter(newMemProjects(p))

	w := doJSON(t, r, http.MethodGet, "/api/projects/p1/cfss-wind/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="CF-2041-wind.xlsx"`)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	label, err := f.GetCellValue(windSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "RDC", label)

	merged, err := f.GetMergeCells(windSheet)
	require.NoError(t, err)
	assert.Len(t, merged, 3)

	project, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Tour Est", project)
}

func TestRevisionLimit(t *testing.T) {
	p := windProject()
	p.Walls = []models.Wall{{Name: "M1"}}
	r := newTestRouter(newMemProjects(p))

	for i := 1; i <= repository.MaxRevisions; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/projects/p1/revisions", addRevisionRequest{Description: "issued"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		rev := decode[revisionView](t, w)
		assert.Equal(t, i, rev.Number)
		assert.Equal(t, repository.GenerateVersionCode(i), rev.VersionCode)
		assert.Len(t, rev.Walls, 1)
	}

	w := doJSON(t, r, http.MethodPost, "/api/projects/p1/revisions", addRevisionRequest{Description: "one more"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.ErrCodeRevisionLimit, decode[utils.Response](t, w).Code)

	w = doJSON(t, r, http.MethodGet, "/api/projects/p1/revisions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]revisionView](t, w), repository.MaxRevisions)
}

type fakeReports struct {
	got  services.ReportRequest
	user models.UserInfo
	err  error
}

func (f *fakeReports) Generate(_ context.Context, req services.ReportRequest, user models.UserInfo) (*services.ReportResult, error) {
	f.got, f.user = req, user
	if f.err != nil {
		return nil, f.err
	}
	return &services.ReportResult{ReportType: "cfss", PageCount: 4}, nil
}

func TestGenerateReportHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reports := &fakeReports{}
	r := gin.New()
	r.POST("/api/projects/:id/reports", ValidateSession(""), GenerateReportHandler(reports))

	w := doJSON(t, r, http.MethodPost, "/api/projects/p1/reports", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "p1", reports.got.ProjectID)
	assert.Equal(t, "designer@example.com", reports.user.Email)
	assert.Equal(t, 4, decode[services.ReportResult](t, w).PageCount)

	w = doJSON(t, r, http.MethodPost, "/api/projects/p1/reports", map[string]any{"reportType": "seismic", "signDocument": true})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "seismic", reports.got.ReportType)
	assert.True(t, reports.got.SignDocument)

	reports.err = services.ErrUnknownReportType
	w = doJSON(t, r, http.MethodPost, "/api/projects/p1/reports", map[string]any{"reportType": "hvac"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	reports.err = storage.ErrProjectNotFound
	w = doJSON(t, r, http.MethodPost, "/api/projects/p1/reports", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type fakeVerifier struct {
	names []string
}

func (f *fakeVerifier) Verify(_ context.Context, files []services.VerifyFile, _ models.UserInfo) ([]services.VerifyEntry, error) {
	out := make([]services.VerifyEntry, len(files))
	for i, file := range files {
		f.names = append(f.names, file.Name)
		out[i] = services.VerifyEntry{Name: file.Name, State: services.StateVerified}
		if !bytes.HasPrefix(file.Data, []byte("%PDF")) {
			out[i].State = services.StateError
		}
	}
	return out, nil
}

func TestBulkVerifyHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := &fakeVerifier{}
	r := gin.New()
	r.POST("/api/bulk-verify", ValidateSession(""), BulkVerifyHandler(verifier))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range map[string]string{"a.pdf": "%PDF-1.7 a", "notes.txt": "hello"} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/bulk-verify", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("x-user-email", "eng@example.com")
	req.Header.Set("x-user-admin", "true")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[bulkVerifyResponse](t, w)
	assert.Equal(t, 1, resp.Verified)
	assert.Equal(t, 1, resp.Failed)
	assert.ElementsMatch(t, []string{"a.pdf", "notes.txt"}, verifier.names)

	req = httptest.NewRequest(http.MethodPost, "/api/bulk-verify", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-user-email", "eng@example.com")
	req.Header.Set("x-user-admin", "true")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkVerifyHandlerRejectsNonAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := &fakeVerifier{}
	r := gin.New()
	r.POST("/api/bulk-verify", ValidateSession(""), BulkVerifyHandler(verifier))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "a.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7 a"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/bulk-verify", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("x-user-email", "intern@example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	resp := decode[utils.Response](t, w)
	assert.Equal(t, utils.ErrCodeForbidden, resp.Code)
	assert.Empty(t, verifier.names)
}

func TestActivityLogsWithoutDatabase(t *testing.T) {
	r := newTestRouter(newMemProjects())
	w := doJSON(t, r, http.MethodGet, "/api/logs?page=2", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestToAppError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{storage.ErrProjectNotFound, http.StatusNotFound},
		{storage.ErrVersionConflict, http.StatusConflict},
		{repository.ErrRevisionLimit, http.StatusBadRequest},
		{windload.ErrGroupNotFound, http.StatusNotFound},
		{services.ErrNoFiles, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		var appErr *utils.AppError
		require.ErrorAs(t, toAppError(tc.err), &appErr, tc.err.Error())
		assert.Equal(t, tc.status, appErr.StatusCode, tc.err.Error())
	}
}
