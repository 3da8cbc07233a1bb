package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cfss-backend/models"
	"cfss-backend/pdfgen"
	"cfss-backend/repository"
	"cfss-backend/storage"
	"cfss-backend/utils"

	"github.com/sirupsen/logrus"
)

var ErrUnknownReportType = errors.New("unknown report type")

// Report sections, in document order.
const (
	SectionCover     = "cover"
	SectionSummary   = "summary"
	SectionWalls     = "walls"
	SectionWindows   = "window-table"
	SectionWallTable = "wall-table"
	SectionEquipment = "equipment"
)

// ProjectReader loads one project.
type ProjectReader interface {
	Get(ctx context.Context, id string) (*models.Project, error)
}

// ReportObjects fetches templates and stores finished reports.
type ReportObjects interface {
	FetchTemplate(ctx context.Context, name, domain string) ([]byte, error)
	UploadReport(ctx context.Context, pdf []byte, project *models.Project, user models.UserInfo, reportType string) (*storage.ReportUpload, error)
}

// ReportRegistry records uploaded reports for the retention sweep.
type ReportRegistry interface {
	SaveReportRecord(ctx context.Context, record *models.ReportRecordGorm) error
}

// ReportNotifier announces a finished report.
type ReportNotifier interface {
	NotifyReportReady(r ReportReady) error
}

// ReportDeps wires a ReportService. Registry, Activity and Notifier are
// optional.
type ReportDeps struct {
	Projects   ProjectReader
	Objects    ReportObjects
	Manifest   *pdfgen.Manifest
	Filler     *pdfgen.FormFiller
	Tables     *pdfgen.TableGenerator
	Composer   *pdfgen.Composer
	Registry   ReportRegistry
	Activity   *ActivityRecorder
	Notifier   ReportNotifier
	Privileged func(email string) bool
}

// ReportService runs the report pipeline: fill templates, draw tables, merge,
// watermark, upload.
type ReportService struct {
	ReportDeps
	now func() time.Time
}

func NewReportService(deps ReportDeps) *ReportService {
	if deps.Privileged == nil {
		deps.Privileged = func(string) bool { return false }
	}
	return &ReportService{ReportDeps: deps, now: time.Now}
}

// ReportRequest selects what to generate. An empty ReportType uses the
// project domain.
type ReportRequest struct {
	ProjectID    string `json:"-"`
	ReportType   string `json:"reportType,omitempty" example:"cfss"`
	SignDocument bool   `json:"signDocument,omitempty"`
}

// ReportResult describes a generated report.
type ReportResult struct {
	storage.ReportUpload
	ReportType  string   `json:"reportType"`
	PageCount   int      `json:"pageCount"`
	Sections    []string `json:"sections"`
	Flattened   bool     `json:"flattened"`
	Watermarked bool     `json:"watermarked"`
	FieldDrift  []string `json:"fieldDrift,omitempty"`
}

type reportBuild struct {
	docs     [][]byte
	sections []string
	drift    []string
}

func (b *reportBuild) add(section string, pdf []byte) {
	b.docs = append(b.docs, pdf)
	if n := len(b.sections); n == 0 || b.sections[n-1] != section {
		b.sections = append(b.sections, section)
	}
}

// Generate builds, stores and announces one report for user.
func (s *ReportService) Generate(ctx context.Context, req ReportRequest, user models.UserInfo) (*ReportResult, error) {
	ctx, cancel := utils.GetSlowCallContext(ctx)
	defer cancel()

	project, err := s.Projects.Get(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	reportType := strings.ToLower(strings.TrimSpace(req.ReportType))
	if reportType == "" {
		reportType = project.Domain
	}
	if reportType == "" {
		reportType = models.DomainCFSS
	}
	if reportType != models.DomainCFSS && reportType != models.DomainSeismic {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportType, req.ReportType)
	}

	log := utils.Logger.WithFields(logrus.Fields{
		"project_id":  project.ID,
		"user":        user.Email,
		"report_type": reportType,
	})

	now := s.now()
	revisions := repository.RevisionsForReport(project.WallRevisions, project.SelectedRevisionNumber)
	header := pdfgen.CoverValues(project, revisions, now)
	flatten := pdfgen.ShouldFlatten(user, s.Privileged(user.Email), project.SignDocument || req.SignDocument)

	build := &reportBuild{}
	if err := s.fill(ctx, build, SectionCover, "cover", reportType, header, flatten); err != nil {
		return nil, err
	}

	switch reportType {
	case models.DomainCFSS:
		err = s.buildCFSS(ctx, build, project, header, flatten)
	case models.DomainSeismic:
		for _, e := range project.Equipment {
			if err = s.fill(ctx, build, SectionEquipment, "equipment", reportType, pdfgen.EquipmentValues(header, e), flatten); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if len(build.drift) > 0 {
		log.WithField("fields", build.drift).Warn("template fields missing from manifest version")
	}

	merged, err := s.Composer.Merge(build.docs...)
	if err != nil {
		return nil, err
	}
	watermarked := !user.IsAdmin
	if watermarked {
		if merged, err = s.Composer.Watermark(merged); err != nil {
			return nil, err
		}
	}
	pages, err := s.Composer.PageCount(merged)
	if err != nil {
		return nil, err
	}

	upload, err := s.Objects.UploadReport(ctx, merged, project, user, reportType)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"key": upload.Key, "pages": pages}).Info("report uploaded")

	s.afterUpload(ctx, project, user, reportType, upload, build, pages, flatten, watermarked, revisions)

	return &ReportResult{
		ReportUpload: *upload,
		ReportType:   reportType,
		PageCount:    pages,
		Sections:     build.sections,
		Flattened:    flatten,
		Watermarked:  watermarked,
		FieldDrift:   build.drift,
	}, nil
}

func (s *ReportService) buildCFSS(ctx context.Context, build *reportBuild, project *models.Project, header pdfgen.FormValues, flatten bool) error {
	if err := s.fill(ctx, build, SectionSummary, "summary", models.DomainCFSS, header, flatten); err != nil {
		return err
	}

	walls := reportWalls(project)
	for _, w := range walls {
		if err := s.fill(ctx, build, SectionWalls, "wall", models.DomainCFSS, pdfgen.WallValues(header, w), flatten); err != nil {
			return err
		}
	}

	if len(project.Windows) > 0 {
		pdf, err := s.Tables.WindowTable(project, project.Windows)
		if err != nil {
			return err
		}
		build.add(SectionWindows, pdf)
	}
	if len(walls) > 0 {
		pdf, err := s.Tables.WallTable(project, walls)
		if err != nil {
			return err
		}
		build.add(SectionWallTable, pdf)
	}
	return nil
}

// reportWalls prints the walls of the selected revision when that revision
// kept a snapshot, and the current walls otherwise.
func reportWalls(project *models.Project) []models.Wall {
	if project.SelectedRevisionNumber > 0 {
		for _, rev := range project.WallRevisions {
			if rev.Number == project.SelectedRevisionNumber && len(rev.Walls) > 0 {
				return rev.Walls
			}
		}
	}
	return project.Walls
}

func (s *ReportService) fill(ctx context.Context, build *reportBuild, section, template, domain string, values pdfgen.FormValues, flatten bool) error {
	tmpl, err := s.Manifest.Template(template, domain)
	if err != nil {
		return err
	}
	raw, err := s.Objects.FetchTemplate(ctx, template, domain)
	if err != nil {
		return err
	}
	res, err := s.Filler.Fill(tmpl, raw, values, flatten)
	if err != nil {
		return err
	}
	build.add(section, res.PDF)
	build.drift = appendUnique(build.drift, res.Plan.Drift...)
	return nil
}

func (s *ReportService) afterUpload(ctx context.Context, project *models.Project, user models.UserInfo, reportType string,
	upload *storage.ReportUpload, build *reportBuild, pages int, flattened, watermarked bool, revisions []models.Revision) {
	ctx = context.WithoutCancel(ctx)

	revision := 0
	if n := len(revisions); n > 0 {
		revision = revisions[n-1].Number
	}

	if s.Registry != nil {
		err := s.Registry.SaveReportRecord(ctx, &models.ReportRecordGorm{
			ObjectKey:      upload.Key,
			ProjectID:      project.ID,
			ReportType:     reportType,
			RevisionNumber: revision,
			GeneratedBy:    user.Email,
			Sections:       build.sections,
			PageCount:      pages,
			Flattened:      flattened,
			Watermarked:    watermarked,
			CreatedAt:      s.now(),
		})
		if err != nil {
			utils.Logger.WithError(err).WithField("key", upload.Key).Warn("report not registered")
		}
	}

	s.Activity.Record(ctx, Activity{
		User:        user,
		ProjectID:   project.ID,
		Context:     ContextReport,
		Event:       EventGenerate,
		Description: fmt.Sprintf("generated %s report %s (%d pages)", reportType, upload.Key, pages),
	})

	if s.Notifier != nil {
		if err := s.Notifier.NotifyReportReady(ReportReady{
			Project: project, User: user, ReportType: reportType, PageCount: pages, Upload: upload,
		}); err != nil {
			utils.Logger.WithError(err).WithField("project_id", project.ID).Warn("report mail not sent")
		}
	}
}

func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		found := false
		for _, d := range dst {
			if d == it {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, it)
		}
	}
	return dst
}
