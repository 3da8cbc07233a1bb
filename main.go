// @title           CFSS Report API
// @version         1.0
// @description     Backend for the CFSS and seismic project editor: wind-load tables, wall revisions, PDF reports and bulk verification.

// @contact.name   API Support

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "cfss-backend/docs"
	"cfss-backend/handlers"
	"cfss-backend/pdfgen"
	"cfss-backend/repository"
	"cfss-backend/services"
	"cfss-backend/storage"
	"cfss-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

const appName = "cfss-backend"

func CORSConfig(origins []string) cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = origins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding", "Accept", "Origin",
		"X-Requested-With", "Authorization", "Cache-Control", "X-User-Email", "X-User-Admin",
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Content-Disposition", "Content-Type"}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

func main() {
	utils.InitLogger(appName)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		utils.Logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "CFSS and seismic report backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSignCmd(), newMigrateCmd(), newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

// app holds everything the router needs.
type app struct {
	cfg       *utils.Config
	db        *gorm.DB
	projects  *storage.ProjectStore
	revisions *repository.RevisionRepository
	reports   *services.ReportService
	verifier  *services.BulkVerifier
	activity  *services.ActivityRecorder
}

func buildApp(ctx context.Context, cfg *utils.Config) (*app, *services.RetentionSweeper, error) {
	if cfg.S3Bucket == "" {
		return nil, nil, errors.New("S3_BUCKET is required")
	}
	clients, err := storage.InitAWS(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.InitGormDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	manifest, err := pdfgen.LoadManifest()
	if err != nil {
		return nil, nil, fmt.Errorf("load template manifest: %w", err)
	}
	measure, err := pdfgen.NewTextMeasurer()
	if err != nil {
		return nil, nil, fmt.Errorf("load text metrics: %w", err)
	}
	filler := pdfgen.NewFormFiller(manifest, measure)
	composer := pdfgen.NewComposer()

	projects := storage.NewProjectStore(clients.DynamoDB, cfg.ProjectsTable, cfg.AWSTimeout)
	objects := storage.NewObjectStore(clients.S3, clients.Presign, manifest, cfg.S3Bucket, cfg.AWSTimeout)

	// Interfaces stay nil without a database so the services skip them.
	var (
		activityStore     services.ActivityStore
		reportRegistry    services.ReportRegistry
		retentionRegistry services.RetentionRegistry
	)
	if db != nil {
		registry := storage.Registry{DB: db}
		activityStore, reportRegistry, retentionRegistry = registry, registry, registry
	}
	var notifier services.ReportNotifier
	if mail := services.NewEmailService(cfg); mail != nil {
		notifier = mail
	}

	activity := services.NewActivityRecorder(activityStore)
	reports := services.NewReportService(services.ReportDeps{
		Projects:   projects,
		Objects:    objects,
		Manifest:   manifest,
		Filler:     filler,
		Tables:     pdfgen.NewTableGenerator(),
		Composer:   composer,
		Registry:   reportRegistry,
		Activity:   activity,
		Notifier:   notifier,
		Privileged: cfg.IsPrivileged,
	})

	signature := func(ctx context.Context) ([]byte, error) {
		return objects.GetObject(ctx, cfg.SignatureKey)
	}
	verifier, err := services.NewBulkVerifier(objects, composer, services.NewFlattener(cfg, filler), signature, activity)
	if err != nil {
		return nil, nil, err
	}

	var sweeper *services.RetentionSweeper
	if cfg.ReportRetentionDays > 0 {
		sweeper = services.NewRetentionSweeper(objects, retentionRegistry, cfg.ReportRetentionDays)
	}

	return &app{
		cfg:       cfg,
		db:        db,
		projects:  projects,
		revisions: repository.NewRevisionRepository(projects),
		reports:   reports,
		verifier:  verifier,
		activity:  activity,
	}, sweeper, nil
}

func setupRouter(a *app) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20
	r.Use(cors.New(CORSConfig(a.cfg.AllowedOrigins)))

	r.GET("/api/health", handlers.HealthHandler())

	api := r.Group("/api", handlers.ValidateSession(a.cfg.JWTSecret))

	// ==================== PROJECTS ====================
	api.POST("/projects", handlers.SaveProjectHandler(a.projects, a.activity))
	api.GET("/projects/:id", handlers.GetProjectHandler(a.projects))

	// ==================== CFSS WIND ====================
	api.PUT("/projects/:id/cfss-wind", handlers.UpdateWindDataHandler(a.projects, a.activity))
	api.POST("/projects/:id/cfss-wind/groups", handlers.GroupFloorsHandler(a.projects, a.activity))
	api.DELETE("/projects/:id/cfss-wind/groups", handlers.UngroupFloorsHandler(a.projects, a.activity))
	api.GET("/projects/:id/cfss-wind/preview", handlers.WindPreviewHandler(a.projects))
	api.GET("/projects/:id/cfss-wind/export", handlers.ExportWindHandler(a.projects))

	// ==================== REVISIONS ====================
	api.POST("/projects/:id/revisions", handlers.AddRevisionHandler(a.revisions, a.activity))
	api.GET("/projects/:id/revisions", handlers.ListRevisionsHandler(a.revisions))

	// ==================== REPORTS ====================
	api.POST("/projects/:id/reports", handlers.GenerateReportHandler(a.reports))
	api.POST("/bulk-verify", handlers.BulkVerifyHandler(a.verifier))

	// ==================== ACTIVITY LOGS ====================
	api.GET("/logs", handlers.GetActivityLogsHandler(a.db))

	// ==================== SWAGGER ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	return r
}

func serve(ctx context.Context) error {
	cfg, err := utils.LoadConfig()
	if err != nil {
		return err
	}
	a, sweeper, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(utils.Logger)))
	if sweeper != nil {
		if _, err := sweeper.Schedule(c, cfg.RetentionSchedule); err != nil {
			return fmt.Errorf("schedule retention sweep: %w", err)
		}
		utils.Logger.WithField("days", cfg.ReportRetentionDays).Info("report retention enabled")
	}
	c.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Logger.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	utils.Logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Let a running sweep finish, bounded by the shutdown timeout.
	select {
	case <-c.Stop().Done():
	case <-shutdownCtx.Done():
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	utils.Logger.Info("server exiting")
	return nil
}
