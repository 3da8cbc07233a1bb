package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"cfss-backend/models"
	"cfss-backend/pdfgen"
	"cfss-backend/services"
	"cfss-backend/storage"
	"cfss-backend/utils"

	"github.com/spf13/cobra"
)

type signOptions struct {
	signature string
	outDir    string
	email     string
}

func newSignCmd() *cobra.Command {
	opts := &signOptions{}

	cmd := &cobra.Command{
		Use:   "sign [files...]",
		Short: "Sign and flatten local PDFs",
		Long: `Run the bulk-verify pipeline on local files: each PDF gets the engineer
signature and date on its last page, is flattened and written under
<out>/verified/. The originals are copied under <out>/uploads/.

Examples:
  cfss-backend sign --signature sig.png --out ./signed drawings/*.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.signature, "signature", "signature.png", "Path to the signature image")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "verified-out", "Output directory")
	cmd.Flags().StringVar(&opts.email, "email", os.Getenv("USER"), "Engineer recorded in the document metadata")
	return cmd
}

func runSign(cmd *cobra.Command, opts *signOptions, paths []string) error {
	if _, err := os.Stat(opts.signature); err != nil {
		return fmt.Errorf("signature image: %w", err)
	}

	files := make([]services.VerifyFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, services.VerifyFile{Name: filepath.Base(p), Data: data})
	}

	manifest, err := pdfgen.LoadManifest()
	if err != nil {
		return err
	}
	measure, err := pdfgen.NewTextMeasurer()
	if err != nil {
		return err
	}
	flattener := services.NewLocalFlattener(pdfgen.NewFormFiller(manifest, measure))

	store := &services.DirStore{Dir: opts.outDir}
	verifier, err := services.NewBulkVerifier(store, pdfgen.NewComposer(), flattener, services.FileSignature(opts.signature), nil)
	if err != nil {
		return err
	}

	entries, err := verifier.Verify(cmd.Context(), files, models.UserInfo{Email: opts.email})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATE\tOUTPUT")
	failed := 0
	for _, e := range entries {
		out := e.URL
		if e.State != services.StateVerified {
			failed++
			out = e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.State, out)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(entries))
	}
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the activity log and report registry tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := utils.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			db, err := storage.InitGormDB(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if err := storage.AutoMigrate(db); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			utils.Logger.Info("database migrated")
			return nil
		},
	}
}

type tokenOptions struct {
	email string
	admin bool
	ttl   time.Duration
}

func newTokenCmd() *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := utils.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is required")
			}
			if opts.email == "" {
				return errors.New("--email is required")
			}
			token, err := utils.GenerateJWT(cfg.JWTSecret, opts.email, opts.admin, opts.ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "User email")
	cmd.Flags().BoolVar(&opts.admin, "admin", false, "Issue an admin token")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
