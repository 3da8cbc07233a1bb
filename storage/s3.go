package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cfss-backend/models"
	"cfss-backend/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ReportURLExpiry is the lifetime of a report download link.
const ReportURLExpiry = 3600 * time.Second

const reportPrefix = "reports/"

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// S3API is the subset of the S3 client used by ObjectStore.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Presigner issues presigned GET requests.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// TemplateKeys resolves a template name and project domain to its object key.
type TemplateKeys interface {
	TemplateKey(name, domain string) (string, error)
}

// ReportUpload describes a stored report.
type ReportUpload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ReportObject is one listed report object.
type ReportObject struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// ObjectStore reads form templates from and writes reports to one bucket.
type ObjectStore struct {
	client    S3API
	presigner Presigner
	templates TemplateKeys
	bucket    string
	timeout   time.Duration
	now       func() time.Time
}

func NewObjectStore(client S3API, presigner Presigner, templates TemplateKeys, bucket string, timeout time.Duration) *ObjectStore {
	return &ObjectStore{
		client:    client,
		presigner: presigner,
		templates: templates,
		bucket:    bucket,
		timeout:   timeout,
		now:       time.Now,
	}
}

// FetchTemplate downloads the named form template for domain. Errors are
// returned as is; there is no retry.
func (s *ObjectStore) FetchTemplate(ctx context.Context, name, domain string) ([]byte, error) {
	key, err := s.templates.TemplateKey(name, domain)
	if err != nil {
		return nil, err
	}
	return s.GetObject(ctx, key)
}

// FetchCFSSTemplate downloads the CFSS cover template.
func (s *ObjectStore) FetchCFSSTemplate(ctx context.Context) ([]byte, error) {
	return s.FetchTemplate(ctx, "cover", models.DomainCFSS)
}

// GetObject reads one object fully into memory.
func (s *ObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := utils.GetCallContext(ctx, s.timeout)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// UploadReport stores pdf under a key derived from the project and returns
// a presigned download link.
func (s *ObjectStore) UploadReport(ctx context.Context, pdf []byte, project *models.Project, user models.UserInfo, reportType string) (*ReportUpload, error) {
	now := s.now().UTC()
	key := BuildReportKey(project, now)
	metadata := map[string]string{
		"generated-by":    user.Email,
		"project-id":      project.ID,
		"report-type":     reportType,
		"revision-number": strconv.Itoa(project.SelectedRevisionNumber),
		"generated-at":    now.Format(time.RFC3339),
	}
	if err := s.PutObject(ctx, key, pdf, "application/pdf", metadata); err != nil {
		return nil, err
	}

	url, err := s.PresignGet(ctx, key)
	if err != nil {
		return nil, err
	}
	return &ReportUpload{Key: key, URL: url, ExpiresAt: now.Add(ReportURLExpiry)}, nil
}

// PutObject writes body under key.
func (s *ObjectStore) PutObject(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	ctx, cancel := utils.GetCallContext(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		Metadata:      metadata,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// PresignGet returns a GET link for key valid for ReportURLExpiry.
func (s *ObjectStore) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ReportURLExpiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// ListReports lists every object under reports/ last modified before cutoff.
func (s *ObjectStore) ListReports(ctx context.Context, cutoff time.Time) ([]ReportObject, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(reportPrefix),
	})

	var objects []ReportObject
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list reports: %w", err)
		}
		for _, obj := range page.Contents {
			modified := aws.ToTime(obj.LastModified)
			if !modified.Before(cutoff) {
				continue
			}
			objects = append(objects, ReportObject{
				Key:          aws.ToString(obj.Key),
				LastModified: modified,
				Size:         aws.ToInt64(obj.Size),
			})
		}
	}
	return objects, nil
}

func (s *ObjectStore) DeleteReport(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, reportPrefix) {
		return fmt.Errorf("refusing to delete %s outside %s", key, reportPrefix)
	}
	ctx, cancel := utils.GetCallContext(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// BuildReportKey returns
// reports/{projectNumber}-{clientName}-{projectName}[-R{rev}]_{timestamp}.pdf
// with every component reduced to ASCII letters and digits.
func BuildReportKey(project *models.Project, at time.Time) string {
	base := fmt.Sprintf("%s-%s-%s",
		sanitizeKeyPart(project.ProjectNumber),
		sanitizeKeyPart(project.ClientName),
		sanitizeKeyPart(project.Name),
	)
	if project.SelectedRevisionNumber > 0 {
		base += fmt.Sprintf("-R%d", project.SelectedRevisionNumber)
	}
	return fmt.Sprintf("%s%s_%s.pdf", reportPrefix, base, keyTimestamp(at))
}

// BuildDocumentKey returns {prefix}{name}_{timestamp}.pdf for an uploaded
// file, name being the file name without extension reduced like report keys.
func BuildDocumentKey(prefix, filename string, at time.Time) string {
	stem := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	stem = sanitizeKeyPart(stem)
	if stem == "" {
		stem = "document"
	}
	return fmt.Sprintf("%s%s_%s.pdf", prefix, stem, keyTimestamp(at))
}

func keyTimestamp(at time.Time) string {
	stamp := at.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
}

func sanitizeKeyPart(s string) string {
	return nonAlphanumeric.ReplaceAllString(s, "")
}
