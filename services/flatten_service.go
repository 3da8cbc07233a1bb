package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cfss-backend/pdfgen"
	"cfss-backend/utils"

	"golang.org/x/oauth2/clientcredentials"
)

const maxFlattenResponse = 64 << 20

// Flattener turns a form PDF into one that can no longer be edited.
type Flattener interface {
	Flatten(ctx context.Context, pdf []byte) ([]byte, error)
}

// LocalFlattener flattens in process.
type LocalFlattener struct {
	filler *pdfgen.FormFiller
}

func NewLocalFlattener(filler *pdfgen.FormFiller) *LocalFlattener {
	return &LocalFlattener{filler: filler}
}

func (l *LocalFlattener) Flatten(ctx context.Context, pdf []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.filler.Flatten(pdf)
}

// RemoteFlattener posts the PDF to an external flatten service. With client
// credentials configured every request carries an OAuth2 bearer token.
type RemoteFlattener struct {
	endpoint   string
	httpClient *http.Client
}

func NewRemoteFlattener(cfg *utils.Config) *RemoteFlattener {
	client := &http.Client{Timeout: 2 * time.Minute}
	if cfg.FlattenClientID != "" && cfg.FlattenTokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.FlattenClientID,
			ClientSecret: cfg.FlattenClientSecret,
			TokenURL:     cfg.FlattenTokenURL,
		}
		client = cc.Client(context.Background())
		client.Timeout = 2 * time.Minute
	}
	return &RemoteFlattener{endpoint: cfg.FlattenURL, httpClient: client}
}

func (r *RemoteFlattener) Flatten(ctx context.Context, pdf []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(pdf))
	if err != nil {
		return nil, fmt.Errorf("error creating flatten request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "application/pdf")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending flatten request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorResp map[string]interface{}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&errorResp); err == nil {
			return nil, fmt.Errorf("flatten service error (status %d): %v", resp.StatusCode, errorResp)
		}
		return nil, fmt.Errorf("flatten service error: status code %d", resp.StatusCode)
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxFlattenResponse))
	if err != nil {
		return nil, fmt.Errorf("read flattened document: %w", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		return nil, fmt.Errorf("flatten service returned %d bytes that are not a PDF", len(out))
	}
	return out, nil
}

// NewFlattener picks the flattening path named by FLATTEN_MODE.
func NewFlattener(cfg *utils.Config, filler *pdfgen.FormFiller) Flattener {
	if cfg.FlattenMode == utils.FlattenRemote {
		return NewRemoteFlattener(cfg)
	}
	return NewLocalFlattener(filler)
}
