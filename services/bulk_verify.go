package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cfss-backend/models"
	"cfss-backend/pdfgen"
	"cfss-backend/storage"
	"cfss-backend/utils"

	"github.com/felixgeelhaar/statekit"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// VerifyState is the progress of one bulk-verify file.
type VerifyState string

const (
	StatePending   VerifyState = "pending"
	StateUploading VerifyState = "uploading"
	StateUploaded  VerifyState = "uploaded"
	StateVerifying VerifyState = "verifying"
	StateVerified  VerifyState = "verified"
	StateError     VerifyState = "error"
)

const (
	evUpload   statekit.EventType = "UPLOAD"
	evUploaded statekit.EventType = "UPLOADED"
	evVerify   statekit.EventType = "VERIFY"
	evVerified statekit.EventType = "VERIFIED"
	evFail     statekit.EventType = "FAIL"
)

// MaxConcurrentUploads bounds the files processed at once.
const MaxConcurrentUploads = 3

const (
	uploadPrefix   = "uploads/"
	verifiedPrefix = "verified/"
)

var ErrNoFiles = errors.New("no files to verify")

// VerifyFile is one uploaded document.
type VerifyFile struct {
	Name string
	Data []byte
}

// VerifyEntry reports what happened to one file.
type VerifyEntry struct {
	Name  string      `json:"name"`
	State VerifyState `json:"state"`
	Key   string      `json:"key,omitempty"`
	URL   string      `json:"url,omitempty"`
	Error string      `json:"error,omitempty"`
}

// DocumentStore keeps originals and verified copies.
type DocumentStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// SignatureLoader returns the PNG stamped on verified documents.
type SignatureLoader func(ctx context.Context) ([]byte, error)

// verifyJob is the machine context of one file.
type verifyJob struct {
	entry *VerifyEntry
}

func traceState(job **verifyJob, event statekit.Event) {
	if job == nil || *job == nil {
		return
	}
	utils.Logger.WithField("file", (*job).entry.Name).Debugf("verify state -> %s", stateForEvent(event.Type))
}

func stateForEvent(ev statekit.EventType) VerifyState {
	switch ev {
	case evUpload:
		return StateUploading
	case evUploaded:
		return StateUploaded
	case evVerify:
		return StateVerifying
	case evVerified:
		return StateVerified
	default:
		return StateError
	}
}

// NewVerifyMachine builds the per-file lifecycle:
// pending -> uploading -> uploaded -> verifying -> verified, with error
// reachable from every state in flight.
func NewVerifyMachine() (*statekit.MachineConfig[*verifyJob], error) {
	return statekit.NewMachine[*verifyJob]("bulk-verify").
		WithInitial(statekit.StateID(StatePending)).
		WithContext(&verifyJob{}).
		WithAction("trace", traceState).
		State(statekit.StateID(StatePending)).
			On(evUpload).Target(statekit.StateID(StateUploading)).Do("trace").
			On(evFail).Target(statekit.StateID(StateError)).Do("trace").
			Done().
		State(statekit.StateID(StateUploading)).
			On(evUploaded).Target(statekit.StateID(StateUploaded)).Do("trace").
			On(evFail).Target(statekit.StateID(StateError)).Do("trace").
			Done().
		State(statekit.StateID(StateUploaded)).
			On(evVerify).Target(statekit.StateID(StateVerifying)).Do("trace").
			On(evFail).Target(statekit.StateID(StateError)).Do("trace").
			Done().
		State(statekit.StateID(StateVerifying)).
			On(evVerified).Target(statekit.StateID(StateVerified)).Do("trace").
			On(evFail).Target(statekit.StateID(StateError)).Do("trace").
			Done().
		State(statekit.StateID(StateVerified)).
			Final().
			Done().
		State(statekit.StateID(StateError)).
			Final().
			Done().
		Build()
}

// BulkVerifier signs, flattens and stores a batch of documents.
type BulkVerifier struct {
	machine   *statekit.MachineConfig[*verifyJob]
	store     DocumentStore
	composer  *pdfgen.Composer
	flattener Flattener
	signature SignatureLoader
	activity  *ActivityRecorder
	limit     int
	now       func() time.Time
}

func NewBulkVerifier(store DocumentStore, composer *pdfgen.Composer, flattener Flattener, signature SignatureLoader, activity *ActivityRecorder) (*BulkVerifier, error) {
	machine, err := NewVerifyMachine()
	if err != nil {
		return nil, fmt.Errorf("build verify machine: %w", err)
	}
	return &BulkVerifier{
		machine:   machine,
		store:     store,
		composer:  composer,
		flattener: flattener,
		signature: signature,
		activity:  activity,
		limit:     MaxConcurrentUploads,
		now:       time.Now,
	}, nil
}

// Verify processes every file and returns one entry per file in input order.
// A failing file ends in the error state without stopping the others.
func (b *BulkVerifier) Verify(ctx context.Context, files []VerifyFile, user models.UserInfo) ([]VerifyEntry, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	signature, err := b.signature(ctx)
	if err != nil {
		return nil, fmt.Errorf("load signature: %w", err)
	}

	entries := make([]VerifyEntry, len(files))
	for i, f := range files {
		entries[i] = VerifyEntry{Name: f.Name, State: StatePending}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)
	for i := range files {
		g.Go(func() error {
			b.process(gctx, files[i], signature, &entries[i], user)
			return nil
		})
	}
	_ = g.Wait()

	verified := 0
	for _, e := range entries {
		if e.State == StateVerified {
			verified++
		}
	}
	b.activity.Record(ctx, Activity{
		User:        user,
		Context:     ContextBulkVerify,
		Event:       EventVerify,
		Description: fmt.Sprintf("verified %d of %d documents", verified, len(entries)),
	})
	return entries, nil
}

func (b *BulkVerifier) process(ctx context.Context, file VerifyFile, signature []byte, entry *VerifyEntry, user models.UserInfo) {
	job := &verifyJob{entry: entry}
	interp := statekit.NewInterpreter(b.machine)
	interp.UpdateContext(func(c **verifyJob) { *c = job })
	interp.Start()
	defer interp.Stop()

	send := func(ev statekit.EventType) {
		interp.Send(statekit.Event{Type: ev})
		entry.State = VerifyState(interp.State().Value)
	}

	log := utils.Logger.WithFields(logrus.Fields{"file": file.Name, "user": user.Email})
	fail := func(err error) {
		entry.Error = err.Error()
		send(evFail)
		log.WithError(err).WithField("state", entry.State).Warn("document not verified")
	}

	if !bytes.HasPrefix(file.Data, []byte("%PDF")) {
		fail(fmt.Errorf("%s is not a PDF", file.Name))
		return
	}

	at := b.now()
	meta := map[string]string{"uploaded-by": user.Email, "original-name": filepath.Base(file.Name)}

	send(evUpload)
	if err := b.store.PutObject(ctx, storage.BuildDocumentKey(uploadPrefix, file.Name, at), file.Data, "application/pdf", meta); err != nil {
		fail(err)
		return
	}
	send(evUploaded)

	send(evVerify)
	signed, err := b.composer.InsertSignature(file.Data, signature, at)
	if err != nil {
		fail(err)
		return
	}
	flat, err := b.flattener.Flatten(ctx, signed)
	if err != nil {
		fail(err)
		return
	}
	key := storage.BuildDocumentKey(verifiedPrefix, file.Name, at)
	meta["verified-at"] = at.UTC().Format(time.RFC3339)
	if err := b.store.PutObject(ctx, key, flat, "application/pdf", meta); err != nil {
		fail(err)
		return
	}
	url, err := b.store.PresignGet(ctx, key)
	if err != nil {
		fail(err)
		return
	}
	entry.Key = key
	entry.URL = url
	send(evVerified)
	log.WithField("key", key).Info("document verified")
}

// DirStore writes documents under a local directory. It backs the sign
// command, where there is no bucket.
type DirStore struct {
	Dir string

	mu sync.Mutex
}

func (d *DirStore) PutObject(_ context.Context, key string, body []byte, _ string, _ map[string]string) error {
	dst := filepath.Join(d.Dir, filepath.FromSlash(key))
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, body, 0o644)
}

func (d *DirStore) PresignGet(_ context.Context, key string) (string, error) {
	return filepath.Join(d.Dir, filepath.FromSlash(key)), nil
}

// FileSignature loads the signature image from a local path.
func FileSignature(path string) SignatureLoader {
	return func(context.Context) ([]byte, error) {
		return os.ReadFile(path)
	}
}
