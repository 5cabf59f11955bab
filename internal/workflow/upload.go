// Package workflow holds the client-side controllers that sequence the
// upload → configure → predict pipeline. Each controller is a small named
// state machine with an explicit in-flight guard: one operation per resource
// at a time, a second identical action is rejected, not queued.
package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/apex/log"

	"github.com/datasightlabs/datasight-cli/internal/api"
	"github.com/datasightlabs/datasight-cli/internal/dataset"
	"github.com/datasightlabs/datasight-cli/internal/report"
	"github.com/datasightlabs/datasight-cli/internal/session"
)

// ErrBusy rejects a re-entrant action while one is still in flight. Callers
// must surface feedback that nothing happened; no request is sent.
var ErrBusy = errors.New("a request is already in flight")

// UploadState names the upload controller's states.
type UploadState int

const (
	UploadIdle UploadState = iota
	UploadFileChosen
	Uploading
	Uploaded
	UploadFailed
)

func (s UploadState) String() string {
	switch s {
	case UploadFileChosen:
		return "file-chosen"
	case Uploading:
		return "uploading"
	case Uploaded:
		return "uploaded"
	case UploadFailed:
		return "upload-failed"
	default:
		return "idle"
	}
}

// Uploader drives file selection, validation and the upload request.
// Preview parsing is not its concern: preview and upload run independently
// and neither waits for the other.
type Uploader struct {
	client *api.Client
	sess   session.Session

	mu      sync.Mutex
	state   UploadState
	ds      *api.Dataset
	failMsg string
	hint    report.Hint
}

func NewUploader(client *api.Client, sess session.Session) *Uploader {
	return &Uploader{client: client, sess: sess, state: UploadIdle}
}

// Choose validates the selected filename. An invalid extension moves the
// machine to UploadFailed with the fixed message and forbids any upload.
func (u *Uploader) Choose(name string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == Uploading {
		return ErrBusy
	}
	if !dataset.ValidName(name) {
		u.state = UploadFailed
		u.failMsg = dataset.ErrNotCSV
		u.hint = report.Hint{}
		return errors.New(dataset.ErrNotCSV)
	}
	u.state = UploadFileChosen
	u.ds = nil
	u.failMsg = ""
	return nil
}

// Start performs the upload request for the chosen file. It refuses to run
// without a session, while another upload is in flight, or before a valid
// Choose; in each case no network call is made.
func (u *Uploader) Start(ctx context.Context, path string, saveToDB bool) (*api.Dataset, error) {
	u.mu.Lock()
	switch {
	case u.state == Uploading:
		u.mu.Unlock()
		return nil, ErrBusy
	case u.state != UploadFileChosen:
		u.mu.Unlock()
		return nil, errors.New("no valid file chosen")
	case !u.sess.Valid():
		u.state = UploadFailed
		u.failMsg = session.ErrNotLoggedIn.Error()
		u.mu.Unlock()
		return nil, session.ErrNotLoggedIn
	}
	u.state = Uploading
	u.mu.Unlock()

	ds, err := u.client.Upload(ctx, u.sess.Token, path, saveToDB)

	u.mu.Lock()
	defer u.mu.Unlock()
	if err != nil {
		u.state = UploadFailed
		u.failMsg = err.Error()
		var remote *api.RemoteError
		if errors.As(err, &remote) {
			u.hint = report.Remediate(remote.Message)
		} else {
			u.hint = report.Hint{}
		}
		log.WithError(err).Debug("upload failed")
		return nil, err
	}
	u.state = Uploaded
	u.ds = ds
	return ds, nil
}

// InFlight reports whether an upload is pending. Callers must check it
// before allowing a new file to start a new upload.
func (u *Uploader) InFlight() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state == Uploading
}

func (u *Uploader) State() UploadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Dataset returns the uploaded descriptor, nil unless state is Uploaded.
func (u *Uploader) Dataset() *api.Dataset {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ds
}

// Failure returns the inline message and remediation hint of the last
// failure. The hint is zero for local validation failures.
func (u *Uploader) Failure() (string, report.Hint) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.failMsg, u.hint
}
