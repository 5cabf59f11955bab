package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/apex/log"

	"github.com/datasightlabs/datasight-cli/internal/api"
	"github.com/datasightlabs/datasight-cli/internal/report"
	"github.com/datasightlabs/datasight-cli/internal/session"
)

// ErrMissingTarget is the local validation failure for a submit without a
// usable target column. No network call is made.
var ErrMissingTarget = errors.New("missing target column: select a target column for prediction")

// AnalyzeState names the analysis controller's states.
type AnalyzeState int

const (
	AwaitingConfig AnalyzeState = iota
	Submitting
	Succeeded
	AnalyzeFailed
)

func (s AnalyzeState) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case AnalyzeFailed:
		return "failed"
	default:
		return "awaiting-config"
	}
}

// Analyzer drives target/model selection and the predict request. On success
// it only signals completion: the backend stores the result, and the caller
// is expected to read it back from the results collection.
type Analyzer struct {
	client *api.Client
	sess   session.Session

	mu      sync.Mutex
	state   AnalyzeState
	failMsg string
	hint    report.Hint
}

func NewAnalyzer(client *api.Client, sess session.Session) *Analyzer {
	return &Analyzer{client: client, sess: sess, state: AwaitingConfig}
}

// Submit validates the configuration against the uploaded dataset and sends
// the predict request. Exactly one submission may be in flight; a second
// attempt is rejected with ErrBusy and sends nothing.
func (a *Analyzer) Submit(ctx context.Context, ds *api.Dataset, targetColumn, modelType string) error {
	a.mu.Lock()
	if a.state == Submitting {
		a.mu.Unlock()
		return ErrBusy
	}
	if ds == nil {
		a.mu.Unlock()
		return a.failLocal(errors.New("no uploaded dataset to analyze"))
	}
	if targetColumn == "" || !ds.HasColumn(targetColumn) {
		a.mu.Unlock()
		return a.failLocal(ErrMissingTarget)
	}
	if !api.ValidModelType(modelType) {
		a.mu.Unlock()
		return a.failLocal(fmt.Errorf("unknown model type %q", modelType))
	}
	if !a.sess.Valid() {
		a.mu.Unlock()
		return a.failLocal(session.ErrNotLoggedIn)
	}
	a.state = Submitting
	a.mu.Unlock()

	_, err := a.client.Predict(ctx, a.sess.Token, api.PredictRequest{
		Filename:     ds.Filename,
		TargetColumn: targetColumn,
		ModelType:    modelType,
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state = AnalyzeFailed
		a.failMsg = err.Error()
		var remote *api.RemoteError
		if errors.As(err, &remote) {
			a.hint = report.Remediate(remote.Message)
		} else {
			a.hint = report.Hint{}
		}
		log.WithError(err).Debug("predict failed")
		return err
	}
	a.state = Succeeded
	a.failMsg = ""
	a.hint = report.Hint{}
	return nil
}

func (a *Analyzer) failLocal(err error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = AnalyzeFailed
	a.failMsg = err.Error()
	a.hint = report.Hint{}
	return err
}

// InFlight reports whether a submission is pending.
func (a *Analyzer) InFlight() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == Submitting
}

func (a *Analyzer) State() AnalyzeState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Failure returns the inline message and remediation hint of the last
// failure.
func (a *Analyzer) Failure() (string, report.Hint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failMsg, a.hint
}
