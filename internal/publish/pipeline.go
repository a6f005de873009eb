package publish

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
)

const (
	DefaultMessage = "Update website content"
	DefaultBranch  = "main"
	DefaultRemote  = "origin"
	DefaultTimeout = 2 * time.Minute
)

// State is a step of the publish state machine.
type State string

const (
	StateIdle       State = "idle"
	StateVerifying  State = "verifying"
	StateStaging    State = "staging"
	StateCommitting State = "committing"
	StatePushing    State = "pushing"
	StateDone       State = "done"
)

// Outcome is the terminal result of a publish.
type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomeNoChanges Outcome = "no_changes"
	OutcomeFailed    Outcome = "failed"
)

// Result describes a finished publish.
type Result struct {
	Outcome Outcome     `json:"outcome"`
	Message string      `json:"message"`
	Branch  string      `json:"branch"`
	Remote  string      `json:"remote"`
	Failure FailureKind `json:"failure,omitempty"`
	// Detail carries raw tool output for diagnostics only.
	Detail string `json:"detail,omitempty"`
}

// Summary is a human-readable confirmation of the result.
func (r Result) Summary() string {
	switch r.Outcome {
	case OutcomePublished:
		return fmt.Sprintf("Published %q to %s/%s", r.Message, r.Remote, r.Branch)
	case OutcomeNoChanges:
		return "No changes to publish"
	case OutcomeFailed:
		return fmt.Sprintf("Publishing to %s/%s failed: %s", r.Remote, r.Branch, r.Failure)
	}
	return ""
}

// Publisher runs the publish pipeline against a Repository. Calls are serialized.
type Publisher struct {
	repo    Repository
	remote  string
	message string
	branch  string
	timeout time.Duration
	logger  *slog.Logger
	onState func(State)
	mu      sync.Mutex
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithRemote sets the remote name pushed to.
func WithRemote(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.remote = name
		}
	}
}

// WithTimeout bounds each Publish call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) { p.timeout = d }
}

// WithDefaults sets the message and branch used when a call leaves them empty.
func WithDefaults(message, branch string) Option {
	return func(p *Publisher) {
		if message != "" {
			p.message = message
		}
		if branch != "" {
			p.branch = branch
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStateHook registers a function called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(p *Publisher) { p.onState = fn }
}

// NewPublisher returns a Publisher for repo.
func NewPublisher(repo Repository, opts ...Option) *Publisher {
	p := &Publisher{
		repo:    repo,
		remote:  DefaultRemote,
		message: DefaultMessage,
		branch:  DefaultBranch,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultBranch returns the branch used when Publish is called without one.
func (p *Publisher) DefaultBranch() string { return p.branch }

// Status returns the repository's working tree summary.
func (p *Publisher) Status(ctx context.Context) (string, error) {
	ok, err := p.repo.IsRepository(ctx)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryGit, "failed to inspect repository").Build()
	}
	if !ok {
		return "", errors.ConfigError("not a git repository").
			WithContext("failure", string(FailureNotARepository)).
			Build()
	}
	out, err := p.repo.Status(ctx)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryGit, "git status failed").Build()
	}
	return out, nil
}

// Publish stages all changes, commits them with message and pushes to branch.
// A clean working tree yields OutcomeNoChanges without touching the index.
// Every failure returns both a Result with OutcomeFailed and a classified error.
func (p *Publisher) Publish(ctx context.Context, message, branch string) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		message = p.message
	}
	if branch == "" {
		branch = p.branch
	}
	res := Result{Message: message, Branch: branch, Remote: p.remote}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	p.transition(StateIdle)
	defer p.transition(StateDone)

	if err := ValidateBranch(branch); err != nil {
		return p.fail(res, StateVerifying, FailureInvalidInput, err)
	}
	if err := ValidateRemote(p.remote); err != nil {
		return p.fail(res, StateVerifying, FailureInvalidInput, err)
	}

	p.transition(StateVerifying)
	isRepo, err := p.repo.IsRepository(ctx)
	if err != nil {
		return p.fail(res, StateVerifying, ClassifyStep(ctx, StateVerifying, err), err)
	}
	if !isRepo {
		return p.fail(res, StateVerifying, FailureNotARepository, nil)
	}
	hasRemote, err := p.repo.HasRemote(ctx, p.remote)
	if err != nil {
		return p.fail(res, StateVerifying, ClassifyStep(ctx, StateVerifying, err), err)
	}
	if !hasRemote {
		return p.fail(res, StateVerifying, FailureNoRemote, nil)
	}
	dirty, err := p.repo.HasChanges(ctx)
	if err != nil {
		return p.fail(res, StateVerifying, ClassifyStep(ctx, StateVerifying, err), err)
	}
	if !dirty {
		return p.noChanges(res), nil
	}

	p.transition(StateStaging)
	if err := p.repo.StageAll(ctx); err != nil {
		return p.fail(res, StateStaging, ClassifyStep(ctx, StateStaging, err), err)
	}

	p.transition(StateCommitting)
	if err := p.repo.Commit(ctx, message); err != nil {
		if stderrors.Is(err, ErrNothingToCommit) {
			return p.noChanges(res), nil
		}
		return p.fail(res, StateCommitting, ClassifyStep(ctx, StateCommitting, err), err)
	}

	p.transition(StatePushing)
	if err := p.repo.Push(ctx, p.remote, branch); err != nil {
		return p.fail(res, StatePushing, ClassifyStep(ctx, StatePushing, err), err)
	}

	res.Outcome = OutcomePublished
	p.logger.Info("Published changes",
		logfields.Branch(branch),
		logfields.Remote(p.remote),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return res, nil
}

func (p *Publisher) transition(s State) {
	if p.onState != nil {
		p.onState(s)
	}
}

func (p *Publisher) noChanges(res Result) Result {
	res.Outcome = OutcomeNoChanges
	p.logger.Info("No changes to publish", logfields.Branch(res.Branch))
	return res
}

func (p *Publisher) fail(res Result, stage State, kind FailureKind, cause error) (Result, error) {
	res.Outcome = OutcomeFailed
	res.Failure = kind
	if cause != nil {
		res.Detail = diagnostic(cause)
	}

	msg := failureMessage(kind, p.remote)
	if ce, ok := errors.AsClassified(cause); ok && kind == FailureInvalidInput {
		msg = ce.Message()
	}
	b := errors.NewError(kind.Category(), msg)
	if cause != nil {
		b = b.WithCause(cause)
	}
	switch kind {
	case FailureAuth, FailureNotARepository, FailureNoRemote:
		b = b.UserAction()
	case FailureNetwork, FailureTimeout:
		b = b.Retryable()
	}
	err := b.WithContext("failure", string(kind)).
		WithContext("stage", string(stage)).
		WithContext("branch", res.Branch).
		Build()

	p.logger.Warn("Publish failed",
		logfields.Stage(string(stage)),
		logfields.Failure(string(kind)),
		logfields.Branch(res.Branch),
		logfields.Remote(p.remote),
		logfields.Error(cause))
	return res, err
}

func failureMessage(kind FailureKind, remote string) string {
	switch kind {
	case FailureNotARepository:
		return "not a git repository"
	case FailureNoRemote:
		return fmt.Sprintf("no remote %q configured", remote)
	case FailureAuth:
		return "git authentication failed"
	case FailureNetwork:
		return "could not reach git remote"
	case FailureTimeout:
		return "publish timed out"
	case FailureInvalidInput:
		return "invalid publish input"
	default:
		return "git operation failed"
	}
}

func diagnostic(err error) string {
	var cmdErr *CommandError
	if stderrors.As(err, &cmdErr) && cmdErr.Output != "" {
		return cmdErr.Output
	}
	return err.Error()
}
