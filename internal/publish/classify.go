package publish

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// FailureKind classifies a failed publish.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureNotARepository FailureKind = "not_a_repository"
	FailureNoRemote       FailureKind = "no_remote"
	FailureAuth           FailureKind = "auth"
	FailureNetwork        FailureKind = "network"
	FailureTimeout        FailureKind = "timeout"
	FailureInvalidInput   FailureKind = "invalid_input"
	FailureGeneric        FailureKind = "generic"
)

// Category returns the error category used for the failure kind.
func (k FailureKind) Category() errors.ErrorCategory {
	switch k {
	case FailureNotARepository, FailureNoRemote:
		return errors.CategoryConfig
	case FailureAuth:
		return errors.CategoryAuth
	case FailureNetwork, FailureTimeout:
		return errors.CategoryNetwork
	case FailureInvalidInput:
		return errors.CategoryValidation
	default:
		return errors.CategoryGit
	}
}

var authPatterns = []string{
	"authentication failed",
	"authentication required",
	"authorization failed",
	"could not read username",
	"could not read password",
	"terminal prompts disabled",
	"invalid username or password",
	"invalid credentials",
	"permission denied",
	"access denied",
	"not authorized",
	"unauthorized",
	"returned error: 401",
	"returned error: 403",
	"host key verification failed",
}

var networkPatterns = []string{
	"could not resolve host",
	"temporary failure in name resolution",
	"no such host",
	"connection refused",
	"connection timed out",
	"connection reset",
	"network is unreachable",
	"no route to host",
	"operation timed out",
	"the remote end hung up",
	"early eof",
	"rpc failed",
	"i/o timeout",
	"tls handshake",
	"unable to access",
	"could not read from remote repository",
	"dial tcp",
}

// Classify maps an error from pushing to the remote to a failure kind. Authentication
// signals win over network ones because git reports both for a rejected push
// over HTTPS.
func Classify(ctx context.Context, err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	if deadlineExceeded(ctx, err) {
		return FailureTimeout
	}
	if stderrors.Is(err, transport.ErrAuthenticationRequired) || stderrors.Is(err, transport.ErrAuthorizationFailed) {
		return FailureAuth
	}
	if errors.HasCategory(err, errors.CategoryAuth) {
		return FailureAuth
	}

	l := strings.ToLower(err.Error())
	for _, p := range authPatterns {
		if strings.Contains(l, p) {
			return FailureAuth
		}
	}
	var nerr net.Error
	if stderrors.As(err, &nerr) {
		return FailureNetwork
	}
	for _, p := range networkPatterns {
		if strings.Contains(l, p) {
			return FailureNetwork
		}
	}
	return FailureGeneric
}

// ClassifyStep maps an error from one pipeline step to a failure kind. Only
// the push reaches the remote, so credential and network heuristics apply to
// it alone. Local steps fail as timeout or generic.
func ClassifyStep(ctx context.Context, step State, err error) FailureKind {
	if step == StatePushing {
		return Classify(ctx, err)
	}
	if err == nil {
		return FailureNone
	}
	if deadlineExceeded(ctx, err) {
		return FailureTimeout
	}
	return FailureGeneric
}

func deadlineExceeded(ctx context.Context, err error) bool {
	return stderrors.Is(err, context.DeadlineExceeded) || (ctx != nil && stderrors.Is(ctx.Err(), context.DeadlineExceeded))
}
