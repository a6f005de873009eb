package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandError is a failed git invocation.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.Args, " "), e.Err, out)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRepository drives the git binary. Arguments are always passed as a
// list; nothing goes through a shell.
type ExecRepository struct {
	Dir    string
	Binary string
	// AuthorName and AuthorEmail, when set, override the committer identity.
	AuthorName  string
	AuthorEmail string
}

// NewExecRepository returns an exec backend rooted at dir.
func NewExecRepository(dir string) *ExecRepository {
	return &ExecRepository{Dir: dir, Binary: "git"}
}

func (r *ExecRepository) run(ctx context.Context, args ...string) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = "git"
	}
	full := []string{"-C", r.Dir}
	if r.AuthorName != "" {
		full = append(full, "-c", "user.name="+r.AuthorName)
	}
	if r.AuthorEmail != "" {
		full = append(full, "-c", "user.email="+r.AuthorEmail)
	}
	full = append(full, args...)

	// #nosec G204 -- fixed binary, validated branch and remote, message passed as a single argument
	cmd := exec.CommandContext(ctx, bin, full...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return buf.String(), &CommandError{Args: args, Output: buf.String(), Err: err}
	}
	return buf.String(), nil
}

func (r *ExecRepository) IsRepository(ctx context.Context) (bool, error) {
	if _, err := os.Stat(r.Dir); err != nil {
		return false, nil
	}
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		return false, nil
	}
	return strings.TrimSpace(out) == "true", nil
}

func (r *ExecRepository) HasRemote(ctx context.Context, name string) (bool, error) {
	out, err := r.run(ctx, "remote")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *ExecRepository) HasChanges(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func (r *ExecRepository) StageAll(ctx context.Context) error {
	_, err := r.run(ctx, "add", "-A")
	return err
}

func (r *ExecRepository) Commit(ctx context.Context, message string) error {
	out, err := r.run(ctx, "commit", "-m", message)
	if err != nil {
		if strings.Contains(strings.ToLower(out), "nothing to commit") {
			return ErrNothingToCommit
		}
		return err
	}
	return nil
}

func (r *ExecRepository) Push(ctx context.Context, remote, branch string) error {
	_, err := r.run(ctx, "push", remote, "HEAD:refs/heads/"+branch)
	return err
}

func (r *ExecRepository) Status(ctx context.Context) (string, error) {
	return r.run(ctx, "status", "--short", "--branch")
}

var _ Repository = (*ExecRepository)(nil)
