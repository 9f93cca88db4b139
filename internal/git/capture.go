package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/exec"
)

// DefaultTimeout bounds each git invocation.
const DefaultTimeout = 5 * time.Second

// ExecCapturer runs the git binary through a CommandRunner.
type ExecCapturer struct {
	CR      exec.CommandRunner
	Timeout time.Duration
	Now     func() time.Time
}

// NewExecCapturer returns a Capturer using cr with the default timeout.
func NewExecCapturer(cr exec.CommandRunner) *ExecCapturer {
	return &ExecCapturer{CR: cr, Timeout: DefaultTimeout, Now: time.Now}
}

// Capture implements Capturer.
func (c *ExecCapturer) Capture(ctx context.Context, dir string) (*Snapshot, error) {
	if _, err := c.git(ctx, dir, "rev-parse", "--show-toplevel"); err != nil {
		return nil, err
	}
	commit, err := c.git(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}
	subject, err := c.git(ctx, dir, "log", "-1", "--format=%s")
	if err != nil {
		return nil, err
	}
	// A detached HEAD reports "HEAD"; kept as-is.
	branch, err := c.git(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}
	status, err := c.gitRaw(ctx, dir, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	files := ParsePorcelainZ(status)

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return &Snapshot{
		Commit:     commit,
		Subject:    subject,
		Branch:     branch,
		Dirty:      len(files) > 0,
		DirtyFiles: files,
		CapturedAt: now().UTC().Format(time.RFC3339),
	}, nil
}

// Remote implements Capturer.
func (c *ExecCapturer) Remote(ctx context.Context, dir, commit string) (*RemoteInfo, error) {
	res, err := c.run(ctx, dir, "config", "--get", "remote.origin.url")
	if err != nil {
		return nil, err
	}
	// git config exits 1 when the key is unset.
	if res.ExitCode == 1 {
		return nil, nil
	}
	if res.ExitCode != 0 {
		return nil, unavailable("config --get remote.origin.url", res)
	}
	url := SanitizeURL(strings.TrimSpace(res.Stdout))
	if url == "" {
		return nil, nil
	}
	return &RemoteInfo{Name: "origin", URL: url, CommitURL: CommitURL(url, commit)}, nil
}

func (c *ExecCapturer) git(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := c.gitRaw(ctx, dir, args...)
	return strings.TrimSpace(out), err
}

func (c *ExecCapturer) gitRaw(ctx context.Context, dir string, args ...string) (string, error) {
	res, err := c.run(ctx, dir, args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", unavailable(strings.Join(args, " "), res)
	}
	return res.Stdout, nil
}

func (c *ExecCapturer) run(ctx context.Context, dir string, args ...string) (exec.CmdResult, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	res, err := c.CR.Run(ctx, "git", args, exec.RunOpts{
		Dir:     dir,
		Env:     map[string]string{"GIT_TERMINAL_PROMPT": "0", "GIT_OPTIONAL_LOCKS": "0"},
		Timeout: timeout,
	})
	if err != nil {
		return res, errors.WrapWithDetails(errors.EGitUnavailable, "git "+args[0]+" failed to run", err, map[string]string{
			"command": "git " + strings.Join(args, " "),
			"timeout": timeout.String(),
		})
	}
	return res, nil
}

func unavailable(cmd string, res exec.CmdResult) error {
	msg := strings.TrimSpace(res.Stderr)
	if msg == "" {
		msg = "exit status " + fmt.Sprint(res.ExitCode)
	}
	return errors.NewWithDetails(errors.EGitUnavailable, "git "+cmd+": "+msg, map[string]string{
		"command":   "git " + cmd,
		"exit_code": fmt.Sprint(res.ExitCode),
	})
}
