// Package gitutil commits library changes to the git checkout that holds the
// data directory, so a static-site build picks them up.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner runs real commands.
type ExecRunner struct{}

// Run executes the named program in dir and returns stdout, stderr, and error.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out, errB bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errB
	err := cmd.Run()
	return out.String(), errB.String(), err
}

// Publisher commits paths inside the repository at Dir and optionally pushes.
type Publisher struct {
	Dir    string
	Push   bool
	Runner Runner
}

// New returns a Publisher for the repository at dir using real git.
func New(dir string, push bool) *Publisher {
	return &Publisher{Dir: dir, Push: push, Runner: ExecRunner{}}
}

// Publish stages the given paths, commits with message, and pushes when
// enabled. Treats "nothing to commit" as success.
func (p *Publisher) Publish(ctx context.Context, paths []string, message string) error {
	if len(paths) == 0 {
		return nil
	}
	rel := make([]string, 0, len(paths))
	for _, path := range paths {
		rel = append(rel, p.relative(path))
	}
	if err := p.add(ctx, rel); err != nil {
		return err
	}
	noChange, err := p.commit(ctx, message)
	if err != nil {
		return err
	}
	if noChange || !p.Push {
		return nil
	}
	return p.pushWithFallback(ctx)
}

// relative makes path relative to the repository when it lies inside it.
func (p *Publisher) relative(path string) string {
	if p.Dir == "" || !filepath.IsAbs(path) {
		return path
	}
	dir, err := filepath.Abs(p.Dir)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func (p *Publisher) run(ctx context.Context, args ...string) (string, string, error) {
	r := p.Runner
	if r == nil {
		r = ExecRunner{}
	}
	return r.Run(ctx, p.Dir, "git", args...)
}

// add stages additions, modifications, and deletions for the provided paths.
func (p *Publisher) add(ctx context.Context, paths []string) error {
	args := append([]string{"add", "-A", "--"}, paths...)
	if _, stderr, err := p.run(ctx, args...); err != nil {
		return fmt.Errorf("git add failed: %v: %s", err, stderr)
	}
	return nil
}

// commit returns noChange=true when there is nothing to commit, which
// callers treat as success.
func (p *Publisher) commit(ctx context.Context, message string) (noChange bool, err error) {
	stdout, stderr, runErr := p.run(ctx, "commit", "-m", message)
	if runErr == nil {
		return false, nil
	}
	// Some Git versions indicate no-op on stdout or stderr; treat as noChange.
	combined := stderr + stdout
	if strings.Contains(combined, "nothing to commit") ||
		strings.Contains(combined, "no changes added to commit") ||
		strings.Contains(combined, "working tree clean") {
		return true, nil
	}
	return false, fmt.Errorf("git commit failed: %v: %s%s", runErr, stderr, stdout)
}

// pushWithFallback runs `git push`, and when there is no upstream configured,
// falls back to `git push -u origin <current-branch>`.
func (p *Publisher) pushWithFallback(ctx context.Context) error {
	_, stderr, err := p.run(ctx, "push")
	if err == nil {
		return nil
	}
	if !strings.Contains(stderr, "has no upstream branch") && !strings.Contains(stderr, "no configured push destination") {
		return fmt.Errorf("git push failed: %v: %s", err, stderr)
	}
	branch := "HEAD"
	if br, _, bErr := p.run(ctx, "rev-parse", "--abbrev-ref", "HEAD"); bErr == nil && strings.TrimSpace(br) != "" {
		branch = strings.TrimSpace(br)
	}
	if _, stderr2, err2 := p.run(ctx, "push", "-u", "origin", branch); err2 != nil {
		return fmt.Errorf("git push failed: %v: %s; fallback failed: %v: %s", err, stderr, err2, stderr2)
	}
	return nil
}
