// Package vcs runs read-only git queries against a working tree.
package vcs

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// Field and record separators used in the Log format.
const (
	FieldSep  = "\x1f"
	RecordSep = "\x1e"
)

// Runner retrieves raw version-control output. Every method returns empty
// output on a directory that is not a repository.
type Runner interface {
	IsRepo(ctx context.Context) bool
	// Log returns up to n commits as hash, ISO date, author and subject
	// separated by FieldSep, each record terminated by RecordSep.
	Log(ctx context.Context, n int) (string, error)
	// Numstat returns "added\tdeleted\tpath" lines for the n most recent commits.
	Numstat(ctx context.Context, n int) (string, error)
	// Shortlog returns "count\tName <email>" lines sorted by count.
	Shortlog(ctx context.Context) (string, error)
	CommitCount(ctx context.Context) (int, error)
}

// Git shells out to the git binary with Dir as the working directory.
type Git struct {
	Dir string
}

// NewGit returns a Runner for the working tree at dir.
func NewGit(dir string) *Git {
	return &Git{Dir: dir}
}

func (g *Git) IsRepo(ctx context.Context) bool {
	out, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

func (g *Git) Log(ctx context.Context, n int) (string, error) {
	if !g.IsRepo(ctx) {
		return "", nil
	}
	format := "--pretty=format:%H" + FieldSep + "%aI" + FieldSep + "%an" + FieldSep + "%s" + RecordSep
	return g.run(ctx, "log", "-n", strconv.Itoa(n), format)
}

func (g *Git) Numstat(ctx context.Context, n int) (string, error) {
	if !g.IsRepo(ctx) {
		return "", nil
	}
	return g.run(ctx, "log", "--pretty=tformat:", "--numstat", "-n", strconv.Itoa(n))
}

func (g *Git) Shortlog(ctx context.Context) (string, error) {
	if !g.IsRepo(ctx) {
		return "", nil
	}
	return g.run(ctx, "shortlog", "-sne", "HEAD")
}

func (g *Git) CommitCount(ctx context.Context) (int, error) {
	if !g.IsRepo(ctx) {
		return 0, nil
	}
	out, err := g.run(ctx, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(out))
}

// run executes a git command and returns its stdout.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(output), nil
}
