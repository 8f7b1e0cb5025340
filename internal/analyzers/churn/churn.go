// Package churn summarizes recent version-control activity: hot files,
// recent commits and contributors.
package churn

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/joeynyc/repobrief/internal/analyzers"
	"github.com/joeynyc/repobrief/internal/repoctx"
	"github.com/joeynyc/repobrief/internal/vcs"
)

// Name is the analyzer identifier.
const Name = "churn"

// NumstatCommits is how many recent commits feed the hot-file ranking.
const NumstatCommits = 200

// IgnoredDirs are path segments whose files never count as hot.
var IgnoredDirs = []string{"node_modules", "dist", ".git", "build", "coverage", ".repobrief"}

var shortlogRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s+<([^>]*)>\s*$`)

// Analyzer produces the churn snapshot fragment.
type Analyzer struct{}

// New creates a churn analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) Fallback() repoctx.Fragment { return repoctx.EmptyChurn() }

func (a *Analyzer) Analyze(ctx context.Context, env *analyzers.Env) (analyzers.Result, error) {
	var skip []string
	if env.OutputDir != "" {
		skip = append(skip, env.OutputDir)
	}
	snap := Collect(ctx, env.Git, env.Log, skip...)
	summary := fmt.Sprintf("Analyzed %d recent commits and %d hot files", len(snap.RecentCommits), len(snap.HotFiles))
	if !env.Git.IsRepo(ctx) {
		summary = "No git repository detected"
	}
	return analyzers.Result{Fragment: snap, Summary: summary}, nil
}

// Collect queries git and parses its output. Every query that fails leaves
// its part of the snapshot empty. Files under skip never count as hot.
func Collect(ctx context.Context, git vcs.Runner, log zerolog.Logger, skip ...string) repoctx.ChurnSnapshot {
	snap := repoctx.EmptyChurn()
	if !git.IsRepo(ctx) {
		return snap
	}

	if out, err := git.Numstat(ctx, NumstatCommits); err != nil {
		log.Warn().Err(err).Msg("git numstat failed")
	} else {
		snap.HotFiles = ParseNumstat(out, skip...)
	}

	if out, err := git.Log(ctx, repoctx.MaxRecentCommits); err != nil {
		log.Warn().Err(err).Msg("git log failed")
	} else {
		snap.RecentCommits = ParseLog(out)
	}

	if out, err := git.Shortlog(ctx); err != nil {
		log.Warn().Err(err).Msg("git shortlog failed")
	} else {
		snap.Contributors = ParseShortlog(out)
	}

	if n, err := git.CommitCount(ctx); err != nil {
		log.Debug().Err(err).Msg("git rev-list failed")
	} else {
		snap.TotalCommitCount = n
	}
	return snap
}

// Ignored reports whether a path lies under one of IgnoredDirs at any depth
// or under one of the root-relative skip directories.
func Ignored(p string, skip ...string) bool {
	for _, dir := range skip {
		if p == dir || strings.HasPrefix(p, dir+"/") {
			return true
		}
	}
	for _, seg := range strings.Split(p, "/") {
		for _, dir := range IgnoredDirs {
			if seg == dir {
				return true
			}
		}
	}
	return false
}

// ParseNumstat counts touches per path and returns the top entries by count.
// Ties keep the order in which paths first appeared.
func ParseNumstat(out string, skip ...string) []repoctx.HotFile {
	counts := make(map[string]int)
	var order []string
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(parts) != 3 {
			continue
		}
		p := strings.TrimSpace(parts[2])
		if p == "" || Ignored(p, skip...) {
			continue
		}
		if _, ok := counts[p]; !ok {
			order = append(order, p)
		}
		counts[p]++
	}

	hot := make([]repoctx.HotFile, 0, len(order))
	for _, p := range order {
		hot = append(hot, repoctx.HotFile{Path: p, Commits: counts[p]})
	}
	sort.SliceStable(hot, func(i, j int) bool {
		return hot[i].Commits > hot[j].Commits
	})
	if len(hot) > repoctx.MaxHotFiles {
		hot = hot[:repoctx.MaxHotFiles]
	}
	return hot
}

// ParseLog parses output in the vcs.Runner Log format, newest first.
func ParseLog(out string) []repoctx.Commit {
	commits := []repoctx.Commit{}
	for _, rec := range strings.Split(out, vcs.RecordSep) {
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		fields := strings.SplitN(rec, vcs.FieldSep, 4)
		if len(fields) != 4 {
			continue
		}
		commits = append(commits, repoctx.Commit{
			Hash:    fields[0],
			Date:    fields[1],
			Author:  fields[2],
			Message: fields[3],
		})
		if len(commits) == repoctx.MaxRecentCommits {
			break
		}
	}
	return commits
}

// ParseShortlog parses "count\tName <email>" lines. Lines of any other shape
// are dropped; the input order is kept.
func ParseShortlog(out string) []repoctx.Contributor {
	contributors := []repoctx.Contributor{}
	for _, line := range strings.Split(out, "\n") {
		m := shortlogRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		contributors = append(contributors, repoctx.Contributor{Name: m[2], Email: m[3], Commits: n})
		if len(contributors) == repoctx.MaxContributors {
			break
		}
	}
	return contributors
}
