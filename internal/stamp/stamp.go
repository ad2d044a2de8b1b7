// Package stamp orchestrates one provenance stamping pass: collect the
// source-control state, locate the version header, rewrite it in place.
package stamp

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aellingwood/fwstamp/internal/config"
	"github.com/aellingwood/fwstamp/internal/header"
	"github.com/aellingwood/fwstamp/internal/provenance"
)

// Options controls the behaviour of a stamping pass.
type Options struct {
	DryRun bool
	Files  []string // extra values files from the command line
	Pairs  []string // extra NAME=VALUE defines from the command line

	// Now overrides the clock used for the build stamp. Nil means time.Now.
	Now func() time.Time
}

// Result summarizes a completed stamping pass.
type Result struct {
	Path    string // resolved artifact path, also set when skipped
	Info    provenance.Info
	Values  header.Values // what was (or would have been) written
	Defines map[string]string
	Skipped bool // artifact absent, nothing written
	Changed bool // patched text differed from what was on disk
}

// Runner executes stamping passes against one configured project.
type Runner struct {
	cfg *config.Config
	src provenance.Source
	log *zap.Logger
}

// New creates a Runner. A nil src queries git as configured, with the
// queries running inside the resolved project root unless git.dir names
// another directory; a nil log discards diagnostics.
func New(cfg *config.Config, src provenance.Source, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, src: src, log: log}
}

// Run executes one stamping pass. The pipeline steps are:
//  1. Collect provenance from the resolved project root, degrading to
//     sentinel values on failure
//  2. Locate the version header under that root
//  3. Rewrite the macro values and write the text back
//
// A missing artifact is a soft skip reported through Result.Skipped, not
// an error: the tool must never block a build over absent metadata or an
// absent header. Errors are reserved for broken configuration and for
// read/write failures on an artifact that does exist.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	root, err := r.cfg.ResolveRoot()
	if err != nil {
		return nil, err
	}

	src := r.src
	if src == nil {
		dir := r.cfg.Git.Dir
		if dir == "" {
			// Queries must run inside the repository no matter where the
			// process was started from.
			dir = root
		}
		src = &provenance.GitSource{Binary: r.cfg.Git.Binary, Dir: dir}
	}

	info := provenance.Collect(ctx, src, r.log)

	defines, err := config.ResolveDefines(r.cfg, root, opts.Files, opts.Pairs)
	if err != nil {
		return nil, err
	}

	patcher, err := header.NewPatcher(r.cfg.Macros.Macros(), defines)
	if err != nil {
		return nil, err
	}

	values := header.Values{
		Hash:   info.Revision(),
		Branch: info.Branch,
		Build:  now().Format(header.BuildStampLayout),
	}
	result := &Result{Info: info, Values: values, Defines: defines}

	path, err := header.Locate(root, r.cfg.Artifact.Path)
	result.Path = path
	if errors.Is(err, header.ErrNotFound) {
		r.log.Warn("version header not found, skipping", zap.String("path", path))
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	text, bom, err := header.ReadFile(path)
	if err != nil {
		return nil, err
	}

	patched := patcher.Apply(text, values)
	result.Changed = patched != text

	if opts.DryRun {
		r.log.Info("dry run, not writing", zap.String("path", path))
		return result, nil
	}

	if err := header.WriteFile(path, patched, bom); err != nil {
		return nil, err
	}

	r.log.Info("stamped version header",
		zap.String("path", path),
		zap.String("hash", values.Hash),
		zap.String("branch", values.Branch),
		zap.String("build", values.Build))

	return result, nil
}
