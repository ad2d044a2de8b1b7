// Package provenance collects source-control state (commit hash, branch,
// working-tree cleanliness) for stamping into build artifacts.
package provenance

import (
	"context"

	"go.uber.org/zap"
)

// Unknown is the sentinel substituted when source-control state cannot be
// determined.
const Unknown = "unknown"

// Info describes the source-control state a build was produced from.
// It is produced fresh on every collection and is immutable afterwards.
type Info struct {
	Hash   string // short revision identifier, or Unknown
	Branch string // current branch name, or Unknown
	Dirty  bool   // working tree has uncommitted modifications
}

// Revision returns the revision identifier as it is written into the
// artifact: the short hash with a "-dirty" suffix when the working tree
// has uncommitted modifications.
func (i Info) Revision() string {
	if i.Dirty {
		return i.Hash + "-dirty"
	}
	return i.Hash
}

// Unavailable returns the joint-sentinel Info used when a provenance query
// fails. Both identifiers carry Unknown; Dirty is left unevaluated.
func Unavailable() Info {
	return Info{Hash: Unknown, Branch: Unknown}
}

// Source is the capability interface for provenance queries. A non-nil
// error marks the state unavailable as a whole; callers must not use
// partial results from a failed query.
type Source interface {
	Query(ctx context.Context) (Info, error)
}

// Collect obtains provenance from src. It never fails: any query error is
// logged as a warning and degraded to the joint sentinel pair, so a build
// is never blocked on unobtainable metadata.
func Collect(ctx context.Context, src Source, log *zap.Logger) Info {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := src.Query(ctx)
	if err != nil {
		log.Warn("provenance unavailable, using sentinel values", zap.Error(err))
		return Unavailable()
	}
	log.Debug("provenance collected",
		zap.String("hash", info.Hash),
		zap.String("branch", info.Branch),
		zap.Bool("dirty", info.Dirty))
	return info
}
