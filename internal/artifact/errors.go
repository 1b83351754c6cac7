package artifact

import "errors"

var (
	// ErrComputeFailed wraps a failed summary or translation call. The cache
	// entry stays empty, so calling GetOrCompute again retries.
	ErrComputeFailed = errors.New("artifact compute failed")

	// ErrStale means the source text changed while the computation was in
	// flight. The result was discarded.
	ErrStale = errors.New("artifact stale")
)
