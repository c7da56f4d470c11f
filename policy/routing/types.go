package routing

import (
	"context"

	"github.com/hatsunemiku3939/versionrouter/version"
)

// Policy selects which registered major version line handles a message.
// available is sorted ascending. Returning ok=false means no adapter selected.
type Policy interface {
	Decide(ctx context.Context, v version.SemVer, available []int) (major int, ok bool)
}
