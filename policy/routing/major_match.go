package routing

import (
	"context"
	"slices"

	"github.com/hatsunemiku3939/versionrouter/version"
)

// MajorMatchPolicy selects the adapter whose major version equals the
// message's major version. Minor and patch are backward compatible within a
// major line and do not take part in the decision.
type MajorMatchPolicy struct{}

// Decide returns v.Major if it is available.
func (MajorMatchPolicy) Decide(_ context.Context, v version.SemVer, available []int) (int, bool) { //nolint:revive
	if _, found := slices.BinarySearch(available, v.Major); found {
		return v.Major, true
	}
	return 0, false
}
