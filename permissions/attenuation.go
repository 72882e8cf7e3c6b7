package permissions

import (
	"fmt"

	"github.com/coordframe/delegation/kernelerrors"
)

// Attenuate computes the child's permission scope as the intersection of
// the parent's scope and the minimal scope the child task requires
// (spec.md §4.5). Expansion beyond the parent's scope is forbidden: any
// capability present in required but absent from parentScope raises
// ErrScopeEscalation instead of silently dropping it, since a child asking
// for more than its parent can grant signals a construction bug upstream,
// not a benign narrowing.
func Attenuate(parentScope, required map[string]bool) (map[string]bool, error) {
	child := make(map[string]bool, len(required))
	for cap, want := range required {
		if !want {
			continue
		}
		if !parentScope[cap] {
			return nil, fmt.Errorf("permissions.Attenuate: capability %q not in parent scope: %w",
				cap, kernelerrors.ErrScopeEscalation)
		}
		child[cap] = true
	}
	return child, nil
}

// IsSubset reports whether child is a subset of parent, used to assert the
// DelegationChain invariant scope[i+1] subset-of scope[i] after the chain
// has already been built (e.g. when rehydrating from a ledger replay).
func IsSubset(child, parent map[string]bool) bool {
	for cap, want := range child {
		if want && !parent[cap] {
			return false
		}
	}
	return true
}
