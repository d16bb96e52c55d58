// Package resolve turns principal IDs into typed Principal records using
// caller-supplied directory lookups, memoized for the life of one audit run.
package resolve

import (
	"context"
	"log/slog"
	"sync"

	"github.com/praetorian-inc/rolecall/pkg/types"
)

// UnknownDisplayName is used when every lookup strategy fails.
const UnknownDisplayName = "Unknown Principal"

// LookupFunc fetches directory details for a single principal ID. A nil
// result with a nil error means "not found"; errors are treated the same
// way and never surface to callers of Resolve.
type LookupFunc func(ctx context.Context, id string) (*types.Principal, error)

// Lookups holds the per-kind lookup strategies. Any entry may be nil.
type Lookups struct {
	User             LookupFunc
	ServicePrincipal LookupFunc
	Group            LookupFunc
	DirectoryObject  LookupFunc
}

// Resolver memoizes principal resolution for one audit run. Do not share
// a Resolver across runs; stale principal data is worse than an extra
// lookup. The cache is synchronized so concurrent service collectors may
// share one instance within a run.
type Resolver struct {
	lookups Lookups

	mu         sync.Mutex
	cache      map[string]types.Principal
	unresolved int
}

func NewResolver(lookups Lookups) *Resolver {
	return &Resolver{
		lookups: lookups,
		cache:   make(map[string]types.Principal),
	}
}

// Resolve tries User, ServicePrincipal, Group, then the generic directory
// object lookup, in that order. The first hit wins. Lookup errors count as
// misses; Resolve never fails, degrading to an Unknown principal instead.
func (r *Resolver) Resolve(ctx context.Context, principalID string) types.Principal {
	r.mu.Lock()
	if cached, ok := r.cache[principalID]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	strategies := []struct {
		kind   types.PrincipalKind
		lookup LookupFunc
	}{
		{types.KindUser, r.lookups.User},
		{types.KindServicePrincipal, r.lookups.ServicePrincipal},
		{types.KindGroup, r.lookups.Group},
		{types.KindUnknown, r.lookups.DirectoryObject},
	}

	var resolved *types.Principal
	for _, s := range strategies {
		if s.lookup == nil {
			continue
		}
		p, err := s.lookup(ctx, principalID)
		if err != nil {
			slog.Debug("principal lookup failed", "id", principalID, "kind", s.kind, "error", err)
			continue
		}
		if p == nil {
			continue
		}
		resolved = p
		if resolved.Kind == "" {
			resolved.Kind = s.kind
		}
		break
	}

	var principal types.Principal
	if resolved == nil {
		principal = types.Principal{
			ID:          principalID,
			Kind:        types.KindUnknown,
			DisplayName: UnknownDisplayName,
		}
	} else {
		principal = *resolved
		principal.ID = principalID
		if principal.Kind == "" {
			principal.Kind = types.KindUnknown
		}
		if principal.DisplayName == "" {
			if principal.UserPrincipalName != "" {
				principal.DisplayName = principal.UserPrincipalName
			} else {
				principal.DisplayName = principalID
			}
		}
	}

	r.mu.Lock()
	// Recheck under lock; a concurrent caller may have resolved the same
	// ID while we were looking it up. First write wins.
	if cached, ok := r.cache[principalID]; ok {
		r.mu.Unlock()
		return cached
	}
	r.cache[principalID] = principal
	if principal.Kind == types.KindUnknown {
		r.unresolved++
	}
	r.mu.Unlock()

	return principal
}

// Unresolved returns how many distinct principals fell through every
// lookup strategy.
func (r *Resolver) Unresolved() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unresolved
}

// CachedCount returns how many distinct principals have been resolved.
func (r *Resolver) CachedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
