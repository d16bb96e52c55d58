// Package scope classifies role definitions as tenant-wide (overarching)
// or bound to a single workload. The classification is what keeps
// multi-service audit passes from double counting the same privilege.
package scope

import (
	"sort"
	"strings"

	"github.com/praetorian-inc/rolecall/pkg/types"
)

// defaultOverarchingRoles are the Entra ID roles whose privilege applies
// tenant-wide and therefore surfaces identically in every workload's
// admin portal. Role template IDs for these are stable; names are what
// the service APIs return.
var defaultOverarchingRoles = []string{
	"Global Administrator",
	"Global Reader",
	"Security Administrator",
	"Security Reader",
	"Application Administrator",
	"Cloud Application Administrator",
	"Privileged Role Administrator",
	"Privileged Authentication Administrator",
	"Conditional Access Administrator",
	"User Administrator",
	"Compliance Administrator",
	"Hybrid Identity Administrator",
}

// DefaultOverarchingRoles returns a copy of the built-in allowlist.
func DefaultOverarchingRoles() []string {
	out := make([]string, len(defaultOverarchingRoles))
	copy(out, defaultOverarchingRoles)
	return out
}

// Classifier answers whether a role name is overarching. Matching is
// case-insensitive; the same display name classifies identically no
// matter which service's pass asks.
type Classifier struct {
	names map[string]string // lowercased -> canonical
}

// NewClassifier builds a classifier from the given allowlist, falling
// back to the built-in list when none is given.
func NewClassifier(allowlist ...string) *Classifier {
	if len(allowlist) == 0 {
		allowlist = defaultOverarchingRoles
	}
	names := make(map[string]string, len(allowlist))
	for _, name := range allowlist {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names[strings.ToLower(name)] = name
	}
	return &Classifier{names: names}
}

// Classify returns the scope for a role display name. The service
// argument is accepted for symmetry with per-service role catalogs; the
// allowlist applies tenant-wide, so it does not change the answer.
func (c *Classifier) Classify(roleDisplayName string, service types.Service) types.RoleScope {
	if c.IsOverarching(roleDisplayName) {
		return types.ScopeOverarching
	}
	return types.ScopeServiceSpecific
}

// IsOverarching reports whether the role name is on the allowlist.
func (c *Classifier) IsOverarching(roleDisplayName string) bool {
	_, ok := c.names[strings.ToLower(strings.TrimSpace(roleDisplayName))]
	return ok
}

// Overarching returns the canonical allowlist names, sorted, for use as a
// role-definition exclusion filter in service passes.
func (c *Classifier) Overarching() []string {
	out := make([]string, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
