package normalize

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/rolecall/pkg/types"
)

// DedupeMode selects the cross-service equivalence key. The default mode
// is None: the overarching filter in the engine already prevents double
// counting, so deduplication is an explicit opt-in.
type DedupeMode string

const (
	DedupeNone              DedupeMode = "none"
	DedupeStrict            DedupeMode = "strict"
	DedupeLoose             DedupeMode = "loose"
	DedupeServicePreference DedupeMode = "service-preference"
	DedupeRoleScoped        DedupeMode = "role-scoped"
)

// ErrUnknownDedupeMode is a configuration error and fatal to the call,
// unlike the per-record skips elsewhere in this package.
var ErrUnknownDedupeMode = fmt.Errorf("unknown dedupe mode")

// ParseDedupeMode validates a mode string from config or flags.
func ParseDedupeMode(s string) (DedupeMode, error) {
	switch DedupeMode(strings.ToLower(strings.TrimSpace(s))) {
	case DedupeNone, "":
		return DedupeNone, nil
	case DedupeStrict:
		return DedupeStrict, nil
	case DedupeLoose:
		return DedupeLoose, nil
	case DedupeServicePreference:
		return DedupeServicePreference, nil
	case DedupeRoleScoped:
		return DedupeRoleScoped, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDedupeMode, s)
	}
}

// DedupeOptions tunes the ServicePreference mode. When
// PreferServiceSpecific is set, non-Entra records win collisions instead
// of Entra ID ones.
type DedupeOptions struct {
	Mode                  DedupeMode
	PreferServiceSpecific bool
}

// Dedupe collapses records that share an equivalence key, keeping exactly
// one survivor per class and reporting how many were removed. It is
// idempotent: deduping its own output removes nothing further. Survivors
// keep their first-seen position in the input order.
func Dedupe(records []types.RoleAssignmentRecord, opts DedupeOptions) ([]types.RoleAssignmentRecord, int, error) {
	if opts.Mode == DedupeNone || opts.Mode == "" {
		return records, 0, nil
	}

	keyFn, err := equivalenceKey(opts.Mode)
	if err != nil {
		return nil, 0, err
	}

	out := make([]types.RoleAssignmentRecord, 0, len(records))
	index := make(map[string]int, len(records))
	removed := 0

	for _, record := range records {
		key := keyFn(record)
		at, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, record)
			continue
		}
		removed++
		if opts.Mode == DedupeServicePreference && preferred(record, out[at], opts.PreferServiceSpecific) {
			out[at] = record
		}
	}

	return out, removed, nil
}

func equivalenceKey(mode DedupeMode) (func(types.RoleAssignmentRecord) string, error) {
	switch mode {
	case DedupeStrict:
		return func(r types.RoleAssignmentRecord) string {
			return r.Principal.ID + "\x00" + r.Role.ID + "\x00" + r.ScopeDescriptor
		}, nil
	case DedupeLoose, DedupeServicePreference:
		return func(r types.RoleAssignmentRecord) string {
			return r.Principal.ID + "\x00" + strings.ToLower(r.Role.DisplayName)
		}, nil
	case DedupeRoleScoped:
		return func(r types.RoleAssignmentRecord) string {
			// Only overarching-vs-overarching collisions merge. The same
			// role name held as a service-specific role in two different
			// services is two distinct privileges.
			if r.Role.Scope == types.ScopeOverarching {
				return r.Principal.ID + "\x00" + strings.ToLower(r.Role.DisplayName) + "\x00overarching"
			}
			return r.Principal.ID + "\x00" + strings.ToLower(r.Role.DisplayName) + "\x00" + string(r.Service)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDedupeMode, mode)
	}
}

func preferred(candidate, incumbent types.RoleAssignmentRecord, preferServiceSpecific bool) bool {
	return servicePriority(candidate.Service, preferServiceSpecific) <
		servicePriority(incumbent.Service, preferServiceSpecific)
}

func servicePriority(service types.Service, preferServiceSpecific bool) int {
	isEntra := service == types.ServiceAzureAD
	if preferServiceSpecific == isEntra {
		return 1
	}
	return 0
}
