// Package stats computes summary statistics and risk flags over a
// canonical record set. Everything here is a pure function of its input;
// renderers consume the result as plain data.
package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/praetorian-inc/rolecall/pkg/types"
)

const (
	// GlobalAdminRole is matched case-insensitively against role names.
	GlobalAdminRole = "Global Administrator"

	DefaultTopN             = 10
	DefaultGlobalAdminLimit = 5

	// mediumRiskThreshold splits non-administrator roles into Medium and
	// Low by assignment count.
	mediumRiskThreshold = 10
)

// Options tunes ranking depth and the global admin flag threshold. Zero
// values fall back to the defaults.
type Options struct {
	TopN             int
	GlobalAdminLimit int
}

func (o Options) withDefaults() Options {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.GlobalAdminLimit <= 0 {
		o.GlobalAdminLimit = DefaultGlobalAdminLimit
	}
	return o
}

// Aggregate computes the full statistics block for a record set.
func Aggregate(records []types.RoleAssignmentRecord, opts Options) types.AggregatedStatistics {
	opts = opts.withDefaults()

	byService := map[string]int{}
	byKind := map[string]int{}
	bySource := map[string]int{}
	roleCounts := map[string]int{}
	principalCounts := map[string]int{}
	principals := map[string]types.Principal{}
	globalAdmins := map[string]struct{}{}
	disabled := map[string]types.Principal{}
	clientSecret := false

	eligible := 0
	permanentActive := 0

	for _, r := range records {
		byService[string(r.Service)]++
		byKind[string(r.Principal.Kind)]++
		bySource[r.Source.Label()]++
		roleCounts[r.Role.DisplayName]++
		principalCounts[r.Principal.ID]++
		principals[r.Principal.ID] = r.Principal

		switch r.Source {
		case types.SourcePIMEligible:
			eligible++
		case types.SourceActive:
			permanentActive++
		}

		if strings.EqualFold(r.Role.DisplayName, GlobalAdminRole) {
			globalAdmins[r.Principal.ID] = struct{}{}
		}
		if r.Principal.Enabled != nil && !*r.Principal.Enabled {
			disabled[r.Principal.ID] = r.Principal
		}
		if r.Principal.CredentialType == types.CredentialClientSecret {
			clientSecret = true
		}
	}

	result := types.AggregatedStatistics{
		TotalAssignments:   len(records),
		UniquePrincipals:   len(principals),
		ByService:          distribution(byService, len(records)),
		ByPrincipalKind:    distribution(byKind, len(records)),
		ByAssignmentSource: distribution(bySource, len(records)),
		TopRoles:           topRoles(roleCounts, opts.TopN),
		TopPrincipals:      topPrincipals(principalCounts, principals, opts.TopN),
		PIMAdoptionRate:    pimAdoptionRate(eligible, permanentActive),
		GlobalAdminCount:   len(globalAdmins),
		DisabledWithRoles:  disabledList(disabled),
	}
	result.Flags = types.SecurityFlags{
		ExcessiveGlobalAdmins:  result.GlobalAdminCount > opts.GlobalAdminLimit,
		DisabledUsersWithRoles: len(result.DisabledWithRoles) > 0,
		ClientSecretAuth:       clientSecret,
	}

	return result
}

// RoleRiskLevel derives a severity from the role name and its assignment
// count: any Global Administrator variant is Critical, any other
// administrator role is High, everything else is Medium or Low by count.
func RoleRiskLevel(roleName string, count int) types.Severity {
	lower := strings.ToLower(roleName)
	switch {
	case strings.Contains(lower, strings.ToLower(GlobalAdminRole)):
		return types.SeverityCritical
	case strings.Contains(lower, "administrator"):
		return types.SeverityHigh
	case count >= mediumRiskThreshold:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

func pimAdoptionRate(eligible, permanentActive int) float64 {
	total := eligible + permanentActive
	if total == 0 {
		return 0
	}
	return round1(float64(eligible) / float64(total) * 100)
}

func distribution(counts map[string]int, total int) []types.DistributionEntry {
	entries := make([]types.DistributionEntry, 0, len(counts))
	for key, count := range counts {
		percent := 0.0
		if total > 0 {
			percent = round1(float64(count) / float64(total) * 100)
		}
		entries = append(entries, types.DistributionEntry{Key: key, Count: count, Percent: percent})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

func topRoles(counts map[string]int, topN int) []types.RoleRank {
	ranks := make([]types.RoleRank, 0, len(counts))
	for role, count := range counts {
		ranks = append(ranks, types.RoleRank{
			Role:      role,
			Count:     count,
			RiskLevel: RoleRiskLevel(role, count),
		})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Count != ranks[j].Count {
			return ranks[i].Count > ranks[j].Count
		}
		return ranks[i].Role < ranks[j].Role
	})
	if len(ranks) > topN {
		ranks = ranks[:topN]
	}
	return ranks
}

func topPrincipals(counts map[string]int, principals map[string]types.Principal, topN int) []types.PrincipalRank {
	ranks := make([]types.PrincipalRank, 0, len(counts))
	for id, count := range counts {
		p := principals[id]
		ranks = append(ranks, types.PrincipalRank{
			PrincipalID:       id,
			DisplayName:       p.DisplayName,
			UserPrincipalName: p.UserPrincipalName,
			Count:             count,
		})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Count != ranks[j].Count {
			return ranks[i].Count > ranks[j].Count
		}
		return ranks[i].DisplayName < ranks[j].DisplayName
	})
	if len(ranks) > topN {
		ranks = ranks[:topN]
	}
	return ranks
}

func disabledList(disabled map[string]types.Principal) []types.Principal {
	out := make([]types.Principal, 0, len(disabled))
	for _, p := range disabled {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
