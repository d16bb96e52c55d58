package types

import "time"

// Severity buckets for role risk levels and compliance findings.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// DistributionEntry is one bucket of a grouped count, with its share of
// the total rounded to one decimal.
type DistributionEntry struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// RoleRank is one entry of the "top roles" ranking.
type RoleRank struct {
	Role      string   `json:"role"`
	Count     int      `json:"count"`
	RiskLevel Severity `json:"riskLevel"`
}

// PrincipalRank is one entry of the "users with most roles" ranking.
type PrincipalRank struct {
	PrincipalID       string `json:"principalId"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName,omitempty"`
	Count             int    `json:"count"`
}

// SecurityFlags are the coarse red flags raised by the aggregator.
type SecurityFlags struct {
	ExcessiveGlobalAdmins  bool `json:"excessiveGlobalAdmins"`
	DisabledUsersWithRoles bool `json:"disabledUsersWithRoles"`
	ClientSecretAuth       bool `json:"clientSecretAuth"`
}

// AggregatedStatistics is the summary computed over a canonical record
// set. It is plain data; renderers must not re-derive any of it.
type AggregatedStatistics struct {
	TotalAssignments   int                 `json:"totalAssignments"`
	UniquePrincipals   int                 `json:"uniquePrincipals"`
	ByService          []DistributionEntry `json:"byService"`
	ByPrincipalKind    []DistributionEntry `json:"byPrincipalKind"`
	ByAssignmentSource []DistributionEntry `json:"byAssignmentSource"`
	TopRoles           []RoleRank          `json:"topRoles"`
	TopPrincipals      []PrincipalRank     `json:"topPrincipals"`
	PIMAdoptionRate    float64             `json:"pimAdoptionRate"`
	GlobalAdminCount   int                 `json:"globalAdminCount"`
	DisabledWithRoles  []Principal         `json:"disabledWithRoles,omitempty"`
	Flags              SecurityFlags       `json:"flags"`
}

// ComplianceGapFinding is one matched rule from the gap analyzer.
type ComplianceGapFinding struct {
	Category           string   `json:"category"`
	Issue              string   `json:"issue"`
	Details            string   `json:"details"`
	Severity           Severity `json:"severity"`
	Recommendation     string   `json:"recommendation"`
	AffectedPrincipals []string `json:"affectedPrincipals,omitempty"`
	Frameworks         []string `json:"frameworks,omitempty"`
	RemediationSteps   []string `json:"remediationSteps,omitempty"`
}

// PassReport carries per-service visibility counters so partial failures
// are reported instead of silently dropped.
type PassReport struct {
	Service              Service `json:"service"`
	CollectedAssignments int     `json:"collectedAssignments"`
	EmittedRecords       int     `json:"emittedRecords"`
	SkippedNoRoleDef     int     `json:"skippedNoRoleDefinition"`
	SkippedOverarching   int     `json:"skippedOverarching"`
	SkippedMalformed     int     `json:"skippedMalformed"`
	UnresolvedPrincipals int     `json:"unresolvedPrincipals"`
}

// AuditResult is the full output of one audit run.
type AuditResult struct {
	RunID             string                 `json:"runId"`
	TenantID          string                 `json:"tenantId,omitempty"`
	StartedAt         time.Time              `json:"startedAt"`
	CompletedAt       time.Time              `json:"completedAt"`
	Records           []RoleAssignmentRecord `json:"records"`
	Passes            []PassReport           `json:"passes"`
	DuplicatesRemoved int                    `json:"duplicatesRemoved"`
	Statistics        AggregatedStatistics   `json:"statistics"`
	Findings          []ComplianceGapFinding `json:"findings"`
}
