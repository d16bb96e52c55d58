package compliance

import (
	"fmt"
	"sort"
	"time"

	"github.com/praetorian-inc/rolecall/pkg/m365/stats"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// ruleTable is evaluated in order. Order only affects finding order in
// the report, never which rules fire.
var ruleTable = []rule{
	{
		category:       "Privileged Access",
		issue:          "Excessive Global Administrators",
		severity:       types.SeverityCritical,
		recommendation: "Reduce standing Global Administrator assignments to at most the configured limit and move break-glass access to PIM.",
		frameworks:     []string{"CIS M365 1.1.1", "NIST 800-53 AC-6", "ISO 27001 A.9.2.3"},
		remediationSteps: []string{
			"Review each Global Administrator assignment and confirm a documented business need",
			"Convert day-to-day admin work to least-privileged service roles",
			"Move remaining assignments to PIM eligibility with approval workflows",
			"Keep two cloud-only break-glass accounts excluded from conditional access",
		},
		evaluate: func(in ruleInput) (string, []string, bool) {
			if in.statistics.GlobalAdminCount <= in.thresholds.GlobalAdminLimit {
				return "", nil, false
			}
			holders := principalsHolding(in.records, stats.GlobalAdminRole)
			details := fmt.Sprintf("%d principals hold Global Administrator; the recommended maximum is %d.",
				in.statistics.GlobalAdminCount, in.thresholds.GlobalAdminLimit)
			return details, sortedLabels(holders), true
		},
	},
	{
		category:       "Account Hygiene",
		issue:          "Disabled Accounts Holding Roles",
		severity:       types.SeverityHigh,
		recommendation: "Remove role assignments from disabled accounts; they widen the attack surface without serving any operational purpose.",
		frameworks:     []string{"CIS M365 1.1.2", "NIST 800-53 AC-2"},
		remediationSteps: []string{
			"Confirm each disabled account is not a pending rehire or litigation hold",
			"Remove all role assignments from disabled accounts",
			"Add role cleanup to the account offboarding checklist",
		},
		evaluate: func(in ruleInput) (string, []string, bool) {
			disabled := in.statistics.DisabledWithRoles
			if len(disabled) == 0 {
				return "", nil, false
			}
			labels := make([]string, 0, len(disabled))
			for _, p := range disabled {
				labels = append(labels, principalLabel(p))
			}
			sort.Strings(labels)
			details := fmt.Sprintf("%d disabled accounts still hold administrative roles.", len(disabled))
			return details, labels, true
		},
	},
	{
		category:       "Privileged Identity Management",
		issue:          "No PIM Adoption",
		severity:       types.SeverityHigh,
		recommendation: "Adopt PIM so that administrative privilege requires just-in-time activation instead of standing assignment.",
		frameworks:     []string{"CIS M365 1.1.4", "NIST 800-53 AC-6(1)"},
		remediationSteps: []string{
			"License Entra ID P2 or Entra ID Governance for administrators",
			"Convert permanent assignments to PIM-eligible ones",
			"Require MFA and justification on activation",
		},
		evaluate: func(in ruleInput) (string, []string, bool) {
			eligible, permanent := 0, 0
			for _, r := range in.records {
				switch r.Source {
				case types.SourcePIMEligible:
					eligible++
				case types.SourceActive:
					permanent++
				}
			}
			if eligible > 0 || permanent == 0 {
				return "", nil, false
			}
			details := fmt.Sprintf("%d permanent active assignments exist with zero PIM-eligible assignments.", permanent)
			return details, nil, true
		},
	},
	{
		category:       "Application Security",
		issue:          "Client Secret Authentication In Use",
		severity:       types.SeverityHigh,
		recommendation: "Replace client secrets with certificate credentials or managed identities for privileged applications.",
		frameworks:     []string{"CIS M365 5.1.2", "NIST 800-53 IA-5"},
		remediationSteps: []string{
			"Inventory privileged service principals using client secrets",
			"Issue certificate credentials and update the applications",
			"Revoke the client secrets once rotation is verified",
		},
		evaluate: func(in ruleInput) (string, []string, bool) {
			holders := map[string]types.Principal{}
			for _, r := range in.records {
				if r.Principal.CredentialType == types.CredentialClientSecret {
					holders[r.Principal.ID] = r.Principal
				}
			}
			if len(holders) == 0 {
				return "", nil, false
			}
			details := fmt.Sprintf("%d privileged principals authenticate with client secrets.", len(holders))
			return details, sortedLabels(holders), true
		},
	},
	{
		category:       "Least Privilege",
		issue:          "Role Sprawl",
		severity:       types.SeverityMedium,
		recommendation: "Consolidate overlapping assignments; principals holding many distinct roles defeat least-privilege review.",
		frameworks:     []string{"NIST 800-53 AC-6", "ISO 27001 A.9.1.2"},
		remediationSteps: []string{
			"Review each flagged principal's distinct roles against their duties",
			"Replace broad role sets with the narrowest role covering the task",
			"Schedule quarterly access reviews for flagged principals",
		},
		evaluate: func(in ruleInput) (string, []string, bool) {
			roles := map[string]map[string]struct{}{}
			principals := map[string]types.Principal{}
			for _, r := range in.records {
				if roles[r.Principal.ID] == nil {
					roles[r.Principal.ID] = map[string]struct{}{}
				}
				roles[r.Principal.ID][r.Role.DisplayName] = struct{}{}
				principals[r.Principal.ID] = r.Principal
			}
			sprawled := map[string]types.Principal{}
			for id, held := range roles {
				if len(held) > in.thresholds.RoleSprawlLimit {
					sprawled[id] = principals[id]
				}
			}
			if len(sprawled) == 0 {
				return "", nil, false
			}
			details := fmt.Sprintf("%d principals hold more than %d distinct roles.",
				len(sprawled), in.thresholds.RoleSprawlLimit)
			return details, sortedLabels(sprawled), true
		},
	},
	{
		category:       "Privileged Identity Management",
		issue:          "Expiring PIM Assignments",
		severity:       types.SeverityMedium,
		recommendation: "Review PIM assignments expiring soon and renew or retire them deliberately instead of letting them lapse.",
		frameworks:     []string{"NIST 800-53 AC-2(2)"},
		remediationSteps: []string{
			"Confirm with each assignment owner whether continued access is needed",
			"Renew assignments that are still required before they expire",
			"Let unneeded assignments lapse and record the decision",
		},
		evaluate: func(in ruleInput) (string, []string, bool) {
			horizon := in.now.Add(time.Duration(in.thresholds.PIMExpiryDays) * 24 * time.Hour)
			expiring := map[string]types.Principal{}
			count := 0
			for _, r := range in.records {
				if r.PimWindow == nil || r.PimWindow.End == nil {
					continue
				}
				end := *r.PimWindow.End
				if end.After(in.now) && end.Before(horizon) {
					expiring[r.Principal.ID] = r.Principal
					count++
				}
			}
			if count == 0 {
				return "", nil, false
			}
			details := fmt.Sprintf("%d PIM assignments expire within %d days.", count, in.thresholds.PIMExpiryDays)
			return details, sortedLabels(expiring), true
		},
	},
	{
		category:       "Privileged Access",
		issue:          "Excessive Service Administrators",
		severity:       types.SeverityMedium,
		recommendation: "Trim oversubscribed service administrator roles back to the headcount the workload actually needs.",
		frameworks:     []string{"CIS M365 1.1.1", "NIST 800-53 AC-6"},
		remediationSteps: []string{
			"Verify each holder of the flagged role still performs that duty",
			"Downgrade holders to reader or scoped roles where possible",
		},
		evaluate: func(in ruleInput) (string, []string, bool) {
			var parts []string
			affected := map[string]types.Principal{}
			roleNames := make([]string, 0, len(in.thresholds.ServiceAdminLimits))
			for name := range in.thresholds.ServiceAdminLimits {
				roleNames = append(roleNames, name)
			}
			sort.Strings(roleNames)
			for _, name := range roleNames {
				limit := in.thresholds.ServiceAdminLimits[name]
				holders := principalsHolding(in.records, name)
				if len(holders) <= limit {
					continue
				}
				parts = append(parts, fmt.Sprintf("%s has %d holders (limit %d)", name, len(holders), limit))
				for id, p := range holders {
					affected[id] = p
				}
			}
			if len(parts) == 0 {
				return "", nil, false
			}
			details := ""
			for i, p := range parts {
				if i > 0 {
					details += "; "
				}
				details += p
			}
			return details + ".", sortedLabels(affected), true
		},
	},
}
