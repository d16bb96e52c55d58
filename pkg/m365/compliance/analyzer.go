// Package compliance evaluates a fixed, ordered rule table against the
// canonical record set and its aggregated statistics. Rules are
// independent: any number may fire on one run, and none suppresses
// another.
package compliance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/praetorian-inc/rolecall/pkg/types"
)

// Thresholds tunes the rule table. Zero values fall back to defaults.
type Thresholds struct {
	GlobalAdminLimit   int            `yaml:"globalAdminLimit"`
	RoleSprawlLimit    int            `yaml:"roleSprawlLimit"`
	PIMExpiryDays      int            `yaml:"pimExpiryDays"`
	ServiceAdminLimits map[string]int `yaml:"serviceAdminLimits"`
}

// DefaultThresholds mirrors the recommended baselines: at most five
// global admins, five roles per principal, a 30-day PIM expiry horizon,
// and per-role caps for the heavyweight service admin roles.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GlobalAdminLimit: 5,
		RoleSprawlLimit:  5,
		PIMExpiryDays:    30,
		ServiceAdminLimits: map[string]int{
			"Intune Service Administrator": 3,
			"Exchange Administrator":       4,
			"SharePoint Administrator":     4,
		},
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.GlobalAdminLimit <= 0 {
		t.GlobalAdminLimit = d.GlobalAdminLimit
	}
	if t.RoleSprawlLimit <= 0 {
		t.RoleSprawlLimit = d.RoleSprawlLimit
	}
	if t.PIMExpiryDays <= 0 {
		t.PIMExpiryDays = d.PIMExpiryDays
	}
	if len(t.ServiceAdminLimits) == 0 {
		t.ServiceAdminLimits = d.ServiceAdminLimits
	}
	return t
}

// ruleInput is what every rule predicate sees.
type ruleInput struct {
	records    []types.RoleAssignmentRecord
	statistics types.AggregatedStatistics
	thresholds Thresholds
	now        time.Time
}

// rule couples a finding template with its predicate. The predicate
// returns the substituted details text and affected principals, or
// matched=false.
type rule struct {
	category         string
	issue            string
	severity         types.Severity
	recommendation   string
	frameworks       []string
	remediationSteps []string
	evaluate         func(in ruleInput) (details string, affected []string, matched bool)
}

// Analyzer runs the rule table. Clock exists so expiry rules are
// testable; it defaults to time.Now.
type Analyzer struct {
	thresholds Thresholds
	Clock      func() time.Time
}

func NewAnalyzer(thresholds Thresholds) *Analyzer {
	return &Analyzer{
		thresholds: thresholds.withDefaults(),
		Clock:      time.Now,
	}
}

// Analyze evaluates every rule in table order and returns the findings.
func (a *Analyzer) Analyze(records []types.RoleAssignmentRecord, statistics types.AggregatedStatistics) []types.ComplianceGapFinding {
	in := ruleInput{
		records:    records,
		statistics: statistics,
		thresholds: a.thresholds,
		now:        a.Clock(),
	}

	var findings []types.ComplianceGapFinding
	for _, r := range ruleTable {
		details, affected, matched := r.evaluate(in)
		if !matched {
			continue
		}
		findings = append(findings, types.ComplianceGapFinding{
			Category:           r.category,
			Issue:              r.issue,
			Details:            details,
			Severity:           r.severity,
			Recommendation:     r.recommendation,
			AffectedPrincipals: affected,
			Frameworks:         r.frameworks,
			RemediationSteps:   r.remediationSteps,
		})
	}
	return findings
}

func principalLabel(p types.Principal) string {
	if p.UserPrincipalName != "" {
		return fmt.Sprintf("%s (%s)", p.DisplayName, p.UserPrincipalName)
	}
	return p.DisplayName
}

func sortedLabels(byID map[string]types.Principal) []string {
	labels := make([]string, 0, len(byID))
	for _, p := range byID {
		labels = append(labels, principalLabel(p))
	}
	sort.Strings(labels)
	return labels
}

// principalsHolding returns distinct principals holding the named role.
func principalsHolding(records []types.RoleAssignmentRecord, roleName string) map[string]types.Principal {
	holders := map[string]types.Principal{}
	for _, r := range records {
		if strings.EqualFold(r.Role.DisplayName, roleName) {
			holders[r.Principal.ID] = r.Principal
		}
	}
	return holders
}
