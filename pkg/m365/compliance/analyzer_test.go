package compliance_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/rolecall/pkg/m365/compliance"
	"github.com/praetorian-inc/rolecall/pkg/m365/stats"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

func analyzerAt(now time.Time) *compliance.Analyzer {
	a := compliance.NewAnalyzer(compliance.Thresholds{})
	a.Clock = func() time.Time { return now }
	return a
}

func analyze(t *testing.T, records []types.RoleAssignmentRecord) []types.ComplianceGapFinding {
	t.Helper()
	a := analyzerAt(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	return a.Analyze(records, stats.Aggregate(records, stats.Options{}))
}

func findingByIssue(findings []types.ComplianceGapFinding, issue string) *types.ComplianceGapFinding {
	for i := range findings {
		if findings[i].Issue == issue {
			return &findings[i]
		}
	}
	return nil
}

func gaRecord(id, name string, source types.AssignmentSource) types.RoleAssignmentRecord {
	return types.RoleAssignmentRecord{
		Service:     types.ServiceAzureAD,
		Principal:   types.Principal{ID: id, Kind: types.KindUser, DisplayName: name, UserPrincipalName: id + "@contoso.com"},
		Role:        types.RoleDefinition{ID: "role-ga", DisplayName: "Global Administrator", Service: types.ServiceAzureAD, Scope: types.ScopeOverarching},
		Source:      source,
		SourceLabel: source.Label(),
	}
}

func TestExcessGlobalAdminsFinding(t *testing.T) {
	var records []types.RoleAssignmentRecord
	for i := 0; i < 6; i++ {
		records = append(records, gaRecord(fmt.Sprintf("u%d", i), fmt.Sprintf("Admin %d", i), types.SourceActive))
	}

	findings := analyze(t, records)

	f := findingByIssue(findings, "Excessive Global Administrators")
	require.NotNil(t, f)
	assert.Equal(t, types.SeverityCritical, f.Severity)
	assert.Contains(t, f.Details, "6")
	assert.Len(t, f.AffectedPrincipals, 6)
	assert.NotEmpty(t, f.RemediationSteps)
	assert.NotEmpty(t, f.Frameworks)
}

func TestGlobalAdminsAtLimitDoesNotFire(t *testing.T) {
	var records []types.RoleAssignmentRecord
	for i := 0; i < 5; i++ {
		records = append(records, gaRecord(fmt.Sprintf("u%d", i), fmt.Sprintf("Admin %d", i), types.SourceActive))
	}

	findings := analyze(t, records)

	assert.Nil(t, findingByIssue(findings, "Excessive Global Administrators"))
}

func TestDisabledAccountFinding(t *testing.T) {
	disabled := false
	record := gaRecord("u1", "Ghost", types.SourceActive)
	record.Principal.Enabled = &disabled

	findings := analyze(t, []types.RoleAssignmentRecord{record})

	f := findingByIssue(findings, "Disabled Accounts Holding Roles")
	require.NotNil(t, f)
	assert.Equal(t, types.SeverityHigh, f.Severity)
	assert.Contains(t, f.AffectedPrincipals[0], "Ghost")
}

func TestNoPIMAdoptionFinding(t *testing.T) {
	records := []types.RoleAssignmentRecord{
		gaRecord("u1", "Admin 1", types.SourceActive),
		gaRecord("u2", "Admin 2", types.SourceActive),
	}

	findings := analyze(t, records)
	require.NotNil(t, findingByIssue(findings, "No PIM Adoption"))

	// A single eligible assignment clears the rule.
	records = append(records, gaRecord("u3", "Admin 3", types.SourcePIMEligible))
	findings = analyze(t, records)
	assert.Nil(t, findingByIssue(findings, "No PIM Adoption"))
}

func TestClientSecretFinding(t *testing.T) {
	record := gaRecord("sp1", "automation-app", types.SourceActive)
	record.Principal.Kind = types.KindServicePrincipal
	record.Principal.UserPrincipalName = ""
	record.Principal.CredentialType = types.CredentialClientSecret

	findings := analyze(t, []types.RoleAssignmentRecord{record})

	f := findingByIssue(findings, "Client Secret Authentication In Use")
	require.NotNil(t, f)
	assert.Equal(t, []string{"automation-app"}, f.AffectedPrincipals)
}

func TestRoleSprawlFinding(t *testing.T) {
	var records []types.RoleAssignmentRecord
	for i := 0; i < 6; i++ {
		records = append(records, types.RoleAssignmentRecord{
			Service:   types.ServiceAzureAD,
			Principal: types.Principal{ID: "u1", Kind: types.KindUser, DisplayName: "Collector"},
			Role:      types.RoleDefinition{ID: fmt.Sprintf("r%d", i), DisplayName: fmt.Sprintf("Role %d", i)},
			Source:    types.SourceActive,
		})
	}

	findings := analyze(t, records)

	f := findingByIssue(findings, "Role Sprawl")
	require.NotNil(t, f)
	assert.Equal(t, types.SeverityMedium, f.Severity)
	assert.Contains(t, f.AffectedPrincipals[0], "Collector")
}

func TestExpiringPIMFinding(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(10 * 24 * time.Hour)

	record := gaRecord("u1", "Eligible Admin", types.SourcePIMEligible)
	record.PimWindow = &types.PimWindow{End: &end}

	a := analyzerAt(now)
	records := []types.RoleAssignmentRecord{record}
	findings := a.Analyze(records, stats.Aggregate(records, stats.Options{}))

	f := findingByIssue(findings, "Expiring PIM Assignments")
	require.NotNil(t, f)
	assert.Equal(t, types.SeverityMedium, f.Severity)
	assert.Contains(t, f.AffectedPrincipals[0], "Eligible Admin")
}

func TestExpiredPIMDoesNotFire(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	farFuture := now.Add(90 * 24 * time.Hour)

	expired := gaRecord("u1", "Expired", types.SourcePIMEligible)
	expired.PimWindow = &types.PimWindow{End: &past}
	distant := gaRecord("u2", "Distant", types.SourcePIMEligible)
	distant.PimWindow = &types.PimWindow{End: &farFuture}

	a := analyzerAt(now)
	records := []types.RoleAssignmentRecord{expired, distant}
	findings := a.Analyze(records, stats.Aggregate(records, stats.Options{}))

	assert.Nil(t, findingByIssue(findings, "Expiring PIM Assignments"))
}

func TestExcessiveServiceAdminsFinding(t *testing.T) {
	var records []types.RoleAssignmentRecord
	for i := 0; i < 4; i++ {
		records = append(records, types.RoleAssignmentRecord{
			Service:   types.ServiceIntune,
			Principal: types.Principal{ID: fmt.Sprintf("u%d", i), Kind: types.KindUser, DisplayName: fmt.Sprintf("Intune %d", i)},
			Role:      types.RoleDefinition{ID: "r-int", DisplayName: "Intune Service Administrator", Service: types.ServiceIntune},
			Source:    types.SourceActive,
		})
	}

	findings := analyze(t, records)

	f := findingByIssue(findings, "Excessive Service Administrators")
	require.NotNil(t, f)
	assert.Contains(t, f.Details, "Intune Service Administrator")
	assert.Contains(t, f.Details, "4")
	assert.Len(t, f.AffectedPrincipals, 4)
}

func TestRulesAreIndependent(t *testing.T) {
	disabled := false
	var records []types.RoleAssignmentRecord
	for i := 0; i < 6; i++ {
		r := gaRecord(fmt.Sprintf("u%d", i), fmt.Sprintf("Admin %d", i), types.SourceActive)
		if i == 0 {
			r.Principal.Enabled = &disabled
		}
		records = append(records, r)
	}

	findings := analyze(t, records)

	assert.NotNil(t, findingByIssue(findings, "Excessive Global Administrators"))
	assert.NotNil(t, findingByIssue(findings, "Disabled Accounts Holding Roles"))
	assert.NotNil(t, findingByIssue(findings, "No PIM Adoption"))
}

func TestCleanTenantYieldsNoFindings(t *testing.T) {
	records := []types.RoleAssignmentRecord{
		gaRecord("u1", "Admin 1", types.SourcePIMEligible),
		gaRecord("u2", "Admin 2", types.SourcePIMEligible),
	}

	findings := analyze(t, records)

	assert.Empty(t, findings)
}
