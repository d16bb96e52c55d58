package stats_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/rolecall/pkg/m365/stats"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

func makeRecord(service types.Service, principal types.Principal, roleName string, source types.AssignmentSource) types.RoleAssignmentRecord {
	return types.RoleAssignmentRecord{
		Service:     service,
		Principal:   principal,
		Role:        types.RoleDefinition{ID: "id-" + roleName, DisplayName: roleName, Service: service},
		Source:      source,
		SourceLabel: source.Label(),
	}
}

func user(id, name string) types.Principal {
	return types.Principal{ID: id, Kind: types.KindUser, DisplayName: name}
}

func TestAggregateEmpty(t *testing.T) {
	s := stats.Aggregate(nil, stats.Options{})

	assert.Zero(t, s.TotalAssignments)
	assert.Zero(t, s.PIMAdoptionRate)
	assert.Empty(t, s.TopRoles)
	assert.False(t, s.Flags.ExcessiveGlobalAdmins)
}

func TestPIMAdoptionRate(t *testing.T) {
	records := []types.RoleAssignmentRecord{
		makeRecord(types.ServiceAzureAD, user("u1", "A"), "User Administrator", types.SourcePIMEligible),
		makeRecord(types.ServiceAzureAD, user("u2", "B"), "User Administrator", types.SourcePIMEligible),
		makeRecord(types.ServiceAzureAD, user("u3", "C"), "User Administrator", types.SourceActive),
		// PIMActive is an activation in flight, not part of the ratio.
		makeRecord(types.ServiceAzureAD, user("u4", "D"), "User Administrator", types.SourcePIMActive),
	}

	s := stats.Aggregate(records, stats.Options{})

	assert.InDelta(t, 66.7, s.PIMAdoptionRate, 0.001)
	assert.GreaterOrEqual(t, s.PIMAdoptionRate, 0.0)
	assert.LessOrEqual(t, s.PIMAdoptionRate, 100.0)
}

func TestTopRolesTieBreakAlphabetical(t *testing.T) {
	var records []types.RoleAssignmentRecord
	for i := 0; i < 3; i++ {
		records = append(records,
			makeRecord(types.ServiceAzureAD, user(fmt.Sprintf("b%d", i), "B"), "Beta Admin", types.SourceActive),
			makeRecord(types.ServiceAzureAD, user(fmt.Sprintf("a%d", i), "A"), "Alpha Admin", types.SourceActive),
		)
	}

	s := stats.Aggregate(records, stats.Options{})

	require.Len(t, s.TopRoles, 2)
	assert.Equal(t, "Alpha Admin", s.TopRoles[0].Role)
	assert.Equal(t, "Beta Admin", s.TopRoles[1].Role)
	assert.Equal(t, 3, s.TopRoles[0].Count)
}

func TestRoleRiskLevels(t *testing.T) {
	tests := []struct {
		role     string
		count    int
		expected types.Severity
	}{
		{"Global Administrator", 1, types.SeverityCritical},
		{"Exchange Administrator", 2, types.SeverityHigh},
		{"Message Center Reader", 15, types.SeverityMedium},
		{"Message Center Reader", 2, types.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.role, tt.count), func(t *testing.T) {
			assert.Equal(t, tt.expected, stats.RoleRiskLevel(tt.role, tt.count))
		})
	}
}

func TestGlobalAdminFlag(t *testing.T) {
	var records []types.RoleAssignmentRecord
	for i := 0; i < 6; i++ {
		records = append(records, makeRecord(
			types.ServiceAzureAD,
			user(fmt.Sprintf("u%d", i), fmt.Sprintf("User %d", i)),
			"Global Administrator",
			types.SourceActive,
		))
	}

	s := stats.Aggregate(records, stats.Options{})

	assert.Equal(t, 6, s.GlobalAdminCount)
	assert.True(t, s.Flags.ExcessiveGlobalAdmins)

	s = stats.Aggregate(records[:5], stats.Options{})
	assert.False(t, s.Flags.ExcessiveGlobalAdmins)
}

func TestGlobalAdminCountIsDistinctPrincipals(t *testing.T) {
	alice := user("u1", "Alice")
	records := []types.RoleAssignmentRecord{
		makeRecord(types.ServiceAzureAD, alice, "Global Administrator", types.SourceActive),
		makeRecord(types.ServiceAzureAD, alice, "Global Administrator", types.SourcePIMEligible),
	}

	s := stats.Aggregate(records, stats.Options{})

	assert.Equal(t, 1, s.GlobalAdminCount)
}

func TestDisabledUsersWithRolesFlag(t *testing.T) {
	enabled := true
	disabled := false
	records := []types.RoleAssignmentRecord{
		makeRecord(types.ServiceAzureAD, types.Principal{ID: "u1", Kind: types.KindUser, DisplayName: "Active Alice", Enabled: &enabled}, "User Administrator", types.SourceActive),
		makeRecord(types.ServiceAzureAD, types.Principal{ID: "u2", Kind: types.KindUser, DisplayName: "Ghost Bob", Enabled: &disabled}, "User Administrator", types.SourceActive),
	}

	s := stats.Aggregate(records, stats.Options{})

	require.Len(t, s.DisabledWithRoles, 1)
	assert.Equal(t, "Ghost Bob", s.DisabledWithRoles[0].DisplayName)
	assert.True(t, s.Flags.DisabledUsersWithRoles)
}

func TestClientSecretFlag(t *testing.T) {
	sp := types.Principal{
		ID:             "sp1",
		Kind:           types.KindServicePrincipal,
		DisplayName:    "automation-app",
		CredentialType: types.CredentialClientSecret,
	}
	records := []types.RoleAssignmentRecord{
		makeRecord(types.ServiceAzureAD, sp, "Application Administrator", types.SourceActive),
	}

	s := stats.Aggregate(records, stats.Options{})

	assert.True(t, s.Flags.ClientSecretAuth)
}

func TestDistributionPercentages(t *testing.T) {
	records := []types.RoleAssignmentRecord{
		makeRecord(types.ServiceAzureAD, user("u1", "A"), "User Administrator", types.SourceActive),
		makeRecord(types.ServiceAzureAD, user("u2", "B"), "User Administrator", types.SourceActive),
		makeRecord(types.ServiceExchange, user("u3", "C"), "Recipient Management", types.SourceActive),
	}

	s := stats.Aggregate(records, stats.Options{})

	require.Len(t, s.ByService, 2)
	assert.Equal(t, "AzureAD", s.ByService[0].Key)
	assert.InDelta(t, 66.7, s.ByService[0].Percent, 0.001)
	assert.InDelta(t, 33.3, s.ByService[1].Percent, 0.001)
}

func TestTopPrincipalsTieBreakAndLimit(t *testing.T) {
	var records []types.RoleAssignmentRecord
	for i := 0; i < 12; i++ {
		p := user(fmt.Sprintf("u%d", i), fmt.Sprintf("User %02d", i))
		records = append(records, makeRecord(types.ServiceAzureAD, p, fmt.Sprintf("Role %d", i), types.SourceActive))
	}

	s := stats.Aggregate(records, stats.Options{TopN: 5})

	require.Len(t, s.TopPrincipals, 5)
	assert.Equal(t, "User 00", s.TopPrincipals[0].DisplayName, "equal counts rank alphabetically")
}
