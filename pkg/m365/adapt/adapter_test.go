package adapt_test

import (
	"testing"
	"time"

	graphmodels "github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/rolecall/pkg/m365/adapt"
	"github.com/praetorian-inc/rolecall/pkg/m365/scope"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestUnifiedRoleAssignments(t *testing.T) {
	ra := graphmodels.NewUnifiedRoleAssignment()
	ra.SetId(strPtr("assign-1"))
	ra.SetPrincipalId(strPtr("user-1"))
	ra.SetRoleDefinitionId(strPtr("role-1"))
	ra.SetDirectoryScopeId(strPtr("/"))

	assignments, skipped := adapt.UnifiedRoleAssignments([]graphmodels.UnifiedRoleAssignmentable{ra})

	require.Len(t, assignments, 1)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, types.SourceActive, assignments[0].Source)
	assert.Equal(t, "user-1", assignments[0].PrincipalID)
	assert.Equal(t, "role-1", assignments[0].RoleDefinitionID)
	assert.Equal(t, "/", assignments[0].ScopeDescriptor)
	assert.Equal(t, "assign-1", assignments[0].SourceAssignmentID)
	assert.Nil(t, assignments[0].PimWindow, "permanent assignments carry no PIM window")
}

func TestUnifiedRoleAssignmentsSkipsMalformed(t *testing.T) {
	missingPrincipal := graphmodels.NewUnifiedRoleAssignment()
	missingPrincipal.SetId(strPtr("assign-1"))
	missingPrincipal.SetRoleDefinitionId(strPtr("role-1"))

	missingRole := graphmodels.NewUnifiedRoleAssignment()
	missingRole.SetId(strPtr("assign-2"))
	missingRole.SetPrincipalId(strPtr("user-1"))

	assignments, skipped := adapt.UnifiedRoleAssignments([]graphmodels.UnifiedRoleAssignmentable{
		missingPrincipal, missingRole, nil,
	})

	assert.Empty(t, assignments)
	assert.Equal(t, 3, skipped)
}

func TestEligibilityScheduleInstances(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)

	inst := graphmodels.NewUnifiedRoleEligibilityScheduleInstance()
	inst.SetId(strPtr("elig-1"))
	inst.SetPrincipalId(strPtr("user-1"))
	inst.SetRoleDefinitionId(strPtr("role-1"))
	inst.SetStartDateTime(timePtr(start))
	inst.SetEndDateTime(timePtr(end))

	assignments, skipped := adapt.EligibilityScheduleInstances([]graphmodels.UnifiedRoleEligibilityScheduleInstanceable{inst})

	require.Len(t, assignments, 1)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, types.SourcePIMEligible, assignments[0].Source)
	require.NotNil(t, assignments[0].PimWindow)
	assert.Equal(t, start, *assignments[0].PimWindow.Start)
	assert.Equal(t, end, *assignments[0].PimWindow.End)
}

func TestEligibilityToleratesOpenEndedWindow(t *testing.T) {
	inst := graphmodels.NewUnifiedRoleEligibilityScheduleInstance()
	inst.SetId(strPtr("elig-2"))
	inst.SetPrincipalId(strPtr("user-1"))
	inst.SetRoleDefinitionId(strPtr("role-1"))

	assignments, _ := adapt.EligibilityScheduleInstances([]graphmodels.UnifiedRoleEligibilityScheduleInstanceable{inst})

	require.Len(t, assignments, 1)
	assert.Nil(t, assignments[0].PimWindow)
}

func TestAssignmentScheduleInstances(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	activated := graphmodels.NewUnifiedRoleAssignmentScheduleInstance()
	activated.SetId(strPtr("sched-1"))
	activated.SetPrincipalId(strPtr("user-1"))
	activated.SetRoleDefinitionId(strPtr("role-1"))
	activated.SetAssignmentType(strPtr("Activated"))
	activated.SetStartDateTime(timePtr(start))
	activated.SetEndDateTime(timePtr(end))

	assigned := graphmodels.NewUnifiedRoleAssignmentScheduleInstance()
	assigned.SetId(strPtr("sched-2"))
	assigned.SetPrincipalId(strPtr("user-2"))
	assigned.SetRoleDefinitionId(strPtr("role-1"))
	assigned.SetAssignmentType(strPtr("Assigned"))

	assignments, skipped := adapt.AssignmentScheduleInstances([]graphmodels.UnifiedRoleAssignmentScheduleInstanceable{
		activated, assigned,
	})

	require.Len(t, assignments, 2)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, types.SourcePIMActive, assignments[0].Source)
	require.NotNil(t, assignments[0].PimWindow)
	assert.Equal(t, end, *assignments[0].PimWindow.End)
	assert.Equal(t, types.SourceActive, assignments[1].Source)
	assert.Nil(t, assignments[1].PimWindow)
}

func TestUnifiedRoleDefinitions(t *testing.T) {
	classifier := scope.NewClassifier()

	ga := graphmodels.NewUnifiedRoleDefinition()
	ga.SetId(strPtr("role-ga"))
	ga.SetDisplayName(strPtr("Global Administrator"))
	ga.SetIsBuiltIn(boolPtr(true))
	ga.SetTemplateId(strPtr("62e90394-69f5-4237-9190-012177145e10"))

	exo := graphmodels.NewUnifiedRoleDefinition()
	exo.SetId(strPtr("role-exo"))
	exo.SetDisplayName(strPtr("Exchange Administrator"))
	exo.SetIsBuiltIn(boolPtr(true))

	defs := adapt.UnifiedRoleDefinitions(
		[]graphmodels.UnifiedRoleDefinitionable{ga, exo, nil},
		types.ServiceAzureAD, classifier,
	)

	require.Len(t, defs, 2)
	assert.Equal(t, types.ScopeOverarching, defs["role-ga"].Scope)
	assert.Equal(t, types.ScopeServiceSpecific, defs["role-exo"].Scope)
	assert.True(t, defs["role-ga"].BuiltIn)
	assert.Equal(t, types.ServiceAzureAD, defs["role-ga"].Service)
}

func TestRawAdapter(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	raws := []adapt.RawAssignment{
		{AssignmentID: "rg-1", PrincipalID: "user-1", RoleID: "Organization Management", Scope: "contoso.onmicrosoft.com"},
		{PrincipalID: "", RoleID: "Organization Management"}, // malformed
		{AssignmentID: "rg-2", PrincipalID: "user-2", RoleID: "Recipient Management", PIMStart: &start},
	}

	active, skipped := adapt.Raw(raws[:2], types.SourceActive)
	require.Len(t, active, 1)
	assert.Equal(t, 1, skipped)
	assert.Nil(t, active[0].PimWindow)

	eligible, _ := adapt.Raw(raws[2:], types.SourcePIMEligible)
	require.Len(t, eligible, 1)
	require.NotNil(t, eligible[0].PimWindow)
	assert.Equal(t, start, *eligible[0].PimWindow.Start)
}

func TestRawRoleDefinitions(t *testing.T) {
	classifier := scope.NewClassifier()

	defs := adapt.RawRoleDefinitions([]adapt.RawRoleDefinition{
		{ID: "om", Name: "Organization Management", BuiltIn: true},
		{ID: "", Name: "ignored"},
	}, types.ServiceExchange, classifier)

	require.Len(t, defs, 1)
	assert.Equal(t, types.ServiceExchange, defs["om"].Service)
	assert.Equal(t, types.ScopeServiceSpecific, defs["om"].Scope)
}

func boolPtr(b bool) *bool { return &b }
