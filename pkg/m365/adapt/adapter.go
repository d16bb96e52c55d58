// Package adapt maps service-native role assignment objects into the
// common Assignment shape consumed by the normalization engine. Adapters
// are pure and tolerate partial data: optional fields default to empty,
// and assignments missing a principal or role reference are skipped and
// counted rather than failing the run.
package adapt

import (
	"time"

	graphmodels "github.com/microsoftgraph/msgraph-sdk-go/models"

	"github.com/praetorian-inc/rolecall/pkg/m365/scope"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// UnifiedRoleAssignments adapts Entra ID unifiedRoleAssignment objects.
// These are permanent assignments, so the source is always Active and no
// PIM window applies.
func UnifiedRoleAssignments(values []graphmodels.UnifiedRoleAssignmentable) ([]types.Assignment, int) {
	assignments := make([]types.Assignment, 0, len(values))
	skipped := 0

	for _, v := range values {
		if v == nil {
			skipped++
			continue
		}
		principalID := stringValue(v.GetPrincipalId())
		roleID := stringValue(v.GetRoleDefinitionId())
		if principalID == "" || roleID == "" {
			skipped++
			continue
		}
		assignments = append(assignments, types.Assignment{
			PrincipalID:        principalID,
			RoleDefinitionID:   roleID,
			Source:             types.SourceActive,
			ScopeDescriptor:    stringValue(v.GetDirectoryScopeId()),
			SourceAssignmentID: stringValue(v.GetId()),
		})
	}

	return assignments, skipped
}

// EligibilityScheduleInstances adapts PIM eligibility schedule instances.
// The activation window comes from the schedule's start and end times;
// either may be absent for open-ended eligibility.
func EligibilityScheduleInstances(values []graphmodels.UnifiedRoleEligibilityScheduleInstanceable) ([]types.Assignment, int) {
	assignments := make([]types.Assignment, 0, len(values))
	skipped := 0

	for _, v := range values {
		if v == nil {
			skipped++
			continue
		}
		principalID := stringValue(v.GetPrincipalId())
		roleID := stringValue(v.GetRoleDefinitionId())
		if principalID == "" || roleID == "" {
			skipped++
			continue
		}
		assignments = append(assignments, types.Assignment{
			PrincipalID:        principalID,
			RoleDefinitionID:   roleID,
			Source:             types.SourcePIMEligible,
			AssignedAt:         v.GetStartDateTime(),
			ScopeDescriptor:    stringValue(v.GetDirectoryScopeId()),
			SourceAssignmentID: stringValue(v.GetId()),
			PimWindow:          pimWindow(v.GetStartDateTime(), v.GetEndDateTime()),
		})
	}

	return assignments, skipped
}

// AssignmentScheduleInstances adapts PIM assignment schedule instances.
// An "Activated" instance is a PIM activation in progress; anything else
// is a standing assignment surfaced through the PIM API.
func AssignmentScheduleInstances(values []graphmodels.UnifiedRoleAssignmentScheduleInstanceable) ([]types.Assignment, int) {
	assignments := make([]types.Assignment, 0, len(values))
	skipped := 0

	for _, v := range values {
		if v == nil {
			skipped++
			continue
		}
		principalID := stringValue(v.GetPrincipalId())
		roleID := stringValue(v.GetRoleDefinitionId())
		if principalID == "" || roleID == "" {
			skipped++
			continue
		}

		assignment := types.Assignment{
			PrincipalID:        principalID,
			RoleDefinitionID:   roleID,
			Source:             types.SourceActive,
			AssignedAt:         v.GetStartDateTime(),
			ScopeDescriptor:    stringValue(v.GetDirectoryScopeId()),
			SourceAssignmentID: stringValue(v.GetId()),
		}
		if stringValue(v.GetAssignmentType()) == "Activated" {
			assignment.Source = types.SourcePIMActive
			assignment.PimWindow = pimWindow(v.GetStartDateTime(), v.GetEndDateTime())
		}
		assignments = append(assignments, assignment)
	}

	return assignments, skipped
}

// UnifiedRoleDefinitions adapts Entra ID role definitions into the common
// catalog shape, classifying each with the scope classifier.
func UnifiedRoleDefinitions(values []graphmodels.UnifiedRoleDefinitionable, service types.Service, classifier *scope.Classifier) map[string]types.RoleDefinition {
	defs := make(map[string]types.RoleDefinition, len(values))

	for _, v := range values {
		if v == nil {
			continue
		}
		id := stringValue(v.GetId())
		if id == "" {
			continue
		}
		displayName := stringValue(v.GetDisplayName())
		defs[id] = types.RoleDefinition{
			ID:             id,
			DisplayName:    displayName,
			Description:    stringValue(v.GetDescription()),
			Service:        service,
			Scope:          classifier.Classify(displayName, service),
			BuiltIn:        boolValue(v.GetIsBuiltIn()),
			RoleTemplateID: stringValue(v.GetTemplateId()),
		}
	}

	return defs
}

// RawAssignment is the seam for services audited through non-Graph
// management endpoints (Exchange role groups, SharePoint site collection
// admins, Teams policies, and the rest). Every field except PrincipalID
// and RoleID is optional.
type RawAssignment struct {
	AssignmentID string     `json:"assignmentId,omitempty"`
	PrincipalID  string     `json:"principalId"`
	RoleID       string     `json:"roleId"`
	AssignedAt   *time.Time `json:"assignedAt,omitempty"`
	Scope        string     `json:"scope,omitempty"`
	PIMStart     *time.Time `json:"pimStart,omitempty"`
	PIMEnd       *time.Time `json:"pimEnd,omitempty"`
}

// RawRoleDefinition is the matching seam for non-Graph role catalogs.
type RawRoleDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BuiltIn     bool   `json:"builtIn"`
}

// Raw adapts generic raw assignments with the given source kind. PIM
// window fields are only honored for PIM source kinds; Active assignments
// never carry a window.
func Raw(raws []RawAssignment, source types.AssignmentSource) ([]types.Assignment, int) {
	assignments := make([]types.Assignment, 0, len(raws))
	skipped := 0

	for _, r := range raws {
		if r.PrincipalID == "" || r.RoleID == "" {
			skipped++
			continue
		}
		assignment := types.Assignment{
			PrincipalID:        r.PrincipalID,
			RoleDefinitionID:   r.RoleID,
			Source:             source,
			AssignedAt:         r.AssignedAt,
			ScopeDescriptor:    r.Scope,
			SourceAssignmentID: r.AssignmentID,
		}
		if source == types.SourcePIMEligible || source == types.SourcePIMActive {
			assignment.PimWindow = pimWindow(r.PIMStart, r.PIMEnd)
		}
		assignments = append(assignments, assignment)
	}

	return assignments, skipped
}

// RawRoleDefinitions adapts a non-Graph role catalog.
func RawRoleDefinitions(raws []RawRoleDefinition, service types.Service, classifier *scope.Classifier) map[string]types.RoleDefinition {
	defs := make(map[string]types.RoleDefinition, len(raws))

	for _, r := range raws {
		if r.ID == "" {
			continue
		}
		defs[r.ID] = types.RoleDefinition{
			ID:          r.ID,
			DisplayName: r.Name,
			Description: r.Description,
			Service:     service,
			Scope:       classifier.Classify(r.Name, service),
			BuiltIn:     r.BuiltIn,
		}
	}

	return defs
}

func pimWindow(start, end *time.Time) *types.PimWindow {
	if start == nil && end == nil {
		return nil
	}
	return &types.PimWindow{Start: start, End: end}
}

// Helper functions
func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func boolValue(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
