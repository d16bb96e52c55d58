package graphclient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	graphmodels "github.com/microsoftgraph/msgraph-sdk-go/models"

	"github.com/praetorian-inc/rolecall/pkg/m365/adapt"
	"github.com/praetorian-inc/rolecall/pkg/m365/scope"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// IntuneSource collects Intune RBAC role definitions and their
// assignments from the device management endpoint. Intune assignments
// bind a role to a member list, so each member flattens to one
// assignment record.
type IntuneSource struct {
	client     *Client
	classifier *scope.Classifier
}

func NewIntuneSource(client *Client, classifier *scope.Classifier) *IntuneSource {
	return &IntuneSource{client: client, classifier: classifier}
}

func (s *IntuneSource) Service() types.Service {
	return types.ServiceIntune
}

func (s *IntuneSource) RoleDefinitions(ctx context.Context) (map[string]types.RoleDefinition, error) {
	result, err := s.client.graph.DeviceManagement().RoleDefinitions().Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get Intune role definitions: %w", err)
	}

	raws := make([]adapt.RawRoleDefinition, 0, len(result.GetValue()))
	for _, def := range result.GetValue() {
		if def == nil {
			continue
		}
		raws = append(raws, adapt.RawRoleDefinition{
			ID:          stringValue(def.GetId()),
			Name:        stringValue(def.GetDisplayName()),
			Description: stringValue(def.GetDescription()),
			BuiltIn:     def.GetIsBuiltIn() != nil && *def.GetIsBuiltIn(),
		})
	}

	return adapt.RawRoleDefinitions(raws, types.ServiceIntune, s.classifier), nil
}

func (s *IntuneSource) Assignments(ctx context.Context) ([]types.Assignment, int, error) {
	defs, err := s.client.graph.DeviceManagement().RoleDefinitions().Get(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get Intune role definitions: %w", err)
	}

	var raws []adapt.RawAssignment
	for _, def := range defs.GetValue() {
		if def == nil || def.GetId() == nil {
			continue
		}
		defID := *def.GetId()

		assignments, err := s.client.graph.DeviceManagement().RoleDefinitions().
			ByRoleDefinitionId(defID).RoleAssignments().Get(ctx, nil)
		if err != nil {
			// Log but continue
			slog.Warn("failed to get Intune role assignments", "roleDefinitionId", defID, "error", err)
			continue
		}

		for _, assignment := range assignments.GetValue() {
			raws = append(raws, flattenIntuneAssignment(defID, assignment)...)
		}
	}

	adapted, skipped := adapt.Raw(raws, types.SourceActive)
	return adapted, skipped, nil
}

// flattenIntuneAssignment expands a role assignment's member list into
// one raw assignment per member.
func flattenIntuneAssignment(roleDefID string, assignment graphmodels.RoleAssignmentable) []adapt.RawAssignment {
	if assignment == nil {
		return nil
	}

	var members []string
	if withMembers, ok := assignment.(graphmodels.DeviceAndAppManagementRoleAssignmentable); ok {
		members = withMembers.GetMembers()
	}

	assignmentID := stringValue(assignment.GetId())
	scopeDescriptor := strings.Join(assignment.GetResourceScopes(), ",")

	raws := make([]adapt.RawAssignment, 0, len(members))
	for _, member := range members {
		raws = append(raws, adapt.RawAssignment{
			AssignmentID: assignmentID + "/" + member,
			PrincipalID:  member,
			RoleID:       roleDefID,
			Scope:        scopeDescriptor,
		})
	}
	return raws
}
