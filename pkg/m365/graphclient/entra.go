package graphclient

import (
	"context"
	"fmt"
	"log/slog"

	msgraphcore "github.com/microsoftgraph/msgraph-sdk-go-core"
	graphmodels "github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/rolemanagement"

	"github.com/praetorian-inc/rolecall/pkg/m365/adapt"
	"github.com/praetorian-inc/rolecall/pkg/m365/scope"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// EntraSource collects Entra ID directory role definitions plus the
// three assignment flavors: permanent assignments, PIM eligibility
// schedules, and PIM assignment schedules. It is the one pass that runs
// with overarching roles included.
type EntraSource struct {
	client     *Client
	classifier *scope.Classifier
}

func NewEntraSource(client *Client, classifier *scope.Classifier) *EntraSource {
	return &EntraSource{client: client, classifier: classifier}
}

func (s *EntraSource) Service() types.Service {
	return types.ServiceAzureAD
}

func (s *EntraSource) RoleDefinitions(ctx context.Context) (map[string]types.RoleDefinition, error) {
	requestConfig := &rolemanagement.DirectoryRoleDefinitionsRequestBuilderGetRequestConfiguration{
		QueryParameters: &rolemanagement.DirectoryRoleDefinitionsRequestBuilderGetQueryParameters{
			Top: int32Ptr(999),
		},
	}

	result, err := s.client.graph.RoleManagement().Directory().RoleDefinitions().Get(ctx, requestConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to get role definitions: %w", err)
	}

	var defs []graphmodels.UnifiedRoleDefinitionable
	pageIterator, err := msgraphcore.NewPageIterator[graphmodels.UnifiedRoleDefinitionable](
		result, s.client.graph.GetAdapter(),
		graphmodels.CreateUnifiedRoleDefinitionCollectionResponseFromDiscriminatorValue)
	if err != nil {
		return nil, fmt.Errorf("failed to create page iterator: %w", err)
	}
	err = pageIterator.Iterate(ctx, func(def graphmodels.UnifiedRoleDefinitionable) bool {
		defs = append(defs, def)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate role definitions: %w", err)
	}

	return adapt.UnifiedRoleDefinitions(defs, types.ServiceAzureAD, s.classifier), nil
}

func (s *EntraSource) Assignments(ctx context.Context) ([]types.Assignment, int, error) {
	permanent, skippedPermanent, err := s.permanentAssignments(ctx)
	if err != nil {
		return nil, 0, err
	}

	// PIM endpoints require an Entra ID P2 license. A tenant without one
	// still has a valid audit; log and carry on with permanent data.
	eligible, skippedEligible, err := s.eligibilitySchedules(ctx)
	if err != nil {
		slog.Warn("skipping PIM eligibility schedules", "error", err)
		eligible, skippedEligible = nil, 0
	}
	scheduled, skippedScheduled, err := s.assignmentSchedules(ctx)
	if err != nil {
		slog.Warn("skipping PIM assignment schedules", "error", err)
		scheduled, skippedScheduled = nil, 0
	}

	assignments := make([]types.Assignment, 0, len(permanent)+len(eligible)+len(scheduled))
	assignments = append(assignments, permanent...)
	assignments = append(assignments, eligible...)
	assignments = append(assignments, scheduled...)
	return assignments, skippedPermanent + skippedEligible + skippedScheduled, nil
}

func (s *EntraSource) permanentAssignments(ctx context.Context) ([]types.Assignment, int, error) {
	result, err := s.client.graph.RoleManagement().Directory().RoleAssignments().Get(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get role assignments: %w", err)
	}

	var values []graphmodels.UnifiedRoleAssignmentable
	pageIterator, err := msgraphcore.NewPageIterator[graphmodels.UnifiedRoleAssignmentable](
		result, s.client.graph.GetAdapter(),
		graphmodels.CreateUnifiedRoleAssignmentCollectionResponseFromDiscriminatorValue)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create page iterator: %w", err)
	}
	err = pageIterator.Iterate(ctx, func(v graphmodels.UnifiedRoleAssignmentable) bool {
		values = append(values, v)
		return true
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to iterate role assignments: %w", err)
	}

	assignments, skipped := adapt.UnifiedRoleAssignments(values)
	return assignments, skipped, nil
}

func (s *EntraSource) eligibilitySchedules(ctx context.Context) ([]types.Assignment, int, error) {
	result, err := s.client.graph.RoleManagement().Directory().RoleEligibilityScheduleInstances().Get(ctx, nil)
	if err != nil {
		return nil, 0, err
	}

	var values []graphmodels.UnifiedRoleEligibilityScheduleInstanceable
	pageIterator, err := msgraphcore.NewPageIterator[graphmodels.UnifiedRoleEligibilityScheduleInstanceable](
		result, s.client.graph.GetAdapter(),
		graphmodels.CreateUnifiedRoleEligibilityScheduleInstanceCollectionResponseFromDiscriminatorValue)
	if err != nil {
		return nil, 0, err
	}
	err = pageIterator.Iterate(ctx, func(v graphmodels.UnifiedRoleEligibilityScheduleInstanceable) bool {
		values = append(values, v)
		return true
	})
	if err != nil {
		return nil, 0, err
	}

	assignments, skipped := adapt.EligibilityScheduleInstances(values)
	return assignments, skipped, nil
}

func (s *EntraSource) assignmentSchedules(ctx context.Context) ([]types.Assignment, int, error) {
	result, err := s.client.graph.RoleManagement().Directory().RoleAssignmentScheduleInstances().Get(ctx, nil)
	if err != nil {
		return nil, 0, err
	}

	var values []graphmodels.UnifiedRoleAssignmentScheduleInstanceable
	pageIterator, err := msgraphcore.NewPageIterator[graphmodels.UnifiedRoleAssignmentScheduleInstanceable](
		result, s.client.graph.GetAdapter(),
		graphmodels.CreateUnifiedRoleAssignmentScheduleInstanceCollectionResponseFromDiscriminatorValue)
	if err != nil {
		return nil, 0, err
	}
	err = pageIterator.Iterate(ctx, func(v graphmodels.UnifiedRoleAssignmentScheduleInstanceable) bool {
		values = append(values, v)
		return true
	})
	if err != nil {
		return nil, 0, err
	}

	assignments, skipped := adapt.AssignmentScheduleInstances(values)
	return assignments, skipped, nil
}
