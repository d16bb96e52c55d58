package graphclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/praetorian-inc/rolecall/pkg/m365/adapt"
	"github.com/praetorian-inc/rolecall/pkg/m365/scope"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// RawExport is the on-disk format for services audited through non-Graph
// management endpoints (Exchange role groups, SharePoint site collection
// admins, Teams, Defender, Purview, Power Platform). Service-specific
// tooling exports this document; the audit loads it like any other
// source.
type RawExport struct {
	Metadata struct {
		CollectedAt string `json:"collectedAt,omitempty"`
		TenantID    string `json:"tenantId,omitempty"`
	} `json:"metadata"`
	Service         types.Service             `json:"service"`
	RoleDefinitions []adapt.RawRoleDefinition `json:"roleDefinitions"`
	Assignments     struct {
		Active      []adapt.RawAssignment `json:"active,omitempty"`
		PIMEligible []adapt.RawAssignment `json:"pimEligible,omitempty"`
		PIMActive   []adapt.RawAssignment `json:"pimActive,omitempty"`
	} `json:"assignments"`
}

// RawSource serves one service pass from an export document.
type RawSource struct {
	export     RawExport
	classifier *scope.Classifier
}

func NewRawSource(export RawExport, classifier *scope.Classifier) *RawSource {
	return &RawSource{export: export, classifier: classifier}
}

// LoadRawSource reads an export file and validates its service tag.
func LoadRawSource(path string, classifier *scope.Classifier) (*RawSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file '%s': %w", path, err)
	}

	var export RawExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse export file '%s': %w", path, err)
	}
	if export.Service == "" {
		return nil, fmt.Errorf("export file '%s' is missing a service tag", path)
	}

	return NewRawSource(export, classifier), nil
}

func (s *RawSource) Service() types.Service {
	return s.export.Service
}

func (s *RawSource) RoleDefinitions(ctx context.Context) (map[string]types.RoleDefinition, error) {
	return adapt.RawRoleDefinitions(s.export.RoleDefinitions, s.export.Service, s.classifier), nil
}

func (s *RawSource) Assignments(ctx context.Context) ([]types.Assignment, int, error) {
	active, skippedActive := adapt.Raw(s.export.Assignments.Active, types.SourceActive)
	eligible, skippedEligible := adapt.Raw(s.export.Assignments.PIMEligible, types.SourcePIMEligible)
	activated, skippedActivated := adapt.Raw(s.export.Assignments.PIMActive, types.SourcePIMActive)

	assignments := make([]types.Assignment, 0, len(active)+len(eligible)+len(activated))
	assignments = append(assignments, active...)
	assignments = append(assignments, eligible...)
	assignments = append(assignments, activated...)
	return assignments, skippedActive + skippedEligible + skippedActivated, nil
}
