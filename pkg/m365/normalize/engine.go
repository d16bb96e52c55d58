// Package normalize merges adapted assignments, role catalogs, and
// resolved principals into canonical RoleAssignmentRecord sets. One
// engine run handles one service pass; running the Entra ID pass with
// overarching roles included and every other pass with them excluded is
// what keeps tenant-wide roles from being counted once per service.
package normalize

import (
	"context"
	"log/slog"

	"github.com/praetorian-inc/rolecall/pkg/m365/resolve"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// Input is one service pass worth of adapted data.
type Input struct {
	Service            types.Service
	Assignments        []types.Assignment
	RoleDefinitions    map[string]types.RoleDefinition
	IncludeOverarching bool
}

// Result carries the emitted records plus skip counters for visibility.
// A bad record never aborts the pass.
type Result struct {
	Records            []types.RoleAssignmentRecord
	SkippedNoRoleDef   int
	SkippedOverarching int
}

// Engine builds canonical records using a per-run principal resolver.
type Engine struct {
	resolver *resolve.Resolver
}

func NewEngine(resolver *resolve.Resolver) *Engine {
	return &Engine{resolver: resolver}
}

// Normalize emits one record per adapted assignment that survives the
// role-definition lookup and the overarching filter.
func (e *Engine) Normalize(ctx context.Context, in Input) Result {
	result := Result{
		Records: make([]types.RoleAssignmentRecord, 0, len(in.Assignments)),
	}

	for _, assignment := range in.Assignments {
		role, ok := in.RoleDefinitions[assignment.RoleDefinitionID]
		if !ok {
			slog.Debug("skipping assignment with unknown role definition",
				"service", in.Service,
				"roleDefinitionId", assignment.RoleDefinitionID,
				"sourceAssignmentId", assignment.SourceAssignmentID)
			result.SkippedNoRoleDef++
			continue
		}

		if !in.IncludeOverarching && role.Scope == types.ScopeOverarching {
			// Tenant-wide roles are recorded once, by the Entra ID pass.
			result.SkippedOverarching++
			continue
		}

		principal := e.resolver.Resolve(ctx, assignment.PrincipalID)

		result.Records = append(result.Records, types.RoleAssignmentRecord{
			Service:            in.Service,
			Principal:          principal,
			Role:               role,
			Source:             assignment.Source,
			SourceLabel:        assignment.Source.Label(),
			AssignedAt:         assignment.AssignedAt,
			ScopeDescriptor:    assignment.ScopeDescriptor,
			PimWindow:          assignment.PimWindow,
			SourceAssignmentID: assignment.SourceAssignmentID,
		})
	}

	return result
}
