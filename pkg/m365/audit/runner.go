// Package audit orchestrates service passes: collection fans out per
// service, normalization runs sequentially against one shared
// principal-resolver cache, then aggregation and gap analysis run over
// the combined record set.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/rolecall/pkg/m365/compliance"
	"github.com/praetorian-inc/rolecall/pkg/m365/normalize"
	"github.com/praetorian-inc/rolecall/pkg/m365/resolve"
	"github.com/praetorian-inc/rolecall/pkg/m365/stats"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// ServiceSource supplies one service's role catalog and raw assignments,
// already adapted to the common shapes. Implementations live next to the
// API clients (pkg/m365/graphclient); tests supply fakes.
type ServiceSource interface {
	Service() types.Service
	RoleDefinitions(ctx context.Context) (map[string]types.RoleDefinition, error)
	// Assignments returns adapted assignments plus the count of malformed
	// inputs the adapter skipped.
	Assignments(ctx context.Context) ([]types.Assignment, int, error)
}

// Runner executes one audit run end to end. A Runner is reusable; each
// Run builds a fresh resolver cache.
type Runner struct {
	cfg     Config
	lookups resolve.Lookups
	sources []ServiceSource
	tenant  string
}

func NewRunner(cfg Config, lookups resolve.Lookups, sources ...ServiceSource) *Runner {
	return &Runner{cfg: cfg, lookups: lookups, sources: sources}
}

// SetTenantID records the tenant identifier for the report header.
func (r *Runner) SetTenantID(id string) { r.tenant = id }

type collected struct {
	source      ServiceSource
	defs        map[string]types.RoleDefinition
	assignments []types.Assignment
	skipped     int
	err         error
}

// Run collects, normalizes, aggregates, and analyzes. Configuration
// errors fail immediately; a single failing service pass is logged and
// skipped, never fatal to the run.
func (r *Runner) Run(ctx context.Context) (*types.AuditResult, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if len(r.sources) == 0 {
		return nil, fmt.Errorf("no service sources configured")
	}

	started := time.Now()
	result := &types.AuditResult{
		RunID:     uuid.NewString(),
		TenantID:  r.tenant,
		StartedAt: started,
	}

	wanted := make(map[types.Service]bool, len(r.cfg.Services))
	for _, s := range r.cfg.Services {
		wanted[s] = true
	}

	// Collection is the only I/O and is independent per service; fan out.
	passes := make([]collected, 0, len(r.sources))
	for _, source := range r.sources {
		if wanted[source.Service()] {
			passes = append(passes, collected{source: source})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range passes {
		g.Go(func() error {
			p := &passes[i]
			defs, err := p.source.RoleDefinitions(gctx)
			if err != nil {
				p.err = fmt.Errorf("collecting role definitions: %w", err)
				return nil
			}
			assignments, skipped, err := p.source.Assignments(gctx)
			if err != nil {
				p.err = fmt.Errorf("collecting assignments: %w", err)
				return nil
			}
			p.defs, p.assignments, p.skipped = defs, assignments, skipped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Normalization is sequential on purpose: every pass shares the
	// resolver cache built up by the passes before it.
	resolver := resolve.NewResolver(r.lookups)
	engine := normalize.NewEngine(resolver)

	var records []types.RoleAssignmentRecord
	for _, p := range passes {
		service := p.source.Service()
		if p.err != nil {
			slog.Warn("service pass failed, continuing without it", "service", service, "error", p.err)
			continue
		}

		unresolvedBefore := resolver.Unresolved()
		normalized := engine.Normalize(ctx, normalize.Input{
			Service:            service,
			Assignments:        p.assignments,
			RoleDefinitions:    p.defs,
			IncludeOverarching: service == types.ServiceAzureAD,
		})
		records = append(records, normalized.Records...)

		result.Passes = append(result.Passes, types.PassReport{
			Service:              service,
			CollectedAssignments: len(p.assignments),
			EmittedRecords:       len(normalized.Records),
			SkippedNoRoleDef:     normalized.SkippedNoRoleDef,
			SkippedOverarching:   normalized.SkippedOverarching,
			SkippedMalformed:     p.skipped,
			UnresolvedPrincipals: resolver.Unresolved() - unresolvedBefore,
		})
	}

	deduped, removed, err := normalize.Dedupe(records, normalize.DedupeOptions{
		Mode:                  r.cfg.DedupeMode,
		PreferServiceSpecific: r.cfg.PreferServiceSpecific,
	})
	if err != nil {
		return nil, err
	}

	result.Records = deduped
	result.DuplicatesRemoved = removed
	result.Statistics = stats.Aggregate(deduped, stats.Options{
		TopN:             r.cfg.TopN,
		GlobalAdminLimit: r.cfg.Thresholds.GlobalAdminLimit,
	})
	result.Findings = compliance.NewAnalyzer(r.cfg.Thresholds).Analyze(deduped, result.Statistics)
	result.CompletedAt = time.Now()

	return result, nil
}
