package outputters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/praetorian-inc/rolecall/internal/message"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// SummaryConsoleOutputter prints the aggregated statistics and compliance
// findings to the terminal as markdown tables.
type SummaryConsoleOutputter struct{}

func NewSummaryConsoleOutputter() *SummaryConsoleOutputter {
	return &SummaryConsoleOutputter{}
}

func (o *SummaryConsoleOutputter) Write(result *types.AuditResult) error {
	stats := result.Statistics

	message.Section("Audit Summary")
	message.Info("Tenant: %s", result.TenantID)
	message.Info("Total assignments: %d across %d unique principals", stats.TotalAssignments, stats.UniquePrincipals)
	if result.DuplicatesRemoved > 0 {
		message.Info("Duplicates removed: %d", result.DuplicatesRemoved)
	}
	message.Info("PIM adoption: %.1f%%", stats.PIMAdoptionRate)

	if len(stats.ByService) > 0 {
		fmt.Print(distributionTable("Assignments by Service", "Service", stats.ByService).ToString())
	}
	if len(stats.ByAssignmentSource) > 0 {
		fmt.Print(distributionTable("Assignments by Type", "Assignment Type", stats.ByAssignmentSource).ToString())
	}

	if len(stats.TopRoles) > 0 {
		table := types.MarkdownTable{
			TableHeading: "Most-Assigned Roles",
			Headers:      []string{"Role", "Assignments", "Risk"},
		}
		for _, role := range stats.TopRoles {
			table.Rows = append(table.Rows, []string{
				role.Role, strconv.Itoa(role.Count), string(role.RiskLevel),
			})
		}
		fmt.Print(table.ToString())
	}

	if len(stats.TopPrincipals) > 0 {
		table := types.MarkdownTable{
			TableHeading: "Principals With Most Roles",
			Headers:      []string{"Principal", "UPN", "Roles"},
		}
		for _, p := range stats.TopPrincipals {
			table.Rows = append(table.Rows, []string{
				p.DisplayName, p.UserPrincipalName, strconv.Itoa(p.Count),
			})
		}
		fmt.Print(table.ToString())
	}

	writeFindings(result.Findings)
	return nil
}

func writeFindings(findings []types.ComplianceGapFinding) {
	if len(findings) == 0 {
		message.Success("No compliance gaps identified")
		return
	}

	message.Section("Compliance Gaps")
	for _, finding := range findings {
		message.Finding("[%s] %s: %s", finding.Severity, finding.Issue, finding.Details)
		if len(finding.Frameworks) > 0 {
			message.Info("    Frameworks: %s", strings.Join(finding.Frameworks, ", "))
		}
		message.Info("    Recommendation: %s", finding.Recommendation)
	}
}

func distributionTable(heading, keyHeader string, entries []types.DistributionEntry) types.MarkdownTable {
	table := types.MarkdownTable{
		TableHeading: heading,
		Headers:      []string{keyHeader, "Count", "Percent"},
	}
	for _, entry := range entries {
		table.Rows = append(table.Rows, []string{
			entry.Key,
			strconv.Itoa(entry.Count),
			fmt.Sprintf("%.1f%%", entry.Percent),
		})
	}
	return table
}
