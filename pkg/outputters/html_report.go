package outputters

import (
	"fmt"
	"os"
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/praetorian-inc/rolecall/internal/message"
	"github.com/praetorian-inc/rolecall/pkg/types"
	"github.com/praetorian-inc/rolecall/version"
)

// HTMLReportOutputter renders the audit result as a single self-contained
// HTML page. No external assets: the report must open from a file share.
type HTMLReportOutputter struct {
	OutputPath string
	FileName   string
}

func NewHTMLReportOutputter(outputPath string) *HTMLReportOutputter {
	return &HTMLReportOutputter{OutputPath: outputPath}
}

func (o *HTMLReportOutputter) Write(result *types.AuditResult) error {
	filename := o.FileName
	if filename == "" {
		filename = DefaultFileName("rolecall-report", "html")
	}
	fullpath := GetFullPath(filename, o.OutputPath)

	if err := ensureDir(fullpath); err != nil {
		return err
	}

	file, err := os.Create(fullpath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := reportPage(result).Render(file); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}

	message.Success("Output written to %s", fullpath)
	return nil
}

const reportStyle = `
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 72rem; color: #1f2328; }
h1 { border-bottom: 2px solid #d0d7de; padding-bottom: .4rem; }
h2 { margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #d0d7de; padding: .4rem .7rem; text-align: left; font-size: .9rem; }
th { background: #f6f8fa; }
.meta { color: #656d76; font-size: .85rem; }
.cards { display: flex; gap: 1rem; flex-wrap: wrap; margin: 1rem 0; }
.card { border: 1px solid #d0d7de; border-radius: 6px; padding: .8rem 1.2rem; min-width: 10rem; }
.card .value { font-size: 1.6rem; font-weight: 600; }
.sev-Critical { color: #a40e26; font-weight: 600; }
.sev-High { color: #bc4c00; font-weight: 600; }
.sev-Medium { color: #9a6700; }
.sev-Low { color: #1a7f37; }
.finding { border-left: 4px solid #d0d7de; padding: .5rem 1rem; margin: 1rem 0; background: #f6f8fa; }
.finding.sev-border-Critical { border-left-color: #a40e26; }
.finding.sev-border-High { border-left-color: #bc4c00; }
.finding.sev-border-Medium { border-left-color: #9a6700; }
.finding.sev-border-Low { border-left-color: #1a7f37; }
`

func reportPage(result *types.AuditResult) Node {
	stats := result.Statistics

	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text("Rolecall Audit Report")),
			StyleEl(Raw(reportStyle)),
		),
		Body(
			H1(Text("M365 Administrative Role Audit")),
			P(Class("meta"),
				Text(fmt.Sprintf("Tenant %s · run %s · completed %s · %s",
					result.TenantID, result.RunID,
					result.CompletedAt.UTC().Format("2006-01-02 15:04 UTC"),
					version.FullVersion())),
			),
			summaryCards(result),
			distributionSection("Assignments by Service", "Service", stats.ByService),
			distributionSection("Assignments by Type", "Assignment Type", stats.ByAssignmentSource),
			topRolesSection(stats.TopRoles),
			topPrincipalsSection(stats.TopPrincipals),
			findingsSection(result.Findings),
			recordsSection(result.Records),
		),
	)
}

func summaryCards(result *types.AuditResult) Node {
	stats := result.Statistics
	card := func(label, value string) Node {
		return Div(Class("card"),
			Div(Class("value"), Text(value)),
			Div(Class("meta"), Text(label)),
		)
	}
	return Div(Class("cards"),
		card("Total assignments", strconv.Itoa(stats.TotalAssignments)),
		card("Unique principals", strconv.Itoa(stats.UniquePrincipals)),
		card("Global Administrators", strconv.Itoa(stats.GlobalAdminCount)),
		card("PIM adoption", fmt.Sprintf("%.1f%%", stats.PIMAdoptionRate)),
		card("Compliance gaps", strconv.Itoa(len(result.Findings))),
	)
}

func distributionSection(heading, keyHeader string, entries []types.DistributionEntry) Node {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]Node, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, Tr(
			Td(Text(entry.Key)),
			Td(Text(strconv.Itoa(entry.Count))),
			Td(Text(fmt.Sprintf("%.1f%%", entry.Percent))),
		))
	}
	return Group{
		H2(Text(heading)),
		Table(
			THead(Tr(Th(Text(keyHeader)), Th(Text("Count")), Th(Text("Percent")))),
			TBody(rows...),
		),
	}
}

func topRolesSection(roles []types.RoleRank) Node {
	if len(roles) == 0 {
		return nil
	}
	rows := make([]Node, 0, len(roles))
	for _, role := range roles {
		rows = append(rows, Tr(
			Td(Text(role.Role)),
			Td(Text(strconv.Itoa(role.Count))),
			Td(Class("sev-"+string(role.RiskLevel)), Text(string(role.RiskLevel))),
		))
	}
	return Group{
		H2(Text("Most-Assigned Roles")),
		Table(
			THead(Tr(Th(Text("Role")), Th(Text("Assignments")), Th(Text("Risk")))),
			TBody(rows...),
		),
	}
}

func topPrincipalsSection(principals []types.PrincipalRank) Node {
	if len(principals) == 0 {
		return nil
	}
	rows := make([]Node, 0, len(principals))
	for _, p := range principals {
		rows = append(rows, Tr(
			Td(Text(p.DisplayName)),
			Td(Text(p.UserPrincipalName)),
			Td(Text(strconv.Itoa(p.Count))),
		))
	}
	return Group{
		H2(Text("Principals With Most Roles")),
		Table(
			THead(Tr(Th(Text("Principal")), Th(Text("UPN")), Th(Text("Roles")))),
			TBody(rows...),
		),
	}
}

func findingsSection(findings []types.ComplianceGapFinding) Node {
	if len(findings) == 0 {
		return Group{
			H2(Text("Compliance Gaps")),
			P(Text("No compliance gaps identified.")),
		}
	}
	nodes := make([]Node, 0, len(findings))
	for _, finding := range findings {
		var frameworks Node
		if len(finding.Frameworks) > 0 {
			items := make([]Node, 0, len(finding.Frameworks))
			for _, fw := range finding.Frameworks {
				items = append(items, Li(Text(fw)))
			}
			frameworks = Ul(items...)
		}
		nodes = append(nodes, Div(Class("finding sev-border-"+string(finding.Severity)),
			P(
				Span(Class("sev-"+string(finding.Severity)), Text(string(finding.Severity))),
				Text(" — "+finding.Issue),
			),
			P(Text(finding.Details)),
			P(Class("meta"), Text("Recommendation: "+finding.Recommendation)),
			frameworks,
		))
	}
	return Group{
		H2(Text("Compliance Gaps")),
		Group(nodes),
	}
}

func recordsSection(records []types.RoleAssignmentRecord) Node {
	if len(records) == 0 {
		return nil
	}
	rows := make([]Node, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Tr(
			Td(Text(string(rec.Service))),
			Td(Text(rec.Role.DisplayName)),
			Td(Text(rec.Principal.DisplayName)),
			Td(Text(rec.Principal.UserPrincipalName)),
			Td(Text(string(rec.Principal.Kind))),
			Td(Text(rec.SourceLabel)),
			Td(Text(rec.ScopeDescriptor)),
		))
	}
	return Group{
		H2(Text("All Assignments")),
		Table(
			THead(Tr(
				Th(Text("Service")), Th(Text("Role")), Th(Text("Principal")),
				Th(Text("UPN")), Th(Text("Type")), Th(Text("Assignment")), Th(Text("Scope")),
			)),
			TBody(rows...),
		),
	}
}
