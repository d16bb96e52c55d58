package outputters

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/praetorian-inc/rolecall/internal/message"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// CSVFileOutputter writes two CSVs: one row per assignment record and,
// when findings exist, one row per compliance gap.
type CSVFileOutputter struct {
	OutputPath string
	FileName   string
}

func NewCSVFileOutputter(outputPath string) *CSVFileOutputter {
	return &CSVFileOutputter{OutputPath: outputPath}
}

func (o *CSVFileOutputter) Write(result *types.AuditResult) error {
	base := o.FileName
	if base == "" {
		base = DefaultFileName("rolecall-audit", "csv")
	}

	if err := o.writeRecords(result, base); err != nil {
		return err
	}
	if len(result.Findings) > 0 {
		findingsName := strings.TrimSuffix(base, ".csv") + "-findings.csv"
		if err := o.writeFindings(result, findingsName); err != nil {
			return err
		}
	}
	return nil
}

func (o *CSVFileOutputter) writeRecords(result *types.AuditResult, filename string) error {
	fullpath := GetFullPath(filename, o.OutputPath)
	if err := ensureDir(fullpath); err != nil {
		return err
	}

	file, err := os.Create(fullpath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Service", "Role", "Role Scope", "Principal", "UPN",
		"Principal Type", "Assignment Type", "Assigned At", "Scope",
		"PIM Window Start", "PIM Window End",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range result.Records {
		var pimStart, pimEnd string
		if rec.PimWindow != nil {
			pimStart = formatTime(rec.PimWindow.Start)
			pimEnd = formatTime(rec.PimWindow.End)
		}
		row := []string{
			string(rec.Service),
			rec.Role.DisplayName,
			string(rec.Role.Scope),
			rec.Principal.DisplayName,
			rec.Principal.UserPrincipalName,
			string(rec.Principal.Kind),
			rec.SourceLabel,
			formatTime(rec.AssignedAt),
			rec.ScopeDescriptor,
			pimStart,
			pimEnd,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	message.Success("Output written to %s", fullpath)
	return nil
}

func (o *CSVFileOutputter) writeFindings(result *types.AuditResult, filename string) error {
	fullpath := GetFullPath(filename, o.OutputPath)
	if err := ensureDir(fullpath); err != nil {
		return err
	}

	file, err := os.Create(fullpath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Severity", "Category", "Issue", "Details",
		"Affected Principals", "Frameworks", "Recommendation",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, finding := range result.Findings {
		row := []string{
			string(finding.Severity),
			finding.Category,
			finding.Issue,
			finding.Details,
			strings.Join(finding.AffectedPrincipals, "; "),
			strings.Join(finding.Frameworks, "; "),
			finding.Recommendation,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	message.Success("Output written to %s", fullpath)
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
