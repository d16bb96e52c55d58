package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/rolecall/internal/message"
	"github.com/praetorian-inc/rolecall/pkg/m365/audit"
	"github.com/praetorian-inc/rolecall/pkg/m365/graphclient"
	"github.com/praetorian-inc/rolecall/pkg/m365/normalize"
	"github.com/praetorian-inc/rolecall/pkg/m365/resolve"
	"github.com/praetorian-inc/rolecall/pkg/m365/scope"
	"github.com/praetorian-inc/rolecall/pkg/outputters"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

var (
	auditServices   []string
	auditDedupe     string
	auditPreferSvc  bool
	auditTopN       int
	auditFormats    []string
	auditRawExports []string
	auditOffline    bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Collect and analyze administrative role assignments",
	Long: `Collects role assignments from Entra ID and Intune via Microsoft
Graph, merges raw-export files for the remaining services, and produces
normalized records, statistics, and compliance gap findings.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringSliceVar(&auditServices, "services", nil, "services to audit (default: all)")
	auditCmd.Flags().StringVar(&auditDedupe, "dedupe", "", "deduplication mode: none, strict, loose, service-preference, role-scoped")
	auditCmd.Flags().BoolVar(&auditPreferSvc, "prefer-service-specific", false, "with service-preference dedupe, keep the service-specific record")
	auditCmd.Flags().IntVar(&auditTopN, "top", 0, "number of entries in top-roles and top-principals rankings")
	auditCmd.Flags().StringSliceVar(&auditFormats, "format", []string{"summary", "json"}, "output formats: summary, json, csv, html")
	auditCmd.Flags().StringSliceVar(&auditRawExports, "raw-export", nil, "raw-export JSON files for services without Graph role APIs")
	auditCmd.Flags().BoolVar(&auditOffline, "offline", false, "skip Graph collection and use raw-export files only")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	message.Banner()

	cfg, err := loadAuditConfig()
	if err != nil {
		return err
	}

	classifier := scope.NewClassifier(cfg.OverarchingRoles...)

	var (
		sources []audit.ServiceSource
		lookups resolve.Lookups
		tenant  string
	)

	if !auditOffline {
		client, err := graphclient.NewClient(cmd.Context())
		if err != nil {
			return fmt.Errorf("connecting to Microsoft Graph: %w", err)
		}
		message.Success("Authenticated to tenant %s", client.TenantName)

		lookups = client.Lookups()
		tenant = client.TenantID
		sources = append(sources,
			graphclient.NewEntraSource(client, classifier),
			graphclient.NewIntuneSource(client, classifier),
		)
	}

	for _, path := range auditRawExports {
		source, err := graphclient.LoadRawSource(path, classifier)
		if err != nil {
			return fmt.Errorf("loading raw export %s: %w", filepath.Base(path), err)
		}
		sources = append(sources, source)
	}

	if len(sources) == 0 {
		return fmt.Errorf("nothing to audit: --offline requires at least one --raw-export file")
	}

	runner := audit.NewRunner(cfg, lookups, sources...)
	runner.SetTenantID(tenant)

	message.Info("Auditing %d service(s)", len(cfg.Services))
	result, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	for _, pass := range result.Passes {
		message.Info("%s: %d collected, %d emitted (%d unresolved principals)",
			pass.Service, pass.CollectedAssignments, pass.EmittedRecords, pass.UnresolvedPrincipals)
	}

	return writeOutputs(result)
}

func loadAuditConfig() (audit.Config, error) {
	cfg := audit.DefaultConfig()
	if cfgFile != "" {
		loaded, err := audit.LoadConfig(cfgFile)
		if err != nil {
			return audit.Config{}, err
		}
		cfg = loaded
	} else if home, err := os.UserHomeDir(); err == nil {
		// Implicit config is optional; only flag errors for an explicit one.
		if loaded, err := audit.LoadConfig(filepath.Join(home, ".rolecall.yaml")); err == nil {
			cfg = loaded
		}
	}

	if len(auditServices) > 0 {
		services, err := audit.ParseServices(auditServices)
		if err != nil {
			return audit.Config{}, err
		}
		cfg.Services = services
	}
	if auditDedupe != "" {
		mode, err := normalize.ParseDedupeMode(auditDedupe)
		if err != nil {
			return audit.Config{}, err
		}
		cfg.DedupeMode = mode
	}
	if auditPreferSvc {
		cfg.PreferServiceSpecific = true
	}
	if auditTopN > 0 {
		cfg.TopN = auditTopN
	}
	return cfg, cfg.Validate()
}

func writeOutputs(result *types.AuditResult) error {
	for _, format := range auditFormats {
		var out types.Outputter
		switch strings.ToLower(strings.TrimSpace(format)) {
		case "summary":
			out = outputters.NewSummaryConsoleOutputter()
		case "json":
			out = outputters.NewJSONFileOutputter(outputDir)
		case "csv":
			out = outputters.NewCSVFileOutputter(outputDir)
		case "html":
			out = outputters.NewHTMLReportOutputter(outputDir)
		default:
			return fmt.Errorf("unknown output format %q", format)
		}
		if err := out.Write(result); err != nil {
			return err
		}
	}
	return nil
}
