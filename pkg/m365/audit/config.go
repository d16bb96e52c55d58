package audit

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/praetorian-inc/rolecall/pkg/m365/compliance"
	"github.com/praetorian-inc/rolecall/pkg/m365/normalize"
	"github.com/praetorian-inc/rolecall/pkg/m365/scope"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// Config replaces the scattered per-service knobs with one explicit
// struct. All fields have working defaults; a YAML file can override any
// of them.
type Config struct {
	Services              []types.Service       `yaml:"services"`
	OverarchingRoles      []string              `yaml:"overarchingRoles"`
	DedupeMode            normalize.DedupeMode  `yaml:"dedupeMode"`
	PreferServiceSpecific bool                  `yaml:"preferServiceSpecific"`
	TopN                  int                   `yaml:"topN"`
	Thresholds            compliance.Thresholds `yaml:"thresholds"`
}

// DefaultConfig audits every service with deduplication off; the
// overarching filter makes dedupe unnecessary in the default flow.
func DefaultConfig() Config {
	return Config{
		Services:         append([]types.Service(nil), types.AllServices...),
		OverarchingRoles: scope.DefaultOverarchingRoles(),
		DedupeMode:       normalize.DedupeNone,
		TopN:             10,
		Thresholds:       compliance.DefaultThresholds(),
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate catches configuration errors up front; these are fatal,
// unlike the per-record tolerance elsewhere.
func (c Config) Validate() error {
	if _, err := normalize.ParseDedupeMode(string(c.DedupeMode)); err != nil {
		return err
	}
	for _, s := range c.Services {
		if !validService(s) {
			return fmt.Errorf("unknown service %q", s)
		}
	}
	return nil
}

// ParseServices maps user-supplied service names (case-insensitive) to
// the Service enum.
func ParseServices(names []string) ([]types.Service, error) {
	services := make([]types.Service, 0, len(names))
	for _, name := range names {
		matched := false
		for _, s := range types.AllServices {
			if strings.EqualFold(strings.TrimSpace(name), string(s)) {
				services = append(services, s)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("unknown service %q", name)
		}
	}
	return services, nil
}

func validService(service types.Service) bool {
	for _, s := range types.AllServices {
		if s == service {
			return true
		}
	}
	return false
}
