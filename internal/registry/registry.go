package registry

import (
	"sort"
	"sync"

	"github.com/praetorian-inc/rolecall/pkg/types"
)

// PassEntry describes one registered service pass.
type PassEntry struct {
	Service     types.Service
	Category    string // "graph" for Graph-backed collectors, "external" otherwise
	Description string
}

type PassRegistry struct {
	mu        sync.RWMutex
	passes    map[types.Service]PassEntry
	hierarchy map[string][]types.Service // category -> []service
}

var Registry = &PassRegistry{
	passes:    make(map[types.Service]PassEntry),
	hierarchy: make(map[string][]types.Service),
}

// Register adds a service pass to the registry. Passes self-register from
// their package init functions.
func Register(service types.Service, category, description string) {
	Registry.mu.Lock()
	defer Registry.mu.Unlock()

	Registry.passes[service] = PassEntry{
		Service:     service,
		Category:    category,
		Description: description,
	}
	Registry.hierarchy[category] = append(Registry.hierarchy[category], service)
}

// GetPass returns the registered entry for a service.
func GetPass(service types.Service) (PassEntry, bool) {
	Registry.mu.RLock()
	defer Registry.mu.RUnlock()

	entry, exists := Registry.passes[service]
	return entry, exists
}

// ListPasses returns all registered passes sorted by service name.
func ListPasses() []PassEntry {
	Registry.mu.RLock()
	defer Registry.mu.RUnlock()

	entries := make([]PassEntry, 0, len(Registry.passes))
	for _, entry := range Registry.passes {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Service < entries[j].Service
	})
	return entries
}

// ListCategories returns registered categories sorted alphabetically.
func ListCategories() []string {
	Registry.mu.RLock()
	defer Registry.mu.RUnlock()

	categories := make([]string, 0, len(Registry.hierarchy))
	for category := range Registry.hierarchy {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
