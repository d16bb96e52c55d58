package graphclient

import (
	"github.com/praetorian-inc/rolecall/internal/registry"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

func init() {
	registry.Register(types.ServiceAzureAD, "graph",
		"Entra ID directory roles, including PIM eligible and activated assignments")
	registry.Register(types.ServiceIntune, "graph",
		"Intune RBAC role assignments from the device management API")

	for _, service := range []types.Service{
		types.ServiceExchange,
		types.ServiceSharePoint,
		types.ServiceTeams,
		types.ServiceDefender,
		types.ServicePurview,
		types.ServicePowerPlatform,
	} {
		registry.Register(service, "external",
			"Raw-export file produced by the service's own admin tooling")
	}
}
