package types

import "time"

// Service identifies the Microsoft 365 workload a role assignment was
// collected from.
type Service string

const (
	ServiceAzureAD       Service = "AzureAD"
	ServiceExchange      Service = "Exchange"
	ServiceSharePoint    Service = "SharePoint"
	ServiceTeams         Service = "Teams"
	ServiceDefender      Service = "Defender"
	ServiceIntune        Service = "Intune"
	ServicePurview       Service = "Purview"
	ServicePowerPlatform Service = "PowerPlatform"
)

// AllServices lists every auditable service in display order.
var AllServices = []Service{
	ServiceAzureAD,
	ServiceExchange,
	ServiceSharePoint,
	ServiceTeams,
	ServiceDefender,
	ServiceIntune,
	ServicePurview,
	ServicePowerPlatform,
}

// PrincipalKind distinguishes directory object types that can hold a role.
type PrincipalKind string

const (
	KindUser             PrincipalKind = "User"
	KindGroup            PrincipalKind = "Group"
	KindServicePrincipal PrincipalKind = "ServicePrincipal"
	KindUnknown          PrincipalKind = "Unknown"
)

// AssignmentSource records how a role assignment was granted. Permanent
// assignments carry higher standing risk than PIM-eligible ones.
type AssignmentSource string

const (
	SourceActive      AssignmentSource = "Active"
	SourcePIMEligible AssignmentSource = "PIMEligible"
	SourcePIMActive   AssignmentSource = "PIMActive"
)

// Label returns the display label used in reports.
func (s AssignmentSource) Label() string {
	switch s {
	case SourcePIMEligible:
		return "Eligible (PIM)"
	case SourcePIMActive:
		return "Active (PIM)"
	default:
		return "Active"
	}
}

// RoleScope classifies whether a role's privilege is tenant-wide or bound
// to a single workload.
type RoleScope string

const (
	ScopeOverarching     RoleScope = "Overarching"
	ScopeServiceSpecific RoleScope = "ServiceSpecific"
)

// CredentialType tags how a service principal authenticates, when known.
type CredentialType string

const (
	CredentialUnknown      CredentialType = ""
	CredentialCertificate  CredentialType = "Certificate"
	CredentialClientSecret CredentialType = "ClientSecret"
)

// Principal is a directory entity that holds one or more role assignments.
// It is resolved once per audit run and immutable afterwards.
type Principal struct {
	ID                string         `json:"id"`
	Kind              PrincipalKind  `json:"kind"`
	DisplayName       string         `json:"displayName"`
	UserPrincipalName string         `json:"userPrincipalName,omitempty"`
	Enabled           *bool          `json:"enabled,omitempty"`
	OnPremisesSynced  *bool          `json:"onPremisesSynced,omitempty"`
	LastSignIn        *time.Time     `json:"lastSignIn,omitempty"`
	CredentialType    CredentialType `json:"credentialType,omitempty"`
}

// RoleDefinition is a named privilege in one service's role catalog.
type RoleDefinition struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"displayName"`
	Description    string    `json:"description,omitempty"`
	Service        Service   `json:"service"`
	Scope          RoleScope `json:"scope"`
	BuiltIn        bool      `json:"builtIn"`
	RoleTemplateID string    `json:"roleTemplateId,omitempty"`
}

// PimWindow is the activation window attached to PIM schedule instances.
type PimWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Assignment is the common intermediate shape every service adapter
// produces from its native API objects, before normalization.
type Assignment struct {
	PrincipalID        string           `json:"principalId"`
	RoleDefinitionID   string           `json:"roleDefinitionId"`
	Source             AssignmentSource `json:"source"`
	AssignedAt         *time.Time       `json:"assignedAt,omitempty"`
	ScopeDescriptor    string           `json:"scopeDescriptor,omitempty"`
	SourceAssignmentID string           `json:"sourceAssignmentId"`
	PimWindow          *PimWindow       `json:"pimWindow,omitempty"`
}

// RoleAssignmentRecord is the canonical, self-contained audit record. The
// embedded principal and role are copies, not live references, so every
// record serializes independently.
type RoleAssignmentRecord struct {
	Service            Service          `json:"service"`
	Principal          Principal        `json:"principal"`
	Role               RoleDefinition   `json:"role"`
	Source             AssignmentSource `json:"assignmentSource"`
	SourceLabel        string           `json:"assignmentSourceLabel"`
	AssignedAt         *time.Time       `json:"assignedAt,omitempty"`
	ScopeDescriptor    string           `json:"scopeDescriptor,omitempty"`
	PimWindow          *PimWindow       `json:"pimWindow,omitempty"`
	SourceAssignmentID string           `json:"sourceAssignmentId"`
}
