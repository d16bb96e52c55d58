package graphclient

import (
	"context"

	"github.com/microsoftgraph/msgraph-sdk-go/groups"
	graphmodels "github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/serviceprincipals"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"github.com/praetorian-inc/rolecall/pkg/m365/resolve"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// Lookups returns the resolver strategies backed by this client. Graph
// errors (including 404s for the wrong object type) surface as lookup
// errors, which the resolver treats as "not found".
func (c *Client) Lookups() resolve.Lookups {
	return resolve.Lookups{
		User:             c.lookupUser,
		ServicePrincipal: c.lookupServicePrincipal,
		Group:            c.lookupGroup,
		DirectoryObject:  c.lookupDirectoryObject,
	}
}

func (c *Client) lookupUser(ctx context.Context, id string) (*types.Principal, error) {
	requestConfig := &users.UserItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.UserItemRequestBuilderGetQueryParameters{
			Select: []string{
				"id", "displayName", "userPrincipalName",
				"accountEnabled", "onPremisesSyncEnabled", "signInActivity",
			},
		},
	}

	user, err := c.graph.Users().ByUserId(id).Get(ctx, requestConfig)
	if err != nil {
		return nil, err
	}
	return userPrincipal(user), nil
}

func (c *Client) lookupGroup(ctx context.Context, id string) (*types.Principal, error) {
	requestConfig := &groups.GroupItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &groups.GroupItemRequestBuilderGetQueryParameters{
			Select: []string{"id", "displayName", "mail", "onPremisesSyncEnabled"},
		},
	}

	group, err := c.graph.Groups().ByGroupId(id).Get(ctx, requestConfig)
	if err != nil {
		return nil, err
	}
	return groupPrincipal(group), nil
}

func (c *Client) lookupServicePrincipal(ctx context.Context, id string) (*types.Principal, error) {
	requestConfig := &serviceprincipals.ServicePrincipalItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &serviceprincipals.ServicePrincipalItemRequestBuilderGetQueryParameters{
			Select: []string{
				"id", "displayName", "appId", "accountEnabled",
				"passwordCredentials", "keyCredentials",
			},
		},
	}

	sp, err := c.graph.ServicePrincipals().ByServicePrincipalId(id).Get(ctx, requestConfig)
	if err != nil {
		return nil, err
	}
	return servicePrincipalPrincipal(sp), nil
}

// lookupDirectoryObject is the generic fallback; the concrete type comes
// back on the wire via the odata discriminator.
func (c *Client) lookupDirectoryObject(ctx context.Context, id string) (*types.Principal, error) {
	obj, err := c.graph.DirectoryObjects().ByDirectoryObjectId(id).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	switch v := obj.(type) {
	case graphmodels.Userable:
		return userPrincipal(v), nil
	case graphmodels.ServicePrincipalable:
		return servicePrincipalPrincipal(v), nil
	case graphmodels.Groupable:
		return groupPrincipal(v), nil
	default:
		return &types.Principal{
			ID:   stringValue(obj.GetId()),
			Kind: types.KindUnknown,
		}, nil
	}
}

func userPrincipal(user graphmodels.Userable) *types.Principal {
	p := &types.Principal{
		ID:                stringValue(user.GetId()),
		Kind:              types.KindUser,
		DisplayName:       stringValue(user.GetDisplayName()),
		UserPrincipalName: stringValue(user.GetUserPrincipalName()),
		Enabled:           user.GetAccountEnabled(),
		OnPremisesSynced:  user.GetOnPremisesSyncEnabled(),
	}
	if activity := user.GetSignInActivity(); activity != nil {
		p.LastSignIn = activity.GetLastSignInDateTime()
	}
	return p
}

func groupPrincipal(group graphmodels.Groupable) *types.Principal {
	return &types.Principal{
		ID:               stringValue(group.GetId()),
		Kind:             types.KindGroup,
		DisplayName:      stringValue(group.GetDisplayName()),
		OnPremisesSynced: group.GetOnPremisesSyncEnabled(),
	}
}

func servicePrincipalPrincipal(sp graphmodels.ServicePrincipalable) *types.Principal {
	p := &types.Principal{
		ID:          stringValue(sp.GetId()),
		Kind:        types.KindServicePrincipal,
		DisplayName: stringValue(sp.GetDisplayName()),
		Enabled:     sp.GetAccountEnabled(),
	}
	switch {
	case len(sp.GetPasswordCredentials()) > 0:
		p.CredentialType = types.CredentialClientSecret
	case len(sp.GetKeyCredentials()) > 0:
		p.CredentialType = types.CredentialCertificate
	}
	return p
}
